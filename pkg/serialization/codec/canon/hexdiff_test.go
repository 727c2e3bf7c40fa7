package canon_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// requireBytesEqual fails with a unified diff of the hex dumps, which reads
// a lot better than testify's default output for wire-format mismatches.
func requireBytesEqual(t *testing.T, expected, actual []byte) {
	t.Helper()
	if bytes.Equal(expected, actual) {
		return
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(hex.Dump(expected)),
		B:        difflib.SplitLines(hex.Dump(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("building hex diff: %v", err)
	}
	t.Fatalf("encoded bytes mismatch:\n%s", text)
}
