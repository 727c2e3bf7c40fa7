package cas

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/canonform/canon/pkg/db"
	"github.com/canonform/canon/pkg/db/pebble"
	"github.com/canonform/canon/pkg/log"
	"github.com/canonform/canon/pkg/serialization/codec/canon"
)

// Hash is the blake2b-256 digest of a value's canonical encoding. Because
// the encoding is a pure function of the value, the digest is too: equal
// values always address the same object.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

var (
	// ErrCorruptObject means the stored bytes no longer hash to their key.
	ErrCorruptObject = errors.New("cas: stored object does not match its digest")
	// ErrNotFound means no object is stored under the requested digest.
	ErrNotFound = errors.New("cas: object not found")
)

// Store is a content-addressed object store: values are canonically encoded
// and persisted under the digest of their encoding.
type Store struct {
	db  db.KVStore
	log zerolog.Logger
}

func New(kv db.KVStore, logger zerolog.Logger) *Store {
	return &Store{db: kv, log: logger}
}

// NewDefault builds a store that logs through the package-level store
// logger configured by log.Init.
func NewDefault(kv db.KVStore) *Store {
	return New(kv, log.Store)
}

// Put encodes v canonically and stores it under its digest. Storing the
// same value twice writes the same key and is therefore idempotent.
func (s *Store) Put(v any) (Hash, error) {
	h, data, err := s.encode(v)
	if err != nil {
		return Hash{}, err
	}
	if err := s.db.Put(h[:], data); err != nil {
		return Hash{}, fmt.Errorf("cas: storing object %s: %w", h, err)
	}
	s.log.Debug().Stringer("hash", h).Int("size", len(data)).Msg("stored object")
	return h, nil
}

// PutAll stores several values in one atomic batch and returns their
// digests in argument order.
func (s *Store) PutAll(values ...any) ([]Hash, error) {
	batch := s.db.NewBatch()
	defer func() {
		if err := batch.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing batch")
		}
	}()

	hashes := make([]Hash, 0, len(values))
	for _, v := range values {
		h, data, err := s.encode(v)
		if err != nil {
			return nil, err
		}
		if err := batch.Put(h[:], data); err != nil {
			return nil, fmt.Errorf("cas: batching object %s: %w", h, err)
		}
		hashes = append(hashes, h)
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("cas: committing batch: %w", err)
	}
	return hashes, nil
}

// Get decodes the object stored under h into dst. The stored bytes are
// re-hashed before decoding so silent corruption surfaces as
// ErrCorruptObject instead of a misleading decode result.
func (s *Store) Get(h Hash, dst any) error {
	data, err := s.db.Get(h[:])
	if errors.Is(err, pebble.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("cas: loading object %s: %w", h, err)
	}

	if blake2b.Sum256(data) != h {
		return ErrCorruptObject
	}

	if err := canon.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("cas: decoding object %s: %w", h, err)
	}
	return nil
}

// Has reports whether an object is stored under h.
func (s *Store) Has(h Hash) (bool, error) {
	return s.db.Has(h[:])
}

// Hashes scans all stored digests in ascending byte order.
func (s *Store) Hashes() ([]Hash, error) {
	iter, err := s.db.NewIterator(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("cas: scanning objects: %w", err)
	}
	defer func() {
		if err := iter.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing iterator")
		}
	}()

	var hashes []Hash
	for iter.Next() {
		key := iter.Key()
		if len(key) != len(Hash{}) {
			continue
		}
		var h Hash
		copy(h[:], key)
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func (s *Store) encode(v any) (Hash, []byte, error) {
	data, err := canon.Marshal(v)
	if err != nil {
		return Hash{}, nil, fmt.Errorf("cas: encoding object: %w", err)
	}
	return blake2b.Sum256(data), data, nil
}
