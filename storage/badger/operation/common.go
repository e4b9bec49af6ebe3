package operation

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/quorumchain/bft/model/encoding"
	"github.com/quorumchain/bft/storage"
)

// upsert will encode the given entity with canonical CBOR and store the
// resulting binary data under the provided key, replacing any previous value.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		val, err := encoding.DefaultEncoder.Encode(entity)
		if err != nil {
			return fmt.Errorf("could not encode entity: %w", err)
		}

		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}
		return nil
	}
}

// insert will encode the given entity and store it under the provided key.
// It will error with storage.ErrAlreadyExists if the key already exists.
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key: %w", err)
		}
		return upsert(key, entity)(tx)
	}
}

// retrieve will retrieve the binary data under the given key from the badger DB
// and decode it into the given entity. The provided entity needs to be a
// pointer to an initialized entity of the correct type.
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("could not load data: %w", err)
		}

		err = item.Value(func(val []byte) error {
			return encoding.DefaultEncoder.Decode(val, entity)
		})
		if err != nil {
			return fmt.Errorf("could not decode entity: %w", err)
		}
		return nil
	}
}

// traverse calls handle for every value stored under prefix, in key order.
func traverse(prefix []byte, handle func(val []byte) error) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(handle)
			if err != nil {
				return fmt.Errorf("could not process entry %x: %w", it.Item().Key(), err)
			}
		}
		return nil
	}
}
