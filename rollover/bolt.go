// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rollover

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("rollover")

// BoltStore is a Store backed by a local bbolt database file.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the bbolt database at fname.
func Open(fname string) (*BoltStore, error) {
	db, err := bbolt.Open(fname, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("rollover: could not open %q: %w", fname, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rollover: could not create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(ctx context.Context, key string) (State, error) {
	var st State
	if err := ctx.Err(); err != nil {
		return st, fmt.Errorf("rollover: could not load %q: %w", key, err)
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		return st.UnmarshalBinary(v)
	})
	if err != nil {
		return st, fmt.Errorf("rollover: could not load %q: %w", key, err)
	}
	return st, nil
}

func (s *BoltStore) Save(ctx context.Context, key string, st State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rollover: could not save %q: %w", key, err)
	}

	v, err := st.MarshalBinary()
	if err != nil {
		return fmt.Errorf("rollover: could not encode %q: %w", key, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), v)
	})
	if err != nil {
		return fmt.Errorf("rollover: could not save %q: %w", key, err)
	}
	return nil
}

var _ Store = (*BoltStore)(nil)
