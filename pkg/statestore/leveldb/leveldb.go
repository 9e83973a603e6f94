// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package leveldb is the goleveldb backed state store of the lottery node.
package leveldb

import (
	"errors"
	"fmt"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ storage.StateStorer = (*Store)(nil)

// Store keeps state values in a leveldb database.
type Store struct {
	db     *leveldb.DB
	logger logging.Logger
}

// NewInMemory returns a store that keeps everything in memory and loses
// it on Close.
func NewInMemory(logger logging.Logger) (*Store, error) {
	db, err := leveldb.Open(ldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory leveldb: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// New opens the database at path, creating it if needed. A corrupted
// database is recovered once before giving up.
func New(path string, logger logging.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if ldberrors.IsCorrupted(err) {
		logger.Warningf("statestore: database at %s is corrupted, recovering: %v", path, err)
		db, err = leveldb.RecoverFile(path, nil)
		if err != nil {
			return nil, fmt.Errorf("recover leveldb %s: %w", path, err)
		}
		logger.Info("statestore: database recovered")
	}
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Get decodes the value under key into v. It returns storage.ErrNotFound
// for a missing key.
func (s *Store) Get(key string, v interface{}) error {
	data, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	return storage.Unmarshal(data, v)
}

func (s *Store) Put(key string, v interface{}) error {
	data, err := storage.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.Put([]byte(key), data, nil)
}

func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), nil)
}

// Iterate visits the entries under prefix in key order. The slices passed
// to fn are copies.
func (s *Store) Iterate(prefix string, fn storage.StateIterFunc) error {
	it := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	for it.Next() {
		key := append([]byte(nil), it.Key()...)
		value := append([]byte(nil), it.Value()...)
		stop, err := fn(key, value)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return it.Error()
}

func (s *Store) Close() error {
	return s.db.Close()
}
