// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/camronh/Lottery-Tutorial/pkg/storage"
)

var _ storage.StateStorer = (*store)(nil)

// ErrInjected is returned by Put once a failure was requested with FailPuts.
var ErrInjected = errors.New("mock statestore: injected failure")

type store struct {
	store    map[string][]byte
	mtx      sync.RWMutex
	failPuts bool
}

// Store is the in-memory StateStorer with failure injection used in tests.
type Store interface {
	storage.StateStorer
	// FailPuts makes every following Put return ErrInjected while fail is
	// true.
	FailPuts(fail bool)
}

func NewStateStore() Store {
	return &store{
		store: make(map[string][]byte),
	}
}

func (s *store) FailPuts(fail bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.failPuts = fail
}

func (s *store) Get(key string, i interface{}) (err error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	data, ok := s.store[key]
	if !ok {
		return storage.ErrNotFound
	}

	return storage.Unmarshal(data, i)
}

func (s *store) Put(key string, i interface{}) (err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.failPuts {
		return ErrInjected
	}

	data, err := storage.Marshal(i)
	if err != nil {
		return err
	}
	s.store[key] = data
	return nil
}

func (s *store) Delete(key string) (err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.store, key)
	return nil
}

// Iterate visits keys in lexicographic order, like the leveldb store does.
func (s *store) Iterate(prefix string, iterFunc storage.StateIterFunc) (err error) {
	s.mtx.RLock()
	keys := make([]string, 0, len(s.store))
	for k := range s.store {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	values := make(map[string][]byte, len(keys))
	for _, k := range keys {
		values[k] = append([]byte(nil), s.store[k]...)
	}
	s.mtx.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		stop, err := iterFunc([]byte(k), values[k])
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (s *store) Close() (err error) {
	return nil
}
