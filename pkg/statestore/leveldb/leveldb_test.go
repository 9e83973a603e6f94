// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leveldb_test

import (
	"testing"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/statestore/leveldb"
	"github.com/camronh/Lottery-Tutorial/pkg/statestore/test"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
)

func TestPersistentStateStore(t *testing.T) {
	test.Run(t, func(t *testing.T) storage.StateStorer {
		store, err := leveldb.New(t.TempDir(), logging.Noop())
		if err != nil {
			t.Fatal(err)
		}
		return store
	})

	test.RunPersist(t, func(t *testing.T, dir string) storage.StateStorer {
		store, err := leveldb.New(dir, logging.Noop())
		if err != nil {
			t.Fatal(err)
		}
		return store
	})
}

func TestInMemoryStateStore(t *testing.T) {
	test.Run(t, func(t *testing.T) storage.StateStorer {
		store, err := leveldb.NewInMemory(logging.Noop())
		if err != nil {
			t.Fatal(err)
		}
		return store
	})
}
