// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"path/filepath"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/statestore/leveldb"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
)

// InitStateStore will initialize the stateStore with the given path to the
// data directory. When given an empty directory path, the function will instead
// initialize an in-memory state store that will not be persisted.
func InitStateStore(logger logging.Logger, dataDir string) (storage.StateStorer, error) {
	var (
		store *leveldb.Store
		err   error
	)
	if dataDir == "" {
		logger.Warning("using in-mem state store, no lottery state will be persisted")
		store, err = leveldb.NewInMemory(logger)
	} else {
		store, err = leveldb.New(filepath.Join(dataDir, "statestore"), logger)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
