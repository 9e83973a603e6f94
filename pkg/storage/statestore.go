// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage defines the key/value persistence contract shared by the
// lottery state machine and the transaction service.
package storage

import (
	"encoding"
	"encoding/json"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the key is not present.
var ErrNotFound = errors.New("storage: not found")

// StateStorer is a key/value store of lottery and transaction state. Values
// are encoded with Marshal and decoded with Unmarshal.
type StateStorer interface {
	Get(key string, i interface{}) (err error)
	Put(key string, i interface{}) (err error)
	Delete(key string) (err error)
	Iterate(prefix string, iterFunc StateIterFunc) (err error)
	io.Closer
}

// StateIterFunc is called for every key/value pair visited by Iterate.
// Returning stop ends the iteration.
type StateIterFunc func(key, value []byte) (stop bool, err error)

// Marshal encodes a state value. Values implementing
// encoding.BinaryMarshaler encode themselves, all others are encoded as
// JSON.
func Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(encoding.BinaryMarshaler); ok {
		return m.MarshalBinary()
	}
	return json.Marshal(v)
}

// Unmarshal decodes data produced by Marshal into v.
func Unmarshal(data []byte, v interface{}) error {
	if u, ok := v.(encoding.BinaryUnmarshaler); ok {
		return u.UnmarshalBinary(data)
	}
	return json.Unmarshal(data, v)
}
