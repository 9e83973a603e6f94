// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test contains a conformance suite run against every
// storage.StateStorer implementation.
package test

import (
	"errors"
	"testing"

	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/google/go-cmp/cmp"
)

// ticket encodes itself as "<number>:<holder>" and records that the binary
// codec was used.
type ticket struct {
	holder  string
	number  byte
	encoded bool
	decoded bool
}

func (t *ticket) MarshalBinary() ([]byte, error) {
	t.encoded = true
	return append([]byte{t.number, ':'}, t.holder...), nil
}

func (t *ticket) UnmarshalBinary(data []byte) error {
	if len(data) < 2 || data[1] != ':' {
		return errors.New("malformed ticket")
	}
	t.number, t.holder = data[0], string(data[2:])
	t.decoded = true
	return nil
}

// week is stored as JSON.
type week struct {
	Number  uint64   `json:"number"`
	Entries []string `json:"entries"`
}

var (
	ticketValue = ticket{holder: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", number: 2}
	weekValue   = week{Number: 3, Entries: []string{"a", "b", "c"}}
)

// Run executes the conformance tests against stores created by f.
func Run(t *testing.T, f func(t *testing.T) storage.StateStorer) {
	t.Helper()

	t.Run("put get", func(t *testing.T) {
		store := f(t)
		defer store.Close()

		put(t, store)
		checkValues(t, store)
	})

	t.Run("missing key", func(t *testing.T) {
		store := f(t)
		defer store.Close()

		var w week
		if err := store.Get("week_9", &w); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := f(t)
		defer store.Close()

		put(t, store)
		if err := store.Delete("week_3"); err != nil {
			t.Fatal(err)
		}
		var w week
		if err := store.Get("week_3", &w); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
		}
	})

	t.Run("iterate", func(t *testing.T) {
		store := f(t)
		defer store.Close()

		for _, k := range []string{"pot_3", "pot_1", "pot_2", "potential", "week_1"} {
			if err := store.Put(k, k); err != nil {
				t.Fatal(err)
			}
		}

		var got []string
		err := store.Iterate("pot_", func(key, value []byte) (bool, error) {
			var v string
			if err := storage.Unmarshal(value, &v); err != nil {
				return true, err
			}
			if v != string(key) {
				t.Errorf("got value %q under key %q", v, key)
			}
			got = append(got, string(key))
			return false, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"pot_1", "pot_2", "pot_3"}, got); diff != "" {
			t.Errorf("iterated keys mismatch (-want +got):\n%s", diff)
		}

		got = nil
		err = store.Iterate("pot_", func(key, _ []byte) (bool, error) {
			got = append(got, string(key))
			return true, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"pot_1"}, got); diff != "" {
			t.Errorf("keys after stop mismatch (-want +got):\n%s", diff)
		}
	})
}

// RunPersist checks that values survive closing and reopening a store in
// the same directory.
func RunPersist(t *testing.T, f func(t *testing.T, dir string) storage.StateStorer) {
	t.Helper()

	dir := t.TempDir()

	store := f(t, dir)
	put(t, store)
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := f(t, dir)
	defer reopened.Close()

	checkValues(t, reopened)
}

func put(t *testing.T, store storage.StateStorer) {
	t.Helper()

	tk := ticketValue
	if err := store.Put("ticket_1", &tk); err != nil {
		t.Fatal(err)
	}
	if !tk.encoded {
		t.Fatal("binary marshaler not used")
	}
	if err := store.Put("week_3", weekValue); err != nil {
		t.Fatal(err)
	}
}

func checkValues(t *testing.T, store storage.StateStorer) {
	t.Helper()

	var tk ticket
	if err := store.Get("ticket_1", &tk); err != nil {
		t.Fatal(err)
	}
	if !tk.decoded {
		t.Fatal("binary unmarshaler not used")
	}
	if tk.holder != ticketValue.holder || tk.number != ticketValue.number {
		t.Fatalf("got ticket %d:%s, want %d:%s", tk.number, tk.holder, ticketValue.number, ticketValue.holder)
	}

	var w week
	if err := store.Get("week_3", &w); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(weekValue, w); diff != "" {
		t.Fatalf("week mismatch (-want +got):\n%s", diff)
	}
}
