// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ether_test

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
)

func TestParseEther(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
		err  error
	}{
		{in: "0.0001", want: "100000000000000"},
		{in: "0.01", want: "10000000000000000"},
		{in: "1", want: "1000000000000000000"},
		{in: "0", want: "0"},
		{in: "0.000000000000000001", want: "1"},
		{in: "0.0000000000000000001", err: ether.ErrTooPrecise},
		{in: "-1", err: ether.ErrNegativeAmount},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ether.ParseEther(tc.in)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("got error %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := ether.ParseEther("abc"); err == nil {
		t.Fatal("expected error for malformed amount")
	}
}

func TestFormatEther(t *testing.T) {
	if got := ether.FormatEther(big.NewInt(100000000000000)); got != "0.0001" {
		t.Fatalf("got %s, want 0.0001", got)
	}
	if got := ether.FormatEther(ether.MustParseEther("12.5")); got != "12.5" {
		t.Fatalf("got %s, want 12.5", got)
	}
	if got := ether.FormatEther(nil); got != "0" {
		t.Fatalf("got %s, want 0", got)
	}
}

func TestBigIntJSON(t *testing.T) {
	v := ether.Wrap(ether.MustParseEther("0.0003"))

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"300000000000000"` {
		t.Fatalf("got %s", b)
	}

	var got ether.BigInt
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Cmp(v.Unwrap()) != 0 {
		t.Fatalf("got %s, want %s", got.String(), v.String())
	}

	if err := json.Unmarshal([]byte(`"12x"`), &got); err == nil {
		t.Fatal("expected error for invalid integer")
	}
}
