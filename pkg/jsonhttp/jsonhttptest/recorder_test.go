// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttptest_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type testResult struct {
	errors []string
	fatal  string
}

var errFatal = errors.New("fatal")

// recorder is a testing.TB that records reported failures instead of
// failing the test. Fatal stops the calling function with a panic.
type recorder struct {
	testing.TB
	helper bool
	got    testResult
}

func (r *recorder) Helper() { r.helper = true }

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.got.errors = append(r.got.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) Fatal(args ...interface{}) {
	r.got.fatal = fmt.Sprint(args...)
	panic(errFatal)
}

// assert runs f with a recorder and compares the failures it reported with
// want.
func assert(t *testing.T, want testResult, f func(r *recorder)) {
	t.Helper()

	r := new(recorder)
	func() {
		defer func() {
			if v := recover(); v != nil && v != errFatal {
				t.Fatalf("panic: %v", v)
			}
		}()
		f(r)
	}()

	if !r.helper {
		t.Error("not a helper function")
	}
	sortStrings := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	if diff := cmp.Diff(want.errors, r.got.errors, sortStrings, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if r.got.fatal != want.fatal {
		t.Errorf("got fatal %q, want %q", r.got.fatal, want.fatal)
	}
}
