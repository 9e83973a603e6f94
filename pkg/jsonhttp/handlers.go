// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp

import (
	"errors"
	"net/http"

	"resenje.org/web"
)

// MethodHandler routes requests by method and answers the rest with a JSON
// 405 response.
type MethodHandler map[string]http.Handler

func (h MethodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	web.HandleMethods(h, `{"message":"Method Not Allowed","code":405}`, DefaultContentTypeHeader, w, r)
}

func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	NotFound(w, nil)
}

// NewMaxBodyBytesHandler limits the number of bytes that can be read from
// the request body. Errors of reading a body that is too large are answered
// by HandleBodyReadError.
func NewMaxBodyBytesHandler(limit int64) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				RequestEntityTooLarge(w, nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			h.ServeHTTP(w, r)
		})
	}
}

// HandleBodyReadError responds with Request Entity Too Large when err comes
// from a body limited by NewMaxBodyBytesHandler. It reports whether a
// response was written.
func HandleBodyReadError(err error, w http.ResponseWriter) (responded bool) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		RequestEntityTooLarge(w, nil)
		return true
	}
	return false
}
