// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/camronh/Lottery-Tutorial/pkg/jsonhttp"
	"github.com/google/go-cmp/cmp"
)

func TestRespond(t *testing.T) {
	for _, tc := range []struct {
		name     string
		code     int
		response interface{}
		want     jsonhttp.StatusResponse
	}{
		{
			name: "nil response",
			code: http.StatusNotFound,
			want: jsonhttp.StatusResponse{Message: "Not Found", Code: http.StatusNotFound},
		},
		{
			name:     "string response",
			code:     http.StatusBadRequest,
			response: "invalid number",
			want:     jsonhttp.StatusResponse{Message: "invalid number", Code: http.StatusBadRequest},
		},
		{
			name:     "error response",
			code:     http.StatusConflict,
			response: errors.New("week already resolved"),
			want:     jsonhttp.StatusResponse{Message: "week already resolved", Code: http.StatusConflict},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			jsonhttp.Respond(w, tc.code, tc.response)

			if w.Code != tc.code {
				t.Errorf("got status code %d, want %d", w.Code, tc.code)
			}
			if v := w.Header().Get("Content-Type"); v != jsonhttp.DefaultContentTypeHeader {
				t.Errorf("got content type %q, want %q", v, jsonhttp.DefaultContentTypeHeader)
			}
			var got jsonhttp.StatusResponse
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRespondStruct(t *testing.T) {
	type weekResponse struct {
		Week uint64 `json:"week"`
	}

	w := httptest.NewRecorder()
	jsonhttp.OK(w, weekResponse{Week: 3})

	if w.Code != http.StatusOK {
		t.Errorf("got status code %d, want %d", w.Code, http.StatusOK)
	}
	if got, want := w.Body.String(), "{\"week\":3}\n\n"; got != want {
		t.Errorf("got body %q, want %q", got, want)
	}
}
