// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonhttptest sends requests to the lottery API in tests and checks
// the responses.
package jsonhttptest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/camronh/Lottery-Tutorial/pkg/jsonhttp"
)

type options struct {
	body          io.Reader
	headers       http.Header
	wantHeaders   http.Header
	wantJSON      interface{}
	unmarshal     interface{}
	putBody       *[]byte
	wantEmptyBody bool
}

// Option configures a Request.
type Option func(*options) error

// Request sends a request with the client, checks the response status code
// and every expectation set by the options, and returns the response
// headers.
func Request(t testing.TB, client *http.Client, method, url string, responseCode int, opts ...Option) http.Header {
	t.Helper()

	o := &options{headers: make(http.Header)}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, url, o.body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header = o.headers

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != responseCode {
		t.Errorf("got response status %s, want %v %s", resp.Status, responseCode, http.StatusText(responseCode))
	}
	for key, want := range o.wantHeaders {
		if got := resp.Header.Values(key); fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("header values for key=[%v] not as expected, got: %v, want %v", key, got, want)
		}
	}

	if o.unmarshal != nil {
		if err := json.NewDecoder(resp.Body).Decode(o.unmarshal); err != nil {
			t.Fatal(err)
		}
		return resp.Header
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	switch {
	case o.wantJSON != nil:
		if v := resp.Header.Get("Content-Type"); v != jsonhttp.DefaultContentTypeHeader {
			t.Errorf("got content type %q, want %q", v, jsonhttp.DefaultContentTypeHeader)
		}
		want, err := json.Marshal(o.wantJSON)
		if err != nil {
			t.Fatal(err)
		}
		if got := bytes.TrimSpace(body); !bytes.Equal(got, want) {
			t.Errorf("got json response %s, want %s", got, want)
		}
	case o.putBody != nil:
		*o.putBody = body
	case o.wantEmptyBody:
		if len(body) > 0 {
			t.Errorf("got response body %s, want none", body)
		}
	}
	return resp.Header
}

func WithRequestBody(body io.Reader) Option {
	return func(o *options) error {
		o.body = body
		return nil
	}
}

// WithJSONRequestBody sends v encoded as JSON.
func WithJSONRequestBody(v interface{}) Option {
	return func(o *options) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("json encode request body: %w", err)
		}
		o.body = bytes.NewReader(b)
		o.headers.Set("Content-Type", jsonhttp.DefaultContentTypeHeader)
		return nil
	}
}

func WithRequestHeader(key, value string) Option {
	return func(o *options) error {
		o.headers.Add(key, value)
		return nil
	}
}

func WithExpectedResponseHeader(key, value string) Option {
	return func(o *options) error {
		if o.wantHeaders == nil {
			o.wantHeaders = make(http.Header)
		}
		o.wantHeaders.Add(key, value)
		return nil
	}
}

// WithExpectedJSONResponse compares the response body with v encoded as
// JSON.
func WithExpectedJSONResponse(v interface{}) Option {
	return func(o *options) error {
		o.wantJSON = v
		return nil
	}
}

// WithUnmarshalResponse decodes the JSON response body into v.
func WithUnmarshalResponse(v interface{}) Option {
	return func(o *options) error {
		o.unmarshal = v
		return nil
	}
}

// WithPutResponseBody stores the raw response body in b.
func WithPutResponseBody(b *[]byte) Option {
	return func(o *options) error {
		o.putBody = b
		return nil
	}
}

func WithNoResponseBody() Option {
	return func(o *options) error {
		o.wantEmptyBody = true
		return nil
	}
}
