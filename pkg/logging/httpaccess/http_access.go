// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package httpaccess logs served HTTP requests.
package httpaccess

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id of a request in both directions. An id set
// by the client is kept, otherwise a new one is generated.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the request id stored in ctx by NewHTTPAccessLogHandler.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// loggedHeaders are request headers copied into the access log entry when
// present, keyed by the name of the log field.
var loggedHeaders = map[string]string{
	"referrer":        "Referer",
	"user-agent":      "User-Agent",
	"x-forwarded-for": "X-Forwarded-For",
	"x-real-ip":       "X-Real-Ip",
}

// NewHTTPAccessLogHandler logs message at level after every served request
// and tags the request with an id.
func NewHTTPAccessLogHandler(logger logging.Logger, level logrus.Level, message string) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			rw := &responseWriter{ResponseWriter: w, level: level}
			h.ServeHTTP(rw, r)

			if rw.level == 0 {
				return
			}

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			fields := logrus.Fields{
				"request_id": id,
				"ip":         ip,
				"method":     r.Method,
				"uri":        r.RequestURI,
				"proto":      r.Proto,
				"status":     rw.statusCode(),
				"size":       rw.size,
				"duration":   time.Since(start).Seconds(),
			}
			for field, header := range loggedHeaders {
				if v := r.Header.Get(header); v != "" {
					fields[field] = v
				}
			}
			logger.WithFields(fields).Log(rw.level, message)
		})
	}
}

// SetAccessLogLevelHandler changes the level of the access log entry for the
// requests it wraps. Level 0 suppresses the entry.
func SetAccessLogLevelHandler(level logrus.Level) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rw, ok := w.(*responseWriter); ok {
				rw.level = level
			}
			h.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
	level  logrus.Level
}

func (w *responseWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *responseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("httpaccess: response writer does not support hijacking")
	}
	return h.Hijack()
}
