// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"fmt"
	"net/http"

	"github.com/camronh/Lottery-Tutorial/pkg/jsonhttp"
	"github.com/camronh/Lottery-Tutorial/pkg/logging/httpaccess"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"resenje.org/web"
)

func (s *Service) setupRouting() {
	apiVersion := "v1"

	handle := func(router *mux.Router, path string, handler http.Handler) {
		handler = s.routeMetricsHandler(path, handler)
		router.Handle(path, handler)
		router.Handle("/"+apiVersion+path, handler)
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(jsonhttp.NotFoundHandler)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Weekly Lottery")
	})

	router.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "User-agent: *\nDisallow: /")
	})

	router.Handle("/health", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0),
		web.FinalHandlerFunc(s.healthHandler),
	))

	router.Handle("/metrics", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0),
		web.FinalHandler(promhttp.InstrumentMetricHandler(
			s.metricsRegistry,
			promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}),
		)),
	))

	handle(router, "/lottery", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.lotteryStatusHandler),
	})

	handle(router, "/weeks/{week}/entries/{number}", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.entriesHandler),
	})

	handle(router, "/weeks/{week}/winning-number", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.winningNumberHandler),
	})

	handle(router, "/entries", jsonhttp.MethodHandler{
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxBodyBytes),
			web.FinalHandlerFunc(s.enterHandler),
		),
	})

	handle(router, "/draw", jsonhttp.MethodHandler{
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxBodyBytes),
			web.FinalHandlerFunc(s.drawHandler),
		),
	})

	handle(router, "/close", jsonhttp.MethodHandler{
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxBodyBytes),
			web.FinalHandlerFunc(s.closeWeekHandler),
		),
	})

	handle(router, "/accounts/{address}/balance", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.balanceHandler),
	})

	handle(router, "/chain", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.chainStatusHandler),
	})

	handle(router, "/chain/mine", jsonhttp.MethodHandler{
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxBodyBytes),
			web.FinalHandlerFunc(s.mineHandler),
		),
	})

	s.Handler = web.ChainHandlers(
		httpaccess.NewHTTPAccessLogHandler(s.logger, logrus.InfoLevel, "api access"),
		handlers.CompressHandler,
		handlers.RecoveryHandler(
			handlers.RecoveryLogger(s.logger.NewEntry()),
			handlers.PrintRecoveryStack(false),
		),
		s.requestCountHandler,
		func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if o := r.Header.Get("Origin"); o != "" && s.checkOrigin(r) {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Origin", o)
					w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, X-Requested-With, Access-Control-Request-Headers, Access-Control-Request-Method")
					w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS, POST")
					w.Header().Set("Access-Control-Max-Age", "3600")
				}
				h.ServeHTTP(w, r)
			})
		},
		web.FinalHandler(router),
	)
}
