// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/api"
	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/camronh/Lottery-Tutorial/pkg/statestore/mock"
	"github.com/camronh/Lottery-Tutorial/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"resenje.org/web"
)

const period = 7 * 24 * time.Hour

var (
	start       = time.Unix(1_700_000_000, 0)
	lotteryAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	rrpAddr     = common.HexToAddress("0xa0AD79D995DdeeB18a14eAef56A549A04e3Aa1Bd")
)

type testServer struct {
	client   *http.Client
	chain    *simchain.Chain
	rrp      *qrng.RRP
	lottery  *lottery.Service
	accounts []common.Address
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	keys, err := wallet.Accounts(wallet.DefaultMnemonic, 3)
	if err != nil {
		t.Fatal(err)
	}
	chain := simchain.New(simchain.WithTimestamp(start))
	var accounts []common.Address
	for _, k := range keys {
		a := wallet.Address(k)
		accounts = append(accounts, a)
		if err := chain.Fund(a, ether.MustParseEther("10")); err != nil {
			t.Fatal(err)
		}
	}

	logger := logging.Noop()
	rrp := qrng.NewRRP(rrpAddr, chain.ChainID(), chain, logger)
	t.Cleanup(func() { _ = rrp.Close() })

	l, err := lottery.New(lottery.Options{
		Address: lotteryAddr,
		Owner:   accounts[0],
		EndTime: start.Add(period),
		Airnode: qrng.AirnodeAddress,
	}, chain, rrp, mock.NewStateStore(), logger)
	if err != nil {
		t.Fatal(err)
	}
	rrp.Register(lotteryAddr, l)

	s := api.New(l, chain, logger, api.Options{CORSAllowedOrigins: []string{"http://localhost:3000"}})
	s.MustRegisterMetrics(l.Metrics()...)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	return &testServer{
		client: &http.Client{
			Transport: web.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				u, err := url.Parse(ts.URL + r.URL.String())
				if err != nil {
					return nil, err
				}
				r.URL = u
				return ts.Client().Transport.RoundTrip(r)
			}),
		},
		chain:    chain,
		rrp:      rrp,
		lottery:  l,
		accounts: accounts,
	}
}
