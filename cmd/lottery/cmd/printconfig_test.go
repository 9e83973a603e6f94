// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/camronh/Lottery-Tutorial/cmd/lottery/cmd"
	"gopkg.in/yaml.v2"
)

func printConfig(t *testing.T, opts ...cmd.Option) map[string]interface{} {
	t.Helper()

	var outputBuf bytes.Buffer
	opts = append([]cmd.Option{cmd.WithOutput(&outputBuf)}, opts...)
	if err := newCommand(t, opts...).Execute(); err != nil {
		t.Fatal(err)
	}

	config := make(map[string]interface{})
	if err := yaml.Unmarshal(outputBuf.Bytes(), &config); err != nil {
		t.Fatalf("unmarshal %q: %v", outputBuf.String(), err)
	}
	return config
}

func TestPrintConfigCmd(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config := printConfig(t, cmd.WithArgs("printconfig"))

		if got := fmt.Sprint(config["api-addr"]); got != ":8080" {
			t.Errorf("got api-addr %v, want :8080", got)
		}
		if got := fmt.Sprint(config["ticket-price"]); got != "0.0001" {
			t.Errorf("got ticket-price %v, want 0.0001", got)
		}
		if got := fmt.Sprint(config["max-number"]); got != "3" {
			t.Errorf("got max-number %v, want 3", got)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("LOTTERY_API_ADDR", "127.0.0.1:9090")

		config := printConfig(t, cmd.WithArgs("printconfig"))

		if got := fmt.Sprint(config["api-addr"]); got != "127.0.0.1:9090" {
			t.Errorf("got api-addr %v, want 127.0.0.1:9090", got)
		}
	})

	t.Run("config file", func(t *testing.T) {
		cfgFile := filepath.Join(t.TempDir(), "lottery.yaml")
		if err := os.WriteFile(cfgFile, []byte("ticket-price: \"0.5\"\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		config := printConfig(t, cmd.WithArgs("printconfig", "--config", cfgFile))

		if got := fmt.Sprint(config["ticket-price"]); got != "0.5" {
			t.Errorf("got ticket-price %v, want 0.5", got)
		}
	})
}
