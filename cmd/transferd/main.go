// Copyright 2018-2023 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

// Transferd is the data transfer gateway daemon. It serves one uniform
// HTTP API for starting, querying and canceling bulk data transfers and
// forwards every request to the backend transfer service configured for
// the requested destination storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"

	_ "github.com/EGI-Federation/eosc-future-data-transfer/internal/http/services/loader"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/logger"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/rhttp"
	_ "github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/service/loader"
)

var (
	versionFlag = flag.Bool("version", false, "show version and exit")
	configFlag  = flag.String("c", "/etc/transferd/transferd.toml", "set configuration file")

	// Compile time variables initialized with build flags.
	gitCommit, version string
)

type logConf struct {
	Level  string `mapstructure:"level"`
	Mode   string `mapstructure:"mode"`
	Output string `mapstructure:"output"`
}

type httpConf struct {
	Address  string                            `mapstructure:"address"`
	CertFile string                            `mapstructure:"certfile"`
	KeyFile  string                            `mapstructure:"keyfile"`
	Services map[string]map[string]interface{} `mapstructure:"services"`
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("version=%s commit=%s\n", version, gitCommit)
		os.Exit(0)
	}

	mainConf := map[string]interface{}{}
	if _, err := toml.DecodeFile(*configFlag, &mainConf); err != nil {
		fmt.Fprintf(os.Stderr, "error reading config file %s: %v\n", *configFlag, err)
		os.Exit(1)
	}

	lc := &logConf{}
	if err := mapstructure.Decode(mainConf["log"], lc); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing log config: %v\n", err)
		os.Exit(1)
	}
	hc := &httpConf{Address: "0.0.0.0:8080"}
	if err := mapstructure.Decode(mainConf["http"], hc); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing http config: %v\n", err)
		os.Exit(1)
	}

	w, err := getWriter(lc.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log output: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(
		logger.WithLevel(lc.Level),
		logger.WithWriter(w, logger.Mode(lc.Mode)),
	)
	slog := log.With().Int("pid", os.Getpid()).Logger()

	services, err := rhttp.InitServices(hc.Services, &slog)
	if err != nil {
		slog.Fatal().Err(err).Msg("error initializing http services")
	}

	server, err := rhttp.New(
		rhttp.WithServices(services),
		rhttp.WithLogger(slog),
		rhttp.WithCertAndKeyFiles(hc.CertFile, hc.KeyFile),
	)
	if err != nil {
		slog.Fatal().Err(err).Msg("error creating http server")
	}

	ln, err := net.Listen("tcp", hc.Address)
	if err != nil {
		slog.Fatal().Err(err).Str("address", hc.Address).Msg("error listening")
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start(ln)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			slog.Fatal().Err(err).Msg("http server exited with error")
		}
	case sig := <-stop:
		slog.Info().Msgf("signal %q received, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.GracefulStop(ctx); err != nil {
			slog.Error().Err(err).Msg("error during graceful shutdown")
		}
	}
}

func getWriter(out string) (io.Writer, error) {
	switch out {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	return os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
