// Copyright 2025 The Candid LS Authors
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

package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"candidls.dev/go/internal/lsp/server"
	"candidls.dev/go/internal/telemetry"
)

func newServeCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the language server on standard input and output",
		Long: `serve runs the Candid language server, speaking the Language Server
Protocol on standard input and output. Logs go to standard error.

Settings are read from the settings file of the workspace root when the
client initializes the server, and from the client's configuration.`,
		Args: cobra.NoArgs,
		RunE: mkRunE(c, runServe),
	}
	f := cmd.Flags()
	f.String(string(flagMetricsAddr), "", "serve Prometheus metrics on this address")
	f.Bool(string(flagTrace), false, "write trace spans to standard error")
	f.Int(string(flagWorkers), 0, "maximum number of concurrent completion jobs (default GOMAXPROCS)")
	f.CountP(string(flagVerbose), "v", "increase the verbosity of the protocol log; with -v every message is logged")
	return cmd
}

func runServe(cmd *Command, args []string) error {
	logger := cmd.Logger()
	commonlog.Configure(flagVerbose.Count(cmd), nil)

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	var metrics *telemetry.Metrics
	if addr := flagMetricsAddr.String(cmd); addr != "" {
		metrics = telemetry.NewMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", addr).Msg("serving metrics")
	}

	tracer := telemetry.NoopTracer()
	if flagTrace.Bool(cmd) {
		tracer, err = telemetry.NewTracer(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer tracer.Shutdown(context.Background())
	}

	s := server.New(server.Config{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
		Options: opts,
		Version: moduleVersion(),
		Workers: flagWorkers.Int(cmd),
		Debug:   flagVerbose.Count(cmd) > 0,
	})
	logger.Info().Str("server", s.ID()).Msg("serving on stdio")
	return s.RunStdio()
}
