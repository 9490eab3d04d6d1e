// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cli implements the clqctl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"code.hybscloud.com/clq"
	"code.hybscloud.com/clq/internal/config"
	"code.hybscloud.com/clq/internal/logging"
	"code.hybscloud.com/clq/internal/metrics"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// metricsShutdownTimeout bounds how long teardown waits for in-flight scrapes.
const metricsShutdownTimeout = 5 * time.Second

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfgFile     string
	logLevel    string
	metricsAddr string

	cfg       *config.Config
	logger    *logging.Logger
	metrics   *http.Server
	metricsLn net.Listener

	shutdownTimeout time.Duration
}

// NewRootCmd builds the clqctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{shutdownTimeout: metricsShutdownTimeout}

	root := &cobra.Command{
		Use:   "clqctl",
		Short: "clqctl - command queue runtime inspector",
		Long: `clqctl builds the contexts declared in a runtime manifest, creates
command queues against their devices, and reports queue attributes.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "runtime manifest (default: one context with one device)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	root.AddCommand(newInspectCmd(a), newRunCmd(a), newConfigCmd())
	return root
}

// Execute runs clqctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Addr = a.metricsAddr
	}
	a.cfg = cfg

	a.logger, err = logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Pretty: cfg.Logging.Pretty,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		return a.serveMetrics(cfg.Metrics.Addr)
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	a.metricsLn = ln
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	a.logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return nil
}

func (a *app) teardown() error {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Metrics server shutdown failed")
		}
	}
	if a.logger != nil {
		return a.logger.Close()
	}
	return nil
}

// builder returns a queue builder configured from the manifest.
func (a *app) builder() *clq.Builder {
	b := clq.New().Capacity(a.cfg.Queue.Capacity).Logger(a.logger.Logger)
	if a.cfg.Queue.Compact {
		b.Compact()
	}
	if a.cfg.Queue.PropertyToggling {
		b.PropertyToggling()
	}
	return b
}

// runtimeContext is a built context plus the device names of the manifest.
type runtimeContext struct {
	name    string
	ctx     *clq.HostContext
	devices []clq.Device
	names   []string
}

func (a *app) contexts() []runtimeContext {
	out := make([]runtimeContext, 0, len(a.cfg.Contexts))
	for _, c := range a.cfg.Contexts {
		hc, devs := clq.NewNamedContext(c.MaxQueues, c.Devices...)
		out = append(out, runtimeContext{name: c.Name, ctx: hc, devices: devs, names: c.Devices})
	}
	return out
}
