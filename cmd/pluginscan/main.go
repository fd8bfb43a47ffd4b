// Command pluginscan is a host harness for exercising the scan engine from
// the command line (SPEC_FULL section 4.6): it wires a local.Loader and the
// in-memory hosttest.Registry together, runs one Scan, and prints the
// resulting Stats as JSON. It is a demonstration and integration-test
// harness, not a production host.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hostplane/pluginfw/descriptor/yamlfile"
	"github.com/hostplane/pluginfw/hostconfig"
	"github.com/hostplane/pluginfw/loader/local"
	"github.com/hostplane/pluginfw/logging"
	"github.com/hostplane/pluginfw/metrics"
	"github.com/hostplane/pluginfw/registry/hosttest"
	"github.com/hostplane/pluginfw/scanner"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var pretty bool
	var metricsAddr string

	root := &cobra.Command{
		Use:   "pluginscan",
		Short: "Run the plug-in scan engine against a bootstrap config",
		Long: `pluginscan loads a host bootstrap config describing which directories to
scan for plug-in descriptors, registers a local.Loader over them, runs one
Scan against an in-memory reference host registry, and prints the resulting
stats as JSON.

It exists to exercise the loader SPI and scan engine end to end outside of a
real host process; a real host supplies its own registry.HostRegistry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, pretty, metricsAddr)
		},
	}

	root.Flags().StringVar(&configPath, "config", "pluginscan.yaml", "path to the bootstrap config file")
	root.Flags().BoolVar(&pretty, "pretty", false, "use the pretty (non-JSON) log formatter")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address instead of scanning")

	return root
}

func run(ctx context.Context, configPath string, pretty bool, metricsAddr string) error {
	cfg, err := hostconfig.Load(configPath)
	if err != nil {
		return err
	}

	var logger logging.Logger
	if pretty {
		logger = logging.NewPretty()
	} else {
		logger = logging.New()
	}
	if lvl, ok := parseLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	reg := hosttest.New()

	ld := local.New(yamlfile.New(), local.WithLogger(logger))
	for _, dir := range cfg.Directories {
		if err := ld.RegisterDir(dir); err != nil {
			return err
		}
	}

	m := metrics.New(metrics.GlobalRegistry)
	s := scanner.New(reg, scanner.WithLogger(logger), scanner.WithMetrics(m))
	s.RegisterLoader(ld)

	if metricsAddr != "" {
		return serveMetrics(metricsAddr)
	}

	if cfg.Watch {
		w := local.NewWatcher(ld, func() {
			if _, err := s.Scan(ctx, cfg.Flags()); err != nil {
				logger.Error("pluginscan: watch-triggered scan: %v", err)
			}
		}, local.WithWatcherLogger(logger))
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	stats, scanErr := s.Scan(ctx, cfg.Flags())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return err
	}

	return scanErr
}

func serveMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GlobalRegistry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}

func parseLevel(s string) (logging.Level, bool) {
	switch s {
	case "debug":
		return logging.Debug, true
	case "warn":
		return logging.Warn, true
	case "error":
		return logging.Error, true
	case "info", "":
		return logging.Info, true
	}
	return 0, false
}
