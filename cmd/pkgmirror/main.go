// Package main runs the pkgmirror daemon: a read-through mirror over a
// remote package feed with a license policy gate in front of every serving
// entry point.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"

	"github.com/pkgmirror/pkgmirror/client"
	"github.com/pkgmirror/pkgmirror/config"
	"github.com/pkgmirror/pkgmirror/mirror"
	"github.com/pkgmirror/pkgmirror/policy"
	"github.com/pkgmirror/pkgmirror/serve"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pkgmirror",
		Usage: "Mirror a remote package feed with license policy enforcement",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "pkgmirror.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"PKGMIRROR_CONFIG"},
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "pkgmirror",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	store := config.NewStore(cfg)

	httpClient := client.NewClient(
		client.WithTimeout(cfg.Upstream.GetTimeout()),
		client.WithMaxRetries(cfg.Upstream.GetMaxRetries()),
	)
	m := mirror.New(cfg.Upstream.URL,
		mirror.WithHTTPClient(httpClient),
		mirror.WithLogger(logger.Named("mirror")),
	)
	engine := policy.NewEngine(store, m, logger.Named("policy"))
	server := serve.New(m, engine, nil, logger.Named("serve"))

	// SIGHUP reloads the configuration; the policy engine picks up the new
	// rules on the next evaluation.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			next, err := config.Load(c.String("config"))
			if err != nil {
				logger.Error("config reload failed, keeping previous configuration", "error", err)
				continue
			}
			for _, warning := range next.Warnings() {
				logger.Warn(warning)
			}
			store.Replace(next)
			logger.Info("configuration reloaded")
		}
	}()

	logger.Info("serving", "listen", cfg.Listen, "upstream", cfg.Upstream.URL)
	return http.ListenAndServe(cfg.Listen, server.Handler())
}
