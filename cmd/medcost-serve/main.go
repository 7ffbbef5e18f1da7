// Command medcost-serve loads the segment artifacts and serves the prediction
// form, the JSON API and /metrics. It exits non-zero when any artifact is
// missing or invalid.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ezoic/medcost/config"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/router"
	"github.com/ezoic/medcost/server"
)

func main() {
	fs := pflag.NewFlagSet("medcost-serve", pflag.ExitOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	fs.String("models.dir", "", "artifact directory")
	fs.String("server.addr", "", "listen address")
	fs.String("server.mode", "", "gin mode: release or debug")
	fs.String("server.currency", "", "ISO 4217 code of reported charges")
	fs.String("log.level", "", "log level")
	fs.String("log.format", "", "text or json")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "medcost-serve: %v\n", err)
		os.Exit(2)
	}
	cfg.SetupLogging()

	reg, err := router.LoadRegistry(cfg.Models.Dir)
	if err != nil {
		log.LogError(err, "Cannot load model artifacts")
		os.Exit(1)
	}

	srv, err := server.New(
		router.New(reg, router.WithCurrency(cfg.Currency())),
		server.Options{Mode: cfg.Server.Mode},
	)
	if err != nil {
		log.LogError(err, "Cannot build server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.LogError(err, "Server stopped")
		os.Exit(1)
	}
}
