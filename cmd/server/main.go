package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/candle"
	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/indicator"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/server"
	"github.com/kabuquant/kabuquant/internal/version"
)

const shutdownTimeout = 10 * time.Second

// serverAction serves the dashboard API over the stored candle database.
func serverAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	appLog, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLog.Sync()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}

	store, err := candle.NewDuckDBStore(dbPath, appLog)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := backtest.NewEngine(appLog)
	opt := optimizer.New(engine, appLog, false)
	registry := indicator.NewDefaultIndicatorRegistry()

	srv := server.New(cfg, store, registry, engine, opt, appLog)

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "server",
		Usage:   "Serve the dashboard HTTP API",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Action: serverAction,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
