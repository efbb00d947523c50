package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/candle"
	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/trader"
	"github.com/kabuquant/kabuquant/internal/version"
	"github.com/kabuquant/kabuquant/pkg/marketdata"
)

// traderAction runs the live loop: ticks in, candles out, orders when the
// rule fires on a fresh bucket.
func traderAction(ctx context.Context, cmd *cli.Command) error {
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

	stream := marketdata.NewKabusStream(
		cmd.String("kabus-ws"),
		os.Getenv("KABUS_API_TOKEN"),
	)

	var broker trader.Broker
	if cfg.BackTest {
		broker = trader.NewNopBroker(cmd.Float("paper-balance"), appLog)
	} else {
		broker = trader.NewKabusBroker(
			cmd.String("kabus-url"),
			os.Getenv("KABUS_API_TOKEN"),
			os.Getenv("KABUS_ORDER_PASSWORD"),
			appLog,
		)
	}

	engine := backtest.NewEngine(appLog)
	opt := optimizer.New(engine, appLog, false)
	aggregator := candle.NewAggregator(store, appLog)

	session := trader.NewSession(cfg, store, aggregator, engine, opt, stream, broker, appLog)

	return session.Run(ctx)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "trader",
		Usage:   "Run the live trading loop against kabu station",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:  "kabus-ws",
				Usage: "kabu station PUSH websocket URL",
				Value: "ws://localhost:18080/kabusapi/websocket",
			},
			&cli.StringFlag{
				Name:  "kabus-url",
				Usage: "kabu station REST base URL",
				Value: "http://localhost:18080/kabusapi",
			},
			&cli.FloatFlag{
				Name:  "paper-balance",
				Usage: "Simulated cash balance used in back_test mode",
				Value: 1_000_000,
			},
		},
		Action: traderAction,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
