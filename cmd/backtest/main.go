package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/internal/version"
	"github.com/kabuquant/kabuquant/pkg/marketdata"
)

// backtestAction fetches the candle history, sweeps the configured
// parameter grids and writes the ranked reports as YAML.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	appLog, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLog.Sync()

	provider, err := marketdata.NewCandleProvider(
		marketdata.ProviderType(cmd.String("provider")),
		marketdata.ProviderConfig{
			CSVPath:       cmd.String("data"),
			PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
		},
	)
	if err != nil {
		return err
	}

	candles, err := provider.Candles(ctx, cfg.ProductCode, cfg.Duration(), cfg.PastPeriod)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(appLog)
	opt := optimizer.New(engine, appLog, true)

	mode := optimizer.Mode(cmd.String("mode"))

	var reports []*optimizer.Report

	if family := cmd.String("indicator"); family != "" {
		report, err := opt.Optimize(cfg.ProductCode, candles, types.IndicatorType(family),
			cfg.Optimize, cfg.StopLimitPercent, mode)
		if err != nil {
			return err
		}

		reports = []*optimizer.Report{report}
	} else {
		reports, err = opt.RankAll(cfg.ProductCode, candles, cfg.Optimize,
			cfg.StopLimitPercent, cfg.NumRanking, mode)
		if err != nil {
			return err
		}
	}

	encoded, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}

	if output := cmd.String("output"); output != "" {
		return os.WriteFile(output, encoded, 0o644)
	}

	fmt.Print(string(encoded))

	return nil
}

func main() {
	// Optional .env holds provider credentials.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Optimize trading rule parameters over historical candles",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage: fmt.Sprintf("Candle provider (%s, %s, %s)",
					marketdata.ProviderCSV, marketdata.ProviderPolygon, marketdata.ProviderBinance),
				Value: string(marketdata.ProviderCSV),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Candle CSV path for the csv provider",
				Value:   "data/candles.csv",
			},
			&cli.StringFlag{
				Name:    "indicator",
				Aliases: []string{"i"},
				Usage:   "Optimize a single indicator family instead of ranking all",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage: fmt.Sprintf("Sweep mode (%s, %s)",
					optimizer.ModeSingleBest, optimizer.ModeExhaustive),
				Value: string(optimizer.ModeSingleBest),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the YAML reports to this file instead of stdout",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
