// Command analyze runs one-shot market analyses from the command line and
// prints JSON to stdout.
//
// Usage:
//
//	analyze [flags] analyze TICKER PROB
//	analyze [flags] estimate TICKER
//	analyze [flags] history TICKER [DAYS]
//	analyze [flags] markets [LIMIT]
//	analyze [flags] scan PROB [TICKER...]
//	analyze [flags] watch PROB [TICKER...]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/gatallahx/before-you-bet/internal/app"
	"github.com/gatallahx/before-you-bet/internal/config"
	"github.com/gatallahx/before-you-bet/internal/logging"
	"github.com/gatallahx/before-you-bet/internal/scanner"
	"github.com/gatallahx/before-you-bet/internal/version"
)

var errUsage = errors.New("usage: analyze [flags] <analyze|estimate|history|markets|scan|watch> [args]")

func main() {
	configPath := flag.StringP("config", "c", "", "path to config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the config")
	logLevel := flag.String("log-level", "", "log level (overrides log.level)")
	showVersion := flag.BoolP("version", "v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, *logLevel, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, envFile, logLevel string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Debug("starting analyze", version.Attr(), "command", args[0])

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	var result any
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "analyze":
		if len(rest) != 2 {
			return errUsage
		}
		p, err := parseProbability(rest[1])
		if err != nil {
			return err
		}
		result, err = a.Service.Analyze(ctx, rest[0], p)
		if err != nil {
			return err
		}

	case "estimate":
		if len(rest) != 1 {
			return errUsage
		}
		if result, err = a.Service.Estimate(ctx, rest[0]); err != nil {
			return err
		}

	case "history":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		days := cfg.Estimate.HistoryDays
		if len(rest) == 2 {
			if days, err = strconv.Atoi(rest[1]); err != nil {
				return fmt.Errorf("days: %w", err)
			}
		}
		if result, err = a.Service.History(ctx, rest[0], days); err != nil {
			return err
		}

	case "markets":
		limit := cfg.Scan.Limit
		if len(rest) == 1 {
			if limit, err = strconv.Atoi(rest[0]); err != nil {
				return fmt.Errorf("limit: %w", err)
			}
		}
		if result, err = a.Service.TopMarkets(ctx, limit); err != nil {
			return err
		}

	case "scan":
		p, source, err := scanArgs(rest, a.Source)
		if err != nil {
			return err
		}
		tickers, err := source.Tickers(ctx)
		if err != nil {
			return err
		}
		result = a.Scanner.Scan(ctx, tickers, p)

	case "watch":
		p, source, err := scanArgs(rest, a.Source)
		if err != nil {
			return err
		}
		handler := scanner.ReportHandlerFunc(func(r scanner.Report) error {
			return printJSON(out, r)
		})
		if err := a.Scanner.Start(ctx, source, p, handler); err != nil {
			return err
		}
		<-ctx.Done()
		return a.Scanner.Stop(context.Background())

	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	return printJSON(out, result)
}

// scanArgs parses "PROB [TICKER...]". Without tickers the top markets are used.
func scanArgs(rest []string, fallback scanner.TickerSource) (float64, scanner.TickerSource, error) {
	if len(rest) < 1 {
		return 0, nil, errUsage
	}
	p, err := parseProbability(rest[0])
	if err != nil {
		return 0, nil, err
	}
	if len(rest) > 1 {
		return p, scanner.StaticTickers(rest[1:]), nil
	}
	return p, fallback, nil
}

func parseProbability(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("probability: %w", err)
	}
	return p, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
