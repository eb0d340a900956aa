package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/plate-calculator/internal/application"
	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/config"
	"github.com/eugenenazirov/plate-calculator/internal/console"
	"github.com/eugenenazirov/plate-calculator/internal/logging"
)

const (
	commandServe   = "serve"
	commandConsole = "console"
)

var signalNotify = signal.Notify

type cliOptions struct {
	command   string
	mode      calculator.Mode
	overrides config.CLIOverrides
}

func parseArgs(args []string) (cliOptions, error) {
	app := kingpin.New("plate-calculator", "Weight Plate Calculator - finds the standard plates needed to load a target weight")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	serve := app.Command(commandServe, "Run the web calculator and JSON API").Default()
	port := serve.Flag("port", "HTTP port exposed by the service").String()
	historyLimit := serve.Flag("history-limit", "Calculations kept per visitor session").Default("-1").Int()
	rateLimitRPS := serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	consoleCmd := app.Command(commandConsole, "Run the interactive console calculator")
	mode := consoleCmd.Flag("mode", "total: plates only; barbell: 45 lb bar with plates per side").
		Default(string(calculator.ModeTotal)).
		Enum(string(calculator.ModeTotal), string(calculator.ModeBarbell))

	command, err := app.Parse(args)
	if err != nil {
		return cliOptions{}, err
	}

	opts := cliOptions{
		command: command,
		overrides: config.CLIOverrides{
			ConfigFile: *configFile,
		},
	}
	if *logLevel != "" {
		opts.overrides.LogLevel = logLevel
	}
	if *port != "" {
		opts.overrides.Port = port
	}
	if *historyLimit > 0 {
		opts.overrides.HistoryLimit = historyLimit
	}
	if *rateLimitRPS >= 0 {
		opts.overrides.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		opts.overrides.RateLimitBurst = rateLimitBurst
	}

	opts.mode, err = calculator.ParseMode(*mode)
	if err != nil {
		return cliOptions{}, err
	}

	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	kingpin.FatalIfError(err, "invalid arguments")

	cfg, err := config.Load(&opts.overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if opts.command == commandConsole {
		runConsole(opts.mode, logger)
		return
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func runConsole(mode calculator.Mode, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := console.New(os.Stdin, os.Stdout, calculator.New(),
		console.WithMode(mode),
		console.WithLogger(logger),
	)
	if err := c.Run(ctx); err != nil {
		logger.Error("console session failed", zap.Error(err))
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
