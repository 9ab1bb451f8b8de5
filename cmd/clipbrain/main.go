// clipbrain command line entry point.
//
// Usage:
//
//	clipbrain ask "question" [--strategy hybrid] [--config config.yaml]
//	clipbrain score "scoring prompt" [--backends 6]
//	clipbrain health
//	clipbrain version
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jervinho777/clipbrain"
	"github.com/jervinho777/clipbrain/config"
	"github.com/jervinho777/clipbrain/ensemble"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ask":
		runAsk(os.Args[2:])
	case "score":
		runScore(os.Args[2:])
	case "health":
		runHealth(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	strategy := fs.String("strategy", "", "Consensus strategy: parallel_vote, debate, hybrid")
	system := fs.String("system", "", "Optional system prompt")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "ask: a prompt is required")
		os.Exit(1)
	}
	prompt := fs.Arg(0)

	engine, logger := buildEngine(*configPath)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.BuildConsensus(ctx, prompt, *system, ensemble.Strategy(*strategy))
	if err != nil {
		logger.Fatal("consensus failed", zap.Error(err))
	}

	fmt.Println(result.Consensus)
	fmt.Printf("\n[strategy=%s confidence=%.2f rounds=%d]\n",
		result.Strategy, result.Confidence, result.Rounds)

	stats := engine.UsageStats()
	fmt.Printf("[calls=%d tokens=%d cost=$%.4f]\n",
		stats.TotalCalls, stats.TotalTokens, stats.TotalCost)
}

func runScore(args []string) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	backends := fs.Int("backends", 6, "Maximum number of backends to ask")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "score: a prompt is required")
		os.Exit(1)
	}

	engine, logger := buildEngine(*configPath)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scores := engine.QuickScores(ctx, fs.Arg(0), *backends)
	fmt.Println(scores)
}

func runHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	engine, logger := buildEngine(*configPath)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := engine.Health(ctx)
	out, _ := json.MarshalIndent(health, "", "  ")
	fmt.Println(string(out))
}

func buildEngine(configPath string) (*clipbrain.Engine, *zap.Logger) {
	loader := config.NewLoader().WithValidator(config.Validate)
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)

	engine, err := clipbrain.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build engine: %v\n", err)
		os.Exit(1)
	}
	if len(engine.AvailableBackends()) == 0 {
		logger.Warn("no backends available, set the provider API key env vars")
	}
	return engine, logger
}

func printVersion() {
	fmt.Printf("clipbrain %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`clipbrain - multi-backend consensus engine

Usage:
  clipbrain <command> [options]

Commands:
  ask       Run one consensus query across all available backends
  score     Get quick 0-100 scores from the ensemble
  health    Probe every configured backend
  version   Show version information
  help      Show this help message

Options:
  --config <path>      Path to configuration file (YAML)
  --strategy <name>    parallel_vote, debate or hybrid (ask only)
  --system <text>      System prompt (ask only)
  --backends <n>       Backend cap (score only)

Examples:
  clipbrain ask "What makes a video hook work?"
  clipbrain ask --strategy debate "Score this hook: ..."
  clipbrain score --backends 3 "Rate this clip 0-100: ..."
  clipbrain health`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
