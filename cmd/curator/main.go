package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/pflag"

	"github.com/himanishpuri/AudioSetCurator/internal/config"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset"
	"github.com/himanishpuri/AudioSetCurator/pkg/logger"
)

// Global flags
var (
	configPath string
	labelIndex string
	logLevel   string
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()

	global := pflag.NewFlagSet("curator", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.StringVar(&configPath, "config", getEnvOrDefault("AUDIOSET_CONFIG", config.DefaultFile), "YAML config file")
	global.StringVar(&labelIndex, "label-index", "", "label index CSV (class_labels_indices.csv)")
	global.StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	global.Usage = printUsage

	if err := global.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(1)
	}

	args := global.Args()
	if len(args) < 1 {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(log)
	if err != nil {
		fatal(log, "Loading configuration", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := args[0]
	log.Debugf("Executing command: %s", command)

	var code int
	switch command {
	case "find":
		code = handleFind(ctx, cfg, args[1:])
	case "download":
		code = handleDownload(ctx, cfg, args[1:])
	case "labels":
		code = handleLabels(cfg, args[1:])
	case "clip":
		code = handleClip(ctx, cfg, args[1:])
	case "help":
		printBanner()
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		code = 1
	}

	stop()
	os.Exit(code)
}

// loadConfig layers the YAML file, .env and AUDIOSET_* variables, and the
// global flags, then applies the log level.
func loadConfig(log *logger.Logger) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("Ignoring .env: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if labelIndex != "" {
		cfg.LabelIndex = labelIndex
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	lvl, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return cfg, nil
}

func createService(cfg *config.Config, log *logger.Logger) (*audioset.Curator, error) {
	return audioset.NewService(cfg.ServiceOptions(log.With("curator"))...)
}

// fatal reports an error that ends the run. The stack trace is only logged
// at DEBUG.
func fatal(log *logger.Logger, what string, err error) {
	err = xerrors.New(err)
	fmt.Printf("❌ %s failed: %v\n", what, err)
	log.Errorf("%s failed: %v", what, err)
	log.Debugf("%+v", err)
}

func printBanner() {
	banner := `
    _             _ _       ____       _      ____                _
   / \  _   _  __| (_) ___ / ___|  ___| |_   / ___|   _ _ __ __ _| |_ ___  _ __
  / _ \| | | |/ _' | |/ _ \\___ \ / _ \ __| | |  | | | | '__/ _' | __/ _ \| '__|
 / ___ \ |_| | (_| | | (_) |___) |  __/ |_  | |__| |_| | | | (_| | || (_) | |
/_/   \_\__,_|\__,_|_|\___/|____/ \___|\__|  \____\__,_|_|  \__,_|\__\___/|_|

           AudioSet clip curator
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("usage: curator [--config FILE] [--label-index FILE] [--log-level LEVEL] <command> [flags]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  find     --label L... --dataset F --source DIR --dest DIR   sort downloaded files into label dirs")
	fmt.Println("  download --label L... --dataset F --dest DIR [--rate HZ]    fetch every clip of the classes")
	fmt.Println("  labels   [class name] [--strict]                             show the labels a class name resolves to")
	fmt.Println("  clip     <media id | url> --start S --dest DIR [--rate HZ]   fetch a single clip")
	fmt.Println()
	fmt.Println("find and download also take --strict, --blacklist B (repeatable) and --manifest-dir DIR.")
	fmt.Println("Class names may contain commas; repeat --label once per class.")
}
