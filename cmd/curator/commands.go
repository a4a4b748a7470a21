package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/himanishpuri/AudioSetCurator/internal/config"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/dataset"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
	"github.com/himanishpuri/AudioSetCurator/pkg/logger"
	"github.com/himanishpuri/AudioSetCurator/pkg/utils"
)

// parseFlags parses a subcommand's flags. Positional arguments are returned
// as extra class names.
func parseFlags(fs *pflag.FlagSet, args []string) ([]string, bool) {
	if err := fs.Parse(args); err != nil {
		// pflag has already printed the error and usage
		return nil, false
	}
	return fs.Args(), true
}

func handleFind(ctx context.Context, cfg *config.Config, args []string) int {
	log := logger.GetLogger()

	fs := pflag.NewFlagSet("find", pflag.ContinueOnError)
	var classes []string
	fs.StringArrayVarP(&classes, "label", "l", nil, "class name to look for (repeatable)")
	fs.StringVar(&cfg.SourceDir, "source", cfg.SourceDir, "directory holding already downloaded files")
	cfg.BindFilter(fs)

	rest, ok := parseFlags(fs, args)
	if !ok {
		return 1
	}
	classes = append(classes, rest...)

	if len(classes) == 0 || cfg.SourceDir == "" || cfg.DestDir == "" {
		fmt.Println("Error: --label, --source and --dest are required")
		fmt.Println("Usage: curator find --label <class> [--label <class>...] --dataset <csv> --source <dir> --dest <dir>")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fatal(log, "Configuration check", err)
		return 1
	}

	fmt.Println("🔧 Loading label index...")
	svc, err := createService(cfg, log)
	if err != nil {
		fatal(log, "Service initialization", err)
		return 1
	}

	fmt.Printf("🔍 Sorting files of %d class(es) from %s\n", len(classes), cfg.SourceDir)
	report, err := svc.Find(ctx, classes, cfg.Dataset, cfg.SourceDir, cfg.DestDir)
	if report != nil {
		printFindReport(report)
	}
	if err != nil {
		fatal(log, "Find", err)
		return 1
	}
	return 0
}

func handleDownload(ctx context.Context, cfg *config.Config, args []string) int {
	log := logger.GetLogger()

	fs := pflag.NewFlagSet("download", pflag.ContinueOnError)
	var classes []string
	fs.StringArrayVarP(&classes, "label", "l", nil, "class name to download (repeatable)")
	cfg.BindFilter(fs)
	cfg.BindFetch(fs)

	rest, ok := parseFlags(fs, args)
	if !ok {
		return 1
	}
	classes = append(classes, rest...)

	if len(classes) == 0 || cfg.DestDir == "" {
		fmt.Println("Error: --label and --dest are required")
		fmt.Println("Usage: curator download --label <class> [--label <class>...] --dataset <csv> --dest <dir> [--rate <hz>]")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fatal(log, "Configuration check", err)
		return 1
	}

	fmt.Println("🔧 Loading label index...")
	svc, err := createService(cfg, log)
	if err != nil {
		fatal(log, "Service initialization", err)
		return 1
	}

	fmt.Printf("📥 Downloading %s clips at %d Hz into %s\n", cfg.ClipDuration, cfg.SampleRate, cfg.DestDir)
	fmt.Println("   This may take a while; one clip is fetched at a time")
	report, err := svc.Download(ctx, classes, cfg.Dataset, cfg.DestDir)
	if report != nil {
		printDownloadReport(report)
	}
	if err != nil {
		fatal(log, "Download", err)
		return 1
	}
	return 0
}

func handleLabels(cfg *config.Config, args []string) int {
	log := logger.GetLogger()

	fs := pflag.NewFlagSet("labels", pflag.ContinueOnError)
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "match the class name exactly")
	rest, ok := parseFlags(fs, args)
	if !ok {
		return 1
	}
	className := strings.Join(rest, " ")

	if className == "" {
		ix, err := labels.LoadIndex(cfg.LabelIndex)
		if err != nil {
			fatal(log, "Loading label index", err)
			return 1
		}
		printLabelTable(ix.Entries())
		return 0
	}

	svc, err := createService(cfg, log)
	if err != nil {
		fatal(log, "Service initialization", err)
		return 1
	}
	entries := svc.Resolve(className)
	if len(entries) == 0 {
		fmt.Printf("\n📭 No label matches %q\n", className)
		return 0
	}
	fmt.Printf("\n🏷️  %q resolves to %d label(s):\n\n", className, len(entries))
	printLabelTable(entries)
	return 0
}

func handleClip(ctx context.Context, cfg *config.Config, args []string) int {
	log := logger.GetLogger()

	fs := pflag.NewFlagSet("clip", pflag.ContinueOnError)
	var start float64
	fs.Float64Var(&start, "start", 0, "clip start in seconds")
	fs.StringVar(&cfg.DestDir, "dest", cfg.DestDir, "output directory")
	cfg.BindFetch(fs)

	rest, ok := parseFlags(fs, args)
	if !ok {
		return 1
	}
	if len(rest) != 1 || cfg.DestDir == "" {
		fmt.Println("Usage: curator clip <media id or YouTube URL> --start <seconds> --dest <dir> [--rate <hz>]")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fatal(log, "Configuration check", err)
		return 1
	}

	mediaID, err := utils.MediaIDFromInput(rest[0])
	if err != nil {
		fatal(log, "Reading media id", err)
		return 1
	}

	fmt.Printf("📥 Fetching %s from %ss...\n", mediaID, dataset.FormatOffset(start))
	path, err := cfg.Clipper().Fetch(ctx, fetch.Request{MediaID: mediaID, Start: start, DestDir: cfg.DestDir})
	if err != nil {
		fatal(log, "Clip", err)
		return 1
	}

	info, err := fetch.VerifyClip(path, cfg.SampleRate)
	if err != nil {
		fatal(log, "Clip check", err)
		return 1
	}
	var size string
	if st, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	successColor.Printf("\n✅ Saved %s\n", path)
	fmt.Printf("   %d Hz, %d channel(s), %d-bit, %s, %s\n", info.SampleRate, info.Channels, info.BitDepth, info.Duration, size)
	return 0
}
