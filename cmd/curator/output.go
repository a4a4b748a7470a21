package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	labelColor   = color.New(color.FgCyan)
)

func printLabelTable(entries []labels.Entry) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Label ID", "Display name"})
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold})
	for _, e := range entries {
		table.Append([]string{strconv.Itoa(e.Index), e.ID, e.DisplayName})
	}
	table.Render()
}

func printClass(res *audioset.ClassResult) {
	if !res.Resolved() {
		warnColor.Printf("⚠️  %q matched no label\n", res.Class)
		return
	}
	fmt.Printf("\n🏷️  %s: %d label(s), %d matching row(s)\n", res.Class, len(res.LabelIDs), res.Rows)
	if len(res.Blacklist) > 0 {
		fmt.Printf("   Blacklisted ids: %v\n", res.Blacklist)
	}

	dirs := make([]string, 0, len(res.Groups))
	for dir := range res.Groups {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	for _, dir := range dirs {
		fmt.Printf("   %s %d clip(s)\n", labelColor.Sprintf("%-40s", dir), res.Groups[dir])
	}
	for _, id := range res.Missing {
		warnColor.Printf("   no clips for %s\n", id)
	}
	if res.Manifest != "" {
		fmt.Printf("   Manifest: %s\n", res.Manifest)
	}
}

func printFindReport(report *audioset.FindReport) {
	copied := 0
	var bytes int64
	for _, res := range report.Classes {
		printClass(res)
		if res.Organized != nil {
			copied += res.Organized.Copied
			bytes += res.Organized.Bytes
			fmt.Printf("   %s\n", res.Organized)
		}
		if res.Err != nil {
			errorColor.Printf("   ❌ %v\n", res.Err)
		}
	}

	fmt.Println()
	successColor.Printf("✅ Copied %d file(s), %s, in %s\n",
		copied, humanize.Bytes(uint64(bytes)), report.Elapsed.Round(time.Millisecond))
	if un := report.Unresolved(); len(un) > 0 {
		warnColor.Printf("   Unresolved classes: %v\n", un)
	}
}

func printDownloadReport(report *audioset.DownloadReport) {
	for _, res := range report.Classes {
		printClass(res)
	}

	fmt.Println()
	successColor.Printf("✅ Fetched %d of %d clip(s) in %s\n",
		len(report.Fetched), report.Attempted, report.Elapsed.Round(time.Millisecond))
	if len(report.Failures) > 0 {
		errorColor.Printf("❌ %d clip(s) failed:\n", len(report.Failures))
		maxDisplay := 10
		for i, fe := range report.Failures {
			if i == maxDisplay {
				fmt.Printf("   ... and %d more\n", len(report.Failures)-maxDisplay)
				break
			}
			fmt.Printf("   %s\n", fe)
		}
	}
	if un := report.Unresolved(); len(un) > 0 {
		warnColor.Printf("   Unresolved classes: %v\n", un)
	}
}
