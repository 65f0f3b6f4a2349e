package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gymtrack/internal/imagemap"
	"gymtrack/internal/imagesync"
)

func printBuildReport(out io.Writer, report imagesync.BuildReport, showReview, colorize bool) {
	for _, line := range renderSectionHeader("Build map", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, report.Mode, colorize))
	fmt.Fprintln(out, renderStatusLine("Folder candidates", statusInfo, strings.Join(report.Folders, ", "), colorize))
	fmt.Fprintln(out, renderStatusLine("Resources scanned", statusInfo, strconv.Itoa(report.Scanned), colorize))
	fmt.Fprintln(out, renderStatusLine("Auto-matched", statusOK, strconv.Itoa(report.Accepted), colorize))
	reviewKind := statusOK
	if report.NeedReview > 0 {
		reviewKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Needs review", reviewKind, strconv.Itoa(report.NeedReview), colorize))
	fmt.Fprintln(out, renderStatusLine("Auto map", statusInfo, report.AutoMap, colorize))
	fmt.Fprintln(out, renderStatusLine("Review list", statusInfo, report.ReviewFile, colorize))

	if !showReview || len(report.Review) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Review))
	for _, entry := range report.Review {
		best := "-"
		suggestions := make([]string, 0, len(entry.Suggestions))
		for i, s := range entry.Suggestions {
			if i == 0 {
				best = strconv.Itoa(s.Score)
			}
			suggestions = append(suggestions, fmt.Sprintf("%s (%d)", s.ID, s.Score))
		}
		if len(suggestions) == 0 {
			suggestions = append(suggestions, "-")
		}
		rows = append(rows, []string{entry.PublicID, best, strings.Join(suggestions, ", ")})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Public ID", "Best", "Suggestions"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}

func printSyncReport(out io.Writer, report imagesync.SyncReport, colorize bool) {
	for _, line := range renderSectionHeader("Sync", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, report.Mode, colorize))
	fmt.Fprintln(out, renderStatusLine("Folder candidates", statusInfo, strings.Join(report.Folders, ", "), colorize))
	fmt.Fprintln(out, renderStatusLine("Resources scanned", statusInfo, strconv.Itoa(report.Scanned), colorize))
	fmt.Fprintln(out, renderStatusLine("Overrides", statusInfo, strconv.Itoa(report.Overrides), colorize))
	fmt.Fprintln(out, renderStatusLine("Unchanged", statusInfo, strconv.Itoa(report.Unchanged), colorize))
	fmt.Fprintln(out, renderStatusLine("Matched", statusOK, strconv.Itoa(report.Matched), colorize))
	fmt.Fprintln(out, renderStatusLine("Updated", statusOK, strconv.Itoa(report.Modified), colorize))
	failedKind := statusOK
	if report.Failed > 0 {
		failedKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failedKind, strconv.Itoa(report.Failed), colorize))
	skippedKind := statusOK
	if report.Skipped > 0 {
		skippedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Skipped", skippedKind, strconv.Itoa(report.Skipped), colorize))
	fmt.Fprintln(out, renderStatusLine("Missing public id", statusInfo, strconv.Itoa(report.MissingPublicID), colorize))
	for _, line := range mapSourceLines(report.MapSource) {
		fmt.Fprintln(out, renderStatusLine(line[0], statusInfo, line[1], colorize))
	}

	if len(report.SkippedSamples) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.SkippedSamples))
	for _, sample := range report.SkippedSamples {
		rows = append(rows, []string{sample.PublicID, strings.Join(sample.Variants, ", ")})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Skipped asset", "Variants tried"}, rows, nil))
}

func mapSourceLines(src imagemap.Source) [][2]string {
	if src.MapFile != "" {
		return [][2]string{{"Map file", src.MapFile}}
	}
	return [][2]string{
		{"Auto map", valueOrNone(src.AutoMap)},
		{"Manual map", valueOrNone(src.ManualMap)},
	}
}

func printClearReport(out io.Writer, report imagesync.ClearReport, colorize bool) {
	for _, line := range renderSectionHeader("Clear images", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, report.Mode(), colorize))
	fmt.Fprintln(out, renderStatusLine("Modified", statusOK, strconv.Itoa(report.Modified), colorize))
	fmt.Fprintln(out, renderStatusLine("Missing public id", statusInfo, strconv.Itoa(report.MissingPublicID), colorize))
}

func valueOrNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(none)"
	}
	return value
}
