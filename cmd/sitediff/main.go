// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sitediff crawls a working and a broken rendering of a web page and
// reports per-artifact differences.
//
// Usage:
//
//	sitediff [flags] <working-url> <broken-url>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentberlin/sitediff"
	"github.com/agentberlin/sitediff/internal/report"
)

// multiFlag collects repeated occurrences of a string flag
type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func main() {
	var (
		outputDir     = flag.String("o", "sitediff_output", "directory for downloaded artifacts")
		parallelism   = flag.Int("p", 8, "concurrent resource fetches per page")
		timeout       = flag.Duration("timeout", 10*time.Second, "per-request timeout")
		hashAlgorithm = flag.String("hash", "xxhash", "image hash algorithm: xxhash, md5 or sha256")
		detectCharset = flag.Bool("detect-charset", false, "sniff and transcode non-UTF-8 text resources")
		reportPath    = flag.String("report", "", "write an HTML report to this file")
		quiet         = flag.Bool("q", false, "suppress crawl progress output")
		ignore        multiFlag
	)
	flag.Var(&ignore, "ignore", "glob pattern for resource URLs to skip (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <working-url> <broken-url>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	workingURL := flag.Arg(0)
	brokenURL := flag.Arg(1)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *quiet {
		logger = logger.Level(zerolog.WarnLevel)
	}

	cfg := sitediff.NewDefaultCrawlConfig()
	cfg.OutputDir = *outputDir
	cfg.Parallelism = *parallelism
	cfg.Timeout = *timeout
	cfg.HashAlgorithm = *hashAlgorithm
	cfg.DetectCharset = *detectCharset
	cfg.IgnorePatterns = ignore
	cfg.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := sitediff.Compare(ctx, cfg, workingURL, brokenURL)
	if err != nil {
		logger.Error().Err(err).Msg("comparison failed")
		if errors.Is(err, sitediff.ErrMarkupUnavailable) {
			os.Exit(3)
		}
		os.Exit(1)
	}

	printSummary(result)

	if *reportPath != "" {
		if err := writeReport(*reportPath, result, workingURL, brokenURL); err != nil {
			logger.Error().Err(err).Msg("report generation failed")
			os.Exit(1)
		}
		fmt.Printf("\nHTML report written to %s\n", *reportPath)
	}
}

func printSummary(result *sitediff.DiffResult) {
	sections := []struct {
		title   string
		records []sitediff.DiffRecord
	}{
		{"Markup", result.Markup},
		{"Stylesheets", result.Stylesheets},
		{"Scripts", result.Scripts},
		{"Images", result.Images},
	}

	for _, sec := range sections {
		fmt.Printf("\n=== %s ===\n", sec.title)
		if len(sec.records) == 0 {
			fmt.Println("no artifacts")
			continue
		}
		for _, rec := range sec.records {
			fmt.Printf("  %-40s %s\n", rec.File, rec.Status)
			for _, change := range rec.Changes {
				fmt.Printf("    %s: %s", change.Path, change.Kind)
				if change.Attr != "" {
					fmt.Printf(" [%s]", change.Attr)
				}
				fmt.Printf(" %q -> %q\n", change.Working, change.Broken)
			}
			if rec.Diff != "" {
				fmt.Println(indent(rec.Diff, "    "))
			}
		}
	}
}

func indent(text, prefix string) string {
	out := ""
	for _, line := range splitLines(text) {
		out += prefix + line + "\n"
	}
	return out[:len(out)-1]
}

func splitLines(text string) []string {
	lines := []string{}
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func writeReport(path string, result *sitediff.DiffResult, workingURL, brokenURL string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	return report.Render(f, result, workingURL, brokenURL)
}
