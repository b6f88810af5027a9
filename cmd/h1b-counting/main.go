// Package main counts certified H-1B applications by occupation and state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"h1b-statistics/internal/model"
	"h1b-statistics/internal/pipeline"
	"h1b-statistics/internal/store"
	"h1b-statistics/pkg/utils"
)

// pathList is a repeatable flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("empty path")
	}
	*p = append(*p, v)
	return nil
}

// outputPaths accepts "-o a -o b", "-o a b" and a single "-o a,b".
func outputPaths(flagged pathList, rest []string) []string {
	switch {
	case len(flagged) == 1 && len(rest) == 1:
		return []string{flagged[0], rest[0]}
	case len(flagged) == 1 && len(rest) == 0 && strings.Contains(flagged[0], ","):
		return utils.SplitList(flagged[0])
	case len(rest) > 0:
		return append(flagged, rest...)
	}
	return flagged
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("h1b-counting", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var outputs pathList
	input := fs.String("i", "", "Input table, semicolon delimited with a header row")
	fs.Var(&outputs, "o", "Output paths: top occupations file, then top states file")
	topK := fs.Int("k", model.DefaultTopK, "Number of top values per field")
	status := fs.String("status", model.DefaultAcceptedStatus, "Accepted value of the status column")
	statusField := fs.String("status-field", model.DefaultStatusField, "Status column name")
	dbPath := fs.String("db", "", "Record run history in this sqlite database")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: h1b-counting -i <input> -o <top_occupations> [-o] <top_states> [options]\n\n")
		fmt.Fprintf(stderr, "Writes the top certified occupations and worksite states with their share.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	// flag stops at the first positional argument; keep it and resume parsing
	// so "-o a b -k 5" still reads -k.
	var rest []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			return 2
		}
		if fs.NArg() == 0 {
			break
		}
		rest = append(rest, fs.Arg(0))
		args = fs.Args()[1:]
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "error: invalid -log-level %q\n", *logLevel)
		return 2
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	paths := outputPaths(outputs, rest)
	if *input == "" || len(paths) != 2 {
		fmt.Fprintf(stderr, "error: need -i and exactly two output paths (got %d)\n", len(paths))
		fs.Usage()
		return 2
	}

	cfg := model.DefaultConfig()
	cfg.InputPath = *input
	cfg.Outputs[0].Path = paths[0]
	cfg.Outputs[1].Path = paths[1]
	cfg.TopK = *topK
	cfg.AcceptedStatus = *status
	cfg.StatusField = *statusField

	var recorder pipeline.Recorder
	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: run history: %v\n", err)
			return 1
		}
		defer st.Close()
		recorder = st
	}

	res, err := pipeline.New(recorder).Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	for _, out := range res.Outputs {
		slog.Info("Wrote top values", "field", out.Field, "path", out.Path, "entries", len(out.Entries))
	}
	slog.Info("Done", "run_id", res.RunID, "rows", res.Total, "certified", res.Filtered)
	return 0
}
