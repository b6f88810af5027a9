package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"h1b-statistics/internal/model"
)

// Recorder persists run history. store.Store implements it.
type Recorder interface {
	StartRun(ctx context.Context, runID string, cfg model.Config) error
	CompleteRun(ctx context.Context, runID string, tally model.Tally, outputs []model.RankedOutput) error
	FailRun(ctx context.Context, runID string, runErr error) error
}

// Result summarizes a successful run
type Result struct {
	RunID    string               `json:"run_id"`
	Total    int                  `json:"total_rows"`
	Filtered int                  `json:"filtered_rows"`
	Outputs  []model.RankedOutput `json:"outputs"`
	Duration time.Duration        `json:"duration"`
}

// Pipeline runs tally, rank and export for one input at a time.
type Pipeline struct {
	recorder Recorder
}

// New returns a pipeline. recorder may be nil.
func New(recorder Recorder) *Pipeline {
	return &Pipeline{recorder: recorder}
}

// Run reads cfg.InputPath and writes every output that has a path.
func (p *Pipeline) Run(ctx context.Context, cfg model.Config) (Result, error) {
	file, err := os.Open(cfg.InputPath)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return Result{}, &IOError{Op: "open", Path: cfg.InputPath, Err: err}
	}
	defer file.Close()

	res, err := p.RunReader(ctx, cfg, file)
	var ioErr *IOError
	if errors.As(err, &ioErr) && ioErr.Op == "read" && ioErr.Path == "" {
		ioErr.Path = cfg.InputPath
	}
	return res, err
}

// RunReader is Run with the input supplied by the caller.
func (p *Pipeline) RunReader(ctx context.Context, cfg model.Config, r io.Reader) (res Result, err error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid config: %w", err)
	}

	start := time.Now()
	runID := uuid.New().String()
	logger := slog.With("component", "pipeline", "run_id", runID)
	logger.Info("Starting run", "input", cfg.InputPath, "status_field", cfg.StatusField,
		"accepted_status", cfg.AcceptedStatus, "top_k", cfg.TopK)

	if p.recorder != nil {
		if err := p.recorder.StartRun(ctx, runID, cfg); err != nil {
			return Result{}, fmt.Errorf("record run start: %w", err)
		}
		defer func() {
			if err != nil {
				if rerr := p.recorder.FailRun(context.WithoutCancel(ctx), runID, err); rerr != nil {
					logger.Warn("Failed to record run failure", "error", rerr)
				}
			}
		}()
	}

	src, err := NewCSVReader(r, cfg.Aliases)
	if err != nil {
		if errors.Is(err, ErrNoHeader) {
			return Result{}, err
		}
		return Result{}, &IOError{Op: "read", Err: err}
	}

	tally, err := TallyRecords(ctx, src, TallySpec{
		Fields:         cfg.Fields(),
		StatusField:    cfg.StatusField,
		AcceptedStatus: cfg.AcceptedStatus,
	})
	if err != nil {
		return Result{}, err
	}

	if tally.Filtered == 0 {
		return Result{}, fmt.Errorf("%w: none of %d rows have %s=%s",
			ErrZeroDenominator, tally.Total, cfg.StatusField, cfg.AcceptedStatus)
	}

	outputs := make([]model.RankedOutput, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		entries, err := TopK(tally.Tables[o.Field], cfg.TopK, tally.Filtered)
		if err != nil {
			return Result{}, fmt.Errorf("rank %s: %w", o.Field, err)
		}
		outputs = append(outputs, model.RankedOutput{
			Field:       o.Field,
			ValueColumn: o.ValueColumn,
			Path:        o.Path,
			Entries:     entries,
		})
	}

	if err := exportOutputs(outputs); err != nil {
		return Result{}, err
	}

	if p.recorder != nil {
		if err := p.recorder.CompleteRun(ctx, runID, tally, outputs); err != nil {
			return Result{}, fmt.Errorf("record run completion: %w", err)
		}
	}

	res = Result{
		RunID:    runID,
		Total:    tally.Total,
		Filtered: tally.Filtered,
		Outputs:  outputs,
		Duration: time.Since(start),
	}
	logger.Info("Run completed", "rows", res.Total, "filtered", res.Filtered, "duration", res.Duration)
	return res, nil
}
