package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"h1b-statistics/internal/model"
)

const progressEvery = 100000

// TallySpec names the columns a tally reads.
type TallySpec struct {
	Fields         []string
	StatusField    string
	AcceptedStatus string
}

// TallyRecords makes a single pass over src. Every record must carry the
// status field and every counted field; rows whose status differs from
// AcceptedStatus still count toward Total.
func TallyRecords(ctx context.Context, src RecordSource, spec TallySpec) (model.Tally, error) {
	required := append([]string{spec.StatusField}, spec.Fields...)

	if hs, ok := src.(headerSource); ok {
		if err := checkHeader(hs.Header(), required); err != nil {
			return model.Tally{}, err
		}
	}

	tally := model.Tally{Tables: make(map[string]model.FrequencyTable, len(spec.Fields))}
	for _, f := range spec.Fields {
		tally.Tables[f] = make(model.FrequencyTable)
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.Tally{}, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Tally{}, &IOError{Op: "read", Err: fmt.Errorf("row %d: %w", tally.Total+1, err)}
		}
		tally.Total++

		for _, f := range required {
			if _, ok := rec[f]; !ok {
				return model.Tally{}, &MissingFieldError{Row: tally.Total, Field: f}
			}
		}

		if tally.Total%progressEvery == 0 {
			slog.Debug("Tally progress", "component", "tally", "rows", tally.Total, "filtered", tally.Filtered)
		}

		if rec[spec.StatusField] != spec.AcceptedStatus {
			continue
		}
		tally.Filtered++
		for _, f := range spec.Fields {
			tally.Tables[f][rec[f]]++
		}
	}

	slog.Info("Tally complete", "component", "tally", "rows", tally.Total, "filtered", tally.Filtered)
	return tally, nil
}

func checkHeader(header, required []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, f := range required {
		if !have[f] {
			return &MissingFieldError{Row: 0, Field: f}
		}
	}
	return nil
}
