package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"h1b-statistics/internal/model"
	"h1b-statistics/pkg/utils"
)

// FormatPercentage renders ratio as a percentage with one decimal and a "%"
// suffix. The exact binary value of ratio*100 is rounded correctly, exact
// ties going to the even digit: 1/3 -> "33.3%", 0.0625 -> "6.2%".
func FormatPercentage(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

// WriteRanked writes entries as a `;` delimited table headed by
// valueColumn;NUMBER_CERTIFIED_APPLICATIONS;PERCENTAGE.
func WriteRanked(w io.Writer, valueColumn string, entries []model.RankedEntry) error {
	writer := csv.NewWriter(w)
	writer.Comma = Delimiter

	if err := writer.Write([]string{valueColumn, model.CountColumn, model.PercentageColumn}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		row := []string{e.Value, strconv.Itoa(e.Count), FormatPercentage(e.Ratio)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// exportOutputs stages one file per output with a path and commits them all
// only when every file was written.
func exportOutputs(outputs []model.RankedOutput) (err error) {
	om := utils.NewOutputManager()
	defer func() {
		if err != nil {
			if derr := om.Discard(); derr != nil {
				slog.Warn("Failed to remove staged output", "component", "export", "error", derr)
			}
		}
	}()

	for _, out := range outputs {
		if out.Path == "" {
			continue
		}
		if err := writeStaged(om, out); err != nil {
			return err
		}
	}

	pending := om.Pending()
	if err := om.Commit(); err != nil {
		return &IOError{Op: "commit", Err: err}
	}
	for _, p := range pending {
		slog.Info("Export to file successful", "component", "export", "path", p)
	}
	return nil
}

func writeStaged(om *utils.OutputManager, out model.RankedOutput) error {
	file, err := om.Create(out.Path)
	if err != nil {
		return &IOError{Op: "create", Path: out.Path, Err: err}
	}
	if err := WriteRanked(file, out.ValueColumn, out.Entries); err != nil {
		file.Close()
		return &IOError{Op: "write", Path: out.Path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &IOError{Op: "write", Path: out.Path, Err: err}
	}
	return nil
}
