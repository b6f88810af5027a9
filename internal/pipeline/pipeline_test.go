package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"h1b-statistics/internal/model"
)

const sampleInput = `CASE_STATUS;SOC_NAME;WORKSITE_STATE
CERTIFIED;SOFTWARE DEVELOPERS, APPLICATIONS;CA
CERTIFIED;SOFTWARE DEVELOPERS, APPLICATIONS;TX
CERTIFIED;COMPUTER SYSTEMS ANALYSTS;CA
DENIED;COMPUTER SYSTEMS ANALYSTS;NY
CERTIFIED;ACCOUNTANTS;NY
WITHDRAWN;ACCOUNTANTS;NY
`

type fakeRecorder struct {
	started   []string
	completed []string
	failed    map[string]error
	tally     model.Tally
	outputs   []model.RankedOutput
}

func (f *fakeRecorder) StartRun(ctx context.Context, runID string, cfg model.Config) error {
	f.started = append(f.started, runID)
	return nil
}

func (f *fakeRecorder) CompleteRun(ctx context.Context, runID string, tally model.Tally, outputs []model.RankedOutput) error {
	f.completed = append(f.completed, runID)
	f.tally = tally
	f.outputs = outputs
	return nil
}

func (f *fakeRecorder) FailRun(ctx context.Context, runID string, runErr error) error {
	if f.failed == nil {
		f.failed = make(map[string]error)
	}
	f.failed[runID] = runErr
	return nil
}

func testConfig(t *testing.T, input string) (model.Config, string) {
	t.Helper()
	dir := t.TempDir()
	inPath := filepath.Join(dir, "input", "h1b_input.csv")
	if err := os.MkdirAll(filepath.Dir(inPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inPath, []byte(input), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := model.DefaultConfig()
	cfg.InputPath = inPath
	cfg.Outputs[0].Path = filepath.Join(dir, "output", "top_10_occupations.txt")
	cfg.Outputs[1].Path = filepath.Join(dir, "output", "top_10_states.txt")
	return cfg, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRun_WritesOutputs(t *testing.T) {
	cfg, _ := testConfig(t, sampleInput)
	rec := &fakeRecorder{}

	res, err := New(rec).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 6 || res.Filtered != 4 {
		t.Errorf("expected 6 total / 4 filtered, got %d / %d", res.Total, res.Filtered)
	}
	if res.RunID == "" {
		t.Error("expected a run ID")
	}

	wantOcc := "TOP_OCCUPATIONS;NUMBER_CERTIFIED_APPLICATIONS;PERCENTAGE\n" +
		"SOFTWARE DEVELOPERS, APPLICATIONS;2;50.0%\n" +
		"ACCOUNTANTS;1;25.0%\n" +
		"COMPUTER SYSTEMS ANALYSTS;1;25.0%\n"
	if got := readFile(t, cfg.Outputs[0].Path); got != wantOcc {
		t.Errorf("occupations:\n%s\nwant:\n%s", got, wantOcc)
	}

	wantStates := "TOP_STATES;NUMBER_CERTIFIED_APPLICATIONS;PERCENTAGE\n" +
		"CA;2;50.0%\n" +
		"NY;1;25.0%\n" +
		"TX;1;25.0%\n"
	if got := readFile(t, cfg.Outputs[1].Path); got != wantStates {
		t.Errorf("states:\n%s\nwant:\n%s", got, wantStates)
	}

	if len(rec.started) != 1 || len(rec.completed) != 1 || rec.started[0] != res.RunID {
		t.Errorf("expected one recorded run %s, got started=%v completed=%v", res.RunID, rec.started, rec.completed)
	}
	if len(rec.failed) != 0 {
		t.Errorf("expected no failed runs, got %v", rec.failed)
	}
	if rec.tally.Filtered != 4 || len(rec.outputs) != 2 {
		t.Errorf("unexpected recorded result: %+v", rec.tally)
	}
}

func TestRun_TopKLimits(t *testing.T) {
	cfg, _ := testConfig(t, sampleInput)
	cfg.TopK = 1

	res, err := New(nil).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, out := range res.Outputs {
		if len(out.Entries) != 1 {
			t.Errorf("%s: expected 1 entry, got %d", out.Field, len(out.Entries))
		}
	}
	want := "TOP_STATES;NUMBER_CERTIFIED_APPLICATIONS;PERCENTAGE\nCA;2;50.0%\n"
	if got := readFile(t, cfg.Outputs[1].Path); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRun_ZeroDenominatorWritesNothing(t *testing.T) {
	cfg, _ := testConfig(t, "CASE_STATUS;SOC_NAME;WORKSITE_STATE\nDENIED;DEV;CA\nWITHDRAWN;DEV;TX\n")
	rec := &fakeRecorder{}

	_, err := New(rec).Run(context.Background(), cfg)
	if !errors.Is(err, ErrZeroDenominator) {
		t.Fatalf("expected ErrZeroDenominator, got %v", err)
	}
	if !strings.Contains(err.Error(), "no matching records") {
		t.Errorf("expected a clear message, got %q", err.Error())
	}
	for _, o := range cfg.Outputs {
		if _, err := os.Stat(o.Path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected %s not to exist, got %v", o.Path, err)
		}
	}
	if len(rec.failed) != 1 {
		t.Errorf("expected the run to be recorded as failed, got %v", rec.failed)
	}
}

func TestRun_MissingFieldWritesNothing(t *testing.T) {
	cfg, _ := testConfig(t, "CASE_STATUS;SOC_NAME\nCERTIFIED;DEV\n")

	_, err := New(nil).Run(context.Background(), cfg)
	var mf *MissingFieldError
	if !errors.As(err, &mf) {
		t.Fatalf("expected *MissingFieldError, got %v", err)
	}
	if mf.Field != "WORKSITE_STATE" {
		t.Errorf("expected WORKSITE_STATE, got %s", mf.Field)
	}
	if _, err := os.Stat(cfg.Outputs[0].Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no output, got %v", err)
	}
}

func TestRun_MissingInput(t *testing.T) {
	cfg, dir := testConfig(t, sampleInput)
	cfg.InputPath = filepath.Join(dir, "nope.csv")

	_, err := New(nil).Run(context.Background(), cfg)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %v", err)
	}
	if ioErr.Op != "open" || ioErr.Path != cfg.InputPath {
		t.Errorf("unexpected IOError: %+v", ioErr)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected cause to be os.ErrNotExist, got %v", err)
	}
}

func TestRun_UnwritableOutputLeavesNoPartialFiles(t *testing.T) {
	cfg, dir := testConfig(t, sampleInput)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Outputs[1].Path = filepath.Join(blocker, "top_10_states.txt")

	_, err := New(nil).Run(context.Background(), cfg)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %v", err)
	}
	if ioErr.Path != cfg.Outputs[1].Path {
		t.Errorf("expected error for %s, got %+v", cfg.Outputs[1].Path, ioErr)
	}

	if _, err := os.Stat(cfg.Outputs[0].Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected first output not to be written, got %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(cfg.Outputs[0].Path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected staged files to be removed, found %d entries", len(entries))
	}
}

func TestRun_OutputIsDirectoryKeepsPreviousFiles(t *testing.T) {
	cfg, _ := testConfig(t, sampleInput)
	if err := os.MkdirAll(filepath.Dir(cfg.Outputs[0].Path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Outputs[0].Path, []byte("previous run\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.Outputs[1].Path, "keep"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := New(nil).Run(context.Background(), cfg)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "commit" {
		t.Fatalf("expected commit *IOError, got %v", err)
	}

	if got := readFile(t, cfg.Outputs[0].Path); got != "previous run\n" {
		t.Errorf("expected first output untouched, got %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(cfg.Outputs[0].Path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only the previous output and the directory, found %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(cfg.Outputs[1].Path, "keep")); err != nil {
		t.Errorf("expected directory contents kept: %v", err)
	}
}

func TestRunReader_WithoutPaths(t *testing.T) {
	cfg := model.DefaultConfig()

	res, err := New(nil).RunReader(context.Background(), cfg, strings.NewReader(sampleInput))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(res.Outputs))
	}
	occ := res.Outputs[0]
	if occ.Field != "SOC_NAME" || occ.Entries[0].Value != "SOFTWARE DEVELOPERS, APPLICATIONS" {
		t.Errorf("unexpected first output: %+v", occ)
	}
}

func TestRunReader_InvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TopK = -1
	if _, err := New(nil).RunReader(context.Background(), cfg, strings.NewReader(sampleInput)); err == nil {
		t.Error("expected error for negative top k")
	}
}
