package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// OutputManager stages output files next to their final paths and moves them
// into place together, so a failed run leaves no partial output behind.
type OutputManager struct {
	staged []stagedFile
}

type stagedFile struct {
	tmp    string
	final  string
	backup string
}

// NewOutputManager creates an empty output manager
func NewOutputManager() *OutputManager {
	return &OutputManager{}
}

// Create opens a temporary file in the directory of path, creating the
// directory if needed. The caller closes the file.
func (om *OutputManager) Create(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if err := file.Chmod(0644); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to set file mode: %w", err)
	}
	om.staged = append(om.staged, stagedFile{tmp: file.Name(), final: path})
	return file, nil
}

// Commit moves every staged file to its final path. A final path that is a
// directory fails the commit before anything moves. If a rename fails midway,
// files already moved are removed and the files they replaced are restored.
func (om *OutputManager) Commit() error {
	for _, f := range om.staged {
		info, err := os.Lstat(f.final)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", f.final, err)
		}
		if err == nil && info.IsDir() {
			return fmt.Errorf("failed to move %s into place: is a directory", f.final)
		}
	}

	var done []stagedFile
	for i, f := range om.staged {
		if err := replaceFile(&f); err != nil {
			om.staged = om.staged[i:]
			if rerr := rollback(done); rerr != nil {
				return errors.Join(fmt.Errorf("failed to move %s into place: %w", f.final, err), rerr)
			}
			return fmt.Errorf("failed to move %s into place: %w", f.final, err)
		}
		done = append(done, f)
	}
	om.staged = nil

	for _, f := range done {
		if f.backup != "" {
			if err := os.Remove(f.backup); err != nil {
				slog.Warn("Failed to remove replaced output", "component", "output", "path", f.backup, "error", err)
			}
		}
	}
	return nil
}

// replaceFile renames f.tmp over f.final, keeping an existing final file
// aside as f.backup until the commit completes.
func replaceFile(f *stagedFile) error {
	if _, err := os.Lstat(f.final); err == nil {
		f.backup = f.tmp + ".orig"
		if err := os.Rename(f.final, f.backup); err != nil {
			f.backup = ""
			return err
		}
	}
	if err := os.Rename(f.tmp, f.final); err != nil {
		if f.backup != "" {
			if rerr := os.Rename(f.backup, f.final); rerr != nil {
				return errors.Join(err, rerr)
			}
			f.backup = ""
		}
		return err
	}
	return nil
}

// rollback undoes committed renames in reverse order.
func rollback(done []stagedFile) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		f := done[i]
		if err := os.Remove(f.final); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		if f.backup != "" {
			if err := os.Rename(f.backup, f.final); err != nil {
				errs = append(errs, fmt.Errorf("failed to restore %s: %w", f.final, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Discard removes every staged file that has not been committed.
func (om *OutputManager) Discard() error {
	var errs []error
	for _, f := range om.staged {
		if err := os.Remove(f.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	om.staged = nil
	return errors.Join(errs...)
}

// Pending returns the final paths of files staged but not yet committed.
func (om *OutputManager) Pending() []string {
	paths := make([]string, 0, len(om.staged))
	for _, f := range om.staged {
		paths = append(paths, f.final)
	}
	return paths
}
