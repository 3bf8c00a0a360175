package dispatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// deriveWorkdir computes the working directory for a task when none was
// given explicitly: the description filename without its .sby extension,
// with `_<task>` appended for a named task.
func deriveWorkdir(file, task string) string {
	dir := strings.TrimSuffix(file, ".sby")
	if task != "" {
		dir += "_" + task
	}
	return dir
}

// createWorkdir creates dir, making parents as needed. The final create is a
// single os.Mkdir so that two invocations racing for the same target cannot
// both succeed: the loser sees the directory appear and fails, where a
// stat-then-create pair would let both through.
func createWorkdir(dir string) error {
	if parent := filepath.Dir(dir); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", parent, err)
		}
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("directory '%s' already exists", dir)
		}
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// backupPath returns the first free numbered backup name for dir, scanning
// suffixes sequentially from 0. An existing backup is never overwritten.
func backupPath(dir string) (string, error) {
	for idx := 0; ; idx++ {
		candidate := fmt.Sprintf("%s.bak%03d", dir, idx)
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("probing backup name %s: %w", candidate, err)
		}
	}
}
