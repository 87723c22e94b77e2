package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"sursaud/internal"
)

// WriteTable writes t as a comma-delimited UTF-8 CSV with a header row. The
// data goes to a temporary file next to path and is renamed into place, so a
// failed run never leaves a truncated output behind.
func WriteTable(path string, t *internal.Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err = w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
