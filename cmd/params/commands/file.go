package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// fileAdapter persists the document in a file. A missing or empty file is
// the absent document; writing an absent document truncates the file.
type fileAdapter struct {
	path string
}

func (a fileAdapter) ReadRaw() (string, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", a.path, err)
	}
	return string(data), nil
}

func (a fileAdapter) WriteRaw(raw string) error {
	if raw != "" {
		raw += "\n"
	}
	if err := os.WriteFile(a.path, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.path, err)
	}
	return nil
}
