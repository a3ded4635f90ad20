// Package publish persists the assembled documents as static JSON artifacts
// and optionally announces a refresh over AMQP so the presentation layer can
// react without polling.
package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer writes artifacts below a fixed output root, creating directories as
// needed. Paths are always relative to the root.
type Writer struct {
	root string
}

func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// WriteJSON marshals v with two-space indentation and a trailing newline and
// writes it to relPath below the output root.
func (w *Writer) WriteJSON(relPath string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", relPath, err)
	}
	body = append(body, '\n')

	full := filepath.Join(w.root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(full, body, 0644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// Path returns the absolute location of an artifact below the root.
func (w *Writer) Path(relPath string) string {
	return filepath.Join(w.root, relPath)
}
