package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Entry names one file to include in a kit archive.
type Entry struct {
	Name       string
	SourcePath string
}

// Archive reads every entry from disk and returns a zip archive containing
// them under their entry names.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	for _, entry := range entries {
		if err := addEntry(zw, entry); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func addEntry(zw *zip.Writer, entry Entry) error {
	if entry.Name == "" {
		return fmt.Errorf("zip: entry for %q has no name", entry.SourcePath)
	}
	src, err := os.Open(entry.SourcePath)
	if err != nil {
		return fmt.Errorf("zip: open %s: %w", entry.SourcePath, err)
	}
	defer src.Close()

	w, err := zw.Create(entry.Name)
	if err != nil {
		return fmt.Errorf("zip: create entry %s: %w", entry.Name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("zip: write entry %s: %w", entry.Name, err)
	}
	return nil
}
