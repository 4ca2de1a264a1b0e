package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CSVSink writes each table to <Dir>/<name>.csv, creating sub-directories.
type CSVSink struct {
	Dir string
}

func (s CSVSink) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return filepath.Join(s.Dir, clean+".csv"), nil
}

func (s CSVSink) WriteTable(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	path, err := s.path(t.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %q: %w", t.Name, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// YAMLSink collects tables and writes them as one YAML document on Flush.
type YAMLSink struct {
	W io.Writer

	tables []Table
}

func (s *YAMLSink) WriteTable(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.tables = append(s.tables, t)
	return nil
}

func (s *YAMLSink) Flush() error {
	encoder := yaml.NewEncoder(s.W)
	encoder.SetIndent(2)
	if err := encoder.Encode(struct {
		Tables []Table `yaml:"tables"`
	}{s.tables}); err != nil {
		return fmt.Errorf("encoding tables: %w", err)
	}
	s.tables = nil
	return encoder.Close()
}
