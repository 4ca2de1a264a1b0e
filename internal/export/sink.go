package export

import (
	"errors"
	"fmt"
	"io"
)

// Sink receives finished tables.
type Sink interface {
	WriteTable(t Table) error
}

// Flusher is implemented by sinks that buffer tables until the run ends.
type Flusher interface {
	Flush() error
}

// Flush flushes s if it buffers anything.
func Flush(s Sink) error {
	if f, ok := s.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Multi fans every table out to all sinks. A failing sink does not stop the
// others; their errors are joined.
type Multi []Sink

func (m Multi) WriteTable(t Table) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteTable(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Flush() error {
	var errs []error
	for _, s := range m {
		if err := Flush(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TableSink prints tables to a terminal.
type TableSink struct {
	W io.Writer
}

func (s TableSink) WriteTable(t Table) error {
	_, err := fmt.Fprintln(s.W, t.String())
	return err
}

// TableSaver persists a table under a run.
type TableSaver interface {
	SaveTable(runID string, t Table) error
}

// StoreSink saves every table under one run ID.
type StoreSink struct {
	Store TableSaver
	RunID string
}

func (s StoreSink) WriteTable(t Table) error {
	if err := s.Store.SaveTable(s.RunID, t); err != nil {
		return fmt.Errorf("saving table %q: %w", t.Name, err)
	}
	return nil
}
