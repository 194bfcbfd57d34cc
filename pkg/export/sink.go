package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nicktill/healthexport/pkg/health"
)

// Mode selects how the sink treats an existing destination
type Mode int

const (
	// ModeAppend appends rows and writes the header only when the file does
	// not exist yet. Used once per window by chunked extractions.
	ModeAppend Mode = iota
	// ModeCreate truncates the file and always writes the header. Used by
	// single-shot extractions.
	ModeCreate
)

func (m Mode) String() string {
	if m == ModeCreate {
		return "create"
	}
	return "append"
}

// Sink writes complete rows as CSV in a fixed column layout
type Sink struct {
	Path   string
	Schema health.Schema
	Mode   Mode
}

// NewSink creates a sink for path
func NewSink(path string, schema health.Schema, mode Mode) *Sink {
	return &Sink{Path: path, Schema: schema, Mode: mode}
}

// Write reindexes rows to the schema, drops any row missing one of the four
// physiological values, and writes the rest. It returns the number of rows
// written. When no row survives, the destination is not touched.
func (s *Sink) Write(rows []*health.Row) (written int, err error) {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record, complete := s.Schema.Record(row)
		if !complete {
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return 0, nil
	}

	header := true
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if s.Mode == ModeAppend {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		_, statErr := os.Stat(s.Path)
		switch {
		case statErr == nil:
			header = false
		case !errors.Is(statErr, fs.ErrNotExist):
			return 0, fmt.Errorf("failed to stat %s: %w", s.Path, statErr)
		}
	}

	f, err := os.OpenFile(s.Path, flag, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", s.Path, cerr)
		}
	}()

	writer := csv.NewWriter(f)
	if header {
		if err := writer.Write(s.Schema.Columns); err != nil {
			return 0, fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	// WriteAll flushes and reports any buffered write error
	if err := writer.WriteAll(records); err != nil {
		return 0, fmt.Errorf("failed to write CSV rows: %w", err)
	}

	return len(records), nil
}
