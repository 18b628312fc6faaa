package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/store"
)

// ErrNoRecords is returned by Save when there is nothing to write.
var ErrNoRecords = errors.New("no records to write")

const utf8BOM = "\ufeff"

// Load reads a CSV file whose header row names the fields. A missing file is
// not an error: it yields an empty set and a warning.
func Load(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Logger().Warn("records file not found", "path", path)
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open records file %q: %w", path, err)
	}
	defer f.Close()

	rs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read records file %q: %w", path, err)
	}
	logging.Logger().Info("loaded records", "path", path, "count", len(rs))
	return rs, nil
}

// Read parses CSV rows from r. Short rows are padded with "" and cells beyond
// the header are dropped.
func Read(r io.Reader) ([]*Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rs := []*Record{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rs)+2, err)
		}
		if len(row) > len(header) {
			logging.Logger().Debug("dropping cells beyond header", "row", len(rs)+2, "extra", len(row)-len(header))
			row = row[:len(header)]
		}
		rs = append(rs, NewRecord(header, row))
	}
	return rs, nil
}

// Save writes rs as CSV using the first record's field order as the header.
// An empty set returns ErrNoRecords without touching path.
func Save(path string, rs []*Record) error {
	if len(rs) == 0 {
		logging.Logger().Warn("nothing to write", "path", path)
		return ErrNoRecords
	}
	err := store.WriteFileFunc(path, func(w io.Writer) error {
		return Write(w, rs)
	})
	if err != nil {
		return fmt.Errorf("save records to %q: %w", path, err)
	}
	logging.Logger().Info("saved records", "path", path, "count", len(rs))
	return nil
}

// Write encodes rs as CSV to w. Records may omit header fields but must not
// carry fields the first record lacks.
func Write(w io.Writer, rs []*Record) error {
	if len(rs) == 0 {
		return ErrNoRecords
	}
	header := rs[0].Keys()
	known := make(map[string]struct{}, len(header))
	for _, k := range header {
		known[k] = struct{}{}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for i, r := range rs {
		for _, k := range r.keys {
			if _, ok := known[k]; !ok {
				return fmt.Errorf("record %d has field %q not in header", i, k)
			}
		}
		for j, k := range header {
			row[j] = r.Value(k)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
