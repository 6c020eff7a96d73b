package tabular

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedFormat is returned when no parser is registered for a
// file's extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table is the parsed form of a tabular file, ready for batch loading.
type Table struct {
	Columns []string
	Rows    [][]any
}

// ParseFunc parses one file format into a Table.
type ParseFunc func(r io.Reader) (*Table, error)

// Registry maps file extensions to parsing capabilities. Extensions are
// registered explicitly; an unregistered extension is an error, never a
// dynamic lookup.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]ParseFunc
}

// NewRegistry returns a registry with the built-in formats registered:
// .csv, .tsv and .jsonl.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]ParseFunc)}
	r.Register(".csv", parseCSV)
	r.Register(".tsv", parseTSV)
	r.Register(".jsonl", parseJSONL)
	return r
}

// Register adds or replaces the parser for an extension. The extension is
// matched case-insensitively and must include the leading dot.
func (r *Registry) Register(ext string, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(ext)] = fn
}

// Parse opens the file at path and parses it with the parser registered
// for its extension. Returns ErrUnsupportedFormat for unknown extensions.
func (r *Registry) Parse(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	fn, ok := r.parsers[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := fn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

func parseCSV(r io.Reader) (*Table, error) {
	return parseDelimited(r, ',')
}

func parseTSV(r io.Reader) (*Table, error) {
	return parseDelimited(r, '\t')
}

// parseDelimited reads a delimited file whose first record is the header.
func parseDelimited(r io.Reader, delimiter rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}

	table := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]any, len(record))
		for i, field := range record {
			row[i] = field
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// parseJSONL reads one JSON object per line. Columns are the sorted keys
// of the first object; later objects may omit keys (null) but must not
// introduce new ones.
func parseJSONL(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var table *Table
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if table == nil {
			columns := make([]string, 0, len(obj))
			for key := range obj {
				columns = append(columns, key)
			}
			sort.Strings(columns)
			table = &Table{Columns: columns}
		}

		known := make(map[string]bool, len(table.Columns))
		row := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			known[col] = true
			row[i] = obj[col]
		}
		for key := range obj {
			if !known[key] {
				return nil, fmt.Errorf("line %d: unexpected column %q", line, key)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if table == nil {
		return nil, fmt.Errorf("empty file")
	}
	return table, nil
}
