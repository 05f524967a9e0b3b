package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahrav/go-fcem/internal/application"
	"github.com/ahrav/go-fcem/internal/domain"
	"github.com/ahrav/go-fcem/internal/ports"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return formatJSON
	}
	return formatCSV
}

// readInput opens opts.inputPath, or uses stdin for "-", and decodes rows
// in KPI order.
func readInput(opts options, stdin io.Reader, mapper *application.RowMapper) ([][]float64, error) {
	r := stdin
	if opts.inputPath != "-" {
		f, err := os.Open(filepath.Clean(opts.inputPath))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	switch strings.ToLower(opts.format) {
	case formatCSV:
		return readCSV(r, mapper)
	case formatJSON:
		return readJSON(r, mapper)
	default:
		return nil, fmt.Errorf("%w: %q, want csv or json", ports.ErrUnsupportedFormat, opts.format)
	}
}

// readCSV expects a header row of KPI names followed by one row of
// readings per record. Columns may appear in any order.
func readCSV(r io.Reader, mapper *application.RowMapper) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV input, want a header row", domain.ErrShapeMismatch)
	}
	if err != nil {
		return nil, err
	}

	cols, err := mapper.Columns(header)
	if err != nil {
		return nil, err
	}

	var rows [][]float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		values := make([]float64, len(record))
		for c, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %w", domain.ErrInvalidReading, line, header[c], err)
			}
			values[c] = v
		}

		row, err := mapper.Assemble(cols, values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// readJSON expects an array of objects mapping KPI names to readings.
func readJSON(r io.Reader, mapper *application.RowMapper) ([][]float64, error) {
	var records []map[string]float64
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON readings: %w", domain.ErrInvalidReading, err)
	}
	return mapper.Rows(records)
}
