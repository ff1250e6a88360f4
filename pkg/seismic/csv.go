package seismic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Columns of the quake CSV read by ReadCSV.
const (
	ColumnPower     = 5
	ColumnMeanPower = 6
	ColumnHighMag   = 7
)

// ReadCSV parses the quake dataset. The first row is a header and is
// skipped; every other row must have at least ColumnHighMag+1 fields.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	d := &Dataset{}
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line++
		if line == 1 {
			continue
		}

		if len(row) <= ColumnHighMag {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d",
				line, ColumnHighMag+1, len(row))
		}

		var vals [3]float64
		for k, col := range []int{ColumnPower, ColumnMeanPower, ColumnHighMag} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, col, err)
			}
			vals[k] = v
		}

		d.T = append(d.T, float64(d.Size()))
		d.Power = append(d.Power, vals[0])
		d.MeanPower = append(d.MeanPower, vals[1])
		d.HighMag = append(d.HighMag, vals[2])
	}

	return d, nil
}

// Load reads the dataset from a file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
