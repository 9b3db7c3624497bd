// Package ingest turns pasted text, uploaded CSV files and the built-in
// sample list into raw name strings for the roster.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedCSV wraps any error the CSV reader reports.
var ErrMalformedCSV = errors.New("malformed CSV")

// SampleNames is the demo roster. The last two entries repeat earlier names
// so the duplicate cleanup has something to do.
var SampleNames = []string{
	"陳小明", "林美玲", "張大華", "李曉華", "王志明",
	"黃雅婷", "周杰倫", "蔡依林", "林俊傑", "張惠妹",
	"陳小明", "李曉華",
}

// Lines splits pasted text into one candidate name per line.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// CSVCells reads every cell of every row, row-major, from a CSV stream.
// Rows may have any number of columns.
func CSVCells(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var cells []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if first && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			first = false
		}
		cells = append(cells, record...)
	}
	return cells, nil
}
