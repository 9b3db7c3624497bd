package ingest

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "Alice", []string{"Alice"}},
		{"unix newlines", "Alice\nBob\n", []string{"Alice", "Bob", ""}},
		{"windows newlines", "Alice\r\nBob", []string{"Alice", "Bob"}},
		{"keeps padding", "  Alice  \n\n", []string{"  Alice  ", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lines(tt.text); !slices.Equal(got, tt.want) {
				t.Errorf("Lines(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCSVCells(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"one column", "Alice\nBob\n", []string{"Alice", "Bob"}},
		{"ragged rows", "Alice,人資部\nBob\nCharlie,,財務部\n", []string{"Alice", "人資部", "Bob", "Charlie", "", "財務部"}},
		{"bom stripped", "\ufeff陳小明\n林美玲\n", []string{"陳小明", "林美玲"}},
		{"quoted", "\"Lee, Ann\",Bob\n", []string{"Lee, Ann", "Bob"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CSVCells(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("CSVCells() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("CSVCells() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCSVCells_Malformed(t *testing.T) {
	_, err := CSVCells(strings.NewReader("Alice\nBo\"b\n"))
	if !errors.Is(err, ErrMalformedCSV) {
		t.Errorf("CSVCells() error = %v, want ErrMalformedCSV", err)
	}
}

func TestSampleNamesHaveDuplicates(t *testing.T) {
	seen := map[string]bool{}
	dups := 0
	for _, n := range SampleNames {
		if seen[n] {
			dups++
		}
		seen[n] = true
	}
	if len(SampleNames) != 12 || dups != 2 {
		t.Errorf("SampleNames: %d names, %d duplicates; want 12 and 2", len(SampleNames), dups)
	}
}
