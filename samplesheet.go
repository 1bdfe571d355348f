// Samplesheet parsing: locating the [Data] section and grouping sample rows

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shenwei356/xopen"
)

// SampleRow is one data row of the samplesheet, keyed by column name
type SampleRow map[string]string

// SampleSheet holds the parsed [Data] section of a demultiplexing samplesheet.
// HeaderLines keeps the raw section above the [Data] marker; it is not
// interpreted, only retained
type SampleSheet struct {
	HeaderLines []string
	Columns     []string
	Rows        []SampleRow
}

// isSectionMarker reports whether a line is the "[name]" section marker.
// Matching is case-insensitive and tolerates surrounding whitespace and the
// trailing commas spreadsheet editors pad section markers with ("[Data],,,,")
func isSectionMarker(line, name string) bool {
	line = strings.TrimSpace(line)
	line = strings.TrimRight(line, ",")
	line = strings.TrimSpace(line)
	return strings.EqualFold(line, "["+name+"]")
}

func isDataMarker(line string) bool {
	return isSectionMarker(line, "data")
}

// readSampleSheet opens a samplesheet (plain or gzip-compressed, "-" for
// stdin) and parses its [Data] section
func readSampleSheet(path string) (*SampleSheet, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("error opening samplesheet %s: %v", path, err)
	}
	defer fh.Close()

	return parseSampleSheet(fh)
}

// parseSampleSheet scans the samplesheet for the [Data] marker line, takes the
// line immediately after it as the CSV header, and parses all following
// non-empty lines as data rows keyed by that header.
//
// The marker is located by scanning, never by a fixed row offset: the header
// section above [Data] may be any length, including zero
func parseSampleSheet(r io.Reader) (*SampleSheet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading samplesheet: %v", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	marker := -1
	for i, line := range lines {
		if isDataMarker(line) {
			marker = i
			break
		}
	}
	if marker == -1 {
		return nil, fmt.Errorf("samplesheet: %w", ErrNoDataSection)
	}

	// Drop empty lines below the marker; the first remaining line is the header
	var dataLines []string
	for _, line := range lines[marker+1:] {
		if strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line), ",")) == "" {
			continue
		}
		dataLines = append(dataLines, line)
	}
	if len(dataLines) == 0 {
		return nil, fmt.Errorf("samplesheet: no header row after [Data] marker: %w", ErrNoDataSection)
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n")))
	// Spreadsheet editors pad short rows with commas, so field counts vary
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("samplesheet: malformed CSV below [Data] marker: %v", err)
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(c)
	}

	sheet := &SampleSheet{
		HeaderLines: lines[:marker],
		Columns:     columns,
	}

	for _, record := range records[1:] {
		row := make(SampleRow, len(columns))
		empty := true
		for i, col := range columns {
			if col == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			row[col] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// LibraryGroup is an ordered set of samplesheet rows sharing a grouping key
type LibraryGroup struct {
	Key  string
	Rows []SampleRow
}

// groupRows groups samplesheet rows by the value of the given column,
// preserving the first-seen order of keys and of rows within each key.
// Every row must carry a non-empty value for the column
func groupRows(sheet *SampleSheet, column string) ([]LibraryGroup, error) {
	var groups []LibraryGroup
	index := make(map[string]int)

	for i, row := range sheet.Rows {
		key, ok := row[column]
		if !ok || key == "" {
			return nil, fmt.Errorf("samplesheet row %d has no %q value: %w", i+1, column, ErrMissingField)
		}
		pos, seen := index[key]
		if !seen {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, LibraryGroup{Key: key})
		}
		groups[pos].Rows = append(groups[pos].Rows, row)
	}

	return groups, nil
}
