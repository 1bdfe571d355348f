package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// sheetWithHeader builds samplesheet content with n filler lines above the
// [Data] marker
func sheetWithHeader(n int, marker string, dataLines ...string) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "key%d,value%d,\n", i, i)
	}
	b.WriteString(marker + "\n")
	b.WriteString(strings.Join(dataLines, "\n"))
	b.WriteString("\n")
	return b.String()
}

// Test that the [Data] marker is found by scanning, not by a fixed row offset
func TestParseSampleSheetMarkerPosition(t *testing.T) {
	for _, headerLen := range []int{0, 3, 8, 25} {
		t.Run(fmt.Sprintf("HeaderLength%d", headerLen), func(t *testing.T) {
			content := sheetWithHeader(headerLen, "[Data]",
				"Sample_ID,Sample_Name,Sample_Project",
				"S1,ProjA_GEX,ProjA",
				"S2,ProjA_TCR,ProjA",
			)

			sheet, err := parseSampleSheet(strings.NewReader(content))
			if err != nil {
				t.Fatalf("parseSampleSheet() error = %v", err)
			}
			if len(sheet.Rows) != 2 {
				t.Errorf("parsed %d rows, want 2", len(sheet.Rows))
			}
			if len(sheet.HeaderLines) != headerLen {
				t.Errorf("kept %d header lines, want %d", len(sheet.HeaderLines), headerLen)
			}
		})
	}
}

func TestParseSampleSheet(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantRows int
		wantErr  error
	}{
		{
			name: "Lowercase marker",
			content: sheetWithHeader(2, "[data]",
				"Sample_ID,Sample_Name,Sample_Project",
				"S1,ProjA_GEX,ProjA",
			),
			wantRows: 1,
		},
		{
			name: "Marker padded with trailing commas",
			content: sheetWithHeader(2, "[Data],,,,",
				"Sample_ID,Sample_Name,Sample_Project",
				"S1,ProjA_GEX,ProjA",
			),
			wantRows: 1,
		},
		{
			name: "Marker with surrounding whitespace",
			content: sheetWithHeader(1, "  [DATA]  ",
				"Sample_ID,Sample_Name,Sample_Project",
				"S1,ProjA_GEX,ProjA",
			),
			wantRows: 1,
		},
		{
			name: "Empty lines between rows are skipped",
			content: sheetWithHeader(0, "[Data]",
				"Sample_ID,Sample_Name,Sample_Project",
				"S1,ProjA_GEX,ProjA",
				"",
				",,",
				"S2,ProjA_TCR,ProjA",
			),
			wantRows: 2,
		},
		{
			name: "No marker",
			content: strings.Join([]string{
				"Sample_ID,Sample_Name,Sample_Project",
				"S1,ProjA_GEX,ProjA",
			}, "\n"),
			wantErr: ErrNoDataSection,
		},
		{
			name:    "Marker but no header row",
			content: "some,header\n[Data]\n",
			wantErr: ErrNoDataSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := parseSampleSheet(strings.NewReader(tt.content))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseSampleSheet() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSampleSheet() error = %v", err)
			}
			if len(sheet.Rows) != tt.wantRows {
				t.Errorf("parsed %d rows, want %d", len(sheet.Rows), tt.wantRows)
			}
		})
	}
}

func TestParseSampleSheetValues(t *testing.T) {
	content := sheetWithHeader(1, "[Data]",
		"Sample_ID, Sample_Name ,Sample_Project",
		" S1 ,ProjA_GEX, ProjA",
	)

	sheet, err := parseSampleSheet(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parseSampleSheet() error = %v", err)
	}

	wantColumns := []string{"Sample_ID", "Sample_Name", "Sample_Project"}
	if !reflect.DeepEqual(sheet.Columns, wantColumns) {
		t.Errorf("Columns = %v, want %v", sheet.Columns, wantColumns)
	}

	want := SampleRow{"Sample_ID": "S1", "Sample_Name": "ProjA_GEX", "Sample_Project": "ProjA"}
	if !reflect.DeepEqual(sheet.Rows[0], want) {
		t.Errorf("Rows[0] = %v, want %v", sheet.Rows[0], want)
	}
}

func TestGroupRows(t *testing.T) {
	sheet := &SampleSheet{
		Columns: []string{"Sample_ID", "Sample_Name", "Sample_Project"},
		Rows: []SampleRow{
			{"Sample_ID": "S1", "Sample_Name": "a_gex", "Sample_Project": "ProjB"},
			{"Sample_ID": "S2", "Sample_Name": "b_tcr", "Sample_Project": "ProjA"},
			{"Sample_ID": "S3", "Sample_Name": "c_bcr", "Sample_Project": "ProjB"},
			{"Sample_ID": "S4", "Sample_Name": "d_gex", "Sample_Project": "ProjA"},
		},
	}

	tests := []struct {
		name     string
		column   string
		wantKeys []string
		wantSize []int
	}{
		{
			name:     "By project, first-seen key order",
			column:   "Sample_Project",
			wantKeys: []string{"ProjB", "ProjA"},
			wantSize: []int{2, 2},
		},
		{
			name:     "By sample ID",
			column:   "Sample_ID",
			wantKeys: []string{"S1", "S2", "S3", "S4"},
			wantSize: []int{1, 1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := groupRows(sheet, tt.column)
			if err != nil {
				t.Fatalf("groupRows() error = %v", err)
			}

			var keys []string
			total := 0
			for _, g := range groups {
				keys = append(keys, g.Key)
				total += len(g.Rows)
			}
			if !reflect.DeepEqual(keys, tt.wantKeys) {
				t.Errorf("group keys = %v, want %v", keys, tt.wantKeys)
			}
			for i, g := range groups {
				if len(g.Rows) != tt.wantSize[i] {
					t.Errorf("group %s has %d rows, want %d", g.Key, len(g.Rows), tt.wantSize[i])
				}
			}
			// No rows dropped or duplicated
			if total != len(sheet.Rows) {
				t.Errorf("total rows across groups = %d, want %d", total, len(sheet.Rows))
			}
		})
	}
}

func TestGroupRowsRowOrder(t *testing.T) {
	sheet := &SampleSheet{
		Rows: []SampleRow{
			{"Sample_ID": "S1", "Sample_Project": "ProjA"},
			{"Sample_ID": "S2", "Sample_Project": "ProjA"},
			{"Sample_ID": "S3", "Sample_Project": "ProjA"},
		},
	}

	groups, err := groupRows(sheet, "Sample_Project")
	if err != nil {
		t.Fatalf("groupRows() error = %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	var ids []string
	for _, row := range groups[0].Rows {
		ids = append(ids, row["Sample_ID"])
	}
	if !reflect.DeepEqual(ids, []string{"S1", "S2", "S3"}) {
		t.Errorf("row order within group = %v, want [S1 S2 S3]", ids)
	}
}

func TestGroupRowsMissingColumn(t *testing.T) {
	sheet := &SampleSheet{
		Rows: []SampleRow{
			{"Sample_ID": "S1", "Sample_Project": "ProjA"},
			{"Sample_ID": "S2"},
		},
	}

	_, err := groupRows(sheet, "Sample_Project")
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("groupRows() error = %v, want %v", err, ErrMissingField)
	}
}
