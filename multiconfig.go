// Library config generation for `cellranger multi`:
// reference sections, library-type classification, and the [libraries] table

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shenwei356/xopen"
)

// Feature type labels recognized by cellranger multi
const (
	FeatureGeneExpression  = "Gene Expression"
	FeatureVDJT            = "VDJ-T"
	FeatureVDJB            = "VDJ-B"
	FeatureAntibodyCapture = "Antibody Capture"
)

// libraryRule maps sample-name substrings to a feature type label
type libraryRule struct {
	substrings []string
	label      string
}

// Classification rules, checked in order; the first match wins
var libraryRules = []libraryRule{
	{[]string{"gex"}, FeatureGeneExpression},
	{[]string{"tcr"}, FeatureVDJT},
	{[]string{"bcr"}, FeatureVDJB},
	{[]string{"feat", "feature", "antibody", "totalseq", "citeseq"}, FeatureAntibodyCapture},
}

// classifyLibrary maps a samplesheet sample name to a cellranger multi feature
// type. Matching is case-insensitive; names that match no rule are treated as
// gene expression libraries
func classifyLibrary(sampleName string) string {
	name := strings.ToLower(sampleName)
	for _, rule := range libraryRules {
		for _, sub := range rule.substrings {
			if strings.Contains(name, sub) {
				return rule.label
			}
		}
	}
	return FeatureGeneExpression
}

// LibraryEntry is one row of the [libraries] section
type LibraryEntry struct {
	FastqID       string `csv:"fastq_id"`
	Fastqs        string `csv:"fastqs"`
	Lanes         string `csv:"lanes"`
	FeatureTypes  string `csv:"feature_types"`
	SubsampleRate string `csv:"subsample_rate"`
}

// MultiConfigOptions are the settings shared by every config generated from
// one samplesheet
type MultiConfigOptions struct {
	ProjectPath      string
	DataSubfolder    string
	GexReference     string
	VdjReference     string
	FeatureReference string
	ExpectedCells    int
	SubsampleRate    string
	Lanes            string
	UseSampleName    bool
}

// buildLibraryEntries derives one [libraries] row per samplesheet row.
//
// The fastqs directory is project path + optional data subfolder + the
// per-row folder column, joined with filepath.Join so that no path component
// is ever truncated. By default fastq_id comes from Sample_ID and the folder
// from Sample_Project; with UseSampleName set, Sample_Name and Sample_ID are
// used instead (for runs where libraries are prefixed with the sample name)
func buildLibraryEntries(rows []SampleRow, opts MultiConfigOptions) ([]*LibraryEntry, error) {
	root := opts.ProjectPath
	if opts.DataSubfolder != "" {
		root = filepath.Join(opts.ProjectPath, opts.DataSubfolder)
	}

	idColumn, folderColumn := "Sample_ID", "Sample_Project"
	if opts.UseSampleName {
		idColumn, folderColumn = "Sample_Name", "Sample_ID"
	}

	entries := make([]*LibraryEntry, 0, len(rows))
	for i, row := range rows {
		id := row[idColumn]
		if id == "" {
			return nil, fmt.Errorf("row %d has no %q value: %w", i+1, idColumn, ErrMissingField)
		}
		folder := row[folderColumn]
		if folder == "" {
			return nil, fmt.Errorf("row %d has no %q value: %w", i+1, folderColumn, ErrMissingField)
		}
		sampleName := row["Sample_Name"]
		if sampleName == "" {
			return nil, fmt.Errorf("row %d has no \"Sample_Name\" value: %w", i+1, ErrMissingField)
		}

		entries = append(entries, &LibraryEntry{
			FastqID:       id,
			Fastqs:        filepath.Join(root, folder),
			Lanes:         opts.Lanes,
			FeatureTypes:  classifyLibrary(sampleName),
			SubsampleRate: opts.SubsampleRate,
		})
	}

	return entries, nil
}

// renderMultiConfig assembles the full config text: the [gene-expression],
// [vdj] and [feature] reference sections followed by the [libraries] table.
// Section headers are always present; reference lines are only written for
// references that were supplied (omitted entries stay blank, not defaulted)
func renderMultiConfig(opts MultiConfigOptions, entries []*LibraryEntry) (string, error) {
	var b strings.Builder

	b.WriteString("[gene-expression]\n")
	b.WriteString("include-introns,true\n")
	if opts.GexReference != "" {
		fmt.Fprintf(&b, "reference,%s\n", opts.GexReference)
	}
	if opts.ExpectedCells > 0 {
		fmt.Fprintf(&b, "expect-cells,%d\n", opts.ExpectedCells)
	}

	b.WriteString("[vdj]\n")
	if opts.VdjReference != "" {
		fmt.Fprintf(&b, "reference,%s\n", opts.VdjReference)
	}

	b.WriteString("[feature]\n")
	if opts.FeatureReference != "" {
		fmt.Fprintf(&b, "reference,%s\n", opts.FeatureReference)
	}

	b.WriteString("[libraries]\n")
	libs, err := gocsv.MarshalString(entries)
	if err != nil {
		return "", fmt.Errorf("error rendering [libraries] section: %v", err)
	}
	b.WriteString(libs)

	return b.String(), nil
}

// writeMultiConfig writes the rendered config, overwriting any existing file
func writeMultiConfig(path, content string) error {
	outfh, err := xopen.Wopen(path)
	if err != nil {
		return fmt.Errorf("error creating config file %s: %v", path, err)
	}
	if _, err := io.WriteString(outfh, content); err != nil {
		outfh.Close()
		return fmt.Errorf("error writing config file %s: %v", path, err)
	}
	return outfh.Close()
}

// parseLibrariesSection re-parses the [libraries] table of a written config.
// Used to sanity-check configs handed to the job script builder and to verify
// that written configs round-trip
func parseLibrariesSection(r io.Reader) ([]*LibraryEntry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %v", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	marker := -1
	for i, line := range lines {
		if isSectionMarker(line, "libraries") {
			marker = i
			break
		}
	}
	if marker == -1 {
		return nil, fmt.Errorf("config: %w", ErrNoLibrariesSection)
	}

	var body []string
	for _, line := range lines[marker+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		body = append(body, line)
	}

	var entries []*LibraryEntry
	if err := gocsv.UnmarshalString(strings.Join(body, "\n"), &entries); err != nil {
		return nil, fmt.Errorf("error parsing [libraries] section: %v", err)
	}
	return entries, nil
}

// readLibrariesSection opens a config file and parses its [libraries] table
func readLibrariesSection(path string) ([]*LibraryEntry, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config %s: %v", path, err)
	}
	defer fh.Close()

	return parseLibrariesSection(fh)
}
