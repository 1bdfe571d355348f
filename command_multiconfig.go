// Subcommand (`crscripts multi_config`) for generating cellranger multi
// library configs from a demultiplexing samplesheet

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
)

// multiConfigRun is one resolved invocation of the config builder
type multiConfigRun struct {
	Samplesheet string
	OutDir      string
	GroupColumn string // Sample_Project or Sample_ID
	Split       bool
	Options     MultiConfigOptions
}

// buildMultiConfigs parses the samplesheet, groups its rows by the selected
// column, and writes one config per group (or, with Split off, a single
// combined config named after the first group key). Returns the written paths
// in natural order.
//
// The run is fail-fast: the first group that cannot be built aborts the whole
// invocation and no further groups are attempted
func buildMultiConfigs(run multiConfigRun) ([]string, error) {
	sheet, err := readSampleSheet(run.Samplesheet)
	if err != nil {
		return nil, err
	}

	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("samplesheet %s has no data rows", run.Samplesheet)
	}

	groups, err := groupRows(sheet, run.GroupColumn)
	if err != nil {
		return nil, err
	}
	if !run.Split {
		groups = []LibraryGroup{{Key: groups[0].Key, Rows: sheet.Rows}}
	}

	if err := os.MkdirAll(run.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating output directory %s: %v", run.OutDir, err)
	}

	var written []string
	for _, group := range groups {
		entries, err := buildLibraryEntries(group.Rows, run.Options)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", group.Key, err)
		}
		content, err := renderMultiConfig(run.Options, entries)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", group.Key, err)
		}

		outPath := filepath.Join(run.OutDir, group.Key+".csv")
		fmt.Fprintf(os.Stderr, "%s %s\n", cyan("Writing config:"), outPath)
		if err := writeMultiConfig(outPath, content); err != nil {
			return nil, err
		}
		written = append(written, outPath)
	}

	sort.Slice(written, func(i, j int) bool { return natural.Less(written[i], written[j]) })
	return written, nil
}

// checkReferences verifies that the supplied reference paths exist: the gene
// expression and VDJ references must be directories, the feature reference a
// file. Empty paths are skipped
func checkReferences(gexRef, vdjRef, featureRef string) error {
	for _, ref := range []struct{ label, path string }{
		{"gene expression reference", gexRef},
		{"VDJ reference", vdjRef},
	} {
		if ref.path == "" {
			continue
		}
		ok, err := pathutil.DirExists(ref.path)
		if err != nil {
			return fmt.Errorf("error checking %s %s: %v", ref.label, ref.path, err)
		}
		if !ok {
			return fmt.Errorf("%s %s: %w", ref.label, ref.path, ErrPathNotFound)
		}
	}

	if featureRef != "" {
		ok, err := pathutil.Exists(featureRef)
		if err != nil {
			return fmt.Errorf("error checking feature reference %s: %v", featureRef, err)
		}
		if !ok {
			return fmt.Errorf("feature reference %s: %w", featureRef, ErrPathNotFound)
		}
	}

	return nil
}

// MultiConfigCommand creates the `multi_config` subcommand
func MultiConfigCommand() *cobra.Command {
	var (
		dataSubfolder string
		gexRef        string
		vdjRef        string
		featureRef    string
		subsampleRate string
		expectedCells int
		lanes         string
		split         bool
		groupBy       string
		useSampleName bool
		jobScript     string
		bypassChecks  bool

		// pass-through settings for the optional job scripts
		memory         int
		cpus           int
		status         []string
		email          string
		partition      string
		queue          string
		sgeProject     string
		cellrangerPath string
	)

	cmd := &cobra.Command{
		Use:   "multi_config SAMPLESHEET PROJECT_PATH OUTDIR",
		Short: "Generate library config CSVs for cellranger multi",
		Long: `Parse the [Data] section of a demultiplexing samplesheet and write one
cellranger multi library config per project (or per sample, or one combined
config). Library types (Gene Expression, VDJ-T, VDJ-B, Antibody Capture) are
inferred from sample names. Optionally also writes a submission script per
config for the chosen job manager.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupColumn string
			switch groupBy {
			case "project":
				groupColumn = "Sample_Project"
			case "sample":
				groupColumn = "Sample_ID"
			default:
				return fmt.Errorf("invalid --group_by %q (expected project or sample)", groupBy)
			}

			manager, err := parseJobManager(jobScript)
			if err != nil {
				return err
			}

			if !bypassChecks {
				if err := checkReferences(gexRef, vdjRef, featureRef); err != nil {
					return err
				}
			}

			run := multiConfigRun{
				Samplesheet: args[0],
				OutDir:      args[2],
				GroupColumn: groupColumn,
				Split:       split,
				Options: MultiConfigOptions{
					ProjectPath:      args[1],
					DataSubfolder:    dataSubfolder,
					GexReference:     gexRef,
					VdjReference:     vdjRef,
					FeatureReference: featureRef,
					ExpectedCells:    expectedCells,
					SubsampleRate:    subsampleRate,
					Lanes:            lanes,
					UseSampleName:    useSampleName,
				},
			}

			written, err := buildMultiConfigs(run)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s %d\n", cyan("Configs written:"), len(written))

			if manager == JobManagerNone {
				return nil
			}

			// Chain into the job script builder, one script per config
			part, err := parsePartition(partition)
			if err != nil {
				return err
			}
			events, err := parseStatusEvents(status)
			if err != nil {
				return err
			}
			cellranger, err := findCellranger(cellrangerPath)
			if err != nil {
				return err
			}

			for _, cfg := range written {
				absCfg, err := filepath.Abs(cfg)
				if err != nil {
					return fmt.Errorf("error resolving config path %s: %v", cfg, err)
				}
				spec := JobSpec{
					MemoryGB:     memory,
					CPUs:         cpus,
					StatusEvents: events,
					Email:        email,
					Partition:    part,
					Queue:        queue,
					SGEProject:   sgeProject,
					Manager:      manager,
					Cellranger:   cellranger,
					ConfigPath:   absCfg,
					OutPath:      filepath.Join(args[2], configStem(cfg)),
				}
				spec.applyDefaults()

				jobPath, skipped, err := writeJobScript(spec)
				if err != nil {
					return err
				}
				if !skipped {
					fmt.Fprintf(os.Stderr, "%s %s\n", cyan("Writing job script:"), jobPath)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&dataSubfolder, "data_subfolder", "d", "", "Relative path below PROJECT_PATH containing the FASTQs (e.g. data/fastqs)")
	flags.StringVarP(&gexRef, "gex_ref", "g", "", "Path to the gene expression reference directory")
	flags.StringVarP(&vdjRef, "vdj_ref", "v", "", "Path to the VDJ reference directory")
	flags.StringVarP(&featureRef, "feature_ref", "f", "", "Path to the feature reference file")
	flags.StringVarP(&subsampleRate, "subsample_rate", "s", "", "Rate at which reads from the FASTQs are sampled")
	flags.IntVarP(&expectedCells, "expected_cells", "e", 0, "Expected number of recovered cells")
	flags.StringVarP(&lanes, "lanes", "L", "", "Flowcell lane(s) the samples were sequenced on (blank = all lanes)")
	flags.BoolVarP(&split, "split", "p", true, "Write a separate config per group instead of one combined config")
	flags.StringVar(&groupBy, "group_by", "project", "Column to group rows by: project (Sample_Project) or sample (Sample_ID)")
	flags.BoolVarP(&useSampleName, "use_sample_name", "u", false, "Use Sample_Name as fastq_id and Sample_ID as the FASTQ folder")
	flags.StringVarP(&jobScript, "job_script", "j", "", "Also write a submission script per config (slurm, sge, or none)")
	flags.BoolVarP(&bypassChecks, "bypass_checks", "b", true, "Skip checking that the reference paths exist")

	flags.IntVarP(&memory, "mem", "m", 32, "Memory to request for job scripts (GB)")
	flags.IntVarP(&cpus, "cpus", "c", 8, "CPUs to request for job scripts")
	flags.StringSliceVar(&status, "status", []string{"END", "FAIL"}, "Status events to email about (repeatable)")
	flags.StringVar(&email, "email", "", "Email address for status updates")
	flags.StringVar(&partition, "partition", "serial", "Cluster partition for job scripts")
	flags.StringVarP(&queue, "queue", "q", "", "SGE queue (-q)")
	flags.StringVarP(&sgeProject, "sge_project", "P", "", "SGE project (-P)")
	flags.StringVar(&cellrangerPath, "cellranger_path", "", "Path to the cellranger executable or its folder (default: $PATH lookup)")

	return cmd
}
