package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Custom help function
// It provides nicely formatted help messages for the root command and the subcommands
func helpFunc(cmd *cobra.Command, args []string) {

	// Specialized help for subcommands
	switch cmd.Name() {
	case "multi_config":
		fmt.Printf(`
%s

%s
  Parse the [Data] section of a bcl2fastq/BCL Convert samplesheet and write
  cellranger multi library configs, one per project (or per sample, or a
  single combined config). Library types are inferred from sample names:
  "gex" -> Gene Expression, "tcr" -> VDJ-T, "bcr" -> VDJ-B,
  "feat"/"feature"/"antibody"/"totalseq"/"citeseq" -> Antibody Capture.

%s
  %s
  %s
  %s

%s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s

%s
  %s
  %s

`,
			bold(cyan("crscripts multi_config")+" - Generates library config CSVs for cellranger multi"),
			bold(yellow("Description:")),
			bold(yellow("Arguments:")),
			cyan("SAMPLESHEET")+"  : Path to the samplesheet.csv used for demultiplexing",
			cyan("PROJECT_PATH")+" : Path to the project root containing the FASTQ folders",
			cyan("OUTDIR")+"       : Directory the config CSVs are written to",
			bold(yellow("Flags:")),
			cyan("-d, --data_subfolder")+" <string> : Relative path below PROJECT_PATH containing the FASTQs",
			cyan("-g, --gex_ref")+" <string>        : Gene expression reference directory",
			cyan("-v, --vdj_ref")+" <string>        : VDJ reference directory",
			cyan("-f, --feature_ref")+" <string>    : Feature reference file",
			cyan("-e, --expected_cells")+" <int>    : Expected number of recovered cells",
			cyan("-s, --subsample_rate")+" <string> : Read subsampling rate",
			cyan("-L, --lanes")+" <string>          : Flowcell lane(s) (blank = all lanes)",
			cyan("-p, --split")+" <bool>            : One config per group (default, true)",
			cyan("    --group_by")+" <string>       : Group rows by 'project' or 'sample' (default, 'project')",
			cyan("-u, --use_sample_name")+" <bool>  : Use Sample_Name as fastq_id and Sample_ID as the folder",
			cyan("-j, --job_script")+" <string>     : Also write submission scripts (slurm, sge, none)",
			cyan("-b, --bypass_checks")+" <bool>    : Skip reference existence checks (default, true)",
			bold(yellow("Examples:")),
			cyan("crscripts multi_config SampleSheet.csv /data/runs/run42 configs -g /refs/GRCh38 -v /refs/vdj"),
			cyan("crscripts multi_config SampleSheet.csv /data/runs/run42 configs -j slurm --email me@example.org"),
		)
		return
	case "multi_job":
		fmt.Printf(`
%s

%s
  Render a job-manager submission script that runs cellranger multi on an
  existing library config. The sample identifier, job name, and log file
  default to the config filename. Manager 'none' writes nothing.

%s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s
  %s

%s
  %s
  %s

`,
			bold(cyan("crscripts multi_job")+" - Writes a submission script for cellranger multi"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("-i, --id")+" <string>        : Sample label for cellranger --id (default, config filename)",
			cyan("-j, --manager")+" <string>   : Job manager (slurm, sge, none) (default, 'slurm')",
			cyan("-f, --job_out")+" <string>   : Output prefix for the job script",
			cyan("-n, --job_name")+" <string>  : Job name (default, sample label)",
			cyan("-l, --log")+" <string>       : Log file name",
			cyan("-m, --mem")+" <int>          : Memory request in GB (default, 32)",
			cyan("-c, --cpus")+" <int>         : CPU request (default, 8)",
			cyan("-s, --status")+" <list>      : Status events to email about (default, END,FAIL)",
			cyan("-e, --email")+" <string>     : Email address for status updates",
			cyan("-p, --partition")+" <string> : Cluster partition (default, 'serial')",
			cyan("    --defaults")+" <string>  : YAML file with default job resources",
			bold(yellow("Examples:")),
			cyan("crscripts multi_job configs/ProjA.csv --mem 64 --cpus 16 -e me@example.org"),
			cyan("crscripts multi_job configs/ProjA.csv -j sge -q all.q -P myproject"),
		)
		return
	}

	// Default: root command help
	fmt.Printf(`
%s

%s
  %s
  %s

%s
  %s
  %s
  %s

%s
  # Write one config per project, plus SLURM submission scripts
  %s

  # Write a SLURM job script for an existing config
  %s

  # Preview config generation without any job scripts
  %s

`,
		bold(cyan("crscripts")+" v."+VERSION+" - Generates cellranger multi configs and job scripts"),
		bold(yellow("Subcommands:")),
		cyan("multi_config")+" : Convert a demultiplexing samplesheet into library config CSVs",
		cyan("multi_job")+"    : Write a job-manager submission script for a library config",
		bold(yellow("Flags:")),
		cyan("-h, --help")+"    : Show help message",
		cyan("-v, --version")+" : Show version information",
		cyan("(run a subcommand with --help for its flags)"),
		bold(yellow("Usage examples:")),
		cyan("crscripts multi_config SampleSheet.csv /data/runs/run42 configs -j slurm --email me@example.org"),
		cyan("crscripts multi_job configs/ProjA.csv --mem 64 --cpus 16"),
		cyan("crscripts multi_config SampleSheet.csv /data/runs/run42 configs"),
	)
}
