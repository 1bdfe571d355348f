// Subcommand (`crscripts multi_job`) for writing a cluster submission script
// that runs cellranger multi on an existing library config

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadJobDefaults reads a YAML defaults file (mem, cpus, partition, email) and
// fills in any value the user did not set explicitly on the command line
func loadJobDefaults(cmd *cobra.Command, path string, memory, cpus *int, partition, email *string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading job defaults %s: %v", path, err)
	}

	if !cmd.Flags().Changed("mem") && v.IsSet("mem") {
		*memory = v.GetInt("mem")
	}
	if !cmd.Flags().Changed("cpus") && v.IsSet("cpus") {
		*cpus = v.GetInt("cpus")
	}
	if !cmd.Flags().Changed("partition") && v.IsSet("partition") {
		*partition = v.GetString("partition")
	}
	if !cmd.Flags().Changed("email") && v.IsSet("email") {
		*email = v.GetString("email")
	}

	return nil
}

// MultiJobCommand creates the `multi_job` subcommand
func MultiJobCommand() *cobra.Command {
	var (
		sampleID       string
		manager        string
		jobOut         string
		jobName        string
		logFile        string
		memory         int
		cpus           int
		status         []string
		email          string
		partition      string
		queue          string
		sgeProject     string
		cellrangerPath string
		defaultsFile   string
	)

	cmd := &cobra.Command{
		Use:   "multi_job CONFIG",
		Short: "Write a job-manager submission script for cellranger multi",
		Long: `Render a submission script that runs cellranger multi on the given library
config. The sample identifier, job name, and log file default to the config
filename. With the job manager set to "none" nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaultsFile != "" {
				if err := loadJobDefaults(cmd, defaultsFile, &memory, &cpus, &partition, &email); err != nil {
					return err
				}
			}

			jm, err := parseJobManager(manager)
			if err != nil {
				return err
			}

			spec := JobSpec{
				SampleID:   sampleID,
				JobName:    jobName,
				LogFile:    logFile,
				MemoryGB:   memory,
				CPUs:       cpus,
				Email:      email,
				Queue:      queue,
				SGEProject: sgeProject,
				Manager:    jm,
				ConfigPath: args[0],
				OutPath:    jobOut,
			}

			if jm != JobManagerNone {
				spec.Partition, err = parsePartition(partition)
				if err != nil {
					return err
				}
				spec.StatusEvents, err = parseStatusEvents(status)
				if err != nil {
					return err
				}
				spec.Cellranger, err = findCellranger(cellrangerPath)
				if err != nil {
					return err
				}
				spec.ConfigPath, err = filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("error resolving config path %s: %v", args[0], err)
				}
				// Config must be a real multi config before a job is written for it
				if _, err := readLibrariesSection(spec.ConfigPath); err != nil {
					return err
				}
			}
			spec.applyDefaults()

			path, skipped, err := writeJobScript(spec)
			if err != nil {
				return err
			}
			if skipped {
				fmt.Fprintln(os.Stderr, yellow("Job manager is none, no job script written"))
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s %s\n", cyan("Writing job script:"), path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&sampleID, "id", "i", "", "Sample label used by cellranger to name its output directory (default: config filename)")
	flags.StringVarP(&manager, "manager", "j", "slurm", "Target job manager (slurm, sge, or none)")
	flags.StringVarP(&jobOut, "job_out", "f", "", "Output prefix for the job script (default: config filename)")
	flags.StringVarP(&jobName, "job_name", "n", "", "Name to give the job (default: sample label)")
	flags.StringVarP(&logFile, "log", "l", "", "Log file name (default: config filename + .job)")
	flags.IntVarP(&memory, "mem", "m", 32, "Memory to request for the job (GB)")
	flags.IntVarP(&cpus, "cpus", "c", 8, "CPUs to request for the job")
	flags.StringSliceVarP(&status, "status", "s", []string{"END", "FAIL"}, "Status events to email about (repeatable)")
	flags.StringVarP(&email, "email", "e", "", "Email address for status updates")
	flags.StringVarP(&partition, "partition", "p", "serial", "Cluster partition to run the job on")
	flags.StringVarP(&queue, "queue", "q", "", "SGE queue (-q)")
	flags.StringVarP(&sgeProject, "sge_project", "P", "", "SGE project (-P)")
	flags.StringVar(&cellrangerPath, "cellranger_path", "", "Path to the cellranger executable or its folder (default: $PATH lookup)")
	flags.StringVar(&defaultsFile, "defaults", "", "YAML file with default job resources (mem, cpus, partition, email)")

	return cmd
}
