// Job-submission script generation (SLURM and SGE dialects)

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// JobManager is the closed set of supported cluster schedulers
type JobManager string

const (
	JobManagerSlurm JobManager = "slurm"
	JobManagerSGE   JobManager = "sge"
	JobManagerNone  JobManager = "none"
)

// parseJobManager validates a job manager choice at the flag boundary.
// The empty string means no job manager was requested
func parseJobManager(s string) (JobManager, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slurm":
		return JobManagerSlurm, nil
	case "sge":
		return JobManagerSGE, nil
	case "none", "":
		return JobManagerNone, nil
	}
	return "", fmt.Errorf("%w: %q (expected slurm, sge, or none)", ErrUnsupportedJobManager, s)
}

// Known SLURM partitions
var partitions = map[string]bool{
	"serial":      true,
	"debug":       true,
	"interactive": true,
	"highmem":     true,
	"gpu":         true,
}

func parsePartition(s string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(s))
	if !partitions[p] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPartition, s)
	}
	return p, nil
}

// Status events the job manager can send mail for
var statusEvents = map[string]bool{
	"END":            true,
	"FAIL":           true,
	"START":          true,
	"NONE":           true,
	"BEGIN":          true,
	"REQUEUE":        true,
	"ALL":            true,
	"INVALID_DEPEND": true,
	"STAGE_OUT":      true,
	"TIME_LIMIT":     true,
	"TIME_LIMIT_90":  true,
	"TIME_LIMIT_80":  true,
	"TIME_LIMIT_50":  true,
	"ARRAY_TASKS":    true,
}

// parseStatusEvents validates the requested status events and joins them into
// the comma-separated form expected by SLURM's --mail-type
func parseStatusEvents(events []string) (string, error) {
	out := make([]string, 0, len(events))
	for _, e := range events {
		e = strings.ToUpper(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !statusEvents[e] {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedStatus, e)
		}
		out = append(out, e)
	}
	return strings.Join(out, ","), nil
}

// JobSpec carries everything needed to render one submission script
type JobSpec struct {
	SampleID     string // cellranger --id, also the default for JobName
	JobName      string
	LogFile      string
	MemoryGB     int
	CPUs         int
	StatusEvents string // validated, comma-joined
	Email        string
	Partition    string
	Queue        string // SGE -q
	SGEProject   string // SGE -P
	Manager      JobManager
	Cellranger   string // path to the cellranger executable
	ConfigPath   string // multi config consumed by the job
	OutPath      string // output prefix; the script lands at <OutPath>_multi.job
}

// configStem is the config filename without directory or extension; it names
// the sample, job, and log when nothing more specific was supplied
func configStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// applyDefaults fills the identifier fields from the config filename
func (spec *JobSpec) applyDefaults() {
	stem := configStem(spec.ConfigPath)
	if spec.SampleID == "" {
		spec.SampleID = stem
	}
	if spec.JobName == "" {
		spec.JobName = spec.SampleID
	}
	if spec.LogFile == "" {
		spec.LogFile = stem + ".job"
	}
	if spec.OutPath == "" {
		spec.OutPath = stem
	}
}

// findCellranger resolves the cellranger executable. An empty path falls back
// to $PATH lookup; a directory gets the executable name joined onto it
func findCellranger(path string) (string, error) {
	if path == "" {
		found, err := exec.LookPath("cellranger")
		if err != nil {
			return "", fmt.Errorf("cellranger executable not on PATH: %w", ErrPathNotFound)
		}
		return found, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, "cellranger"), nil
	}
	return path, nil
}

// renderSlurmHeader builds the #SBATCH resource-request block
func renderSlurmHeader(spec JobSpec) string {
	var b strings.Builder
	b.WriteString("#! /bin/bash -l\n")
	fmt.Fprintf(&b, "#SBATCH -J %s\n", spec.JobName)
	fmt.Fprintf(&b, "#SBATCH -o %s\n", spec.LogFile)
	if spec.Email != "" {
		fmt.Fprintf(&b, "#SBATCH --mail-user=%s\n", spec.Email)
		fmt.Fprintf(&b, "#SBATCH --mail-type=%s\n", spec.StatusEvents)
	}
	fmt.Fprintf(&b, "#SBATCH --mem=%dG\n", spec.MemoryGB)
	fmt.Fprintf(&b, "#SBATCH --partition=%s\n", spec.Partition)
	b.WriteString("#SBATCH --nodes=1\n")
	fmt.Fprintf(&b, "#SBATCH --cpus-per-task=%d\n", spec.CPUs)
	b.WriteString("export _JAVA_OPTIONS='-Xmx64G -Xms4G -XX:+UseParallelGC -XX:ParallelGCThreads=8'\n")
	return b.String()
}

// sgeMailFlags translates SLURM-style status events into SGE -m letters
func sgeMailFlags(events string) string {
	var letters strings.Builder
	seen := make(map[byte]bool)
	for _, e := range strings.Split(events, ",") {
		var l byte
		switch e {
		case "BEGIN", "START":
			l = 'b'
		case "END":
			l = 'e'
		case "FAIL":
			l = 'a'
		case "NONE":
			l = 'n'
		case "ALL":
			for _, c := range []byte{'b', 'e', 'a'} {
				if !seen[c] {
					seen[c] = true
					letters.WriteByte(c)
				}
			}
			continue
		default:
			// no SGE equivalent (REQUEUE, TIME_LIMIT_*, ...)
			continue
		}
		if !seen[l] {
			seen[l] = true
			letters.WriteByte(l)
		}
	}
	return letters.String()
}

// renderSGEHeader builds the #$ resource-request block
func renderSGEHeader(spec JobSpec) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#$ -N %s\n", spec.JobName)
	fmt.Fprintf(&b, "#$ -o %s\n", spec.LogFile)
	b.WriteString("#$ -cwd\n")
	if spec.Queue != "" {
		fmt.Fprintf(&b, "#$ -q %s\n", spec.Queue)
	}
	if spec.SGEProject != "" {
		fmt.Fprintf(&b, "#$ -P %s\n", spec.SGEProject)
	}
	fmt.Fprintf(&b, "#$ -l vf=%dG,p=%d\n", spec.MemoryGB, spec.CPUs)
	if spec.Email != "" {
		if flags := sgeMailFlags(spec.StatusEvents); flags != "" {
			fmt.Fprintf(&b, "#$ -m %s\n", flags)
			fmt.Fprintf(&b, "#$ -M %s\n", spec.Email)
		}
	}
	return b.String()
}

// renderMultiCommand builds the cellranger multi invocation placed below the
// scheduler header
func renderMultiCommand(spec JobSpec) string {
	return fmt.Sprintf("%s multi \\\n"+
		"\t--id %s \\\n"+
		"\t--csv %s \\\n"+
		"\t--jobinterval 2000 \\\n"+
		"\t--localcores %d \\\n"+
		"\t--localmem %d",
		spec.Cellranger, spec.SampleID, spec.ConfigPath, spec.CPUs, spec.MemoryGB)
}

// writeJobScript renders the submission script for spec and writes it to
// <OutPath>_multi.job, creating intermediate directories as needed. A "none"
// job manager writes nothing and reports skipped=true instead of an error
func writeJobScript(spec JobSpec) (path string, skipped bool, err error) {
	var header string
	switch spec.Manager {
	case JobManagerNone:
		return "", true, nil
	case JobManagerSlurm:
		header = renderSlurmHeader(spec)
	case JobManagerSGE:
		header = renderSGEHeader(spec)
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedJobManager, string(spec.Manager))
	}

	script := header + "\n" + renderMultiCommand(spec) + "\n"
	path = spec.OutPath + "_multi.job"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", false, fmt.Errorf("error creating job script directory %s: %v", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", false, fmt.Errorf("error creating job script %s: %v", path, err)
	}
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return "", false, fmt.Errorf("error writing job script %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return "", false, fmt.Errorf("error writing job script %s: %v", path, err)
	}

	return path, false, nil
}
