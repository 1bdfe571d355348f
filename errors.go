package main

// Error is a sentinel error that can be matched with errors.Is after wrapping
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoDataSection         = Error("samplesheet has no [Data] section")
	ErrNoLibrariesSection    = Error("config has no [libraries] section")
	ErrMissingField          = Error("required column is missing")
	ErrPathNotFound          = Error("path does not exist")
	ErrUnsupportedJobManager = Error("unsupported job manager")
	ErrUnsupportedPartition  = Error("unsupported partition")
	ErrUnsupportedStatus     = Error("unsupported status event")
)
