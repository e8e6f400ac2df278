package batch

import "errors"

// Configuration errors reported by Config.Validate.
var (
	ErrNoOutputDir     = errors.New("no output directory")
	ErrOutputDirCreate = errors.New("output directory does not exist and cannot be created")
	ErrNoFiles         = errors.New("empty file list")
	ErrNoPattern       = errors.New("empty file name pattern")
)

// ErrUnknownStep is returned by CreateFromName for unrecognised group names.
var ErrUnknownStep = errors.New("unknown processing step")

// ErrNoPluginHost is recorded for plugin actions of a chain built without host.
var ErrNoPluginHost = errors.New("no plugin host")
