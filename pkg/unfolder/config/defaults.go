// Package config provides configuration management for unfolder.
package config

// Default configuration values.
const (
	// DefaultSeparator joins path segments in flattened names.
	DefaultSeparator = "-"

	// DefaultOutput is the default output format.
	DefaultOutput = "pretty"

	// DefaultVerbosity prints a summary only.
	DefaultVerbosity = 0

	// MaxVerbosity prints every file move.
	MaxVerbosity = 2

	// DefaultHistoryLimit is the number of journal records shown by history.
	DefaultHistoryLimit = 20

	// DefaultRetentionDays is how long journal records are kept.
	DefaultRetentionDays = 90

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "5MB"

	// EnvPrefix prefixes environment overrides, as in UNFOLDER_VERBOSITY.
	EnvPrefix = "UNFOLDER"

	appName = "unfolder"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"pretty", "plain", "json", "yaml"}
