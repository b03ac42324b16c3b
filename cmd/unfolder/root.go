package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/unfolder/pkg/unfolder/config"
	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "unfolder",
		Short: "Flatten a directory tree into its root and fold it back later",
		Long: `Unfolder moves every file beneath a directory into that directory,
naming each one after the path it came from, and removes the emptied
subdirectories. A .refolding file in the root records every move so the
tree can be rebuilt.

Refold tolerates missing files: whatever cannot be found stays listed in
.refolding and the next refold picks it up.

Examples:
  unfolder unfold ~/Music            # a/b/x.mp3 becomes a-b-x.mp3
  unfolder unfold -s ~/Music         # shortest unique names (x.mp3)
  unfolder refold ~/Music            # put everything back
  unfolder refold --watch ~/Music    # keep refolding as missing files return
  unfolder status ~/Music            # what would refold do
  unfolder history                   # past runs`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/unfolder/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", config.DefaultOutput, "output format (pretty, plain, json, yaml)")
	rootCmd.PersistentFlags().IntP("verbosity", "v", config.DefaultVerbosity, "0 summary only, 1 directories and missing files, 2 every file")
	rootCmd.PersistentFlags().String("separator", config.DefaultSeparator, "string joining path segments in flattened names")
	rootCmd.PersistentFlags().String("log-level", "", "log file level (debug, info, warn, error)")
}

// persistentKeys maps persistent flags to config keys.
var persistentKeys = map[string]string{
	"output":    "output",
	"verbosity": "verbosity",
	"separator": "separator",
	"log-level": "logging.level",
}

// initConfig binds the flags of the running command, loads configuration
// and starts logging.
func initConfig(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	config.Setup(v, cfgFile)

	if err := bindFlags(v, cmd.Flags(), persistentKeys); err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags(), commandKeys[cmd.Name()]); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logging.Init(cfg.LoggingConfig()); err != nil {
		// Logging is best effort.
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}

	cliLog().Debug("config loaded", "file", v.ConfigFileUsed(), "command", cmd.CommandPath())
	return nil
}

// commandKeys maps per-command flags to config keys.
var commandKeys = map[string]map[string]string{
	"unfold": {
		"absolute-paths": "absolute_paths",
		"shorter-names":  "shorter_names",
	},
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func cliLog() *logging.Logger {
	return logging.Get("cli")
}

// styledErrors reports whether errors get the boxed rendering.
func styledErrors() bool {
	if cfg != nil {
		return cfg.Output == "pretty"
	}
	return viper.GetString("output") == "" || viper.GetString("output") == "pretty"
}

// printInfo prints a message unless a machine-readable format was chosen.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if cfg != nil && (cfg.Output == "json" || cfg.Output == "yaml") {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
