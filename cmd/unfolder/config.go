package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jamesainslie/unfolder/pkg/unfolder/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage unfolder configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/unfolder/config.yaml (if set)
  2. ~/.config/unfolder/config.yaml

Environment variables override config file settings using the UNFOLDER_ prefix:
  UNFOLDER_SHORTER_NAMES=true
  UNFOLDER_SEPARATOR=__
  UNFOLDER_JOURNAL_ENABLED=false`,
	PersistentPreRunE: initConfigLenient,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in $VISUAL, $EDITOR or vi.

If the config file doesn't exist, a default one is created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

// configLoadErr holds the load failure seen by initConfigLenient.
var configLoadErr error

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// initConfigLenient lets config subcommands run with a broken config file
// so it can be located and fixed.
func initConfigLenient(cmd *cobra.Command, args []string) error {
	configLoadErr = initConfig(cmd, args)
	return nil
}

// configEnvVars lists the overrides shown by config show.
var configEnvVars = []string{
	"absolute_paths",
	"shorter_names",
	"verbosity",
	"separator",
	"output",
	"journal.enabled",
	"journal.path",
	"journal.retention_days",
	"logging.level",
	"logging.path",
}

func envName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if configLoadErr != nil {
		return fmt.Errorf("failed to load configuration: %w", configLoadErr)
	}
	w := cmd.OutOrStdout()

	if configFile := viper.ConfigFileUsed(); configFile != "" && fileExists(configFile) {
		fmt.Fprintf(w, "Config file: %s\n\n", configFile)
	} else {
		fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "absolute_paths:          %t\n", cfg.AbsolutePaths)
	fmt.Fprintf(w, "shorter_names:           %t\n", cfg.ShorterNames)
	fmt.Fprintf(w, "verbosity:               %d\n", cfg.Verbosity)
	fmt.Fprintf(w, "separator:               %q\n", cfg.Separator)
	fmt.Fprintf(w, "output:                  %s\n", cfg.Output)
	fmt.Fprintf(w, "journal.enabled:         %t\n", cfg.Journal.Enabled)
	fmt.Fprintf(w, "journal.path:            %s\n", cfg.Journal.Path)
	fmt.Fprintf(w, "journal.retention:       %d days\n", cfg.Journal.RetentionDays)
	fmt.Fprintf(w, "logging.level:           %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "logging.path:            %s\n", cfg.Logging.Path)
	fmt.Fprintf(w, "logging.rotation.size:   %s\n", cfg.Logging.Rotation.MaxSize)
	fmt.Fprintf(w, "locks:                   %s\n", config.DefaultLockDir())

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	anyOverrides := false
	for _, key := range configEnvVars {
		name := envName(key)
		if val, ok := os.LookupEnv(name); ok && val != "" {
			fmt.Fprintf(w, "%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(w, "(none)")
	}
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	cliLog().Debug("opening config", "path", path, "editor", editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if fileExists(path) {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists: %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "Use 'unfolder config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created default config file: %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
