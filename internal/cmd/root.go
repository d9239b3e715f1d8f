package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/config"
)

type runtimeOptions struct {
	ConfigPath string
	APIBase    string
	DataDir    string
	Debug      bool
	AssumeYes  bool
}

var rootOpts runtimeOptions

func NewRootCmd(buildVersion, buildDate string) *cobra.Command {
	showVersion := false

	cmd := &cobra.Command{
		Use:           "heat-sheet-highlighter",
		Short:         "Heat sheet PDF highlighter companion CLI and self-updater",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprint(cmd.OutOrStdout(), formatVersion(buildVersion, buildDate))
				return nil
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&rootOpts.ConfigPath, "config", "f", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&showVersion, "version", false, "Print CLI version")
	cmd.PersistentFlags().BoolVar(&rootOpts.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&rootOpts.AssumeYes, "yes", "y", false, "Assume yes on update prompts")

	cmd.AddCommand(newVersionCmd(buildVersion, buildDate))
	cmd.AddCommand(newUpdateCmd(buildVersion))
	cmd.AddCommand(newReleasesCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func mergedOptions(cmd *cobra.Command) (runtimeOptions, error) {
	merged := runtimeOptions{}

	if rootOpts.ConfigPath != "" {
		fileCfg, err := config.Load(rootOpts.ConfigPath)
		if err != nil {
			return runtimeOptions{}, err
		}

		if fileCfg.APIBase != "" {
			merged.APIBase = fileCfg.APIBase
		}
		if fileCfg.DataDir != "" {
			merged.DataDir = fileCfg.DataDir
		}
		if fileCfg.Debug != nil {
			merged.Debug = *fileCfg.Debug
		}
	}

	if err := applyEnvOverrides(&merged); err != nil {
		return runtimeOptions{}, err
	}

	// cmd is nil for the post-run startup check, which has no flag set.
	if cmd != nil && cmd.Flags().Changed("debug") {
		merged.Debug = rootOpts.Debug
	}
	merged.AssumeYes = rootOpts.AssumeYes

	merged.APIBase = strings.TrimSpace(merged.APIBase)
	merged.DataDir = strings.TrimSpace(merged.DataDir)

	return merged, nil
}

func applyEnvOverrides(opts *runtimeOptions) error {
	if value, ok := getenvTrim("HEAT_SHEET_API_BASE"); ok {
		opts.APIBase = value
	}
	if value, ok := getenvTrim("HEAT_SHEET_DATA_DIR"); ok {
		opts.DataDir = value
	}
	if value, ok := getenvTrim("HEAT_SHEET_DEBUG"); ok {
		parsed, err := parseBoolEnv("HEAT_SHEET_DEBUG", value)
		if err != nil {
			return err
		}
		opts.Debug = parsed
	}
	return nil
}

func getenvTrim(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func parseBoolEnv(name, raw string) (bool, error) {
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s as bool: %w", name, err)
	}
	return parsed, nil
}
