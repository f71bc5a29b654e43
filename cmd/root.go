// Package cmd provides command-line interface functionality for isotools.
// isotools reads files out of ISO 9660 CD images (.iso dumps and raw .bin
// images) without mounting them.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hansbonini/isotools/pkg"
	"github.com/hansbonini/isotools/pkg/common"
	"github.com/hansbonini/isotools/pkg/config"
)

// settings holds the configuration after the config file and flags are applied
var settings = config.Default()

// rootCmd represents the base command when called without any subcommands.
// It provides the main entry point for the isotools application.
var rootCmd = &cobra.Command{
	Use:   "isotools",
	Short: "Read files from ISO 9660 CD images",
	Long: `isotools - read-only access to ISO 9660 file systems stored in CD images.

Supported images:
  - Plain ISO dumps (2048-byte sectors)
  - Raw BIN dumps (2352-byte sectors, Mode 1 or Mode 2 Form 1)

Examples:
  isotools cd ls game.bin
  isotools cd ls game.bin DATA/
  isotools cd stat game.bin SYSTEM.CNF;1
  isotools cd extract game.bin DATA/FILE.DAT;1 ./FILE.DAT
  isotools cd dump -v game.bin ./output/
  isotools cd manifest game.bin manifest.yaml
  isotools cd info game.bin

Use 'isotools [command] --help' for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd.Flags())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and logs the error it fails with
func execute() error {
	err := rootCmd.Execute()
	if err != nil {
		common.LogError("%v", err)
	}
	return err
}

// init initializes the root command with flags shared by every subcommand.
func init() {
	addPersistentFlags(rootCmd.PersistentFlags())
}

// addPersistentFlags defines the flags that loadSettings reads
func addPersistentFlags(flags *pflag.FlagSet) {
	flags.BoolP("verbose", "v", false, "Enable verbose output with debug messages")
	flags.String("config", "", "YAML configuration file")
	flags.String("layout", "auto", "Image layout: auto, iso, mode1, mode2")
	flags.Bool("strip-versions", true, "Remove ';1' version suffixes from extracted file names")
}

// loadSettings reads the config file, if any, and applies explicitly set flags over it
func loadSettings(flags *pflag.FlagSet) error {
	configFile, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("error getting config flag: %w", err)
	}

	cfg := config.Default()
	if configFile != "" {
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}

	if err := applyFlags(cfg, flags); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	settings = cfg
	common.SetVerboseMode(settings.Verbose)
	return nil
}

// applyFlags overrides config values with flags the user set on the command line
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	if flags.Changed("verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
	}
	if flags.Changed("layout") {
		if cfg.Layout, err = flags.GetString("layout"); err != nil {
			return fmt.Errorf("error getting layout flag: %w", err)
		}
	}
	if flags.Changed("strip-versions") {
		if cfg.StripVersions, err = flags.GetBool("strip-versions"); err != nil {
			return fmt.Errorf("error getting strip-versions flag: %w", err)
		}
	}
	return nil
}

// newProcessor builds a CD processor from the current settings
func newProcessor() *pkg.CDProcessor {
	return pkg.NewCDProcessor(
		pkg.WithLayout(settings.ImageLayout()),
		pkg.WithStripVersions(settings.StripVersions),
		pkg.WithManifestDirs(settings.Manifest.IncludeDirs),
	)
}
