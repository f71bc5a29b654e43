// Package cmd provides command-line interface for CD image processing.
// This file contains commands for listing, inspecting and extracting files
// from ISO 9660 CD images.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/hansbonini/isotools/pkg/common"
)

// cdCmd represents the parent command for all CD image operations.
var cdCmd = &cobra.Command{
	Use:   "cd",
	Short: "Process ISO 9660 CD image files",
	Long: `Process ISO 9660 CD image files (.iso or raw .bin).

Commands:
  ls        List a directory
  stat      Show a single entry
  extract   Copy one file out of the image
  dump      Extract every file from the image
  manifest  Export a YAML manifest of the image contents
  info      Show the Primary Volume Descriptor
  dirs      List every directory from the path table

Examples:
  isotools cd ls game.bin
  isotools cd dump game.bin ./output/`,
}

// cdLsCmd lists the entries of a directory inside the image.
var cdLsCmd = &cobra.Command{
	Use:   "ls [input_file] [directory]",
	Short: "List a directory in a CD image",
	Long: `List a directory in a CD image. Without a directory the root is listed.

Paths use '/' or '\' as separators and are matched exactly, including the
';1' version suffix ISO 9660 adds to file names.

Each line shows:
  - ID (4-digit hex)
  - MSF (Minutes:Seconds:Frames)
  - LBA (Logical Block Address)
  - Size in bytes
  - Path within the CD structure

Example:
  isotools cd ls game.bin DATA`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 1 {
			dir = args[1]
		}

		entries, err := newProcessor().List(args[0], dir)
		if err != nil {
			return fmt.Errorf("failed to list CD image: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, entry := range entries {
			kind := "   "
			if entry.IsDir {
				kind = "DIR"
			}
			fmt.Fprintf(out, "%04X  %s  %8d  %10d  %s  %s\n",
				entry.ID, entry.MSF, entry.LBA, entry.Size, kind, entry.Path)
		}
		return nil
	},
}

// cdStatCmd shows a single entry.
var cdStatCmd = &cobra.Command{
	Use:   "stat [input_file] [path]",
	Short: "Show details of a file or directory in a CD image",
	Example: `  isotools cd stat game.bin SYSTEM.CNF;1
  isotools cd stat game.bin DATA/`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := newProcessor().Stat(args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", args[1], err)
		}

		kind := "file"
		if entry.IsDir {
			kind = "directory"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:    %s\n", entry.Name)
		fmt.Fprintf(out, "Type:    %s\n", kind)
		fmt.Fprintf(out, "Size:    %d bytes (%d sectors)\n", entry.Size, entry.ExtentSize)
		fmt.Fprintf(out, "LBA:     %d\n", entry.LBA)
		fmt.Fprintf(out, "MSF:     %s\n", entry.MSF)
		fmt.Fprintf(out, "Date:    %s\n", entry.Date)
		return nil
	},
}

// cdExtractCmd copies one file out of the image.
var cdExtractCmd = &cobra.Command{
	Use:     "extract [input_file] [path] [output_file]",
	Short:   "Extract a single file from a CD image",
	Example: `  isotools cd extract game.bin DATA/FILE.DAT;1 ./FILE.DAT`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := filepath.Abs(args[2])
		if err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}

		out := osfs.New(filepath.Dir(dest))
		if err := newProcessor().Extract(args[0], args[1], out, filepath.Base(dest)); err != nil {
			return fmt.Errorf("failed to extract %s: %w", args[1], err)
		}
		return nil
	},
}

// cdDumpCmd extracts every file from the image.
var cdDumpCmd = &cobra.Command{
	Use:   "dump [input_file] [output_directory]",
	Short: "Extract all files from a CD image",
	Long: `Extract all files from a CD image.

The directory structure of the image is recreated below the output
directory. Version suffixes (';1') are removed from file names unless
--strip-versions=false is given. Entries whose names cannot be used on
the host are skipped with a warning.

Example:
  isotools cd dump game.bin ./output/
  isotools cd dump -v game.bin ./output/`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputDir := args[1]

		fmt.Fprintf(cmd.OutOrStdout(), "Processing CD image file: %s\n", inputFile)
		fmt.Fprintf(cmd.OutOrStdout(), "Output directory: %s\n", outputDir)

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		if err := newProcessor().Dump(inputFile, osfs.New(outputDir)); err != nil {
			return fmt.Errorf("failed to process CD image file: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "CD image file processed successfully!")
		return nil
	},
}

// cdManifestCmd exports a YAML manifest of the image.
var cdManifestCmd = &cobra.Command{
	Use:   "manifest [input_file] [output_file]",
	Short: "Export a YAML manifest of a CD image",
	Long: `Export a YAML manifest describing the volume and every entry in it
(path, LBA, MSF, size, sectors, date). Without an output file the manifest
is written to standard output.

Example:
  isotools cd manifest game.bin manifest.yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := newProcessor().ExportManifest(args[0], cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to export manifest: %w", err)
			}
			return nil
		}

		dest, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
		if err := writeManifest(osfs.New(filepath.Dir(dest)), args[0], filepath.Base(dest)); err != nil {
			return fmt.Errorf("failed to export manifest: %w", err)
		}
		return nil
	},
}

// writeManifest exports the manifest of imagePath into a new file in out.
// A failure to close the file is reported like a failed write.
func writeManifest(out billy.Filesystem, imagePath, name string) error {
	file, err := out.Create(name)
	if err != nil {
		return common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}

	err = newProcessor().ExportManifest(imagePath, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = common.FormatError(common.ErrFailedToWriteManifest, closeErr)
	}
	return err
}

// cdInfoCmd shows the Primary Volume Descriptor.
var cdInfoCmd = &cobra.Command{
	Use:   "info [input_file]",
	Short: "Show volume information of a CD image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newProcessor().Info(args[0])
		if err != nil {
			return fmt.Errorf("failed to read volume information: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Layout:             %s\n", info.Layout)
		fmt.Fprintf(out, "System ID:          %s\n", info.SystemID)
		fmt.Fprintf(out, "Volume ID:          %s\n", info.VolumeID)
		fmt.Fprintf(out, "Publisher ID:       %s\n", info.PublisherID)
		fmt.Fprintf(out, "Application ID:     %s\n", info.ApplicationID)
		fmt.Fprintf(out, "Volume size:        %d blocks\n", info.VolumeSpaceSize)
		fmt.Fprintf(out, "Logical block size: %d\n", info.LogicalBlockSize)
		fmt.Fprintf(out, "Image sectors:      %d\n", info.ImageSectors)
		fmt.Fprintf(out, "Root directory:     LBA %d, %d bytes\n", info.RootLBA, info.RootSize)
		return nil
	},
}

// cdDirsCmd lists every directory recorded in the path table.
var cdDirsCmd = &cobra.Command{
	Use:   "dirs [input_file]",
	Short: "List all directories of a CD image from its path table",
	Long: `List all directories of a CD image from its path table.

The path table is a flat index of every directory on the volume, so this
does not walk the directory hierarchy.

Example:
  isotools cd dirs game.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs, err := newProcessor().Directories(args[0])
		if err != nil {
			return fmt.Errorf("failed to read directories: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, dir := range dirs {
			fmt.Fprintf(out, "%04X  %s  %8d  %s\n", dir.ID, dir.MSF, dir.LBA, dir.Path)
		}
		return nil
	},
}

// init initializes the CD command with its subcommands.
func init() {
	// Add the CD command to the root command
	rootCmd.AddCommand(cdCmd)

	cdCmd.AddCommand(cdLsCmd)
	cdCmd.AddCommand(cdStatCmd)
	cdCmd.AddCommand(cdExtractCmd)
	cdCmd.AddCommand(cdDumpCmd)
	cdCmd.AddCommand(cdManifestCmd)
	cdCmd.AddCommand(cdInfoCmd)
	cdCmd.AddCommand(cdDirsCmd)
}
