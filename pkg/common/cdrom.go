// Package common provides common utilities for CD-ROM operations.
// This file contains functions for MSF conversion and ISO 9660 name handling.
package common

import (
	"fmt"
	"strings"
)

// LBAToMSF converts LBA (Logical Block Address) to MSF (Minutes:Seconds:Frames) format
// LBA to MSF conversion: LBA + 150 (pregap)
func LBAToMSF(lba uint32) string {
	totalFrames := uint64(lba) + 150

	minutes := totalFrames / (60 * 75)
	seconds := (totalFrames % (60 * 75)) / 75
	frames := totalFrames % 75

	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, frames)
}

// CleanFileName removes version numbers from ISO9660 file names
// (e.g., "FILE.EXT;1" -> "FILE.EXT", "README.;1" -> "README")
func CleanFileName(fileName string) string {
	if idx := strings.LastIndexByte(fileName, ';'); idx > 0 && isDigits(fileName[idx+1:]) {
		fileName = fileName[:idx]
		// a name without extension is recorded with a trailing separator dot
		fileName = strings.TrimSuffix(fileName, ".")
	}
	return fileName
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, b := range []byte(s) {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

// IsSpecialDirEntry checks if a decoded directory entry name is "." or ".."
func IsSpecialDirEntry(fileName string) bool {
	return fileName == "." || fileName == ".."
}

// IsValidFileName checks if a filename is safe to create on the host.
// Special entries, control characters, path separators and high-bit bytes
// are rejected.
func IsValidFileName(fileName string) bool {
	if len(fileName) == 0 || len(fileName) > 255 || IsSpecialDirEntry(fileName) {
		return false
	}

	validChars := 0
	for _, r := range fileName {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-':
			validChars++
		case r == ' ' && validChars > 0:
			// Space is okay if not at start
		case r < 0x20:
			return false
		case r >= 0x80:
			// High-bit characters might be valid in some encodings, but risky
			return false
		case strings.ContainsRune(`<>:"|?*\/`, r):
			return false
		}
	}

	// Must have at least one valid character
	return validChars > 0
}
