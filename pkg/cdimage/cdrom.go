// Package cdimage provides sector sources over CD image files.
// This file contains sector geometry constants and the image layouts
// that can be read: plain 2048-byte ISO dumps and raw 2352-byte dumps.
package cdimage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Sector size constants for CD-ROM images
const (
	CD_SECTOR_SIZE  = 2352 // Full CD sector size
	CD_DATA_SIZE    = 2048 // Data portion of Mode 1 / Mode 2 Form 1 sectors
	CD_SYNC_SIZE    = 12   // Sync pattern size
	CD_HEADER_SIZE  = 4    // Header size (3 address bytes + 1 mode byte)
	CD_SUBHEAD_SIZE = 8    // XA subheader size (Mode 2 only)
)

// syncPattern starts every raw data sector
var syncPattern = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

var (
	ErrSectorOutOfRange = errors.New("sector out of range")
	ErrShortBuffer      = errors.New("buffer smaller than a sector")
	ErrUnknownLayout    = errors.New("unknown image layout")
)

// Layout describes how logical 2048-byte sectors are stored in an image file.
type Layout int

const (
	LayoutAuto       Layout = iota // detect from the image contents
	LayoutISO                      // 2048-byte sectors, user data only
	LayoutMode1                    // 2352-byte raw sectors, data after sync + header
	LayoutMode2Form1               // 2352-byte raw sectors, data after sync + header + subheader
)

// ParseLayout converts a layout name (auto, iso, mode1, mode2) to a Layout.
func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return LayoutAuto, nil
	case "iso", "2048":
		return LayoutISO, nil
	case "mode1":
		return LayoutMode1, nil
	case "mode2", "mode2form1", "2352":
		return LayoutMode2Form1, nil
	}
	return LayoutAuto, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}

func (l Layout) String() string {
	switch l {
	case LayoutAuto:
		return "auto"
	case LayoutISO:
		return "iso"
	case LayoutMode1:
		return "mode1"
	case LayoutMode2Form1:
		return "mode2"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// stride is the number of bytes each sector occupies in the image file.
func (l Layout) stride() int64 {
	if l == LayoutISO {
		return CD_DATA_SIZE
	}
	return CD_SECTOR_SIZE
}

// dataOffset is where the 2048 bytes of user data start inside a stored sector.
func (l Layout) dataOffset() int64 {
	switch l {
	case LayoutMode1:
		return CD_SYNC_SIZE + CD_HEADER_SIZE
	case LayoutMode2Form1:
		return CD_SYNC_SIZE + CD_HEADER_SIZE + CD_SUBHEAD_SIZE
	}
	return 0
}

// isRawSector reports whether data begins with the CD sync pattern.
func isRawSector(data []byte) bool {
	return len(data) >= CD_SYNC_SIZE && bytes.Equal(data[:CD_SYNC_SIZE], syncPattern)
}
