// Package isofs provides read-only access to ISO 9660 filesystems stored on
// a medium that delivers fixed-size 2048-byte sectors.
//
// A FileDescriptor is one decoded directory record. A Directory is the
// decoded listing of one directory extent, and resolves slash or backslash
// separated paths by descending through sub-directories one level at a time.
package isofs

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ISO 9660 layout constants (ECMA-119 Sections 8.4 and 9.1)
const (
	SectorSize          = 2048 // logical sector size
	PrimaryVolumeSector = 16   // LBA of the Primary Volume Descriptor

	rootRecordOffset = 156 // root directory record inside the PVD
	rootRecordLength = 38

	recordFixedSize = 33 // directory record size excluding the identifier
)

// Directory record field offsets (ECMA-119 Section 9.1)
const (
	offLocation   = 2
	offSize       = 10
	offDate       = 18
	offFlags      = 25
	offNameLength = 32
	offName       = 33
)

// FileFlag holds the file flags byte of a directory record.
type FileFlag byte

const (
	FlagHidden FileFlag = 1 << iota
	FlagDirectory
	FlagAssociated
	FlagExtendedFormat
	FlagExtendedPermissions
	flagReserved1
	flagReserved2
	FlagMultiExtent // not the final record for this file
)

// DateTime is the 7-byte recording date of a directory record. Values are
// stored as read; no calendar validation is performed.
type DateTime struct {
	Year      uint16 // stored byte + 1900
	Month     uint8
	Day       uint8
	Hour      uint8
	Minute    uint8
	Second    uint8
	GMTOffset uint8 // 15-minute intervals from GMT, two's complement
}

// Time converts the recording date to a time.Time in its recorded zone.
// Out-of-range fields are normalized the way time.Date normalizes them.
func (d DateTime) Time() time.Time {
	offset := int(int8(d.GMTOffset)) * 15 * 60
	zone := time.FixedZone("", offset)
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day),
		int(d.Hour), int(d.Minute), int(d.Second), 0, zone)
}

// FileDescriptor is one decoded ISO 9660 directory record.
//
// The zero value (location 0, size 0, no flags, empty name) is used as an
// uninitialized placeholder and never describes a real entry.
type FileDescriptor struct {
	Location uint32 // LBA of the extent
	Size     uint32 // extent length in bytes
	Date     DateTime
	Flags    FileFlag
	Name     string
}

// DecodeFileDescriptor decodes a raw directory record. length is the record
// length declared by the caller (normally data[0]); it corroborates the
// record rather than being re-derived from it.
//
// Identifier bytes are widened one to one into runes. ISO 9660 identifiers
// are restricted to d-characters, so no charset decoding is attempted; bytes
// above 0x7F come out as the Latin-1 rune of the same value.
func DecodeFileDescriptor(data []byte, length int) (FileDescriptor, error) {
	if length < 0 {
		return FileDescriptor{}, fmt.Errorf("%w: negative record length %d", ErrMalformedRecord, length)
	}
	if len(data) < recordFixedSize {
		return FileDescriptor{}, fmt.Errorf("%w: record has %d bytes, need at least %d",
			ErrMalformedRecord, len(data), recordFixedSize)
	}

	var fd FileDescriptor
	fd.Location = binary.LittleEndian.Uint32(data[offLocation : offLocation+4])
	fd.Size = binary.LittleEndian.Uint32(data[offSize : offSize+4])

	fd.Date = DateTime{
		Year:      uint16(data[offDate]) + 1900,
		Month:     data[offDate+1],
		Day:       data[offDate+2],
		Hour:      data[offDate+3],
		Minute:    data[offDate+4],
		Second:    data[offDate+5],
		GMTOffset: data[offDate+6],
	}
	fd.Flags = FileFlag(data[offFlags])

	// a set top bit is treated as corruption, not as a huge address
	if fd.Location > math.MaxInt32 {
		return FileDescriptor{}, fmt.Errorf("%w: implausible location 0x%08X", ErrMalformedRecord, fd.Location)
	}

	nameLength := int(data[offNameLength])
	if offName+nameLength > len(data) {
		return FileDescriptor{}, fmt.Errorf("%w: identifier of %d bytes exceeds record of %d bytes",
			ErrMalformedRecord, nameLength, len(data))
	}
	fd.Name = decodeName(data[offName : offName+nameLength])

	return fd, nil
}

func decodeName(raw []byte) string {
	if len(raw) == 1 {
		switch raw[0] {
		case 0x00:
			return "."
		case 0x01:
			return ".."
		}
	}
	name := make([]rune, len(raw))
	for i, b := range raw {
		name[i] = rune(b)
	}
	return string(name)
}

// IsDirectory reports whether the directory flag (bit 1) is set.
func (fd FileDescriptor) IsDirectory() bool {
	return fd.Flags&FlagDirectory == FlagDirectory
}

// IsFile reports whether the entry is a file, i.e. not a directory.
func (fd FileDescriptor) IsFile() bool {
	return !fd.IsDirectory()
}

// Sectors returns the number of sectors the extent occupies.
func (fd FileDescriptor) Sectors() uint32 {
	return uint32((uint64(fd.Size) + SectorSize - 1) / SectorSize)
}

func (fd FileDescriptor) String() string {
	kind := "file"
	if fd.IsDirectory() {
		kind = "dir"
	}
	return fmt.Sprintf("%s %q lba=%d size=%d", kind, fd.Name, fd.Location, fd.Size)
}
