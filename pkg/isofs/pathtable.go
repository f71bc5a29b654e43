package isofs

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
)

// pathRecordFixedSize is the path table record size excluding the identifier
const pathRecordFixedSize = 8

// PathTableEntry is one record of the type L path table (ECMA-119 Section 9.4).
// Entries are numbered from 1; the root is entry 1 and is its own parent.
type PathTableEntry struct {
	Location uint32 // LBA of the directory extent
	Parent   uint16 // number of the parent entry
	Name     string
}

// PathTable lists every directory of the volume in breadth-first order.
type PathTable []PathTableEntry

// ReadPathTable reads the little-endian path table referenced by pvd.
// Every parent must precede its children, which also rules out cycles.
func ReadPathTable(src SectorSource, pvd *PrimaryVolumeDescriptor) (PathTable, error) {
	if pvd.PathTableLocation > math.MaxInt32 {
		return nil, fmt.Errorf("%w: path table location 0x%08X", ErrMalformedRecord, pvd.PathTableLocation)
	}

	stream := OpenFile(src, FileDescriptor{Location: pvd.PathTableLocation, Size: pvd.PathTableSize})
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read path table: %w", err)
	}

	var table PathTable
	offset := 0
	for offset+pathRecordFixedSize <= len(data) {
		nameLength := int(data[offset])
		if nameLength == 0 {
			break
		}

		number := len(table) + 1
		end := offset + pathRecordFixedSize + nameLength
		if end > len(data) {
			return nil, fmt.Errorf("%w: path table entry %d runs past the table", ErrMalformedRecord, number)
		}

		entry := PathTableEntry{
			Location: binary.LittleEndian.Uint32(data[offset+2 : offset+6]),
			Parent:   binary.LittleEndian.Uint16(data[offset+6 : offset+8]),
			Name:     decodeName(data[offset+pathRecordFixedSize : end]),
		}
		if entry.Location > math.MaxInt32 {
			return nil, fmt.Errorf("%w: path table entry %d location %d", ErrMalformedRecord, number, entry.Location)
		}
		if (number == 1 && entry.Parent != 1) || (number > 1 && (entry.Parent == 0 || int(entry.Parent) >= number)) {
			return nil, fmt.Errorf("%w: path table entry %d has parent %d", ErrMalformedRecord, number, entry.Parent)
		}
		table = append(table, entry)

		// identifiers of odd length are followed by a padding byte
		offset = end + nameLength%2
	}
	return table, nil
}

// Path returns the slash separated path of entry number n. The root is "".
func (t PathTable) Path(n int) (string, error) {
	if n < 1 || n > len(t) {
		return "", fmt.Errorf("%w: path table entry %d of %d", ErrInvalidArgument, n, len(t))
	}

	var segments []string
	for n > 1 {
		entry := t[n-1]
		if int(entry.Parent) >= n {
			return "", fmt.Errorf("%w: path table entry %d has parent %d", ErrMalformedRecord, n, entry.Parent)
		}
		segments = append(segments, entry.Name)
		n = int(entry.Parent)
	}
	slices.Reverse(segments)
	return strings.Join(segments, "/"), nil
}
