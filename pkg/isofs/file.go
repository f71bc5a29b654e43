package isofs

import (
	"errors"
	"fmt"
	"io"
)

// SectorSource supplies raw 2048-byte sectors by logical block address.
// ReadSector fills buf (at least SectorSize bytes) with sector lba.
type SectorSource interface {
	ReadSector(buf []byte, lba uint32) error
}

// File is a sequential read cursor over the extent of one entry. It reads
// whole sectors from the source and serves partial reads from the sector
// most recently read.
type File struct {
	source   SectorSource
	location uint32
	size     int64
	offset   int64

	sector    [SectorSize]byte
	loaded    bool
	loadedLBA uint32
}

// OpenFile opens a read cursor over the extent described by fd.
func OpenFile(src SectorSource, fd FileDescriptor) *File {
	return &File{
		source:   src,
		location: fd.Location,
		size:     int64(fd.Size),
	}
}

// Size returns the extent length in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	if f.offset >= f.size {
		return 0, io.EOF
	}
	if remaining := f.size - f.offset; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n := 0
	for n < len(p) {
		if err := f.load(); err != nil {
			return n, err
		}
		within := int(f.offset % SectorSize)
		copied := copy(p[n:], f.sector[within:])
		n += copied
		f.offset += int64(copied)
	}
	return n, nil
}

// ReadByte implements io.ByteReader.
func (f *File) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := f.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Seek implements io.Seeker. Seeking past the end is allowed; subsequent
// reads return io.EOF.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = f.offset + offset
	case io.SeekEnd:
		target = f.size + offset
	default:
		return f.offset, fmt.Errorf("invalid whence %d", whence)
	}
	if target < 0 {
		return f.offset, errors.New("negative seek position")
	}
	f.offset = target
	return target, nil
}

// load makes sure the sector holding the current offset is buffered.
func (f *File) load() error {
	lba := f.location + uint32(f.offset/SectorSize)
	if f.loaded && f.loadedLBA == lba {
		return nil
	}
	if err := f.source.ReadSector(f.sector[:], lba); err != nil {
		f.loaded = false
		return fmt.Errorf("failed to read sector %d: %w", lba, err)
	}
	f.loaded = true
	f.loadedLBA = lba
	return nil
}
