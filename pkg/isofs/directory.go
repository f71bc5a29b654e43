package isofs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/hansbonini/isotools/pkg/common"
)

// Directory is the decoded listing of one directory extent. Entries keep
// the on-disk record order. A Directory is a snapshot and is never modified
// after it has been loaded.
type Directory struct {
	source  SectorSource // not owned
	self    FileDescriptor
	entries []FileDescriptor
}

// NewRootDirectory loads the root directory. The root descriptor is taken
// from the record embedded in the Primary Volume Descriptor at sector 16.
func NewRootDirectory(src SectorSource) (*Directory, error) {
	sector := make([]byte, SectorSize)
	if err := src.ReadSector(sector, PrimaryVolumeSector); err != nil {
		return nil, fmt.Errorf("failed to read volume descriptor: %w", err)
	}

	root, err := DecodeFileDescriptor(sector[rootRecordOffset:rootRecordOffset+rootRecordLength], rootRecordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to decode root directory record: %w", err)
	}

	return NewDirectory(src, root)
}

// NewDirectory loads the directory described by fd.
func NewDirectory(src SectorSource, fd FileDescriptor) (*Directory, error) {
	d := &Directory{source: src, self: fd}
	if err := d.load(); err != nil {
		return nil, err
	}
	common.LogDebug(common.DebugDirectoryLoaded, fd.Name, fd.Location, fd.Size, len(d.entries))
	return d, nil
}

// load decodes records until fewer than 4 bytes of the extent remain or a
// zero length byte is found. Zero bytes pad the tail of a sector, and are
// treated as the end of the listing.
func (d *Directory) load() error {
	stream := OpenFile(d.source, d.self)
	remaining := int64(d.self.Size)
	record := make([]byte, 256)

	for remaining >= 4 {
		length, err := stream.ReadByte()
		if err != nil {
			return d.readError(err)
		}
		if length == 0 {
			break
		}
		remaining -= int64(length)

		record[0] = length
		if _, err := io.ReadFull(stream, record[1:length]); err != nil {
			return d.readError(err)
		}

		fd, err := DecodeFileDescriptor(record[:length], int(length))
		if err != nil {
			return fmt.Errorf("directory at LBA %d, entry %d: %w", d.self.Location, len(d.entries), err)
		}
		d.entries = append(d.entries, fd)
	}
	return nil
}

// readError maps running off the end of the extent to a malformed record;
// medium errors pass through.
func (d *Directory) readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: directory at LBA %d, entry %d runs past its extent: %w",
			ErrMalformedRecord, d.self.Location, len(d.entries), io.ErrUnexpectedEOF)
	}
	return err
}

// Self returns the descriptor this directory was loaded from.
func (d *Directory) Self() FileDescriptor {
	return d.self
}

// Len returns the number of entries, including "." and "..".
func (d *Directory) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the entries in on-disk order.
func (d *Directory) Entries() []FileDescriptor {
	entries := make([]FileDescriptor, len(d.entries))
	copy(entries, d.entries)
	return entries
}

// EntryAt returns the entry at index. It panics if index is out of range;
// callers obtain valid indices from IndexOf.
func (d *Directory) EntryAt(index int) FileDescriptor {
	return d.entries[index]
}

// IndexOf returns the position of the entry named name. The match is exact
// and case-sensitive, so ISO version suffixes such as ";1" are significant.
func (d *Directory) IndexOf(name string) (int, error) {
	for i := range d.entries {
		if d.entries[i].Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// EntryByName returns the entry named name.
func (d *Directory) EntryByName(name string) (FileDescriptor, error) {
	i, err := d.IndexOf(name)
	if err != nil {
		return FileDescriptor{}, err
	}
	return d.EntryAt(i), nil
}

// Resolve finds the entry for a path relative to this directory. Segments
// are separated by '/' or '\'. Every segment but the last must name a
// directory; "." and ".." work because those records exist on disk. A path
// ending in a separator resolves to the last directory descended into.
func (d *Directory) Resolve(p string) (FileDescriptor, error) {
	if p == "" {
		return FileDescriptor{}, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}

	segments := splitPath(p)
	dirs, leaf := segments[:len(segments)-1], segments[len(segments)-1]

	current := d
	for _, name := range dirs {
		if name == "" {
			continue
		}
		info, err := current.EntryByName(name)
		if err != nil {
			return FileDescriptor{}, fmt.Errorf("resolving %q: %w", p, err)
		}
		if info.IsFile() {
			return FileDescriptor{}, fmt.Errorf("resolving %q: %w: %q is not a directory", p, ErrNotFound, name)
		}

		next, err := NewDirectory(current.source, info)
		if err != nil {
			return FileDescriptor{}, fmt.Errorf("resolving %q: %w", p, err)
		}
		current = next
	}

	if leaf == "" {
		return current.self, nil
	}
	info, err := current.EntryByName(leaf)
	if err != nil {
		return FileDescriptor{}, fmt.Errorf("resolving %q: %w", p, err)
	}
	return info, nil
}

// IsFile reports whether p resolves to a file. An empty path is not a file.
func (d *Directory) IsFile(p string) (bool, error) {
	if p == "" {
		return false, nil
	}
	info, err := d.Resolve(p)
	if err != nil {
		return false, err
	}
	return info.IsFile(), nil
}

// IsDirectory reports whether p resolves to a directory. An empty path is
// not a directory.
func (d *Directory) IsDirectory(p string) (bool, error) {
	if p == "" {
		return false, nil
	}
	info, err := d.Resolve(p)
	if err != nil {
		return false, err
	}
	return info.IsDirectory(), nil
}

// FileSize returns the size in bytes of the entry at p, or 0 for an empty path.
func (d *Directory) FileSize(p string) (uint32, error) {
	if p == "" {
		return 0, nil
	}
	info, err := d.Resolve(p)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Open resolves p and opens a read cursor over its extent.
func (d *Directory) Open(p string) (*File, error) {
	info, err := d.Resolve(p)
	if err != nil {
		return nil, err
	}
	return OpenFile(d.source, info), nil
}

// WalkFunc is called by Walk for every entry below the starting directory.
// p is slash separated and relative to that directory. Returning
// fs.SkipDir from a directory entry skips its contents.
type WalkFunc func(p string, fd FileDescriptor) error

// Walk visits every entry below d depth first, in on-disk order, skipping
// the "." and ".." records. Each directory extent is entered at most once:
// a record pointing at an extent that was already walked is reported to fn
// but not descended into.
func (d *Directory) Walk(fn WalkFunc) error {
	visited := map[uint32]bool{d.self.Location: true}
	return d.walk("", fn, visited)
}

func (d *Directory) walk(prefix string, fn WalkFunc, visited map[uint32]bool) error {
	for _, entry := range d.entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		p := path.Join(prefix, entry.Name)

		if err := fn(p, entry); err != nil {
			if entry.IsDirectory() && errors.Is(err, fs.SkipDir) {
				continue
			}
			return err
		}
		if entry.IsFile() {
			continue
		}
		if visited[entry.Location] {
			common.LogWarn(common.WarnDirectoryLoop, p, entry.Location)
			continue
		}
		visited[entry.Location] = true

		child, err := NewDirectory(d.source, entry)
		if err != nil {
			return fmt.Errorf("walking %q: %w", p, err)
		}
		if err := child.walk(p, fn, visited); err != nil {
			return err
		}
	}
	return nil
}

// splitPath splits on both separators, keeping empty segments so that a
// trailing separator yields an empty leaf.
func splitPath(p string) []string {
	return strings.Split(strings.ReplaceAll(p, `\`, "/"), "/")
}
