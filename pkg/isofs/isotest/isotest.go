// Package isotest builds ISO 9660 images for tests.
//
// Images are mastered with go-diskfs, which upper-cases names and adds the
// ";1" version suffix to files: "data/file.bin" is found on the disc as
// "DATA/FILE.BIN;1". Building changes the process working directory while
// the image is finalized, so tests using this package must not run in
// parallel.
package isotest

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"

	"github.com/diskfs/go-diskfs/filesystem/iso9660"
	"github.com/stretchr/testify/require"
)

const sectorSize = 2048

// Raw sector geometry
const (
	rawSectorSize = 2352
	syncSize      = 12
	headerSize    = 4
	subheaderSize = 8
)

// Build masters an ISO image holding files (path to content) and the given
// empty directories, and returns its path inside t.TempDir().
func Build(t testing.TB, volumeID string, files map[string]string, dirs ...string) string {
	t.Helper()

	isoPath := filepath.Join(t.TempDir(), "image.iso")
	f, err := os.Create(isoPath)
	require.NoError(t, err)
	defer f.Close()

	fs, err := iso9660.Create(f, 0, 0, sectorSize, t.TempDir())
	require.NoError(t, err)

	for _, d := range dirs {
		require.NoError(t, fs.Mkdir(d))
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if dir := path.Dir(name); dir != "." && dir != "/" {
			require.NoError(t, fs.Mkdir(dir))
		}
		rw, err := fs.OpenFile(name, os.O_CREATE|os.O_RDWR)
		require.NoError(t, err)
		_, err = rw.Write([]byte(files[name]))
		require.NoError(t, err)
		if c, ok := rw.(io.Closer); ok {
			require.NoError(t, c.Close())
		}
	}

	require.NoError(t, fs.Finalize(iso9660.FinalizeOptions{VolumeIdentifier: volumeID}))
	return isoPath
}

// Raw re-encodes a 2048-byte sector image as 2352-byte raw sectors of the
// given mode (1 or 2). EDC and ECC are left zeroed.
func Raw(iso []byte, mode byte) []byte {
	sectors := (len(iso) + sectorSize - 1) / sectorSize
	raw := make([]byte, sectors*rawSectorSize)

	for lba := 0; lba < sectors; lba++ {
		s := raw[lba*rawSectorSize : (lba+1)*rawSectorSize]

		s[0] = 0x00
		for i := 1; i < syncSize-1; i++ {
			s[i] = 0xFF
		}
		s[syncSize-1] = 0x00

		m, sec, frame := msf(lba + 150)
		s[syncSize] = bcd(m)
		s[syncSize+1] = bcd(sec)
		s[syncSize+2] = bcd(frame)
		s[syncSize+3] = mode

		data := s[syncSize+headerSize:]
		if mode == 2 {
			// form 1 data submode, repeated
			copy(data, []byte{0, 0, 0x08, 0, 0, 0, 0x08, 0})
			data = data[subheaderSize:]
		}

		end := (lba + 1) * sectorSize
		if end > len(iso) {
			end = len(iso)
		}
		copy(data[:sectorSize], iso[lba*sectorSize:end])
	}
	return raw
}

// WriteRaw converts the ISO at isoPath with Raw and returns the path of
// the raw image.
func WriteRaw(t testing.TB, isoPath string, mode byte) string {
	t.Helper()

	iso, err := os.ReadFile(isoPath)
	require.NoError(t, err)

	rawPath := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(rawPath, Raw(iso, mode), 0o644))
	return rawPath
}

func msf(lba int) (int, int, int) {
	return lba / 75 / 60, lba / 75 % 60, lba % 75
}

func bcd(v int) byte {
	return byte(v/10<<4 | v%10)
}
