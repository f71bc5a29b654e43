package isofs_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansbonini/isotools/pkg/cdimage"
	"github.com/hansbonini/isotools/pkg/isofs"
	"github.com/hansbonini/isotools/pkg/isofs/isotest"
)

var discFiles = map[string]string{
	"system.cnf":        "BOOT = cdrom:\\SLUS_999.99;1\r\nTCB = 4\r\nEVENT = 10\r\n",
	"data/level1.dat":   strings.Repeat("L1", 3000),
	"data/sub/deep.bin": "deep file",
	"movies/intro.str":  strings.Repeat("\x01\x02\x03\x04", 1024),
	"readme.txt":        "read me",
}

func openMastered(t *testing.T, layout cdimage.Layout, mode byte) *cdimage.Image {
	t.Helper()

	imgPath := isotest.Build(t, "SAMPLE_DISC", discFiles, "empty")
	if mode != 0 {
		imgPath = isotest.WriteRaw(t, imgPath, mode)
	}

	img, err := cdimage.Open(imgPath, layout)
	require.NoError(t, err)
	t.Cleanup(func() { img.Close() })
	return img
}

func TestMasteredImage_Volume(t *testing.T) {
	img := openMastered(t, cdimage.LayoutAuto, 0)
	assert.Equal(t, cdimage.LayoutISO, img.Layout())

	pvd, err := isofs.ReadPrimaryVolumeDescriptor(img)
	require.NoError(t, err)
	assert.Equal(t, "SAMPLE_DISC", pvd.VolumeID)
	assert.Equal(t, uint16(isofs.SectorSize), pvd.LogicalBlockSize)
	assert.True(t, pvd.Root.IsDirectory())
	assert.LessOrEqual(t, pvd.VolumeSpaceSize, img.TotalSectors())
}

func TestMasteredImage_RootListing(t *testing.T) {
	img := openMastered(t, cdimage.LayoutAuto, 0)

	root, err := isofs.NewRootDirectory(img)
	require.NoError(t, err)

	self, err := root.EntryByName(".")
	require.NoError(t, err)
	assert.Equal(t, root.Self().Location, self.Location)

	for _, name := range []string{"..", "SYSTEM.CNF;1", "README.TXT;1", "DATA", "MOVIES", "EMPTY"} {
		_, err := root.IndexOf(name)
		assert.NoError(t, err, name)
	}
}

func TestMasteredImage_ResolveAndRead(t *testing.T) {
	layouts := []struct {
		name   string
		layout cdimage.Layout
		mode   byte
	}{
		{"iso", cdimage.LayoutAuto, 0},
		{"mode1 detected", cdimage.LayoutAuto, 1},
		{"mode2 detected", cdimage.LayoutAuto, 2},
		{"mode2 forced", cdimage.LayoutMode2Form1, 2},
	}

	testCases := []struct {
		path   string
		source string
	}{
		{"SYSTEM.CNF;1", "system.cnf"},
		{"DATA/LEVEL1.DAT;1", "data/level1.dat"},
		{`DATA\SUB\DEEP.BIN;1`, "data/sub/deep.bin"},
		{"/MOVIES/INTRO.STR;1", "movies/intro.str"},
		{"README.TXT;1", "readme.txt"},
	}

	for _, l := range layouts {
		t.Run(l.name, func(t *testing.T) {
			img := openMastered(t, l.layout, l.mode)
			root, err := isofs.NewRootDirectory(img)
			require.NoError(t, err)

			for _, tc := range testCases {
				size, err := root.FileSize(tc.path)
				require.NoError(t, err, tc.path)
				assert.Equal(t, uint32(len(discFiles[tc.source])), size, tc.path)

				f, err := root.Open(tc.path)
				require.NoError(t, err, tc.path)
				content, err := io.ReadAll(f)
				require.NoError(t, err, tc.path)
				assert.Equal(t, discFiles[tc.source], string(content), tc.path)
			}
		})
	}
}

func TestMasteredImage_Walk(t *testing.T) {
	img := openMastered(t, cdimage.LayoutAuto, 0)
	root, err := isofs.NewRootDirectory(img)
	require.NoError(t, err)

	files := map[string]uint32{}
	var dirs []string
	err = root.Walk(func(p string, fd isofs.FileDescriptor) error {
		if fd.IsDirectory() {
			dirs = append(dirs, p)
			return nil
		}
		files[p] = fd.Size
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"DATA", "DATA/SUB", "MOVIES", "EMPTY"}, dirs)
	assert.Equal(t, map[string]uint32{
		"SYSTEM.CNF;1":        uint32(len(discFiles["system.cnf"])),
		"DATA/LEVEL1.DAT;1":   uint32(len(discFiles["data/level1.dat"])),
		"DATA/SUB/DEEP.BIN;1": uint32(len(discFiles["data/sub/deep.bin"])),
		"MOVIES/INTRO.STR;1":  uint32(len(discFiles["movies/intro.str"])),
		"README.TXT;1":        uint32(len(discFiles["readme.txt"])),
	}, files)
}

func TestMasteredImage_EmptyDirectory(t *testing.T) {
	img := openMastered(t, cdimage.LayoutAuto, 0)
	root, err := isofs.NewRootDirectory(img)
	require.NoError(t, err)

	fd, err := root.Resolve("EMPTY/")
	require.NoError(t, err)
	empty, err := isofs.NewDirectory(img, fd)
	require.NoError(t, err)

	// only "." and ".."
	assert.Equal(t, 2, empty.Len())

	_, err = root.Resolve("EMPTY/ANYTHING")
	assert.ErrorIs(t, err, isofs.ErrNotFound)
}
