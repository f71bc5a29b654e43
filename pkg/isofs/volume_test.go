package isofs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPrimaryVolumeDescriptor(t *testing.T) {
	img, rootSize := newSampleImage()

	pvd, err := ReadPrimaryVolumeDescriptor(img)
	require.NoError(t, err)

	assert.Equal(t, byte(1), pvd.Type)
	assert.Equal(t, byte(1), pvd.Version)
	assert.Equal(t, "PLAYSTATION", pvd.SystemID)
	assert.Equal(t, "SAMPLE", pvd.VolumeID)
	assert.Equal(t, "SONY COMPUTER ENTERTAINMENT INC.", pvd.PublisherID)
	assert.Empty(t, pvd.ApplicationID)
	assert.Equal(t, uint32(40), pvd.VolumeSpaceSize)
	assert.Equal(t, uint16(SectorSize), pvd.LogicalBlockSize)
	assert.Equal(t, uint16(1), pvd.VolumeSetSize)
	assert.Equal(t, uint16(1), pvd.VolumeSequenceNumber)

	assert.Equal(t, uint32(rootLBA), pvd.Root.Location)
	assert.Equal(t, rootSize, pvd.Root.Size)
	assert.True(t, pvd.Root.IsDirectory())
	assert.Equal(t, ".", pvd.Root.Name)
}

func TestReadPrimaryVolumeDescriptor_MatchesRootDirectory(t *testing.T) {
	img, _ := newSampleImage()

	pvd, err := ReadPrimaryVolumeDescriptor(img)
	require.NoError(t, err)
	root, err := NewRootDirectory(img)
	require.NoError(t, err)

	assert.Equal(t, pvd.Root, root.Self())
}

func TestReadPrimaryVolumeDescriptor_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		offset int
		data   []byte
	}{
		{"wrong type", 0, []byte{2}},
		{"terminator", 0, []byte{255}},
		{"wrong identifier", 1, []byte("CDROM")},
		{"blank sector", 0, make([]byte, 7)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img, _ := newSampleImage()
			img.write(PrimaryVolumeSector, tc.offset, tc.data)

			pvd, err := ReadPrimaryVolumeDescriptor(img)
			require.ErrorIs(t, err, ErrInvalidVolume)
			assert.Nil(t, pvd)
		})
	}
}

func TestReadPrimaryVolumeDescriptor_MediumError(t *testing.T) {
	img, _ := newSampleImage()
	img.bad[PrimaryVolumeSector] = true

	_, err := ReadPrimaryVolumeDescriptor(img)
	require.ErrorIs(t, err, errMedium)
}

func TestTrimIdentifier(t *testing.T) {
	assert.Equal(t, "ABC", trimIdentifier([]byte("ABC   ")))
	assert.Equal(t, "ABC", trimIdentifier([]byte("ABC\x00\x00")))
	assert.Equal(t, " A B", trimIdentifier([]byte(" A B \x00 ")))
	assert.Empty(t, trimIdentifier(make([]byte, 8)))
}
