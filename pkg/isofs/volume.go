package isofs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	volumeTypePrimary = 1
	standardID        = "CD001"
)

// PrimaryVolumeDescriptor holds the fields of sector 16 that describe the
// volume (ECMA-119 Section 8.4). Identifier fields are trimmed of padding.
type PrimaryVolumeDescriptor struct {
	Type                 byte
	Version              byte
	SystemID             string
	VolumeID             string
	VolumeSpaceSize      uint32 // in logical blocks
	VolumeSetSize        uint16
	VolumeSequenceNumber uint16
	LogicalBlockSize     uint16
	PathTableSize        uint32
	PathTableLocation    uint32 // type L path table
	VolumeSetID          string
	PublisherID          string
	DataPreparerID       string
	ApplicationID        string
	Root                 FileDescriptor
}

// ReadPrimaryVolumeDescriptor reads and validates sector 16.
func ReadPrimaryVolumeDescriptor(src SectorSource) (*PrimaryVolumeDescriptor, error) {
	data := make([]byte, SectorSize)
	if err := src.ReadSector(data, PrimaryVolumeSector); err != nil {
		return nil, fmt.Errorf("failed to read volume descriptor: %w", err)
	}

	if data[0] != volumeTypePrimary || string(data[1:6]) != standardID {
		return nil, fmt.Errorf("%w: type %d, identifier %q", ErrInvalidVolume, data[0], data[1:6])
	}

	root, err := DecodeFileDescriptor(data[rootRecordOffset:rootRecordOffset+rootRecordLength], rootRecordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to decode root directory record: %w", err)
	}

	return &PrimaryVolumeDescriptor{
		Type:                 data[0],
		Version:              data[6],
		SystemID:             trimIdentifier(data[8:40]),
		VolumeID:             trimIdentifier(data[40:72]),
		VolumeSpaceSize:      binary.LittleEndian.Uint32(data[80:84]),
		VolumeSetSize:        binary.LittleEndian.Uint16(data[120:122]),
		VolumeSequenceNumber: binary.LittleEndian.Uint16(data[124:126]),
		LogicalBlockSize:     binary.LittleEndian.Uint16(data[128:130]),
		PathTableSize:        binary.LittleEndian.Uint32(data[132:136]),
		PathTableLocation:    binary.LittleEndian.Uint32(data[140:144]),
		VolumeSetID:          trimIdentifier(data[190:318]),
		PublisherID:          trimIdentifier(data[318:446]),
		DataPreparerID:       trimIdentifier(data[446:574]),
		ApplicationID:        trimIdentifier(data[574:702]),
		Root:                 root,
	}, nil
}

func trimIdentifier(b []byte) string {
	return string(bytes.TrimRight(b, " \x00"))
}
