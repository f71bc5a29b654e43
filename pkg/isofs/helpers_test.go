package isofs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// errMedium is returned by testImage for sectors marked as unreadable
var errMedium = errors.New("medium error")

// testImage is an in-memory SectorSource built sector by sector
type testImage struct {
	data []byte
	bad  map[uint32]bool
}

func newTestImage(sectors int) *testImage {
	return &testImage{
		data: make([]byte, sectors*SectorSize),
		bad:  map[uint32]bool{},
	}
}

func (img *testImage) ReadSector(buf []byte, lba uint32) error {
	if img.bad[lba] {
		return errMedium
	}
	start := int(lba) * SectorSize
	if start+SectorSize > len(img.data) {
		return fmt.Errorf("LBA %d out of range", lba)
	}
	copy(buf, img.data[start:start+SectorSize])
	return nil
}

// write copies data into the image at the given sector and byte offset
func (img *testImage) write(lba uint32, offset int, data []byte) {
	copy(img.data[int(lba)*SectorSize+offset:], data)
}

// writeRecords lays out directory records back to back starting at lba
// and returns the number of bytes written
func (img *testImage) writeRecords(lba uint32, records ...[]byte) uint32 {
	offset := 0
	for _, r := range records {
		img.write(lba, offset, r)
		offset += len(r)
	}
	return uint32(offset)
}

// writePVD writes a Primary Volume Descriptor holding root at sector 16
func (img *testImage) writePVD(volumeID string, root []byte) {
	pvd := make([]byte, SectorSize)
	pvd[0] = volumeTypePrimary
	copy(pvd[1:6], standardID)
	pvd[6] = 1
	copy(pvd[8:40], padIdentifier("PLAYSTATION", 32))
	copy(pvd[40:72], padIdentifier(volumeID, 32))
	binary.LittleEndian.PutUint32(pvd[80:84], uint32(len(img.data)/SectorSize))
	binary.BigEndian.PutUint32(pvd[84:88], uint32(len(img.data)/SectorSize))
	binary.LittleEndian.PutUint16(pvd[120:122], 1)
	binary.LittleEndian.PutUint16(pvd[124:126], 1)
	binary.LittleEndian.PutUint16(pvd[128:130], SectorSize)
	copy(pvd[318:446], padIdentifier("SONY COMPUTER ENTERTAINMENT INC.", 128))
	copy(pvd[rootRecordOffset:], root)
	img.write(PrimaryVolumeSector, 0, pvd)
}

// pathRecord encodes a type L path table record
func pathRecord(name []byte, lba uint32, parent uint16) []byte {
	b := make([]byte, 8+len(name)+len(name)%2)
	b[0] = byte(len(name))
	binary.LittleEndian.PutUint32(b[2:6], lba)
	binary.LittleEndian.PutUint16(b[6:8], parent)
	copy(b[8:], name)
	return b
}

// writePathTable lays out records at lba and points the PVD at them
func (img *testImage) writePathTable(lba uint32, records ...[]byte) {
	size := img.writeRecords(lba, records...)
	pvd := int(PrimaryVolumeSector) * SectorSize
	binary.LittleEndian.PutUint32(img.data[pvd+132:], size)
	binary.LittleEndian.PutUint32(img.data[pvd+140:], lba)
}

func padIdentifier(s string, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

// record encodes a directory record the way mastering tools write them:
// both-endian location and size, even total length
func record(name []byte, lba, size uint32, flags FileFlag) []byte {
	length := recordFixedSize + len(name)
	if length%2 != 0 {
		length++
	}
	b := make([]byte, length)
	b[0] = byte(length)
	binary.LittleEndian.PutUint32(b[2:6], lba)
	binary.BigEndian.PutUint32(b[6:10], lba)
	binary.LittleEndian.PutUint32(b[10:14], size)
	binary.BigEndian.PutUint32(b[14:18], size)
	copy(b[18:25], []byte{125, 10, 19, 12, 30, 45, 0})
	b[25] = byte(flags)
	binary.LittleEndian.PutUint16(b[28:30], 1)
	binary.BigEndian.PutUint16(b[30:32], 1)
	b[32] = byte(len(name))
	copy(b[33:], name)
	return b
}

func dirRecord(name string, lba, size uint32) []byte {
	return record([]byte(name), lba, size, FlagDirectory)
}

func fileRecord(name string, lba, size uint32) []byte {
	return record([]byte(name), lba, size, 0)
}

func selfRecord(lba, size uint32) []byte {
	return record([]byte{0x00}, lba, size, FlagDirectory)
}

func parentRecord(lba, size uint32) []byte {
	return record([]byte{0x01}, lba, size, FlagDirectory)
}

// Layout of the image built by newSampleImage
const (
	pathLBA     = 18
	rootLBA     = 20
	dataLBA     = 21
	subLBA      = 22
	systemLBA   = 30
	readmeLBA   = 32
	fileBinLBA  = 33
	deepDataLBA = 35

	systemSize  = 4096
	readmeSize  = 10
	fileBinSize = 3000
	deepSize    = 5
)

// newSampleImage builds:
//
//	/SYSTEM.CNF;1          4096 bytes
//	/DATA/                 directory
//	/DATA/SUB/             directory
//	/DATA/SUB/DEEP.DAT;1   5 bytes
//	/DATA/FILE.BIN;1       3000 bytes
//	/README.TXT;1          10 bytes
//
// It returns the image and the root directory size.
func newSampleImage() (*testImage, uint32) {
	img := newTestImage(40)

	subSize := img.writeRecords(subLBA,
		selfRecord(subLBA, 0), parentRecord(dataLBA, 0),
		fileRecord("DEEP.DAT;1", deepDataLBA, deepSize),
	)
	dataSize := img.writeRecords(dataLBA,
		selfRecord(dataLBA, 0), parentRecord(rootLBA, 0),
		dirRecord("SUB", subLBA, subSize),
		fileRecord("FILE.BIN;1", fileBinLBA, fileBinSize),
	)
	rootSize := img.writeRecords(rootLBA,
		selfRecord(rootLBA, 0), parentRecord(rootLBA, 0),
		fileRecord("SYSTEM.CNF;1", systemLBA, systemSize),
		dirRecord("DATA", dataLBA, dataSize),
		fileRecord("README.TXT;1", readmeLBA, readmeSize),
	)

	// sizes of "." and ".." are only known once the listings are laid out
	img.writeRecords(subLBA, selfRecord(subLBA, subSize), parentRecord(dataLBA, dataSize))
	img.writeRecords(dataLBA, selfRecord(dataLBA, dataSize), parentRecord(rootLBA, rootSize))
	img.writeRecords(rootLBA, selfRecord(rootLBA, rootSize), parentRecord(rootLBA, rootSize))

	img.writePVD("SAMPLE", selfRecord(rootLBA, rootSize))
	img.writePathTable(pathLBA,
		pathRecord([]byte{0x00}, rootLBA, 1),
		pathRecord([]byte("DATA"), dataLBA, 1),
		pathRecord([]byte("SUB"), subLBA, 2),
	)

	img.write(systemLBA, 0, []byte("BOOT = cdrom:\\SLUS_000.00;1\r\n"))
	img.write(readmeLBA, 0, []byte("HELLO DISC"))
	img.write(deepDataLBA, 0, []byte("DEEP!"))
	for i := 0; i < fileBinSize; i++ {
		img.data[fileBinLBA*SectorSize+i] = byte(i % 251)
	}

	return img, rootSize
}
