package cdimage

import (
	"fmt"
	"io"
	"os"

	"github.com/hansbonini/isotools/pkg/common"
)

// pvdSector is where layout detection looks for a raw sector header
const pvdSector = 16

// Image reads logical 2048-byte sectors from a CD image. It only uses
// ReadAt, so concurrent ReadSector calls are safe whenever the underlying
// reader allows concurrent ReadAt (os.File does).
type Image struct {
	reader       io.ReaderAt
	closer       io.Closer
	layout       Layout
	totalSectors uint32
}

// Open opens a CD image file. With LayoutAuto the layout is detected from
// the file contents.
func Open(filename string, layout Layout) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	// Get total size
	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	img, err := New(file, fileInfo.Size(), layout)
	if err != nil {
		file.Close()
		return nil, err
	}
	img.closer = file
	return img, nil
}

// New creates an Image over r, which holds size bytes.
func New(r io.ReaderAt, size int64, layout Layout) (*Image, error) {
	if layout == LayoutAuto {
		layout = detectLayout(r, size)
	}
	if layout < LayoutISO || layout > LayoutMode2Form1 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayout, int(layout))
	}

	sectors, err := common.SafeInt64ToUint32(size / layout.stride())
	if err != nil {
		return nil, fmt.Errorf("image too large: %w", err)
	}

	common.LogDebug(common.DebugLayoutDetected, layout, sectors)
	return &Image{
		reader:       r,
		layout:       layout,
		totalSectors: sectors,
	}, nil
}

// detectLayout checks for a raw sector at the PVD location; a size that is
// not a multiple of 2352, or a missing sync pattern, means a plain ISO.
func detectLayout(r io.ReaderAt, size int64) Layout {
	if size%CD_SECTOR_SIZE != 0 || size < (pvdSector+1)*CD_SECTOR_SIZE {
		return LayoutISO
	}

	header := make([]byte, CD_SYNC_SIZE+CD_HEADER_SIZE)
	if _, err := r.ReadAt(header, pvdSector*CD_SECTOR_SIZE); err != nil {
		return LayoutISO
	}
	if !isRawSector(header) {
		return LayoutISO
	}

	// Mode byte follows the 3 address bytes
	if header[CD_SYNC_SIZE+3] == 1 {
		return LayoutMode1
	}
	return LayoutMode2Form1
}

// ReadSector fills buf with the user data of sector lba.
func (img *Image) ReadSector(buf []byte, lba uint32) error {
	if len(buf) < CD_DATA_SIZE {
		return fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(buf))
	}
	if lba >= img.totalSectors {
		return fmt.Errorf("%w: LBA %d (total: %d)", ErrSectorOutOfRange, lba, img.totalSectors)
	}

	offset := int64(lba)*img.layout.stride() + img.layout.dataOffset()
	n, err := img.reader.ReadAt(buf[:CD_DATA_SIZE], offset)
	if n == CD_DATA_SIZE {
		// ReaderAt may return io.EOF alongside a full read at the end of input
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("failed to read sector %d: %w", lba, err)
}

// Layout returns the layout in use (never LayoutAuto).
func (img *Image) Layout() Layout {
	return img.layout
}

// TotalSectors returns the number of whole sectors in the image.
func (img *Image) TotalSectors() uint32 {
	return img.totalSectors
}

// Close closes the image file when the Image was created by Open.
func (img *Image) Close() error {
	if img.closer != nil {
		return img.closer.Close()
	}
	return nil
}
