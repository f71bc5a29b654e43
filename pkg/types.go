package pkg

import (
	"io"

	"github.com/go-git/go-billy/v5"
)

// CDFileEntry represents a file or directory found in a CD image
type CDFileEntry struct {
	ID         uint16 // 4-digit hex ID, in listing order
	Name       string // Name as recorded, including any ";1" version suffix
	Path       string // Full slash separated path within the CD
	LBA        uint32 // Logical Block Address
	MSF        string // Minutes:Seconds:Frames format
	Size       uint32 // Size in bytes
	IsDir      bool   // Whether this is a directory
	ExtentSize uint32 // Size in sectors
	Date       string // Recording date, RFC 3339
}

// VolumeInfo summarizes the Primary Volume Descriptor of a CD image
type VolumeInfo struct {
	Layout           string `yaml:"layout"`
	SystemID         string `yaml:"system_id"`
	VolumeID         string `yaml:"volume_id"`
	VolumeSetID      string `yaml:"volume_set_id,omitempty"`
	PublisherID      string `yaml:"publisher_id,omitempty"`
	DataPreparerID   string `yaml:"data_preparer_id,omitempty"`
	ApplicationID    string `yaml:"application_id,omitempty"`
	VolumeSpaceSize  uint32 `yaml:"volume_space_size"`
	LogicalBlockSize uint16 `yaml:"logical_block_size"`
	ImageSectors     uint32 `yaml:"image_sectors"`
	RootLBA          uint32 `yaml:"root_lba"`
	RootSize         uint32 `yaml:"root_size"`
}

// ManifestEntry is one file or directory in an exported manifest
type ManifestEntry struct {
	Path    string `yaml:"path"`
	LBA     uint32 `yaml:"lba"`
	MSF     string `yaml:"msf"`
	Size    uint32 `yaml:"size"`
	Sectors uint32 `yaml:"sectors"`
	IsDir   bool   `yaml:"dir,omitempty"`
	Date    string `yaml:"date"`
}

// Manifest is the YAML document written by ExportManifest
type Manifest struct {
	Volume     VolumeInfo      `yaml:"volume"`
	TotalFiles int             `yaml:"total_files"`
	TotalDirs  int             `yaml:"total_dirs"`
	Entries    []ManifestEntry `yaml:"entries"`
}

// CDImageProcessor defines the operations available on CD images
type CDImageProcessor interface {
	List(imagePath, dirPath string) ([]CDFileEntry, error)
	Stat(imagePath, filePath string) (*CDFileEntry, error)
	Extract(imagePath, filePath string, out billy.Filesystem, dest string) error
	Dump(imagePath string, out billy.Filesystem) error
	ExportManifest(imagePath string, writer io.Writer) error
	Info(imagePath string) (*VolumeInfo, error)
	Directories(imagePath string) ([]CDFileEntry, error)
}
