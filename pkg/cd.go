// Package pkg provides functionality for reading files out of CD images.
// This file contains the CD processor, which lists, extracts and describes
// the contents of ISO 9660 volumes stored in .iso or raw .bin images.
package pkg

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"github.com/hansbonini/isotools/pkg/cdimage"
	"github.com/hansbonini/isotools/pkg/common"
	"github.com/hansbonini/isotools/pkg/isofs"
)

var _ CDImageProcessor = (*CDProcessor)(nil)

// CDProcessor handles CD image operations
type CDProcessor struct {
	layout        cdimage.Layout
	stripVersions bool
	manifestDirs  bool
}

// CDOption configures a CDProcessor
type CDOption func(*CDProcessor)

// WithLayout forces an image layout instead of detecting it
func WithLayout(layout cdimage.Layout) CDOption {
	return func(p *CDProcessor) {
		p.layout = layout
	}
}

// WithStripVersions controls whether ";1" suffixes are removed from dumped file names
func WithStripVersions(strip bool) CDOption {
	return func(p *CDProcessor) {
		p.stripVersions = strip
	}
}

// WithManifestDirs controls whether directories are listed in manifests
func WithManifestDirs(include bool) CDOption {
	return func(p *CDProcessor) {
		p.manifestDirs = include
	}
}

// NewCDProcessor creates a new CD processor instance
func NewCDProcessor(opts ...CDOption) *CDProcessor {
	p := &CDProcessor{
		layout:        cdimage.LayoutAuto,
		stripVersions: true,
		manifestDirs:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// openImage opens the image and loads its root directory
func (p *CDProcessor) openImage(imagePath string) (*cdimage.Image, *isofs.Directory, error) {
	img, err := cdimage.Open(imagePath, p.layout)
	if err != nil {
		return nil, nil, common.FormatError(common.ErrFailedToOpenImage, err)
	}
	common.LogDebug(common.InfoImageOpened, imagePath, img.Layout(), img.TotalSectors())

	root, err := isofs.NewRootDirectory(img)
	if err != nil {
		img.Close()
		return nil, nil, common.FormatError(common.ErrFailedToLoadDirectory, err)
	}
	return img, root, nil
}

// List returns the entries of a directory, excluding "." and "..".
// An empty dirPath or "/" lists the root directory.
func (p *CDProcessor) List(imagePath, dirPath string) ([]CDFileEntry, error) {
	img, root, err := p.openImage(imagePath)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	dir := root
	if !isRootPath(dirPath) {
		fd, err := root.Resolve(dirPath)
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToResolvePath, err)
		}
		if fd.IsFile() {
			return nil, common.FormatErrorString(common.ErrNotADirectory, dirPath)
		}
		dir, err = isofs.NewDirectory(img, fd)
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToLoadDirectory, err)
		}
	}

	base := cleanISOPath(dirPath)
	var entries []CDFileEntry
	for _, fd := range dir.Entries() {
		if fd.Name == "." || fd.Name == ".." {
			continue
		}
		id, err := common.SafeIntToUint16(len(entries))
		if err != nil {
			return nil, fmt.Errorf("too many entries in %s: %w", dirPath, err)
		}
		entry := newCDFileEntry(id, path.Join(base, fd.Name), fd)
		common.LogDebug(common.DebugFileEntry, entry.ID, entry.Path, entry.LBA, entry.MSF, entry.Size, kindOf(entry.IsDir))
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stat returns the entry at filePath
func (p *CDProcessor) Stat(imagePath, filePath string) (*CDFileEntry, error) {
	img, root, err := p.openImage(imagePath)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	fd, err := root.Resolve(filePath)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToResolvePath, err)
	}
	entry := newCDFileEntry(0, cleanISOPath(filePath), fd)
	return &entry, nil
}

// Extract copies a single file out of the image into out at dest
func (p *CDProcessor) Extract(imagePath, filePath string, out billy.Filesystem, dest string) error {
	img, root, err := p.openImage(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	fd, err := root.Resolve(filePath)
	if err != nil {
		return common.FormatError(common.ErrFailedToResolvePath, err)
	}
	if fd.IsDirectory() {
		return common.FormatErrorString(common.ErrNotAFile, filePath)
	}

	written, err := writeFile(out, dest, isofs.OpenFile(img, fd))
	if err != nil {
		return common.FormatError(common.ErrFailedToExtractFile, err)
	}
	common.LogInfo(common.InfoFileExtracted, filePath, written, dest)
	return nil
}

// Dump extracts every file in the image into out, keeping the directory structure
func (p *CDProcessor) Dump(imagePath string, out billy.Filesystem) error {
	img, root, err := p.openImage(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	files, dirs := 0, 0
	err = root.Walk(func(isoPath string, fd isofs.FileDescriptor) error {
		hostPath, ok := p.hostPath(isoPath)
		if !ok {
			common.LogWarn(common.WarnInvalidFileName, isoPath)
			if fd.IsDirectory() {
				return fs.SkipDir
			}
			return nil
		}

		if fd.IsDirectory() {
			dirs++
			return out.MkdirAll(hostPath, 0o755)
		}

		written, err := writeFile(out, hostPath, isofs.OpenFile(img, fd))
		if err != nil {
			return fmt.Errorf("%s %s: %w", common.ErrFailedToExtractFile, isoPath, err)
		}
		files++
		common.LogDebug(common.InfoFileExtracted, isoPath, written, hostPath)
		return nil
	})
	if err != nil {
		return err
	}

	common.LogInfo(common.InfoDumpComplete, files, dirs, out.Root())
	return nil
}

// ExportManifest writes a YAML description of the volume and every entry in it
func (p *CDProcessor) ExportManifest(imagePath string, writer io.Writer) error {
	img, root, err := p.openImage(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	info, err := volumeInfo(img)
	if err != nil {
		return err
	}

	manifest := Manifest{Volume: *info}
	err = root.Walk(func(isoPath string, fd isofs.FileDescriptor) error {
		if fd.IsDirectory() {
			manifest.TotalDirs++
			if !p.manifestDirs {
				return nil
			}
		} else {
			manifest.TotalFiles++
		}
		entry := newCDFileEntry(0, isoPath, fd)
		manifest.Entries = append(manifest.Entries, ManifestEntry{
			Path:    entry.Path,
			LBA:     entry.LBA,
			MSF:     entry.MSF,
			Size:    entry.Size,
			Sectors: entry.ExtentSize,
			IsDir:   entry.IsDir,
			Date:    entry.Date,
		})
		return nil
	})
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(manifest); err != nil {
		return common.FormatError(common.ErrFailedToWriteManifest, err)
	}
	if err := encoder.Close(); err != nil {
		return common.FormatError(common.ErrFailedToWriteManifest, err)
	}

	common.LogInfo(common.InfoManifestExported, len(manifest.Entries))
	return nil
}

// Directories lists every directory of the volume from its path table,
// root first. Sizes are not recorded in the path table and are left at 0.
func (p *CDProcessor) Directories(imagePath string) ([]CDFileEntry, error) {
	img, err := cdimage.Open(imagePath, p.layout)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenImage, err)
	}
	defer img.Close()

	pvd, err := isofs.ReadPrimaryVolumeDescriptor(img)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadVolume, err)
	}
	table, err := isofs.ReadPathTable(img, pvd)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadPathTable, err)
	}

	entries := make([]CDFileEntry, 0, len(table))
	for i, dir := range table {
		dirPath, err := table.Path(i + 1)
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToReadPathTable, err)
		}
		id, err := common.SafeIntToUint16(i)
		if err != nil {
			return nil, fmt.Errorf("too many directories: %w", err)
		}
		entries = append(entries, CDFileEntry{
			ID:    id,
			Name:  dir.Name,
			Path:  "/" + dirPath,
			LBA:   dir.Location,
			MSF:   common.LBAToMSF(dir.Location),
			IsDir: true,
		})
	}
	return entries, nil
}

// Info reads the Primary Volume Descriptor of the image
func (p *CDProcessor) Info(imagePath string) (*VolumeInfo, error) {
	img, err := cdimage.Open(imagePath, p.layout)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenImage, err)
	}
	defer img.Close()

	return volumeInfo(img)
}

func volumeInfo(img *cdimage.Image) (*VolumeInfo, error) {
	pvd, err := isofs.ReadPrimaryVolumeDescriptor(img)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadVolume, err)
	}
	return &VolumeInfo{
		Layout:           img.Layout().String(),
		SystemID:         pvd.SystemID,
		VolumeID:         pvd.VolumeID,
		VolumeSetID:      pvd.VolumeSetID,
		PublisherID:      pvd.PublisherID,
		DataPreparerID:   pvd.DataPreparerID,
		ApplicationID:    pvd.ApplicationID,
		VolumeSpaceSize:  pvd.VolumeSpaceSize,
		LogicalBlockSize: pvd.LogicalBlockSize,
		ImageSectors:     img.TotalSectors(),
		RootLBA:          pvd.Root.Location,
		RootSize:         pvd.Root.Size,
	}, nil
}

// hostPath converts an ISO path to the path used in the output filesystem.
// It reports false when a segment is not a usable file name.
func (p *CDProcessor) hostPath(isoPath string) (string, bool) {
	segments := strings.Split(isoPath, "/")
	for i, segment := range segments {
		if p.stripVersions {
			segment = common.CleanFileName(segment)
		}
		if !common.IsValidFileName(segment) {
			return "", false
		}
		segments[i] = segment
	}
	return path.Join(segments...), true
}

// writeFile copies src into a new file at name, creating parent directories
func writeFile(out billy.Filesystem, name string, src io.Reader) (int64, error) {
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := out.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	dst, err := out.Create(name)
	if err != nil {
		return 0, common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}
	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return written, nil
}

func newCDFileEntry(id uint16, isoPath string, fd isofs.FileDescriptor) CDFileEntry {
	return CDFileEntry{
		ID:         id,
		Name:       fd.Name,
		Path:       isoPath,
		LBA:        fd.Location,
		MSF:        common.LBAToMSF(fd.Location),
		Size:       fd.Size,
		IsDir:      fd.IsDirectory(),
		ExtentSize: fd.Sectors(),
		Date:       fd.Date.Time().Format(time.RFC3339),
	}
}

func isRootPath(p string) bool {
	return strings.Trim(p, `/\`) == ""
}

// cleanISOPath normalizes separators and drops leading and trailing ones
func cleanISOPath(p string) string {
	return strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")
}

func kindOf(isDir bool) string {
	if isDir {
		return "DIR"
	}
	return "FILE"
}

// IsNotFound reports whether err was caused by a missing file or directory
func IsNotFound(err error) bool {
	return errors.Is(err, isofs.ErrNotFound)
}
