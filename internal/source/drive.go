package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/drive"
)

// DriveFiles is the subset of the Drive service the loaders use.
type DriveFiles interface {
	GetFile(ctx context.Context, fileID string) (*drive.File, error)
	LatestFile(ctx context.Context, folderID string) (*drive.File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	ExportFile(ctx context.Context, fileID, mimeType string, w io.Writer) error
}

// DriveLoader reads a spreadsheet from Google Drive, either a fixed file or
// the newest one in a folder.
type DriveLoader struct {
	files    DriveFiles
	fileID   string
	folderID string
}

func NewDriveLoader(files DriveFiles, fileID string) *DriveLoader {
	return &DriveLoader{files: files, fileID: fileID}
}

func NewDriveFolderLoader(files DriveFiles, folderID string) *DriveLoader {
	return &DriveLoader{files: files, folderID: folderID}
}

func (l *DriveLoader) Name() string {
	if l.folderID != "" {
		return schemeDrive + driveFolderPath + l.folderID
	}
	return schemeDrive + l.fileID
}

func (l *DriveLoader) Load(ctx context.Context) (domain.RawTable, error) {
	var (
		file *drive.File
		err  error
	)
	if l.folderID != "" {
		file, err = l.files.LatestFile(ctx, l.folderID)
	} else {
		file, err = l.files.GetFile(ctx, l.fileID)
	}
	if err != nil {
		return domain.RawTable{}, err
	}

	var buf bytes.Buffer
	if file.IsSheet() {
		if err := l.files.ExportFile(ctx, file.ID, drive.MimeCSV, &buf); err != nil {
			return domain.RawTable{}, fmt.Errorf("export %s: %w", file.Name, err)
		}
		return DecodeCSV(&buf)
	}

	if err := l.files.DownloadFile(ctx, file.ID, &buf); err != nil {
		return domain.RawTable{}, fmt.Errorf("download %s: %w", file.Name, err)
	}
	if file.IsXLSX() {
		return DecodeXLSX(&buf)
	}
	return DecodeCSV(&buf)
}

// Watcher follows the same file or folder this loader reads.
func (l *DriveLoader) Watcher(interval time.Duration, onChange func(ctx context.Context, f *drive.File) error) *drive.Watcher {
	return drive.NewWatcher(l.files, drive.WatchOptions{
		FileID:   l.fileID,
		FolderID: l.folderID,
		Interval: interval,
	}, onChange)
}
