package storage

import (
	"context"
	"path"
	"strings"
	"time"
)

// ObjectInfo is the listing metadata for one object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// IsSpreadsheet reports whether the object holds a table the planner can decode.
func (o ObjectInfo) IsSpreadsheet() bool {
	switch strings.ToLower(path.Ext(o.Key)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ObjectStorage is the bucket access the planner needs: reading source tables
// and publishing exports.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Latest returns the most recently modified spreadsheet in objects.
func Latest(objects []ObjectInfo) (ObjectInfo, bool) {
	var (
		best  ObjectInfo
		found bool
	)
	for _, o := range objects {
		if !o.IsSpreadsheet() {
			continue
		}
		if !found || o.LastModified.After(best.LastModified) {
			best, found = o, true
		}
	}
	return best, found
}
