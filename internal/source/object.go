package source

import (
	"context"
	"fmt"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/storage"
)

// ObjectLoader reads a table from S3-compatible object storage, either a
// fixed key or the newest spreadsheet under a prefix.
type ObjectLoader struct {
	store  storage.ObjectStorage
	key    string
	prefix string
}

func NewObjectLoader(store storage.ObjectStorage, key string) *ObjectLoader {
	return &ObjectLoader{store: store, key: key}
}

// NewObjectPrefixLoader reads whichever .csv or .xlsx under prefix was modified last.
func NewObjectPrefixLoader(store storage.ObjectStorage, prefix string) *ObjectLoader {
	return &ObjectLoader{store: store, prefix: prefix}
}

func (l *ObjectLoader) Name() string {
	if l.prefix != "" {
		return schemeObject + l.prefix
	}
	return schemeObject + l.key
}

func (l *ObjectLoader) Load(ctx context.Context) (domain.RawTable, error) {
	key := l.key
	if l.prefix != "" {
		objects, err := l.store.ListObjects(ctx, l.prefix)
		if err != nil {
			return domain.RawTable{}, err
		}
		latest, ok := storage.Latest(objects)
		if !ok {
			return domain.RawTable{}, fmt.Errorf("no spreadsheet under %s", l.prefix)
		}
		key = latest.Key
	}

	data, err := l.store.GetObject(ctx, key)
	if err != nil {
		return domain.RawTable{}, err
	}
	return Decode(key, "", data)
}
