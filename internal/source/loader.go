package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/storage"
	"github.com/rs/zerolog/log"
)

// Loader reads one raw table from wherever it lives.
type Loader interface {
	// Name identifies the source in logs, reports and cache keys.
	Name() string
	Load(ctx context.Context) (domain.RawTable, error)
}

// ReferenceLister is the read side of the reference store.
type ReferenceLister interface {
	List(ctx context.Context) ([]domain.PartReference, error)
}

// Deps are the clients loaders may need. Nil members disable the matching scheme.
type Deps struct {
	HTTPClient *http.Client
	Drive      DriveFiles
	Objects    storage.ObjectStorage
	References ReferenceLister
}

const (
	schemeDrive      = "drive://"
	schemeObject     = "s3://"
	schemeStore      = "store://"
	schemeFile       = "file://"
	driveFolderPath  = "folder/"
	storeReferences  = "references"
	defaultHTTPLimit = 30 * time.Second
)

// Parse builds the loader for spec:
//
//	https://...            HTTP download; Drive and Sheets links become CSV exports
//	drive://FILE_ID        Google Drive file (Sheets exported as CSV)
//	drive://folder/ID      newest spreadsheet in a Drive folder
//	s3://KEY               object in the configured bucket
//	s3://PREFIX/           newest spreadsheet under a prefix
//	store://references     the reference CRUD store
//	anything else          local .csv or .xlsx path
func Parse(spec string, deps Deps) (Loader, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return nil, fmt.Errorf("no source configured")

	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		client := deps.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: defaultHTTPLimit}
		}
		return NewHTTPLoader(spec, client), nil

	case strings.HasPrefix(spec, schemeDrive):
		if deps.Drive == nil {
			return nil, fmt.Errorf("%s: drive credentials not configured", spec)
		}
		target := strings.TrimPrefix(spec, schemeDrive)
		if strings.HasPrefix(target, driveFolderPath) {
			return NewDriveFolderLoader(deps.Drive, strings.TrimPrefix(target, driveFolderPath)), nil
		}
		return NewDriveLoader(deps.Drive, target), nil

	case strings.HasPrefix(spec, schemeObject):
		if deps.Objects == nil {
			return nil, fmt.Errorf("%s: object storage not configured", spec)
		}
		key := strings.TrimPrefix(spec, schemeObject)
		if strings.HasSuffix(key, "/") {
			return NewObjectPrefixLoader(deps.Objects, key), nil
		}
		return NewObjectLoader(deps.Objects, key), nil

	case strings.HasPrefix(spec, schemeStore):
		if strings.TrimPrefix(spec, schemeStore) != storeReferences {
			return nil, fmt.Errorf("unknown store %q", spec)
		}
		if deps.References == nil {
			return nil, fmt.Errorf("%s: reference store not configured", spec)
		}
		return NewReferenceStoreLoader(deps.References), nil

	default:
		return NewFileLoader(strings.TrimPrefix(spec, schemeFile)), nil
	}
}

// Fetch runs l and wraps any failure in a SourceUnavailableError.
func Fetch(ctx context.Context, l Loader) (domain.RawTable, error) {
	start := time.Now()
	table, err := l.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("source", l.Name()).Msg("source load failed")
		return domain.RawTable{}, &domain.SourceUnavailableError{Source: l.Name(), Err: err}
	}
	log.Debug().
		Str("source", l.Name()).
		Int("rows", len(table.Rows)).
		Dur("latency", time.Since(start)).
		Msg("source loaded")
	return table, nil
}

type brokenLoader struct {
	name string
	err  error
}

// Broken returns a loader that always fails with err. It stands in for a
// source whose location could not be parsed so the failure is reported per run.
func Broken(name string, err error) Loader {
	return &brokenLoader{name: name, err: err}
}

func (l *brokenLoader) Name() string { return l.name }

func (l *brokenLoader) Load(context.Context) (domain.RawTable, error) {
	return domain.RawTable{}, l.err
}
