// Package app wires configuration into the planner's services. It is shared by
// the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/cache"
	"github.com/andresuchdata/shipment-priority/internal/config"
	"github.com/andresuchdata/shipment-priority/internal/drive"
	"github.com/andresuchdata/shipment-priority/internal/pipeline"
	"github.com/andresuchdata/shipment-priority/internal/repository"
	"github.com/andresuchdata/shipment-priority/internal/repository/postgres"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/andresuchdata/shipment-priority/internal/source"
	"github.com/andresuchdata/shipment-priority/internal/storage"
	"github.com/rs/zerolog/log"
)

// Options override parts of the configuration for one process.
type Options struct {
	// DatabaseURL, when set, keeps references in Postgres via the pgx driver.
	DatabaseURL string
	// CacheBackend overrides config.Cache.Backend.
	CacheBackend string
}

type App struct {
	Config     *config.Config
	Planner    *service.PlannerService
	References *service.ReferenceService
	// Storage is nil when object storage is not configured.
	Storage storage.ObjectStorage
	// Watchers follow Drive sources; the server runs them, the CLI does not.
	Watchers []*drive.Watcher

	closers []func() error
}

// New builds every service from cfg. Optional integrations (Drive, object
// storage) are skipped with a log line when not configured; a source that
// needs them then fails per run and is reported.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	if cfg.Storage.StorageEnabled() {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		a.Storage = client
	} else {
		log.Debug().Msg("object storage not configured")
	}

	var driveFiles source.DriveFiles
	creds, err := cfg.Drive.DriveCredentials()
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	if creds != "" {
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("init drive: %w", err)
		}
		driveFiles = svc
	} else {
		log.Debug().Msg("google drive credentials not configured")
	}

	repo, err := a.referenceRepository(cfg, opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	cacheCfg := cfg.Cache
	if opts.CacheBackend != "" {
		cacheCfg.Backend = opts.CacheBackend
	}
	sourceCache, err := cache.NewSourceCache(cacheCfg)
	if err != nil {
		log.Warn().Err(err).Msg("source cache unavailable, caching disabled")
		sourceCache = cache.NewNoopSourceCache()
	}

	deps := source.Deps{
		HTTPClient: &http.Client{Timeout: cfg.Sources.HTTPTimeout},
		Drive:      driveFiles,
		Objects:    a.Storage,
		References: repo,
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.PipelineConfig{
		ShiftHours:         cfg.Planner.ShiftHours,
		DefaultRatePercent: cfg.Planner.DefaultRatePercent,
		HorizonDays:        cfg.Planner.HorizonDays,
	})

	sources := service.SourceSet{
		Reference: loader(service.SourceReference, cfg.Sources.Reference, deps),
		Demand:    loader(service.SourceDemand, cfg.Sources.Demand, deps),
		Floor:     loader(service.SourceFloor, cfg.Sources.Floor, deps),
	}
	a.Planner = service.NewPlannerService(
		sources,
		service.Freshness{
			Reference: cfg.Sources.ReferenceFreshness,
			Demand:    cfg.Sources.DemandFreshness,
			Floor:     cfg.Sources.FloorFreshness,
		},
		sourceCache,
		orchestrator,
	)
	a.References = service.NewReferenceService(repo, cfg.Planner.DefaultRatePercent, a.Planner.InvalidateReference)

	if cfg.Sources.DriveWatchInterval > 0 {
		a.watchDrive(sources, cfg.Sources.DriveWatchInterval)
	}

	return a, nil
}

// Close releases database connections.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *App) referenceRepository(cfg *config.Config, opts Options) (repository.ReferenceRepository, error) {
	if opts.DatabaseURL != "" {
		db, err := postgres.NewDBFromURL(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewReferenceRepository(db), nil
	}

	switch strings.ToLower(cfg.Reference.Backend) {
	case "", "csv":
		return repository.NewCSVReferenceRepository(cfg.Reference.CSVPath), nil
	case "postgres":
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewReferenceRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown reference store %q", cfg.Reference.Backend)
	}
}

func loader(role, spec string, deps source.Deps) source.Loader {
	l, err := source.Parse(spec, deps)
	if err != nil {
		log.Warn().Err(err).Str("source", role).Msg("source not usable")
		return source.Broken(role, err)
	}
	return l
}

// watchDrive adds a watcher for every Drive-backed source. A new revision
// drops that source from the cache so the next plan reads it.
func (a *App) watchDrive(sources service.SourceSet, interval time.Duration) {
	roles := map[string]source.Loader{
		service.SourceReference: sources.Reference,
		service.SourceDemand:    sources.Demand,
		service.SourceFloor:     sources.Floor,
	}
	for role, l := range roles {
		dl, ok := l.(*source.DriveLoader)
		if !ok {
			continue
		}
		role := role
		a.Watchers = append(a.Watchers, dl.Watcher(interval, func(ctx context.Context, f *drive.File) error {
			log.Info().Str("source", role).Str("file", f.Name).Msg("drive revision changed, invalidating")
			return a.Planner.Invalidate(ctx, role)
		}))
	}
}
