package cli

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/animus-labs/flowreel/internal/config"
	"github.com/animus-labs/flowreel/internal/ffmpeg"
	"github.com/animus-labs/flowreel/internal/flow"
	"github.com/animus-labs/flowreel/internal/modelstore"
	platformpostgres "github.com/animus-labs/flowreel/internal/platform/postgres"
	repopostgres "github.com/animus-labs/flowreel/internal/repo/postgres"
	"github.com/animus-labs/flowreel/internal/sampler"
	"github.com/animus-labs/flowreel/internal/service/film"
	"github.com/animus-labs/flowreel/internal/service/runs"
	"github.com/animus-labs/flowreel/internal/storage/objectstore"
)

// app holds configuration and lazily opened connections for one command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	objects objectstore.Store
}

func (a *app) database(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := platformpostgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) flowStore(ctx context.Context) (*repopostgres.FlowStore, error) {
	db, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	return repopostgres.NewFlowStore(db, a.cfg.ObjectStore.BucketArtifacts), nil
}

func (a *app) objectStore() (objectstore.Store, error) {
	if a.objects != nil {
		return a.objects, nil
	}
	store, err := objectstore.NewMinioStore(a.cfg.ObjectStore)
	if err != nil {
		return nil, err
	}
	a.objects = store
	return store, nil
}

func (a *app) flowClient(ctx context.Context) (*flow.Client, error) {
	store, err := a.flowStore(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := a.objectStore()
	if err != nil {
		return nil, err
	}
	return flow.NewClient(store, objects)
}

func (a *app) exporter(ctx context.Context) (*film.Exporter, error) {
	store, err := a.flowStore(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := a.objectStore()
	if err != nil {
		return nil, err
	}
	models, err := modelstore.New(objects, a.cfg.ObjectStore.BucketModels, a.cfg.ObjectStore.ModelRoot, a.logger)
	if err != nil {
		return nil, err
	}
	return film.NewExporter(runs.New(store), store, models, a.cfg.Film, a.logger)
}

func (a *app) assembler(ctx context.Context) (*film.Assembler, error) {
	exporter, err := a.exporter(ctx)
	if err != nil {
		return nil, err
	}
	tool, err := ffmpeg.New(a.cfg.FFmpeg, nil, a.logger)
	if err != nil {
		return nil, err
	}
	return film.NewAssembler(exporter, tool, a.logger)
}

func (a *app) sampler() (*sampler.ImageToVideo, error) {
	return sampler.New(a.cfg.Sampler, nil, a.logger)
}

func (a *app) Close() error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}
