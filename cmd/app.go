package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"prefmodel/core/config"
	"prefmodel/core/database"
	"prefmodel/core/logger"
	"prefmodel/core/metrics"
	"prefmodel/core/model"
	"prefmodel/core/storage"
	"prefmodel/feature/bulk"
	"prefmodel/feature/filemodel"
	"prefmodel/feature/sqlmodel"

	"go.uber.org/zap"
)

// runtime bundles what every command needs.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &runtime{cfg: cfg, logger: logg, metrics: metrics.New(nil)}, nil
}

// openedModel is a backend plus its teardown.
type openedModel struct {
	model.DataModel
	backend string
	close   func()
}

// openModel builds the backend selected by model.backend.
func (rt *runtime) openModel(ctx context.Context) (*openedModel, error) {
	switch rt.cfg.Model.Backend {
	case config.BackendSQL, "":
		m, closeDB, err := rt.openSQL()
		if err != nil {
			return nil, err
		}
		return &openedModel{DataModel: m, backend: config.BackendSQL, close: closeDB}, nil

	case config.BackendFile:
		m, err := filemodel.New(rt.cfg.Model.File, rt.logger, filemodel.WithMetrics(rt.metrics))
		if err != nil {
			return nil, fmt.Errorf("failed to open data file: %w", err)
		}
		return &openedModel{DataModel: m, backend: config.BackendFile, close: func() { _ = m.Close() }}, nil

	case config.BackendBulk:
		s, err := rt.loadCorpus(ctx, rt.cfg.Model.Bulk)
		if err != nil {
			return nil, err
		}
		return &openedModel{DataModel: s, backend: config.BackendBulk, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown model backend %q", rt.cfg.Model.Backend)
	}
}

func (rt *runtime) openSQL() (*sqlmodel.Model, func(), error) {
	db, err := database.Connect(rt.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection required: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	rt.logger.Info("Connected to database",
		zap.String("driver", rt.cfg.Database.Driver),
		zap.String("table", rt.cfg.Model.SQL.Table),
	)
	return sqlmodel.New(db, rt.cfg.Model.SQL, rt.logger, model.Factory{}), closeDB, nil
}

func (rt *runtime) loadCorpus(ctx context.Context, cfg bulk.Config) (*model.Snapshot, error) {
	var src bulk.Source
	switch cfg.Source {
	case "bucket":
		client, err := storage.NewClient(rt.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		src = bulk.BucketSource{Client: client, Bucket: rt.cfg.Storage.Bucket, Prefix: cfg.Prefix}
	case "dir", "":
		src = bulk.DirSource{FS: os.DirFS(cfg.Dir), Root: cfg.Dir}
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Source)
	}

	s, err := bulk.NewLoader(src, cfg, rt.logger, model.Factory{}, rt.metrics).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus from %s: %w", src, err)
	}
	return s, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
