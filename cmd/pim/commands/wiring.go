package commands

import (
	"fmt"

	"github.com/wonny/pim/backend/internal/catalog"
	"github.com/wonny/pim/backend/internal/catalog/fixture"
	"github.com/wonny/pim/backend/internal/completeness"
	"github.com/wonny/pim/backend/internal/contracts"
	"github.com/wonny/pim/backend/internal/scheduler"
	"github.com/wonny/pim/backend/internal/scheduler/jobs"
	"github.com/wonny/pim/backend/pkg/config"
	"github.com/wonny/pim/backend/pkg/database"
	"github.com/wonny/pim/backend/pkg/logger"
	"github.com/wonny/pim/backend/pkg/redis"
)

// app holds the database-backed dependencies of a command
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	calculator   *completeness.Calculator
	completeness *catalog.CompletenessRepository
	cursor       *catalog.IdentifierCursor
}

func newLogger(cfg *config.Config) *logger.Logger {
	if verbose {
		cfg.LogLevel = "debug"
	}
	return logger.New(cfg)
}

// newApp wires loaders, calculator and gateway on PostgreSQL
func newApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := newLogger(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to redis (disabled unless REDIS_ENABLED)
	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Loaders
	timeout := cfg.Completeness.QueryTimeout
	products := catalog.NewProductMaskRepository(db.Pool, timeout)

	var families contracts.FamilyMaskLoader = catalog.NewFamilyMaskRepository(db.Pool, timeout)
	if cfg.Completeness.FamilyCacheEnabled {
		families = catalog.NewCachedFamilyMaskLoader(
			families,
			redis.NewCache(rdb, "pim"),
			cfg.Completeness.FamilyCacheTTL,
			log,
		)
	}

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        rdb,
		calculator:   completeness.NewCalculator(products, families, log),
		completeness: catalog.NewCompletenessRepository(db.SQLX(), timeout),
		cursor:       catalog.NewIdentifierCursor(db.Pool, timeout),
	}, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("close redis")
	}
	a.db.Close()
}

func (a *app) service() *completeness.Service {
	return completeness.NewService(a.calculator, a.completeness, a.log)
}

func (a *app) recomputeJob() *jobs.RecomputeCompletenessJob {
	return jobs.NewRecomputeCompletenessJob(
		a.cursor,
		a.service(),
		jobs.RecomputeCompletenessConfig{
			Schedule:         a.cfg.Completeness.Schedule,
			BatchSize:        a.cfg.Completeness.BatchSize,
			BatchesPerSecond: a.cfg.Completeness.BatchesPerSecond,
		},
		a.log,
	)
}

// newScheduler registers every job of the application
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	if err := sched.AddJob(a.recomputeJob()); err != nil {
		return nil, err
	}
	return sched, nil
}

// newFixtureCalculator computes from a YAML fixture, without database
func newFixtureCalculator(path string) (*completeness.Calculator, *fixture.Catalog, *logger.Logger, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	cat, err := fixture.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load fixtures %s: %w", path, err)
	}

	return completeness.NewCalculator(cat, cat, log), cat, log, nil
}
