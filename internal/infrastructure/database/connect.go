package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/config"
	"github.com/yokitheyo/hordegen/internal/helpers"
)

const (
	defaultConnectRetries    = 15
	defaultConnectRetryDelay = 3 * time.Second
)

// Connect opens the master and slave pools and waits until the master answers a ping.
// It gives up after cfg.ConnectRetries attempts or when ctx is done.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*dbpg.DB, error) {
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	delay := time.Duration(cfg.ConnectRetryDelaySec) * time.Second
	if delay <= 0 {
		delay = defaultConnectRetryDelay
	}

	slaves := helpers.SplitAndTrim(cfg.Slaves, ",")
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSec) * time.Second,
	}

	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		var db *dbpg.DB
		db, err = open(ctx, cfg.DSN, slaves, opts)
		if err == nil {
			zlog.Logger.Info().Int("slaves", len(slaves)).Msg("Database connection established successfully")
			return db, nil
		}
		zlog.Logger.Warn().Err(err).Msgf("database connection attempt %d/%d failed", attempt, retries)

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
}

func open(ctx context.Context, dsn string, slaves []string, opts *dbpg.Options) (*dbpg.DB, error) {
	db, err := dbpg.New(dsn, slaves, opts)
	if err != nil {
		return nil, err
	}
	if db.Master == nil {
		return nil, fmt.Errorf("database.Master is nil")
	}
	if err := db.Master.PingContext(ctx); err != nil {
		Close(db)
		return nil, fmt.Errorf("ping master: %w", err)
	}
	return db, nil
}

// Close releases the master and every slave pool.
func Close(db *dbpg.DB) {
	if db == nil || db.Master == nil {
		return
	}
	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("closing db master failed")
	}
	for i, s := range db.Slaves {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave_index", i).Msg("closing db slave failed")
		}
	}
}
