package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
)

const generationColumns = `
	id, kind, payload, status, result_path, width, height, seed,
	hidden, error_message, created_at, updated_at, completed_at`

type generationRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewGenerationRepository(db *dbpg.DB, strategy retry.Strategy) domain.GenerationRepository {
	return &generationRepository{
		db:       db,
		strategy: strategy,
	}
}

func (r *generationRepository) Create(ctx context.Context, g *domain.Generation) error {
	query := `
		INSERT INTO generations (` + generationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		g.ID,
		g.Kind,
		[]byte(g.Payload),
		g.Status,
		nullString(g.ResultPath),
		nullInt(g.Width),
		nullInt(g.Height),
		nullString(g.Seed),
		g.Hidden,
		nullString(g.ErrorMessage),
		g.CreatedAt,
		g.UpdatedAt,
		g.CompletedAt,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", g.ID).Msg("failed to create generation")
		return fmt.Errorf("create generation: %w", err)
	}

	zlog.Logger.Info().Str("generation_id", g.ID).Msg("generation created successfully")
	return nil
}

func (r *generationRepository) FindByID(ctx context.Context, id string) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1`

	g, err := scanGeneration(r.db.Master.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGenerationNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to find generation")
		return nil, fmt.Errorf("find generation: %w", err)
	}

	return g, nil
}

func (r *generationRepository) Update(ctx context.Context, g *domain.Generation) error {
	query := `
		UPDATE generations
		SET status = $2,
		    result_path = $3,
		    width = $4,
		    height = $5,
		    seed = $6,
		    hidden = $7,
		    error_message = $8,
		    completed_at = $9,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		g.ID,
		g.Status,
		nullString(g.ResultPath),
		nullInt(g.Width),
		nullInt(g.Height),
		nullString(g.Seed),
		g.Hidden,
		nullString(g.ErrorMessage),
		g.CompletedAt,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", g.ID).Msg("failed to update generation")
		return fmt.Errorf("update generation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrGenerationNotFound
	}

	zlog.Logger.Info().
		Str("generation_id", g.ID).
		Str("status", string(g.Status)).
		Msg("generation updated successfully")
	return nil
}

func (r *generationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecWithRetry(ctx, r.strategy, `DELETE FROM generations WHERE id = $1`, id)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to delete generation")
		return fmt.Errorf("delete generation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrGenerationNotFound
	}

	zlog.Logger.Info().Str("generation_id", id).Msg("generation deleted successfully")
	return nil
}

func (r *generationRepository) FindByStatus(ctx context.Context, status domain.GenerationStatus, limit, offset int) ([]*domain.Generation, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generations
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, status, limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("status", string(status)).Msg("failed to find generations by status")
		return nil, fmt.Errorf("find generations by status: %w", err)
	}
	defer rows.Close()

	return scanGenerations(rows)
}

func (r *generationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Generation, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list generations")
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	return scanGenerations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var g domain.Generation
	var payload []byte
	var resultPath, seed, errorMsg sql.NullString
	var width, height sql.NullInt32
	var completedAt sql.NullTime

	err := row.Scan(
		&g.ID,
		&g.Kind,
		&payload,
		&g.Status,
		&resultPath,
		&width,
		&height,
		&seed,
		&g.Hidden,
		&errorMsg,
		&g.CreatedAt,
		&g.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Payload = payload
	g.ResultPath = resultPath.String
	g.Seed = seed.String
	g.ErrorMessage = errorMsg.String
	if width.Valid {
		g.Width = int(width.Int32)
	}
	if height.Valid {
		g.Height = int(height.Int32)
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.Time
	}

	return &g, nil
}

func scanGenerations(rows *sql.Rows) ([]*domain.Generation, error) {
	var generations []*domain.Generation

	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		generations = append(generations, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return generations, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int) sql.NullInt32 {
	if i == 0 {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: int32(i), Valid: true}
}
