package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gameview/reconstruct/internal/model"
)

type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS productions (
  id TEXT PRIMARY KEY,
  experience_id TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  status TEXT NOT NULL,
  stage TEXT NOT NULL DEFAULT '',
  progress INTEGER NOT NULL DEFAULT 0,
  outputs_json TEXT,
  error_message TEXT
);
`); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) CreateProduction(ctx context.Context, p model.Production) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO productions (id, experience_id, created_at, updated_at, status, stage, progress)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.ExperienceID,
		p.CreatedAt.UnixMilli(),
		p.UpdatedAt.UnixMilli(),
		string(p.Status),
		p.Stage,
		p.Progress,
	)
	return err
}

const productionCols = `id, experience_id, created_at, updated_at, status, stage, progress, outputs_json, error_message`

func scanProduction(scan func(dest ...any) error) (model.Production, error) {
	var (
		id, expID, statusStr, stage string
		createdMs, updatedMs        int64
		progress                    int
		outputsJSON                 sql.NullString
		errorMsg                    sql.NullString
	)
	if err := scan(&id, &expID, &createdMs, &updatedMs, &statusStr, &stage, &progress, &outputsJSON, &errorMsg); err != nil {
		return model.Production{}, err
	}
	p := model.Production{
		ID:           id,
		ExperienceID: expID,
		CreatedAt:    time.UnixMilli(createdMs),
		UpdatedAt:    time.UnixMilli(updatedMs),
		Status:       model.Status(statusStr),
		Stage:        stage,
		Progress:     progress,
	}
	if outputsJSON.Valid {
		p.OutputsJSON = outputsJSON.String
	}
	if errorMsg.Valid {
		p.Error = errorMsg.String
	}
	return p, nil
}

func (s *SQLite) GetProduction(ctx context.Context, id string) (model.Production, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productionCols+` FROM productions WHERE id = ?`, id)
	p, err := scanProduction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Production{}, model.ErrNotFound
	}
	return p, err
}

func (s *SQLite) ListProductions(ctx context.Context, status *model.Status, limit int) ([]model.Production, error) {
	if limit <= 0 {
		limit = 25
	}

	query := `SELECT ` + productionCols + ` FROM productions`
	args := []any{}
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY updated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Production
	for rows.Next() {
		p, err := scanProduction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateProduction(ctx context.Context, id string, patch model.ProductionPatch) error {
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`UPDATE productions
         SET updated_at = ?,
             status = COALESCE(?, status),
             stage = COALESCE(?, stage),
             progress = COALESCE(?, progress),
             outputs_json = COALESCE(?, outputs_json),
             error_message = COALESCE(?, error_message)
         WHERE id = ?`,
		now,
		nullableString(patch.Status),
		nullableString(patch.Stage),
		nullableInt(patch.Progress),
		nullableString(patch.OutputsJSON),
		nullableString(patch.Error),
		id,
	)
	return err
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
