// Package history persists the append-only artifact record per job key in
// a local SQLite database. Records are only ever inserted; re-running a
// job with unchanged inputs grows the history instead of mutating it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/segcut/segcut/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	output_location TEXT NOT NULL,
	duration_sec REAL NOT NULL,
	resolution TEXT NOT NULL,
	frame_rate REAL NOT NULL,
	codec TEXT NOT NULL,
	transition_type TEXT,
	transition_duration_ms INTEGER,
	audio_fade_ms INTEGER,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_job ON artifacts(job_id);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, jobID string, art types.RenderArtifact) (string, error) {
	id := uuid.NewString()
	var tType sql.NullString
	var tDur, tFade sql.NullInt64
	if art.Transition != nil {
		tType = sql.NullString{String: art.Transition.Type, Valid: true}
		tDur = sql.NullInt64{Int64: int64(art.Transition.DurationMs), Valid: true}
		tFade = sql.NullInt64{Int64: int64(art.Transition.AudioFadeMs), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, job_id, output_location, duration_sec, resolution, frame_rate, codec,
			transition_type, transition_duration_ms, audio_fade_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, jobID, art.OutputLocation, art.DurationSec, art.Resolution, art.FrameRate, art.Codec,
		tType, tDur, tFade, art.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("append artifact: %w", err)
	}
	return id, nil
}

func (s *Store) History(ctx context.Context, jobID string) ([]types.RenderArtifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT output_location, duration_sec, resolution, frame_rate, codec,
			transition_type, transition_duration_ms, audio_fade_ms, created_at
		FROM artifacts WHERE job_id = ? ORDER BY created_at, rowid
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []types.RenderArtifact
	for rows.Next() {
		var art types.RenderArtifact
		var tType sql.NullString
		var tDur, tFade sql.NullInt64
		var createdAt string
		if err := rows.Scan(&art.OutputLocation, &art.DurationSec, &art.Resolution, &art.FrameRate, &art.Codec,
			&tType, &tDur, &tFade, &createdAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if tType.Valid {
			art.Transition = &types.TransitionMeta{
				Type:        tType.String,
				DurationMs:  int(tDur.Int64),
				AudioFadeMs: int(tFade.Int64),
			}
		}
		art.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, art)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
