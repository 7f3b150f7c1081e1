package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. List columns are stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, user_id, resume_name, resume_key, job_description, match_score,
       skills_matched, missing_skills, suggestions, extra_edge_suggestions, created_at`

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, record Record) error {
	const query = `
INSERT INTO analysis_records (
	id, user_id, resume_name, resume_key, job_description, match_score,
	skills_matched, missing_skills, suggestions, extra_edge_suggestions, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	record.normalizeLists()
	matched, err := marshalJSONB(record.SkillsMatched)
	if err != nil {
		return err
	}
	missing, err := marshalJSONB(record.MissingSkills)
	if err != nil {
		return err
	}
	suggestions, err := marshalJSONB(record.Suggestions)
	if err != nil {
		return err
	}
	edge, err := marshalJSONB(record.ExtraEdgeSuggestions)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.ResumeName,
		record.ResumeKey,
		record.JobDescription,
		record.MatchScore,
		matched,
		missing,
		suggestions,
		edge,
		record.CreatedAt,
	)
	return err
}

// GetByID returns the user's record with the given id.
func (r *PGRepo) GetByID(ctx context.Context, userID, recordID string) (Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM analysis_records
WHERE id = $1 AND user_id = $2
LIMIT 1`
	record, err := scanRecord(r.DB.QueryRowContext(ctx, query, recordID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return record, nil
}

// ListByUser returns records for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + recordColumns + `
FROM analysis_records
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, limitArg, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Stats aggregates the user's records.
func (r *PGRepo) Stats(ctx context.Context, userID string) (Stats, error) {
	const query = `
SELECT COUNT(*),
       COALESCE(ROUND(AVG(match_score)::numeric), 0)::int,
       MAX(created_at)
FROM analysis_records
WHERE user_id = $1`
	var (
		stats  Stats
		latest sql.NullTime
	)
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&stats.Total, &stats.AverageScore, &latest); err != nil {
		return Stats{}, err
	}
	if latest.Valid {
		t := latest.Time.UTC()
		stats.LatestAt = &t
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record    Record
		createdAt time.Time
	)
	var matched, missing, suggestions, edge []byte
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.ResumeName,
		&record.ResumeKey,
		&record.JobDescription,
		&record.MatchScore,
		&matched,
		&missing,
		&suggestions,
		&edge,
		&createdAt,
	); err != nil {
		return Record{}, err
	}
	record.CreatedAt = createdAt.UTC()
	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"skills_matched", matched, &record.SkillsMatched},
		{"missing_skills", missing, &record.MissingSkills},
		{"suggestions", suggestions, &record.Suggestions},
		{"extra_edge_suggestions", edge, &record.ExtraEdgeSuggestions},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return Record{}, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	record.normalizeLists()
	return record, nil
}

func marshalJSONB(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode jsonb: %w", err)
	}
	return string(data), nil
}

var _ Repo = (*PGRepo)(nil)
