package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/hyresense/internal/analysis"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS ai_remarks (
	id                            TEXT PRIMARY KEY,
	job_id                        TEXT NOT NULL,
	candidate_id                  TEXT NOT NULL,
	resume_id                     TEXT NOT NULL DEFAULT '',
	fit_score                     DOUBLE PRECISION,
	fit_level                     TEXT NOT NULL DEFAULT 'unknown',
	is_fit                        BOOLEAN,
	skills_match_score            DOUBLE PRECISION,
	experience_match_score        DOUBLE PRECISION,
	education_match_score         DOUBLE PRECISION,
	location_match_score          DOUBLE PRECISION,
	remarks                       TEXT NOT NULL DEFAULT '',
	strengths                     TEXT[] NOT NULL DEFAULT '{}',
	weaknesses                    TEXT[] NOT NULL DEFAULT '{}',
	missing_skills                TEXT[] NOT NULL DEFAULT '{}',
	matching_skills               TEXT[] NOT NULL DEFAULT '{}',
	recommendations               TEXT[] NOT NULL DEFAULT '{}',
	interview_recommendation      BOOLEAN,
	suggested_interview_questions TEXT[] NOT NULL DEFAULT '{}',
	potential_concerns            TEXT[] NOT NULL DEFAULT '{}',
	salary_expectation_alignment  TEXT NOT NULL DEFAULT '',
	analysis_status               TEXT NOT NULL,
	ai_model_version              TEXT NOT NULL DEFAULT '',
	confidence_score              DOUBLE PRECISION,
	analysis_duration_seconds     INTEGER NOT NULL DEFAULT 0,
	error_message                 TEXT NOT NULL DEFAULT '',
	created_at                    TIMESTAMPTZ NOT NULL,
	updated_at                    TIMESTAMPTZ NOT NULL,
	analyzed_at                   TIMESTAMPTZ,
	reviewed_by_human             BOOLEAN NOT NULL DEFAULT FALSE,
	human_override                BOOLEAN NOT NULL DEFAULT FALSE,
	human_remarks                 TEXT NOT NULL DEFAULT '',
	UNIQUE (job_id, candidate_id)
);
CREATE INDEX IF NOT EXISTS ai_remarks_status_idx ON ai_remarks (analysis_status);
CREATE INDEX IF NOT EXISTS ai_remarks_candidate_idx ON ai_remarks (candidate_id);`

// Postgres stores records in a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// OpenPostgres connects to databaseURL and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("postgres: dsn is required")
	}

	pool, err := NewPostgresPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: init schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, r *analysis.Record) error {
	placeholders := make([]string, 0, 29)
	for i := 1; i <= 29; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}

	query := `INSERT INTO ai_remarks (` + recordColumns + `)
	VALUES (` + strings.Join(placeholders, ", ") + `)
	ON CONFLICT (job_id, candidate_id) DO UPDATE SET
	` + upsertAssignments() + `
	RETURNING id, created_at`

	lists := listValues(r)

	err := p.pool.QueryRow(ctx, query,
		r.ID, r.JobID, r.CandidateID, r.ResumeID,
		r.FitScore, string(r.FitLevel), r.IsFit,
		r.SkillsMatchScore, r.ExperienceMatchScore, r.EducationMatchScore, r.LocationMatchScore,
		r.Remarks, lists[0], lists[1], lists[2], lists[3], lists[4],
		r.InterviewRecommendation, lists[5], lists[6],
		string(r.SalaryAlignment), string(r.Status), r.ModelVersion, r.ConfidenceScore,
		r.DurationSeconds, r.ErrorMessage, r.CreatedAt.UTC(), r.UpdatedAt.UTC(), r.AnalyzedAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save record: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, jobID, candidateID string) (*analysis.Record, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE job_id = $1 AND candidate_id = $2`,
		jobID, candidateID,
	)

	r, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, analysis.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get record: %w", err)
	}
	return r, nil
}

func (p *Postgres) ListByJob(ctx context.Context, jobID string) ([]*analysis.Record, error) {
	return p.list(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE job_id = $1
		ORDER BY fit_score DESC NULLS LAST, updated_at DESC`,
		jobID,
	)
}

func (p *Postgres) ListByCandidate(ctx context.Context, candidateID string) ([]*analysis.Record, error) {
	return p.list(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE candidate_id = $1
		ORDER BY created_at DESC, updated_at DESC`,
		candidateID,
	)
}

func (p *Postgres) ListByStatus(ctx context.Context, status analysis.Status) ([]*analysis.Record, error) {
	return p.list(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE analysis_status = $1 ORDER BY updated_at`,
		string(status),
	)
}

func (p *Postgres) SaveReview(ctx context.Context, jobID, candidateID string, review analysis.Review) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE ai_remarks SET reviewed_by_human = $1, human_override = $2, human_remarks = $3, updated_at = now()
		WHERE job_id = $4 AND candidate_id = $5`,
		review.ReviewedByHuman, review.HumanOverride, review.HumanRemarks, jobID, candidateID,
	)
	if err != nil {
		return fmt.Errorf("postgres: save review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return analysis.ErrRecordNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]*analysis.Record, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query records: %w", err)
	}
	defer rows.Close()

	records := []*analysis.Record{}
	for rows.Next() {
		r, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanPostgres(row rowScanner) (*analysis.Record, error) {
	var (
		r                           analysis.Record
		fitLevel, alignment, status string
	)
	lists := listTargets(&r)

	err := row.Scan(
		&r.ID, &r.JobID, &r.CandidateID, &r.ResumeID,
		&r.FitScore, &fitLevel, &r.IsFit,
		&r.SkillsMatchScore, &r.ExperienceMatchScore, &r.EducationMatchScore, &r.LocationMatchScore,
		&r.Remarks, lists[0], lists[1], lists[2], lists[3], lists[4],
		&r.InterviewRecommendation, lists[5], lists[6],
		&alignment, &status, &r.ModelVersion, &r.ConfidenceScore,
		&r.DurationSeconds, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt, &r.AnalyzedAt,
		&r.ReviewedByHuman, &r.HumanOverride, &r.HumanRemarks,
	)
	if err != nil {
		return nil, err
	}

	r.FitLevel = analysis.FitLevel(fitLevel)
	r.SalaryAlignment = analysis.SalaryAlignment(alignment)
	r.Status = analysis.Status(status)
	return &r, nil
}
