package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/hyresense/internal/analysis"
)

// DefaultSQLitePath is used when no DSN is configured.
const DefaultSQLitePath = "hyresense.db"

// fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS ai_remarks (
	id                            TEXT PRIMARY KEY,
	job_id                        TEXT NOT NULL,
	candidate_id                  TEXT NOT NULL,
	resume_id                     TEXT NOT NULL DEFAULT '',
	fit_score                     REAL,
	fit_level                     TEXT NOT NULL DEFAULT 'unknown',
	is_fit                        INTEGER,
	skills_match_score            REAL,
	experience_match_score        REAL,
	education_match_score         REAL,
	location_match_score          REAL,
	remarks                       TEXT NOT NULL DEFAULT '',
	strengths                     TEXT NOT NULL DEFAULT '[]',
	weaknesses                    TEXT NOT NULL DEFAULT '[]',
	missing_skills                TEXT NOT NULL DEFAULT '[]',
	matching_skills               TEXT NOT NULL DEFAULT '[]',
	recommendations               TEXT NOT NULL DEFAULT '[]',
	interview_recommendation      INTEGER,
	suggested_interview_questions TEXT NOT NULL DEFAULT '[]',
	potential_concerns            TEXT NOT NULL DEFAULT '[]',
	salary_expectation_alignment  TEXT NOT NULL DEFAULT '',
	analysis_status               TEXT NOT NULL,
	ai_model_version              TEXT NOT NULL DEFAULT '',
	confidence_score              REAL,
	analysis_duration_seconds     INTEGER NOT NULL DEFAULT 0,
	error_message                 TEXT NOT NULL DEFAULT '',
	created_at                    TEXT NOT NULL,
	updated_at                    TEXT NOT NULL,
	analyzed_at                   TEXT,
	reviewed_by_human             INTEGER NOT NULL DEFAULT 0,
	human_override                INTEGER NOT NULL DEFAULT 0,
	human_remarks                 TEXT NOT NULL DEFAULT '',
	UNIQUE (job_id, candidate_id)
);
CREATE INDEX IF NOT EXISTS ai_remarks_status_idx ON ai_remarks (analysis_status);
CREATE INDEX IF NOT EXISTS ai_remarks_candidate_idx ON ai_remarks (candidate_id);`

// analysis columns, written by Save
const recordColumns = `id, job_id, candidate_id, resume_id,
	fit_score, fit_level, is_fit,
	skills_match_score, experience_match_score, education_match_score, location_match_score,
	remarks, strengths, weaknesses, missing_skills, matching_skills, recommendations,
	interview_recommendation, suggested_interview_questions, potential_concerns,
	salary_expectation_alignment, analysis_status, ai_model_version, confidence_score,
	analysis_duration_seconds, error_message, created_at, updated_at, analyzed_at`

const selectColumns = recordColumns + `, reviewed_by_human, human_override, human_remarks`

// columns an upsert overwrites; id, created_at and the review stay
var upsertColumns = []string{
	"resume_id", "fit_score", "fit_level", "is_fit",
	"skills_match_score", "experience_match_score", "education_match_score", "location_match_score",
	"remarks", "strengths", "weaknesses", "missing_skills", "matching_skills", "recommendations",
	"interview_recommendation", "suggested_interview_questions", "potential_concerns",
	"salary_expectation_alignment", "analysis_status", "ai_model_version", "confidence_score",
	"analysis_duration_seconds", "error_message", "updated_at", "analyzed_at",
}

func upsertAssignments() string {
	parts := make([]string, 0, len(upsertColumns))
	for _, c := range upsertColumns {
		parts = append(parts, c+" = excluded."+c)
	}
	return strings.Join(parts, ",\n\t")
}

// SQLite stores records in an embedded database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	// single writer; also keeps an in-memory database alive
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, r *analysis.Record) error {
	lists, err := encodeLists(r)
	if err != nil {
		return err
	}

	query := `INSERT INTO ai_remarks (` + recordColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (job_id, candidate_id) DO UPDATE SET
	` + upsertAssignments() + `
	RETURNING id, created_at`

	var analyzedAt any
	if r.AnalyzedAt != nil {
		analyzedAt = formatTime(*r.AnalyzedAt)
	}

	var id, createdAt string
	err = s.db.QueryRowContext(ctx, query,
		r.ID, r.JobID, r.CandidateID, r.ResumeID,
		r.FitScore, string(r.FitLevel), r.IsFit,
		r.SkillsMatchScore, r.ExperienceMatchScore, r.EducationMatchScore, r.LocationMatchScore,
		r.Remarks, lists[0], lists[1], lists[2], lists[3], lists[4],
		r.InterviewRecommendation, lists[5], lists[6],
		string(r.SalaryAlignment), string(r.Status), r.ModelVersion, r.ConfidenceScore,
		r.DurationSeconds, r.ErrorMessage, formatTime(r.CreatedAt), formatTime(r.UpdatedAt), analyzedAt,
	).Scan(&id, &createdAt)
	if err != nil {
		return fmt.Errorf("sqlite: save record: %w", err)
	}

	r.ID = id
	if t, err := parseTime(createdAt); err == nil {
		r.CreatedAt = t
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, jobID, candidateID string) (*analysis.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE job_id = ? AND candidate_id = ?`,
		jobID, candidateID,
	)

	r, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, analysis.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get record: %w", err)
	}
	return r, nil
}

func (s *SQLite) ListByJob(ctx context.Context, jobID string) ([]*analysis.Record, error) {
	return s.list(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE job_id = ?
		ORDER BY fit_score IS NULL, fit_score DESC, updated_at DESC`,
		jobID,
	)
}

func (s *SQLite) ListByCandidate(ctx context.Context, candidateID string) ([]*analysis.Record, error) {
	return s.list(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE candidate_id = ?
		ORDER BY created_at DESC, updated_at DESC`,
		candidateID,
	)
}

func (s *SQLite) ListByStatus(ctx context.Context, status analysis.Status) ([]*analysis.Record, error) {
	return s.list(ctx,
		`SELECT `+selectColumns+` FROM ai_remarks WHERE analysis_status = ?
		ORDER BY updated_at`,
		string(status),
	)
}

func (s *SQLite) SaveReview(ctx context.Context, jobID, candidateID string, review analysis.Review) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ai_remarks SET reviewed_by_human = ?, human_override = ?, human_remarks = ?, updated_at = ?
		WHERE job_id = ? AND candidate_id = ?`,
		review.ReviewedByHuman, review.HumanOverride, review.HumanRemarks, formatTime(time.Now()),
		jobID, candidateID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save review: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: save review: %w", err)
	}
	if n == 0 {
		return analysis.ErrRecordNotFound
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) list(ctx context.Context, query string, args ...any) ([]*analysis.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query records: %w", err)
	}
	defer rows.Close()

	records := []*analysis.Record{}
	for rows.Next() {
		r, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*analysis.Record, error) {
	var (
		r                                       analysis.Record
		fitScore, skills, experience, education sql.NullFloat64
		location, confidence                    sql.NullFloat64
		isFit, interview                        sql.NullBool
		fitLevel, alignment, status             string
		lists                                   [7]string
		createdAt, updatedAt                    string
		analyzedAt                              sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.JobID, &r.CandidateID, &r.ResumeID,
		&fitScore, &fitLevel, &isFit,
		&skills, &experience, &education, &location,
		&r.Remarks, &lists[0], &lists[1], &lists[2], &lists[3], &lists[4],
		&interview, &lists[5], &lists[6],
		&alignment, &status, &r.ModelVersion, &confidence,
		&r.DurationSeconds, &r.ErrorMessage, &createdAt, &updatedAt, &analyzedAt,
		&r.ReviewedByHuman, &r.HumanOverride, &r.HumanRemarks,
	)
	if err != nil {
		return nil, err
	}

	r.FitScore = nullFloat(fitScore)
	r.SkillsMatchScore = nullFloat(skills)
	r.ExperienceMatchScore = nullFloat(experience)
	r.EducationMatchScore = nullFloat(education)
	r.LocationMatchScore = nullFloat(location)
	r.ConfidenceScore = nullFloat(confidence)
	r.IsFit = nullBool(isFit)
	r.InterviewRecommendation = nullBool(interview)
	r.FitLevel = analysis.FitLevel(fitLevel)
	r.SalaryAlignment = analysis.SalaryAlignment(alignment)
	r.Status = analysis.Status(status)

	targets := listTargets(&r)
	for i, raw := range lists {
		if err := json.Unmarshal([]byte(raw), targets[i]); err != nil {
			return nil, fmt.Errorf("decode list column: %w", err)
		}
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if analyzedAt.Valid {
		t, err := parseTime(analyzedAt.String)
		if err != nil {
			return nil, err
		}
		r.AnalyzedAt = &t
	}

	return &r, nil
}

// listTargets follows the list column order of recordColumns.
func listTargets(r *analysis.Record) [7]*[]string {
	return [7]*[]string{
		&r.Strengths,
		&r.Weaknesses,
		&r.MissingSkills,
		&r.MatchingSkills,
		&r.Recommendations,
		&r.SuggestedInterviewQuestions,
		&r.PotentialConcerns,
	}
}

func listValues(r *analysis.Record) [7][]string {
	var values [7][]string
	for i, target := range listTargets(r) {
		values[i] = *target
		if values[i] == nil {
			values[i] = []string{}
		}
	}
	return values
}

func encodeLists(r *analysis.Record) ([7]string, error) {
	var out [7]string
	for i, v := range listValues(r) {
		raw, err := json.Marshal(v)
		if err != nil {
			return out, err
		}
		out[i] = string(raw)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}
