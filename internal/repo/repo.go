package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"SafeStruct/internal/auth"
	"SafeStruct/internal/calc/assess"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

// Postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = pq.ErrorCode("23505")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         SERIAL PRIMARY KEY,
	login      TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS assessments (
	id         BIGSERIAL PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	irs        DOUBLE PRECISION NOT NULL,
	category   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS assessments_user_created_idx ON assessments (user_id, created_at DESC);
`

// Open connects to Postgres. TLS is required unless the DSN says otherwise.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", withSSLMode(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func withSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&sslmode=require"
		}
		return dsn + "?sslmode=require"
	}
	return strings.TrimSpace(dsn + " sslmode=require")
}

// Migrate creates the tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// CheckReadiness pings the database.
func (r *Postgres) CheckReadiness(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Postgres) CreateUser(ctx context.Context, login, email, hash string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, hash).Scan(&id)
	if isUniqueViolation(err) {
		return 0, auth.ErrUserExists
	}
	return id, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *Postgres) GetByLogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"
	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", auth.ErrUnknownUser
	}
	if err != nil {
		return 0, "", err
	}
	return id, hash, nil
}

// StoredAssessment is a saved evaluation.
type StoredAssessment struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	assess.Assessment
}

func (r *Postgres) SaveAssessment(ctx context.Context, userID int, a assess.Assessment) (int64, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return 0, fmt.Errorf("encode assessment: %w", err)
	}
	var id int64
	query := `INSERT INTO assessments (user_id, irs, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err = r.db.QueryRowContext(ctx, query,
		userID, a.Result.Index, string(a.Result.Category), payload, a.EvaluatedAt,
	).Scan(&id)
	return id, err
}

// ListAssessments returns the newest assessments of a user first.
func (r *Postgres) ListAssessments(ctx context.Context, userID, limit int) ([]StoredAssessment, error) {
	limit = ClampLimit(limit)
	query := `SELECT id, user_id, created_at, payload FROM assessments
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoredAssessment, 0, limit)
	for rows.Next() {
		s, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetAssessment only returns rows owned by userID.
func (r *Postgres) GetAssessment(ctx context.Context, userID int, id int64) (StoredAssessment, error) {
	query := "SELECT id, user_id, created_at, payload FROM assessments WHERE id=$1 AND user_id=$2"
	s, err := scanAssessment(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredAssessment{}, ErrNotFound
	}
	return s, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(s scanner) (StoredAssessment, error) {
	var (
		out     StoredAssessment
		payload []byte
	)
	if err := s.Scan(&out.ID, &out.UserID, &out.CreatedAt, &payload); err != nil {
		return StoredAssessment{}, err
	}
	a, err := decodePayload(payload)
	if err != nil {
		return StoredAssessment{}, fmt.Errorf("assessment %d: %w", out.ID, err)
	}
	out.Assessment = a
	return out, nil
}

func decodePayload(payload []byte) (assess.Assessment, error) {
	var a assess.Assessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return assess.Assessment{}, fmt.Errorf("decode payload: %w", err)
	}
	return a, nil
}

// ClampLimit keeps a listing size within 1..MaxListLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
