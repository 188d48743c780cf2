package verification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeStore persists the single active verification code per project.
type CodeStore interface {
	// Put stores a fresh code, superseding any prior one for the project.
	Put(ctx context.Context, code Code) error
	Get(ctx context.Context, projectID string) (Code, error)
	// IncrementAttempts bumps the attempt counter atomically and returns
	// the new count. Increment-and-read, so concurrent attempts cannot
	// slip past the limit.
	IncrementAttempts(ctx context.Context, projectID string) (int, error)
	MarkVerified(ctx context.Context, projectID string) error
}

// PostgresCodeStore keeps one verification_codes row per project.
type PostgresCodeStore struct {
	db *pgxpool.Pool
}

// NewPostgresCodeStore builds a code store backed by PostgreSQL.
func NewPostgresCodeStore(db *pgxpool.Pool) *PostgresCodeStore {
	return &PostgresCodeStore{db: db}
}

func (s *PostgresCodeStore) Put(ctx context.Context, code Code) error {
	_, err := s.db.Exec(ctx, `INSERT INTO verification_codes
        (project_id, code_hash, phone_number, created_at, expires_at, attempts, verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (project_id) DO UPDATE SET
        code_hash = EXCLUDED.code_hash, phone_number = EXCLUDED.phone_number,
        created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at,
        attempts = 0, verified = FALSE`,
		code.ProjectID, code.CodeHash, code.PhoneNumber,
		code.CreatedAt.UTC(), code.ExpiresAt.UTC(), code.Attempts, code.Verified)
	return err
}

func (s *PostgresCodeStore) Get(ctx context.Context, projectID string) (Code, error) {
	row := s.db.QueryRow(ctx, `SELECT project_id, code_hash, phone_number, created_at, expires_at, attempts, verified
        FROM verification_codes WHERE project_id = $1`, projectID)
	var c Code
	var createdAt, expiresAt time.Time
	if err := row.Scan(&c.ProjectID, &c.CodeHash, &c.PhoneNumber, &createdAt, &expiresAt, &c.Attempts, &c.Verified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Code{}, ErrNoCode
		}
		return Code{}, err
	}
	c.CreatedAt = createdAt.UTC()
	c.ExpiresAt = expiresAt.UTC()
	return c, nil
}

func (s *PostgresCodeStore) IncrementAttempts(ctx context.Context, projectID string) (int, error) {
	row := s.db.QueryRow(ctx, `UPDATE verification_codes SET attempts = attempts + 1
        WHERE project_id = $1 RETURNING attempts`, projectID)
	var attempts int
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoCode
		}
		return 0, err
	}
	return attempts, nil
}

func (s *PostgresCodeStore) MarkVerified(ctx context.Context, projectID string) error {
	tag, err := s.db.Exec(ctx, `UPDATE verification_codes SET verified = TRUE WHERE project_id = $1`, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoCode
	}
	return nil
}

type memoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]Code
}

// NewMemoryCodeStore constructs an in-memory code store for tests and
// development mode.
func NewMemoryCodeStore() CodeStore {
	return &memoryCodeStore{codes: make(map[string]Code)}
}

func (s *memoryCodeStore) Put(_ context.Context, code Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.ProjectID] = code
	return nil
}

func (s *memoryCodeStore) Get(_ context.Context, projectID string) (Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[projectID]
	if !ok {
		return Code{}, ErrNoCode
	}
	return c, nil
}

func (s *memoryCodeStore) IncrementAttempts(_ context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[projectID]
	if !ok {
		return 0, ErrNoCode
	}
	c.Attempts++
	s.codes[projectID] = c
	return c.Attempts, nil
}

func (s *memoryCodeStore) MarkVerified(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[projectID]
	if !ok {
		return ErrNoCode
	}
	c.Verified = true
	s.codes[projectID] = c
	return nil
}
