package project

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no project matches the given token or identifier.
var ErrNotFound = errors.New("project not found")

// Repository persists client projects.
type Repository interface {
	Create(ctx context.Context, p ClientProject) error
	FindByToken(ctx context.Context, token string) (ClientProject, error)
	FindByID(ctx context.Context, id string) (ClientProject, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdatePayment(ctx context.Context, id string, status PaymentStatus) error
}

// PostgresRepository stores client projects in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const projectColumns = `id, token, client_name, client_email, client_phone,
        service_id, service_title, service_category,
        payment_status, payment_amount, project_status,
        created_at, expires_at, notes`

// Create inserts a client project record.
func (r *PostgresRepository) Create(ctx context.Context, p ClientProject) error {
	_, err := r.db.Exec(ctx, `INSERT INTO client_projects (`+projectColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Token, p.ClientName, p.ClientEmail, p.ClientPhone,
		p.ServiceID, p.ServiceTitle, p.ServiceCategory,
		string(p.PaymentStatus), p.PaymentAmount, string(p.ProjectStatus),
		p.CreatedAt.UTC(), p.ExpiresAt.UTC(), p.Notes)
	return err
}

// FindByToken fetches a project by exact token match.
func (r *PostgresRepository) FindByToken(ctx context.Context, tok string) (ClientProject, error) {
	row := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM client_projects WHERE token = $1`, tok)
	return scanProject(row)
}

// FindByID fetches a project by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (ClientProject, error) {
	row := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM client_projects WHERE id = $1`, id)
	return scanProject(row)
}

// UpdateStatus records a project stage change.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE client_projects SET project_status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePayment records a payment status change.
func (r *PostgresRepository) UpdatePayment(ctx context.Context, id string, status PaymentStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE client_projects SET payment_status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (ClientProject, error) {
	var p ClientProject
	var paymentStatus, projectStatus string
	var createdAt, expiresAt time.Time
	err := row.Scan(&p.ID, &p.Token, &p.ClientName, &p.ClientEmail, &p.ClientPhone,
		&p.ServiceID, &p.ServiceTitle, &p.ServiceCategory,
		&paymentStatus, &p.PaymentAmount, &projectStatus,
		&createdAt, &expiresAt, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ClientProject{}, ErrNotFound
		}
		return ClientProject{}, err
	}
	p.PaymentStatus = PaymentStatus(paymentStatus)
	p.ProjectStatus = Status(projectStatus)
	p.CreatedAt = createdAt.UTC()
	p.ExpiresAt = expiresAt.UTC()
	return p, nil
}
