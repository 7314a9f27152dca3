package donation

import (
	"context"
	"errors"
	"fmt"

	"donate-and-notify/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the donation store.
type RepositoryInterface interface {
	Create(ctx context.Context, d *models.Donation) (*models.Donation, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Donation, error)
	FindByID(ctx context.Context, id int64) (*models.Donation, error)
	ListAll(ctx context.Context) ([]*models.Donation, error)
	MarkEmailed(ctx context.Context, id int64) error
}

// Repository implements the RepositoryInterface on Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new donation repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const donationColumns = `id, payment_intent_id, session_id, email, amount, currency, name, message, impact, email_subject, email_body, emailed, created_at`

// Create inserts a new donation record. The unique index on
// payment_intent_id is the system's only concurrency guard: a concurrent
// duplicate webhook delivery loses the race here and sees ErrConflict, which
// callers treat as the idempotency skip case.
func (r *Repository) Create(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	query := `
		INSERT INTO donations (payment_intent_id, session_id, email, amount, currency, name, message, impact, email_subject, email_body, emailed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
		RETURNING ` + donationColumns

	row := r.db.QueryRow(ctx, query,
		d.PaymentIntentID, d.SessionID, d.Email, d.Amount, d.Currency,
		d.Name, d.Message, d.Impact, d.EmailSubject, d.EmailBody,
	)
	created, err := r.scanDonation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// scanDonation is a helper function to scan a row into a Donation model.
func (r *Repository) scanDonation(row pgx.Row) (*models.Donation, error) {
	var d models.Donation
	err := row.Scan(
		&d.ID,
		&d.PaymentIntentID,
		&d.SessionID,
		&d.Email,
		&d.Amount,
		&d.Currency,
		&d.Name,
		&d.Message,
		&d.Impact,
		&d.EmailSubject,
		&d.EmailBody,
		&d.Emailed,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByPaymentIntentID is the idempotency lookup for webhook deliveries.
func (r *Repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE payment_intent_id = $1`
	d, err := r.scanDonation(r.db.QueryRow(ctx, query, paymentIntentID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByPaymentIntentID: %w", err)
	}
	return d, nil
}

// FindByID retrieves a single donation by its internal id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	d, err := r.scanDonation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return d, nil
}

// ListAll returns every donation, newest first, for the admin listing.
func (r *Repository) ListAll(ctx context.Context) ([]*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAll.Query: %w", err)
	}
	defer rows.Close()

	var donations []*models.Donation
	for rows.Next() {
		d, err := r.scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListAll.scanDonation: %w", err)
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListAll: %w", err)
	}
	return donations, nil
}

// MarkEmailed flips the emailed flag after a successful send. The flag only
// ever transitions false→true; the WHERE clause makes a repeat call a no-op.
func (r *Repository) MarkEmailed(ctx context.Context, id int64) error {
	query := `UPDATE donations SET emailed = TRUE WHERE id = $1 AND emailed = FALSE`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("repository.MarkEmailed: %w", err)
	}
	return nil
}
