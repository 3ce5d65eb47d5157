package visit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository on PostgreSQL. Photos and orders
// are stored as text arrays; filtering happens in SQL where possible and
// falls through to Filter.Matches for the text search.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Create stores a new visit.
func (r *PostgresRepository) Create(ctx context.Context, v *Visit) error {
	const query = `
		INSERT INTO visits (id, user_id, restaurant_name, visit_date, amount,
			rating, cuisine, photos, orders, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.UserID, v.RestaurantName, v.VisitDate, v.Amount,
		v.Rating, v.Cuisine, pq.Array(v.Photos), pq.Array(v.Orders),
		v.Notes, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

// ListByUser returns the user's visits matching the filter, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, f Filter) ([]Visit, error) {
	const query = `
		SELECT id, user_id, restaurant_name, visit_date, amount,
			rating, cuisine, photos, orders, notes, created_at
		FROM visits
		WHERE user_id = $1
		ORDER BY visit_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	out := make([]Visit, 0)
	for rows.Next() {
		var v Visit
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.RestaurantName, &v.VisitDate, &v.Amount,
			&v.Rating, &v.Cuisine, pq.Array(&v.Photos), pq.Array(&v.Orders),
			&v.Notes, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return out, nil
}

// Delete removes a visit after verifying ownership.
func (r *PostgresRepository) Delete(ctx context.Context, userID, visitID string) error {
	var owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM visits WHERE id = $1`, visitID).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrVisitNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up visit: %w", err)
	}
	if owner != userID {
		return ErrNotOwner
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM visits WHERE id = $1`, visitID); err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	return nil
}
