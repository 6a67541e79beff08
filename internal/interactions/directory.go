// internal/interactions/directory.go
// Read-only lookups against the users table. Subscription tier and timezone
// are inputs to the quota rules; age feeds the scorer's age-gap adjustment.

package interactions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

type UserDirectory interface {
	GetTier(ctx context.Context, userID int64) (Tier, error)

	// GetLocation returns the user's IANA timezone, used to anchor the
	// daily quota window at their local midnight.
	GetLocation(ctx context.Context, userID int64) (*time.Location, error)

	GetAge(ctx context.Context, userID int64) (int, error)
}

type postgresDirectory struct {
	db *sqlx.DB
}

func NewPostgresDirectory(db *sqlx.DB) UserDirectory {
	return &postgresDirectory{db: db}
}

func (d *postgresDirectory) GetTier(ctx context.Context, userID int64) (Tier, error) {
	var tier Tier
	query := `SELECT subscription_tier FROM users WHERE id = $1`

	err := d.db.GetContext(ctx, &tier, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	return tier, nil
}

func (d *postgresDirectory) GetLocation(ctx context.Context, userID int64) (*time.Location, error) {
	var timezone string
	query := `SELECT timezone FROM users WHERE id = $1`

	err := d.db.GetContext(ctx, &timezone, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC, nil
	}

	return loc, nil
}

func (d *postgresDirectory) GetAge(ctx context.Context, userID int64) (int, error) {
	var age int
	query := `SELECT EXTRACT(YEAR FROM AGE(birth_date))::int FROM users WHERE id = $1`

	err := d.db.GetContext(ctx, &age, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}

	return age, err
}
