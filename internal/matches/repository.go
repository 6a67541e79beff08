package matches

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrMatchNotFound = errors.New("match not found")

type Repository interface {
	// Create inserts the match, or returns the existing row when the
	// canonical pair already exists. A racing duplicate insert is an
	// ignorable conflict, never a duplicate row and never a fatal error.
	Create(ctx context.Context, match *Match) (*Match, error)

	Get(ctx context.Context, id int64) (*Match, error)
	GetByPair(ctx context.Context, userA, userB int64) (*Match, error)
	GetUserMatches(ctx context.Context, userID int64, active bool) ([]*Match, error)
	IsMatched(ctx context.Context, userA, userB int64) (bool, error)
	Unmatch(ctx context.Context, match *Match) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Insert writes a match using any sqlx executor, so the interaction ledger
// can run it inside its own transaction. The unique constraint on
// (user1_id, user2_id) turns a racing duplicate into a no-op; the existing
// row is fetched and returned instead.
func Insert(ctx context.Context, ext sqlx.ExtContext, match *Match) (*Match, error) {
	query := `
        INSERT INTO matches (user1_id, user2_id, compatibility_score, match_context)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING id, matched_at
    `

	err := ext.QueryRowxContext(
		ctx, query,
		match.User1ID, match.User2ID, match.CompatibilityScore, match.MatchContext,
	).Scan(&match.ID, &match.MatchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: the pair already has a canonical match.
		return getByPair(ctx, ext, match.User1ID, match.User2ID)
	}
	if err != nil {
		return nil, err
	}

	return match, nil
}

func getByPair(ctx context.Context, ext sqlx.ExtContext, userA, userB int64) (*Match, error) {
	low, high := PairKey(userA, userB)

	var match Match
	query := `
        SELECT id, user1_id, user2_id, compatibility_score, match_context,
               is_active, unmatched_by, unmatched_at, matched_at
        FROM matches
        WHERE user1_id = $1 AND user2_id = $2
    `

	err := sqlx.GetContext(ctx, ext, &match, query, low, high)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &match, nil
}

func (r *postgresRepository) Create(ctx context.Context, match *Match) (*Match, error) {
	return Insert(ctx, r.db, match)
}

func (r *postgresRepository) Get(ctx context.Context, id int64) (*Match, error) {
	var match Match
	query := `
        SELECT id, user1_id, user2_id, compatibility_score, match_context,
               is_active, unmatched_by, unmatched_at, matched_at
        FROM matches
        WHERE id = $1
    `

	err := r.db.GetContext(ctx, &match, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &match, nil
}

func (r *postgresRepository) GetByPair(ctx context.Context, userA, userB int64) (*Match, error) {
	return getByPair(ctx, r.db, userA, userB)
}

func (r *postgresRepository) GetUserMatches(ctx context.Context, userID int64, active bool) ([]*Match, error) {
	var result []*Match
	query := `
        SELECT id, user1_id, user2_id, compatibility_score, match_context,
               is_active, unmatched_by, unmatched_at, matched_at
        FROM matches
        WHERE (user1_id = $1 OR user2_id = $1) AND is_active = $2
        ORDER BY matched_at DESC
    `

	err := r.db.SelectContext(ctx, &result, query, userID, active)
	return result, err
}

func (r *postgresRepository) IsMatched(ctx context.Context, userA, userB int64) (bool, error) {
	low, high := PairKey(userA, userB)

	var exists bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM matches
            WHERE user1_id = $1 AND user2_id = $2 AND is_active = TRUE
        )
    `

	err := r.db.GetContext(ctx, &exists, query, low, high)
	return exists, err
}

func (r *postgresRepository) Unmatch(ctx context.Context, match *Match) error {
	query := `
        UPDATE matches
        SET is_active = FALSE, unmatched_by = $2, unmatched_at = $3
        WHERE id = $1
    `

	_, err := r.db.ExecContext(ctx, query, match.ID, match.UnmatchedBy, match.UnmatchedAt)
	return err
}
