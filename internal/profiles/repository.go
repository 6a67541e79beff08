package profiles

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrMissingProfile is returned when a user has no active trait profile.
// Callers decide whether that excludes the user from ranking; it is never a
// fatal condition.
var ErrMissingProfile = errors.New("no active trait profile for user")

type Repository interface {
	GetActiveProfile(ctx context.Context, userID int64) (*TraitProfile, error)
	GetActiveProfiles(ctx context.Context, userIDs []int64) (map[int64]*TraitProfile, error)

	// ReplaceProfile deactivates the user's current profile and inserts the
	// new one as active, in a single transaction.
	ReplaceProfile(ctx context.Context, profile *TraitProfile) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const activeProfileColumns = `
    id, user_id, openness, conscientiousness, extraversion, agreeableness,
    neuroticism, attachment_style, secure_score, anxious_score, avoidant_score,
    compatibility_keywords, profile_strength, is_active, created_at
`

func (r *postgresRepository) GetActiveProfile(ctx context.Context, userID int64) (*TraitProfile, error) {
	var profile TraitProfile
	query := `
        SELECT ` + activeProfileColumns + `
        FROM trait_profiles
        WHERE user_id = $1 AND is_active = TRUE
    `

	err := r.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMissingProfile
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *postgresRepository) GetActiveProfiles(ctx context.Context, userIDs []int64) (map[int64]*TraitProfile, error) {
	if len(userIDs) == 0 {
		return map[int64]*TraitProfile{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT `+activeProfileColumns+`
        FROM trait_profiles
        WHERE user_id IN (?) AND is_active = TRUE
    `, userIDs)
	if err != nil {
		return nil, err
	}

	var rows []*TraitProfile
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	result := make(map[int64]*TraitProfile, len(rows))
	for _, p := range rows {
		result[p.UserID] = p
	}

	return result, nil
}

func (r *postgresRepository) ReplaceProfile(ctx context.Context, profile *TraitProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        UPDATE trait_profiles SET is_active = FALSE
        WHERE user_id = $1 AND is_active = TRUE
    `, profile.UserID)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO trait_profiles (
            user_id, openness, conscientiousness, extraversion, agreeableness,
            neuroticism, attachment_style, secure_score, anxious_score,
            avoidant_score, compatibility_keywords, profile_strength, is_active
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE)
        RETURNING id, created_at
    `

	err = tx.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.Openness, profile.Conscientiousness,
		profile.Extraversion, profile.Agreeableness, profile.Neuroticism,
		profile.AttachmentStyle, profile.SecureScore, profile.AnxiousScore,
		profile.AvoidantScore, profile.CompatibilityKeywords, profile.ProfileStrength,
	).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return err
	}

	profile.IsActive = true
	return tx.Commit()
}
