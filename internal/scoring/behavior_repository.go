package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// postgresBehaviorProvider reads aggregated usage features from the
// user_behavior_features table, which the analytics pipeline keeps current.
type postgresBehaviorProvider struct {
	db *sqlx.DB
}

func NewPostgresBehaviorProvider(db *sqlx.DB) BehaviorProvider {
	return &postgresBehaviorProvider{db: db}
}

func (p *postgresBehaviorProvider) GetBehaviorFeatures(ctx context.Context, userID int64) (*BehaviorFeatures, error) {
	var row struct {
		AvgResponseSeconds float64 `db:"avg_response_seconds"`
		ActivityLevel      float64 `db:"activity_level"`
		AvgMessageLength   float64 `db:"avg_message_length"`
		EmojiRate          float64 `db:"emoji_rate"`
		ActiveHours        []byte  `db:"active_hours"`
	}

	query := `
        SELECT avg_response_seconds, activity_level, avg_message_length, emoji_rate, active_hours
        FROM user_behavior_features WHERE user_id = $1
    `

	err := p.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no behavior features for user %d", userID)
	}
	if err != nil {
		return nil, err
	}

	features := &BehaviorFeatures{
		AvgResponseSeconds: row.AvgResponseSeconds,
		ActivityLevel:      row.ActivityLevel,
		AvgMessageLength:   row.AvgMessageLength,
		EmojiRate:          row.EmojiRate,
		ActiveHours:        map[int]bool{},
	}

	// active_hours is a jsonb array of hours, e.g. [20, 21, 22].
	var hours []int
	if len(row.ActiveHours) > 0 {
		if err := json.Unmarshal(row.ActiveHours, &hours); err != nil {
			return nil, fmt.Errorf("bad active_hours for user %d: %w", userID, err)
		}
	}
	for _, h := range hours {
		features.ActiveHours[h] = true
	}

	return features, nil
}
