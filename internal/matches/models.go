package matches

import (
	"encoding/json"
	"time"

	"github.com/amora-app/amora-backend/internal/scoring"
)

// Match context sources.
const (
	SourceMutualLike  = "mutual_like"
	SourceEventPrefix = "event:"
)

// MatchContext records how a match came to exist and the score breakdown
// behind it.
type MatchContext struct {
	Source          string                  `json:"source"`
	ComponentScores scoring.ComponentScores `json:"component_scores"`
	Explanations    scoring.Explanations    `json:"detailed_analysis,omitempty"`
}

// Match is the canonical unordered pair. User1ID is always the smaller id;
// the same pair can never exist as two rows.
type Match struct {
	ID                 int64           `json:"id" db:"id"`
	User1ID            int64           `json:"user1_id" db:"user1_id"`
	User2ID            int64           `json:"user2_id" db:"user2_id"`
	CompatibilityScore float64         `json:"compatibility_score" db:"compatibility_score"`
	MatchContext       json.RawMessage `json:"match_context" db:"match_context"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	UnmatchedBy        *int64          `json:"unmatched_by,omitempty" db:"unmatched_by"`
	UnmatchedAt        *time.Time      `json:"unmatched_at,omitempty" db:"unmatched_at"`
	MatchedAt          time.Time       `json:"matched_at" db:"matched_at"`
}

// New builds a Match with canonical (min, max) user ordering. Every creation
// path, the mutual-like ledger and the event acceptance flow alike, goes
// through this factory so the ordering invariant holds before any
// persistence call.
func New(userA, userB int64, score float64, context MatchContext) *Match {
	if userA > userB {
		userA, userB = userB, userA
	}

	contextJSON, _ := json.Marshal(context)

	return &Match{
		User1ID:            userA,
		User2ID:            userB,
		CompatibilityScore: score,
		MatchContext:       contextJSON,
		IsActive:           true,
	}
}

// PairKey returns the canonical (low, high) ordering for any two user ids.
func PairKey(userA, userB int64) (int64, int64) {
	if userA > userB {
		return userB, userA
	}
	return userA, userB
}

// Involves reports whether the given user is one side of the match.
func (m *Match) Involves(userID int64) bool {
	return m.User1ID == userID || m.User2ID == userID
}
