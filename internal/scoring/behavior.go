// internal/scoring/behavior.go
// Usage-pattern similarity. These features come from message and session
// analytics owned by collaborators; this package only folds them into the
// behavioral component.

package scoring

import (
	"context"
	"math"
)

// BehaviorFeatures are one user's observed usage patterns.
type BehaviorFeatures struct {
	AvgResponseSeconds float64      `json:"avg_response_seconds"`
	ActivityLevel      float64      `json:"activity_level"` // 0-100
	AvgMessageLength   float64      `json:"avg_message_length"`
	EmojiRate          float64      `json:"emoji_rate"` // emoji per message
	ActiveHours        map[int]bool `json:"active_hours"`
}

// BehaviorSimilarity is the pairwise closeness of two users' usage patterns,
// each dimension on a 0-100 scale.
type BehaviorSimilarity struct {
	ResponseTimeCloseness float64 `json:"response_time_closeness"`
	ActivityCloseness     float64 `json:"activity_closeness"`
	TextStyleCloseness    float64 `json:"text_style_closeness"`
	ActiveHoursOverlap    float64 `json:"active_hours_overlap"`
}

// BehaviorProvider supplies usage features per user. Implementations live in
// the analytics collaborator; a nil provider (or a miss) degrades to the
// neutral behavioral component.
type BehaviorProvider interface {
	GetBehaviorFeatures(ctx context.Context, userID int64) (*BehaviorFeatures, error)
}

// CompareBehavior folds two users' raw usage features into pairwise
// closeness values. Either side nil yields nil.
func CompareBehavior(a, b *BehaviorFeatures) *BehaviorSimilarity {
	if a == nil || b == nil {
		return nil
	}

	return &BehaviorSimilarity{
		ResponseTimeCloseness: ratioCloseness(a.AvgResponseSeconds, b.AvgResponseSeconds),
		ActivityCloseness:     100 - math.Abs(a.ActivityLevel-b.ActivityLevel),
		TextStyleCloseness:    textStyleCloseness(a, b),
		ActiveHoursOverlap:    hoursOverlap(a.ActiveHours, b.ActiveHours),
	}
}

// ratioCloseness scores how close two positive magnitudes are, as the ratio
// of the smaller to the larger scaled to 0-100. Zero on both sides counts as
// identical.
func ratioCloseness(x, y float64) float64 {
	if x <= 0 && y <= 0 {
		return 100
	}
	if x <= 0 || y <= 0 {
		return 0
	}
	return math.Min(x, y) / math.Max(x, y) * 100
}

func textStyleCloseness(a, b *BehaviorFeatures) float64 {
	length := ratioCloseness(a.AvgMessageLength, b.AvgMessageLength)

	// Emoji rates are small fractions; difference of 1.0 is maximally far.
	emoji := 100 * (1 - math.Min(math.Abs(a.EmojiRate-b.EmojiRate), 1))

	return length*0.7 + emoji*0.3
}

// hoursOverlap is the Jaccard ratio of the two active-hour sets, 0-100.
func hoursOverlap(a, b map[int]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0
	for h := range a {
		if b[h] {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	return float64(shared) / float64(union) * 100
}
