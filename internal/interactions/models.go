package interactions

import (
	"fmt"
	"time"
)

// Kind is the type of a swipe interaction.
type Kind string

const (
	KindLike      Kind = "like"
	KindPass      Kind = "pass"
	KindSuperLike Kind = "super_like"
	KindBlock     Kind = "block"
	KindReport    Kind = "report"
)

// Valid reports whether the kind is one of the enumerated interaction types.
func (k Kind) Valid() bool {
	switch k {
	case KindLike, KindPass, KindSuperLike, KindBlock, KindReport:
		return true
	}
	return false
}

// Tier is the actor's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Interaction is one swipe-type action from actor to target. At most one
// interaction exists per ordered (actor, target) pair; IsMutual is
// write-once-true and never reverted.
type Interaction struct {
	ID        int64     `json:"id" db:"id"`
	ActorID   int64     `json:"actor_id" db:"actor_id"`
	TargetID  int64     `json:"target_id" db:"target_id"`
	Kind      Kind      `json:"kind" db:"kind"`
	IsMutual  bool      `json:"is_mutual" db:"is_mutual"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DailyLimits is the quota summary for one actor on the current day.
// Remaining is -1 for unlimited kinds.
type DailyLimits struct {
	Tier   Tier         `json:"tier"`
	Limits map[Kind]int `json:"limits"`
	Used   map[Kind]int `json:"used"`

	// ResetsAt is the actor's next local midnight.
	ResetsAt time.Time `json:"resets_at"`
}

// Remaining computes the remaining allowance for a kind, -1 when unlimited.
func (d *DailyLimits) Remaining(kind Kind) int {
	limit, ok := d.Limits[kind]
	if !ok || limit < 0 {
		return -1
	}
	remaining := limit - d.Used[kind]
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (d *DailyLimits) String() string {
	return fmt.Sprintf("tier=%s used=%v resets=%s", d.Tier, d.Used, d.ResetsAt.Format(time.RFC3339))
}
