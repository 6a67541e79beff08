package events

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType selects the pair-scoring strategy for a weekly event.
type EventType string

const (
	TypePersonalityQuiz   EventType = "personality_quiz"
	TypeLifestyleMatching EventType = "lifestyle_matching"
	TypeScenarioChallenge EventType = "scenario_challenge"
	TypeValuesAlignment   EventType = "values_alignment"
)

// EventStatus is the lifecycle of a weekly event.
type EventStatus string

const (
	StatusDraft      EventStatus = "draft"
	StatusOpen       EventStatus = "open"
	StatusProcessing EventStatus = "processing"
	StatusCompleted  EventStatus = "completed"
)

// WeeklyEvent is one themed questionnaire round whose completed participants
// get pairwise-matched in a batch.
type WeeklyEvent struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	Type      EventType   `json:"type" db:"type"`
	Status    EventStatus `json:"status" db:"status"`
	OpensAt   time.Time   `json:"opens_at" db:"opens_at"`
	MatchesAt time.Time   `json:"matches_at" db:"matches_at"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// QuestionKind distinguishes scale questions from multiple choice.
type QuestionKind string

const (
	QuestionScale          QuestionKind = "scale"
	QuestionMultipleChoice QuestionKind = "multiple_choice"
)

// TraitWeights is a signed per-trait weight vector in roughly [-2,+2],
// attached to answer options. Fixed fields rather than a loose map: a typo'd
// trait is a compile error, not a silent zero.
type TraitWeights struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

func (w TraitWeights) values() [5]float64 {
	return [5]float64{w.Openness, w.Conscientiousness, w.Extraversion, w.Agreeableness, w.Neuroticism}
}

// IsZero reports whether every trait weight is zero.
func (w TraitWeights) IsZero() bool {
	for _, v := range w.values() {
		if v != 0 {
			return false
		}
	}
	return true
}

// OpposesOn reports whether the two vectors carry opposite signs on at least
// one trait, the marker for a complementary answer pair.
func (w TraitWeights) OpposesOn(other TraitWeights) bool {
	a, b := w.values(), other.values()
	for i := range a {
		if a[i]*b[i] < 0 {
			return true
		}
	}
	return false
}

// QuestionOption is one selectable answer with its trait weighting.
type QuestionOption struct {
	Value   string       `json:"value"`
	Label   string       `json:"label,omitempty"`
	Weights TraitWeights `json:"weights"`
}

// OptionList is a jsonb-backed list of options.
type OptionList []QuestionOption

func (o OptionList) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *OptionList) Scan(src interface{}) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, o)
	case string:
		return json.Unmarshal([]byte(data), o)
	case nil:
		*o = nil
		return nil
	}
	return fmt.Errorf("unsupported options column type %T", src)
}

// EventQuestion is one questionnaire item within an event.
type EventQuestion struct {
	ID       int64        `json:"id" db:"id"`
	EventID  uuid.UUID    `json:"event_id" db:"event_id"`
	Prompt   string       `json:"prompt" db:"prompt"`
	Kind     QuestionKind `json:"kind" db:"kind"`
	MaxScale int          `json:"max_scale" db:"max_scale"`

	// Importance weights the question in importance-sensitive strategies.
	Importance float64 `json:"importance" db:"importance"`

	Options OptionList `json:"options" db:"options"`
}

// OptionWeights returns the trait weights of the option matching the
// response value, and whether one matched.
func (q *EventQuestion) OptionWeights(value string) (TraitWeights, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Weights, true
		}
	}
	return TraitWeights{}, false
}

// ParticipationStatus tracks a user's journey through one event.
// joined → completed is one-way; completed → matched | abandoned.
type ParticipationStatus string

const (
	ParticipationJoined    ParticipationStatus = "joined"
	ParticipationCompleted ParticipationStatus = "completed"
	ParticipationMatched   ParticipationStatus = "matched"
	ParticipationAbandoned ParticipationStatus = "abandoned"
)

type EventParticipation struct {
	ID          int64               `json:"id" db:"id"`
	EventID     uuid.UUID           `json:"event_id" db:"event_id"`
	UserID      int64               `json:"user_id" db:"user_id"`
	Status      ParticipationStatus `json:"status" db:"status"`
	JoinedAt    time.Time           `json:"joined_at" db:"joined_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty" db:"completed_at"`
}

type EventResponse struct {
	ID              int64  `json:"id" db:"id"`
	ParticipationID int64  `json:"participation_id" db:"participation_id"`
	QuestionID      int64  `json:"question_id" db:"question_id"`
	ResponseValue   string `json:"response_value" db:"response_value"`
	ResponseTimeMS  int    `json:"response_time_ms" db:"response_time_ms"`
}

// ReasonCategory classifies why a pair was matched on a question.
type ReasonCategory string

const (
	ReasonSimilar       ReasonCategory = "similar"
	ReasonComplementary ReasonCategory = "complementary"
)

type MatchReason struct {
	QuestionID int64          `json:"question_id"`
	Category   ReasonCategory `json:"category"`
	Detail     string         `json:"detail,omitempty"`
}

// ReasonList is a jsonb-backed list of match reasons.
type ReasonList []MatchReason

func (r ReasonList) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal([]MatchReason{})
	}
	return json.Marshal(r)
}

func (r *ReasonList) Scan(src interface{}) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, r)
	case string:
		return json.Unmarshal([]byte(data), r)
	case nil:
		*r = nil
		return nil
	}
	return fmt.Errorf("unsupported reasons column type %T", src)
}

// AcceptanceState is the derived state of an event match.
type AcceptanceState string

const (
	AcceptancePending       AcceptanceState = "pending"
	AcceptanceUserAAccepted AcceptanceState = "user_a_accepted"
	AcceptanceUserBAccepted AcceptanceState = "user_b_accepted"
	AcceptanceBothAccepted  AcceptanceState = "both_accepted"
)

// EventMatch is a provisional pairing inside one event. It becomes a
// canonical match only once both acceptance flags are true.
type EventMatch struct {
	ID                 int64      `json:"id" db:"id"`
	EventID            uuid.UUID  `json:"event_id" db:"event_id"`
	User1ID            int64      `json:"user1_id" db:"user1_id"`
	User2ID            int64      `json:"user2_id" db:"user2_id"`
	CompatibilityScore float64    `json:"compatibility_score" db:"compatibility_score"`
	MatchReasons       ReasonList `json:"match_reasons" db:"match_reasons"`
	UserAAccepted      bool       `json:"user_a_accepted" db:"user_a_accepted"`
	UserBAccepted      bool       `json:"user_b_accepted" db:"user_b_accepted"`
	UserADeclined      bool       `json:"user_a_declined" db:"user_a_declined"`
	UserBDeclined      bool       `json:"user_b_declined" db:"user_b_declined"`
	MatchedAt          *time.Time `json:"matched_at,omitempty" db:"matched_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// NewEventMatch builds an event match with canonical (min, max) ordering.
func NewEventMatch(eventID uuid.UUID, userA, userB int64, score float64, reasons []MatchReason) *EventMatch {
	if userA > userB {
		userA, userB = userB, userA
	}
	return &EventMatch{
		EventID:            eventID,
		User1ID:            userA,
		User2ID:            userB,
		CompatibilityScore: score,
		MatchReasons:       reasons,
	}
}

// State derives the acceptance state from the flags. Declines are tracked
// per side and do not block the other side's accept.
func (m *EventMatch) State() AcceptanceState {
	switch {
	case m.UserAAccepted && m.UserBAccepted:
		return AcceptanceBothAccepted
	case m.UserAAccepted:
		return AcceptanceUserAAccepted
	case m.UserBAccepted:
		return AcceptanceUserBAccepted
	}
	return AcceptancePending
}

// Involves reports whether the user is one side of the event match.
func (m *EventMatch) Involves(userID int64) bool {
	return m.User1ID == userID || m.User2ID == userID
}
