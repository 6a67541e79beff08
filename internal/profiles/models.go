package profiles

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// AttachmentStyle is the dominant attachment classification derived from a
// scored questionnaire.
type AttachmentStyle string

const (
	AttachmentSecure   AttachmentStyle = "secure"
	AttachmentAnxious  AttachmentStyle = "anxious"
	AttachmentAvoidant AttachmentStyle = "avoidant"
	AttachmentMixed    AttachmentStyle = "mixed"
)

// Index maps a style onto the row/column of the attachment compatibility
// table. Unknown styles are a construction-time error, never a silent zero.
func (s AttachmentStyle) Index() (int, error) {
	switch s {
	case AttachmentSecure:
		return 0, nil
	case AttachmentAnxious:
		return 1, nil
	case AttachmentAvoidant:
		return 2, nil
	case AttachmentMixed:
		return 3, nil
	}
	return 0, fmt.Errorf("unknown attachment style %q", s)
}

// TraitProfile is a user's scored psychological profile. A profile is created
// once its questionnaire is fully scored and is immutable afterwards; a full
// re-score inserts a new active row and deactivates the previous one.
type TraitProfile struct {
	ID     int64 `json:"id" db:"id"`
	UserID int64 `json:"user_id" db:"user_id"`

	// Big Five trait scores, each on a fixed 0-100 scale.
	Openness          float64 `json:"openness" db:"openness"`
	Conscientiousness float64 `json:"conscientiousness" db:"conscientiousness"`
	Extraversion      float64 `json:"extraversion" db:"extraversion"`
	Agreeableness     float64 `json:"agreeableness" db:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism" db:"neuroticism"`

	AttachmentStyle AttachmentStyle `json:"attachment_style" db:"attachment_style"`
	SecureScore     float64         `json:"secure_score" db:"secure_score"`
	AnxiousScore    float64         `json:"anxious_score" db:"anxious_score"`
	AvoidantScore   float64         `json:"avoidant_score" db:"avoidant_score"`

	CompatibilityKeywords pq.StringArray `json:"compatibility_keywords" db:"compatibility_keywords"`

	// ProfileStrength is a 0.0-1.0 confidence in the scored profile.
	ProfileStrength float64 `json:"profile_strength" db:"profile_strength"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate enforces the profile invariants before persistence: trait and
// attachment sub-scores in [0,100], strength in [0,1], known style.
func (p *TraitProfile) Validate() error {
	traits := map[string]float64{
		"openness":          p.Openness,
		"conscientiousness": p.Conscientiousness,
		"extraversion":      p.Extraversion,
		"agreeableness":     p.Agreeableness,
		"neuroticism":       p.Neuroticism,
		"secure_score":      p.SecureScore,
		"anxious_score":     p.AnxiousScore,
		"avoidant_score":    p.AvoidantScore,
	}
	for name, v := range traits {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s out of range: %v", name, v)
		}
	}
	if p.ProfileStrength < 0 || p.ProfileStrength > 1 {
		return fmt.Errorf("profile_strength out of range: %v", p.ProfileStrength)
	}
	if _, err := p.AttachmentStyle.Index(); err != nil {
		return err
	}
	return nil
}

// Keywords returns the compatibility keywords as a set.
func (p *TraitProfile) Keywords() map[string]bool {
	set := make(map[string]bool, len(p.CompatibilityKeywords))
	for _, k := range p.CompatibilityKeywords {
		set[k] = true
	}
	return set
}
