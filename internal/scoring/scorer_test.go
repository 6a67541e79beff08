package scoring

import (
	"testing"

	"github.com/lib/pq"

	"github.com/amora-app/amora-backend/internal/profiles"
)

func testProfile(mutate func(*profiles.TraitProfile)) *profiles.TraitProfile {
	p := &profiles.TraitProfile{
		Openness:          60,
		Conscientiousness: 60,
		Extraversion:      60,
		Agreeableness:     60,
		Neuroticism:       30,
		AttachmentStyle:   profiles.AttachmentSecure,
		SecureScore:       75,
		AnxiousScore:      20,
		AvoidantScore:     20,
		ProfileStrength:   0.9,
		IsActive:          true,
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestScoreMissingProfile(t *testing.T) {
	if _, err := Score(nil, testProfile(nil), Inputs{}); err != profiles.ErrMissingProfile {
		t.Fatalf("expected ErrMissingProfile, got %v", err)
	}
	if _, err := Score(testProfile(nil), nil, Inputs{}); err != profiles.ErrMissingProfile {
		t.Fatalf("expected ErrMissingProfile, got %v", err)
	}
}

func TestScoreBounds(t *testing.T) {
	cases := []struct {
		name string
		a, b *profiles.TraitProfile
		in   Inputs
	}{
		{
			name: "identical profiles",
			a:    testProfile(nil),
			b:    testProfile(nil),
		},
		{
			name: "worst case pair",
			a: testProfile(func(p *profiles.TraitProfile) {
				p.Openness, p.Conscientiousness, p.Extraversion, p.Agreeableness = 0, 0, 0, 0
				p.Neuroticism = 100
				p.AttachmentStyle = profiles.AttachmentAnxious
				p.SecureScore, p.AnxiousScore = 10, 90
				p.ProfileStrength = 0.2
			}),
			b: testProfile(func(p *profiles.TraitProfile) {
				p.Openness, p.Conscientiousness, p.Extraversion, p.Agreeableness = 100, 100, 100, 100
				p.Neuroticism = 100
				p.AttachmentStyle = profiles.AttachmentAvoidant
				p.SecureScore, p.AvoidantScore = 10, 90
				p.ProfileStrength = 0.2
			}),
			in: Inputs{AgeGapYears: 30},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Score(tc.a, tc.b, tc.in)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if result.TotalScore < 1 || result.TotalScore > 99 {
				t.Fatalf("total score %v outside [1,99]", result.TotalScore)
			}
		})
	}
}

func TestScoreSymmetric(t *testing.T) {
	a := testProfile(func(p *profiles.TraitProfile) {
		p.Openness, p.Extraversion = 80, 30
		p.AttachmentStyle = profiles.AttachmentAnxious
		p.CompatibilityKeywords = pq.StringArray{"family_oriented", "travel"}
	})
	b := testProfile(func(p *profiles.TraitProfile) {
		p.Conscientiousness, p.Agreeableness = 85, 40
		p.AttachmentStyle = profiles.AttachmentMixed
		p.CompatibilityKeywords = pq.StringArray{"family_oriented", "foodie"}
	})

	ab, err := Score(a, b, Inputs{AgeGapYears: 7})
	if err != nil {
		t.Fatalf("Score(a, b) failed: %v", err)
	}
	ba, err := Score(b, a, Inputs{AgeGapYears: 7})
	if err != nil {
		t.Fatalf("Score(b, a) failed: %v", err)
	}

	if ab.TotalScore != ba.TotalScore {
		t.Fatalf("score not symmetric: %v vs %v", ab.TotalScore, ba.TotalScore)
	}
	if ab.ComponentScores != ba.ComponentScores {
		t.Fatalf("components not symmetric: %+v vs %+v", ab.ComponentScores, ba.ComponentScores)
	}
}

func TestIdenticalProfileComponents(t *testing.T) {
	a, b := testProfile(nil), testProfile(nil)

	result, err := Score(a, b, Inputs{})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if result.ComponentScores.Personality != 100 {
		t.Fatalf("identical profiles should have personality 100, got %v", result.ComponentScores.Personality)
	}
	if result.ComponentScores.Attachment < 90 {
		t.Fatalf("secure-secure attachment should be at least 90, got %v", result.ComponentScores.Attachment)
	}
}

func TestAttachmentOrdering(t *testing.T) {
	secureA := testProfile(nil)
	secureB := testProfile(nil)
	anxious := testProfile(func(p *profiles.TraitProfile) {
		p.AttachmentStyle = profiles.AttachmentAnxious
		p.SecureScore, p.AnxiousScore = 20, 80
	})
	avoidant := testProfile(func(p *profiles.TraitProfile) {
		p.AttachmentStyle = profiles.AttachmentAvoidant
		p.SecureScore, p.AvoidantScore = 20, 80
	})

	best := attachmentScore(secureA, secureB)
	worst := attachmentScore(anxious, avoidant)

	if best <= worst {
		t.Fatalf("secure-secure (%v) should beat anxious-avoidant (%v)", best, worst)
	}
	if worst > 15 {
		t.Fatalf("anxious-avoidant with severe mismatch should score low, got %v", worst)
	}
}

func TestHighlyCompatiblePair(t *testing.T) {
	a := testProfile(func(p *profiles.TraitProfile) {
		p.Openness, p.Conscientiousness, p.Extraversion = 80, 80, 60
		p.Agreeableness, p.Neuroticism = 85, 25
	})
	b := testProfile(func(p *profiles.TraitProfile) {
		p.Openness, p.Conscientiousness, p.Extraversion = 78, 75, 65
		p.Agreeableness, p.Neuroticism = 82, 25
	})

	result, err := Score(a, b, Inputs{})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if result.TotalScore <= 70 {
		t.Fatalf("highly compatible pair should exceed 70, got %v", result.TotalScore)
	}
}

func TestValuesScore(t *testing.T) {
	cases := []struct {
		name     string
		a, b     pq.StringArray
		expected float64
	}{
		{name: "no keywords is neutral", a: nil, b: pq.StringArray{"travel"}, expected: 50},
		{name: "disjoint sets", a: pq.StringArray{"travel"}, b: pq.StringArray{"foodie"}, expected: 0},
		{
			// Jaccard 1.0 -> 100, bonus clamped away.
			name:     "identical sets",
			a:        pq.StringArray{"family_oriented", "travel"},
			b:        pq.StringArray{"family_oriented", "travel"},
			expected: 100,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := testProfile(func(p *profiles.TraitProfile) { p.CompatibilityKeywords = tc.a })
			b := testProfile(func(p *profiles.TraitProfile) { p.CompatibilityKeywords = tc.b })
			if got := valuesScore(a, b); got != tc.expected {
				t.Fatalf("valuesScore = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestAgeGapPenalty(t *testing.T) {
	a, b := testProfile(nil), testProfile(nil)

	within, err := Score(a, b, Inputs{AgeGapYears: 4})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	beyond, err := Score(a, b, Inputs{AgeGapYears: 13})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	extreme, err := Score(a, b, Inputs{AgeGapYears: 40})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if within.TotalScore-beyond.TotalScore != 4 {
		t.Fatalf("13-year gap should cost 4 points over a 4-year gap, got %v", within.TotalScore-beyond.TotalScore)
	}
	// Penalty is capped at 5.
	if beyond.TotalScore-extreme.TotalScore != 1 {
		t.Fatalf("age gap penalty should cap at 5 points, diff %v", beyond.TotalScore-extreme.TotalScore)
	}
}

func TestBehavioralComponent(t *testing.T) {
	if got := behavioralScore(nil); got != 50 {
		t.Fatalf("nil behavior similarity should be neutral 50, got %v", got)
	}

	perfect := &BehaviorSimilarity{
		ResponseTimeCloseness: 100,
		ActivityCloseness:     100,
		TextStyleCloseness:    100,
		ActiveHoursOverlap:    100,
	}
	if got := behavioralScore(perfect); got != 100 {
		t.Fatalf("perfect similarity should score 100, got %v", got)
	}
}

func TestCompareBehavior(t *testing.T) {
	night := &BehaviorFeatures{
		AvgResponseSeconds: 120,
		ActivityLevel:      80,
		AvgMessageLength:   40,
		EmojiRate:          0.2,
		ActiveHours:        map[int]bool{21: true, 22: true, 23: true},
	}

	if sim := CompareBehavior(nil, night); sim != nil {
		t.Fatalf("nil side should yield nil similarity, got %+v", sim)
	}

	sim := CompareBehavior(night, night)
	if sim == nil {
		t.Fatal("expected similarity for identical features")
	}
	if sim.ResponseTimeCloseness != 100 || sim.ActivityCloseness != 100 || sim.ActiveHoursOverlap != 100 {
		t.Fatalf("identical features should be maximally close: %+v", sim)
	}

	morning := &BehaviorFeatures{
		AvgResponseSeconds: 120,
		ActivityLevel:      80,
		AvgMessageLength:   40,
		EmojiRate:          0.2,
		ActiveHours:        map[int]bool{7: true, 8: true},
	}
	if overlap := CompareBehavior(night, morning).ActiveHoursOverlap; overlap != 0 {
		t.Fatalf("disjoint active hours should not overlap, got %v", overlap)
	}
}
