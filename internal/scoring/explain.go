package scoring

import (
	"fmt"
	"math"

	"github.com/amora-app/amora-backend/internal/profiles"
)

// Explanation thresholds.
const (
	sharedHighTraitFloor   = 70.0
	keywordOverlapStrong   = 80.0
	bothHighNeuroticism    = 70.0
	conscientiousnessGap   = 40.0
	lowAgreeablenessFloor  = 30.0
	dominantTraitThreshold = 65.0
)

const (
	maxStrengths  = 3
	maxChallenges = 2
)

// explain derives the strongest connections, potential challenges, and a
// coarse relationship-style label from fixed threshold rules.
func explain(a, b *profiles.TraitProfile, components ComponentScores) Explanations {
	return Explanations{
		StrongestConnections: strengths(a, b, components),
		PotentialChallenges:  challenges(a, b),
		RelationshipStyle:    relationshipStyle(a, b),
	}
}

func strengths(a, b *profiles.TraitProfile, components ComponentScores) []string {
	var found []string

	type trait struct {
		name string
		a, b float64
	}
	shared := []trait{
		{"agreeableness", a.Agreeableness, b.Agreeableness},
		{"conscientiousness", a.Conscientiousness, b.Conscientiousness},
		{"openness", a.Openness, b.Openness},
		{"extraversion", a.Extraversion, b.Extraversion},
	}
	for _, t := range shared {
		if t.a > sharedHighTraitFloor && t.b > sharedHighTraitFloor {
			found = append(found, fmt.Sprintf("You both score high on %s", t.name))
		}
	}

	if a.AttachmentStyle == profiles.AttachmentSecure && b.AttachmentStyle == profiles.AttachmentSecure {
		found = append(found, "You both have a secure attachment style")
	}

	if (a.Neuroticism+b.Neuroticism)/2 < bothStableNeuroticismCeiling {
		found = append(found, "You are both emotionally steady")
	}

	if components.Values > keywordOverlapStrong {
		found = append(found, "You share many of the same values")
	}

	if len(found) > maxStrengths {
		found = found[:maxStrengths]
	}
	return found
}

func challenges(a, b *profiles.TraitProfile) []string {
	var found []string

	if a.Neuroticism > bothHighNeuroticism && b.Neuroticism > bothHighNeuroticism {
		found = append(found, "Both of you feel stress intensely; conflicts may escalate quickly")
	}

	anxiousAvoidant := (a.AttachmentStyle == profiles.AttachmentAnxious && b.AttachmentStyle == profiles.AttachmentAvoidant) ||
		(a.AttachmentStyle == profiles.AttachmentAvoidant && b.AttachmentStyle == profiles.AttachmentAnxious)
	if anxiousAvoidant {
		found = append(found, "An anxious-avoidant pairing can fall into a pursue-withdraw cycle")
	}

	if math.Abs(a.Conscientiousness-b.Conscientiousness) > conscientiousnessGap {
		found = append(found, "Very different approaches to planning and order")
	}

	if a.Agreeableness < lowAgreeablenessFloor || b.Agreeableness < lowAgreeablenessFloor {
		found = append(found, "Low agreeableness on one side can make compromise harder")
	}

	if len(found) > maxChallenges {
		found = found[:maxChallenges]
	}
	return found
}

// relationshipStyle labels the pair by its dominant averaged trait.
func relationshipStyle(a, b *profiles.TraitProfile) string {
	avg := func(x, y float64) float64 { return (x + y) / 2 }

	type candidate struct {
		value float64
		label string
	}
	candidates := []candidate{
		{avg(a.Extraversion, b.Extraversion), "outgoing and social"},
		{avg(a.Agreeableness, b.Agreeableness), "warm and harmonious"},
		{avg(a.Conscientiousness, b.Conscientiousness), "structured and dependable"},
		{avg(a.Openness, b.Openness), "curious and exploratory"},
	}

	best := candidate{label: "balanced"}
	for _, c := range candidates {
		if c.value > dominantTraitThreshold && c.value > best.value {
			best = c
		}
	}
	return best.label
}
