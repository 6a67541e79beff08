package scoring

import (
	"math"

	"github.com/amora-app/amora-backend/internal/profiles"
)

// Score computes the bounded compatibility score for a pair of trait
// profiles. It is a pure function: safe to evaluate in parallel across any
// number of candidate pairs, no shared mutable state, never blocks.
//
// Profile-only components (personality, attachment, values, complementarity)
// are symmetric in (a, b). A nil profile on either side yields a zero result
// and profiles.ErrMissingProfile.
func Score(a, b *profiles.TraitProfile, in Inputs) (*Result, error) {
	if a == nil || b == nil {
		RecordMissingProfile()
		return &Result{}, profiles.ErrMissingProfile
	}

	components := ComponentScores{
		Personality:     personalityScore(a, b),
		Attachment:      attachmentScore(a, b),
		Behavioral:      behavioralScore(in.Behavior),
		Values:          valuesScore(a, b),
		Complementarity: complementarityScore(a, b),
	}

	total := components.Personality*weightPersonality +
		components.Attachment*weightAttachment +
		components.Behavioral*weightBehavioral +
		components.Values*weightValues +
		components.Complementarity*weightComplementarity

	total = adjustTotal(total, a, b, in.AgeGapYears)

	result := &Result{
		TotalScore:      clamp(total, scoreFloor, scoreCeiling),
		ComponentScores: components,
		Explanations:    explain(a, b, components),
	}

	RecordCompatibilityScore(result.TotalScore)
	return result, nil
}

// personalityScore weights per-trait similarity (100 minus absolute
// difference) by the fixed trait importance table.
func personalityScore(a, b *profiles.TraitProfile) float64 {
	similarity := func(x, y float64) float64 {
		return 100 - math.Abs(x-y)
	}

	neuroticismTerm := similarity(a.Neuroticism, b.Neuroticism)
	if (a.Neuroticism+b.Neuroticism)/2 < bothStableNeuroticismCeiling {
		// Both-stable bonus, applied before weighting.
		neuroticismTerm += bothStableBonus
	}

	score := similarity(a.Agreeableness, b.Agreeableness)*traitWeightAgreeableness +
		similarity(a.Conscientiousness, b.Conscientiousness)*traitWeightConscientiousness +
		clamp(neuroticismTerm, 0, 100)*traitWeightNeuroticism +
		similarity(a.Extraversion, b.Extraversion)*traitWeightExtraversion +
		similarity(a.Openness, b.Openness)*traitWeightOpenness

	return clamp(score, 0, 100)
}

// attachmentScore looks the pair up in the fixed style table and applies the
// secure-partner bonus and severe anxious/avoidant mismatch penalty. The
// adjustments are symmetric: the order of a and b does not matter.
func attachmentScore(a, b *profiles.TraitProfile) float64 {
	ia, errA := a.AttachmentStyle.Index()
	ib, errB := b.AttachmentStyle.Index()
	if errA != nil || errB != nil {
		return 0
	}

	score := attachmentTable[ia][ib] * 100

	if a.SecureScore > secureScoreThreshold || b.SecureScore > secureScoreThreshold {
		score += securePartnerBonus
	}

	if (a.AnxiousScore > severeMismatchThreshold && b.AvoidantScore > severeMismatchThreshold) ||
		(b.AnxiousScore > severeMismatchThreshold && a.AvoidantScore > severeMismatchThreshold) {
		score -= severeMismatchPenalty
	}

	return clamp(score, 0, 100)
}

// behavioralScore consumes externally supplied usage-pattern similarity.
// With no usage data for the pair the component is a neutral 50.
func behavioralScore(sim *BehaviorSimilarity) float64 {
	if sim == nil {
		return 50
	}

	score := sim.ResponseTimeCloseness*behaviorWeightResponseTime +
		sim.ActivityCloseness*behaviorWeightActivity +
		sim.TextStyleCloseness*behaviorWeightTextStyle +
		sim.ActiveHoursOverlap*behaviorWeightActiveHours

	return clamp(score, 0, 100)
}

// valuesScore scales Jaccard keyword overlap to 0-100 and adds the fixed
// bonuses for high-value shared keywords.
func valuesScore(a, b *profiles.TraitProfile) float64 {
	keywordsA := a.Keywords()
	keywordsB := b.Keywords()

	if len(keywordsA) == 0 || len(keywordsB) == 0 {
		return 50
	}

	shared := 0
	bonus := 0.0
	for k := range keywordsA {
		if keywordsB[k] {
			shared++
			bonus += keywordBonuses[k]
		}
	}

	union := len(keywordsA) + len(keywordsB) - shared
	score := float64(shared)/float64(union)*100 + bonus

	return clamp(score, 0, 100)
}

// complementarityScore rewards moderate trait differences: enough contrast
// to be interesting, not enough to clash.
func complementarityScore(a, b *profiles.TraitProfile) float64 {
	score := 0.0

	if d := math.Abs(a.Extraversion - b.Extraversion); d > complementExtraversionLow && d < complementExtraversionHigh {
		score += complementExtraversionBonus
	}
	if d := math.Abs(a.Conscientiousness - b.Conscientiousness); d > complementConscientiousnessLow && d < complementConscientiousnessHigh {
		score += complementConscientiousnessBonus
	}
	if d := math.Abs(a.Openness - b.Openness); d > complementOpennessLow && d < complementOpennessHigh {
		score += complementOpennessBonus
	}

	return math.Min(score, complementarityCap)
}

func adjustTotal(total float64, a, b *profiles.TraitProfile, ageGapYears float64) float64 {
	if (a.Neuroticism+b.Neuroticism)/2 > highNeuroticismMean {
		total -= highNeuroticismPenalty
	}

	if a.AttachmentStyle == profiles.AttachmentSecure && b.AttachmentStyle == profiles.AttachmentSecure {
		total += bothSecureBonus
	}

	if (a.ProfileStrength+b.ProfileStrength)/2 < weakProfileStrengthMean {
		total *= weakProfileMultiplier
	}

	if gap := math.Abs(ageGapYears); gap > ageGapToleranceYears {
		total -= math.Min((gap-ageGapToleranceYears)*ageGapPenaltyPerYear, ageGapPenaltyMax)
	}

	return total
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
