// internal/events/strategies.go
// Event-type-specific pair scoring. Every strategy is a pure function over
// two participants' responses and the event's question set, so the batch
// matchmaker can evaluate pairs on any number of workers.

package events

import (
	"math"
	"sort"
	"strconv"
)

// Scores sit inside [1,99], matching the pairwise scorer's bounds.
const (
	pairScoreFloor   = 1.0
	pairScoreCeiling = 99.0

	// neutralPairScore is used when two participants share no answered
	// questions; there is no signal either way.
	neutralPairScore = 50.0

	maxMatchReasons = 3
)

// responses maps question id to the participant's raw response value.
type responses map[int64]string

// scorePair dispatches to the strategy for the event type. The switch is
// exhaustive over the enumerated types; anything else takes the generic
// identical-answer strategy.
func scorePair(eventType EventType, questions map[int64]*EventQuestion, a, b responses) (float64, []MatchReason) {
	var score float64
	switch eventType {
	case TypePersonalityQuiz:
		score = personalityQuizScore(questions, a, b)
	case TypeLifestyleMatching:
		score = lifestyleScore(questions, a, b)
	case TypeScenarioChallenge:
		score = scenarioScore(questions, a, b)
	case TypeValuesAlignment:
		score = valuesAlignmentScore(questions, a, b)
	default:
		score = genericScore(questions, a, b)
	}

	return score, matchReasons(questions, a, b)
}

// personalityQuizScore derives normalized Big-Five-like trait scores per
// participant from summed per-answer trait weights, then compares traits the
// same way the profile scorer does: 100 minus absolute difference, averaged
// over traits both participants answered into.
func personalityQuizScore(questions map[int64]*EventQuestion, a, b responses) float64 {
	traitsA, countsA := deriveTraits(questions, a)
	traitsB, countsB := deriveTraits(questions, b)

	sum, compared := 0.0, 0
	for i := 0; i < 5; i++ {
		if countsA[i] == 0 || countsB[i] == 0 {
			continue
		}
		sum += 100 - math.Abs(traitsA[i]-traitsB[i])
		compared++
	}

	if compared == 0 {
		return neutralPairScore
	}

	return clampPair(sum / float64(compared))
}

// deriveTraits sums the signed weights of each chosen option and normalizes
// per trait via 50 + (sum/(count*2))*50, clamped to [0,100]. count is the
// number of answered questions whose chosen option weights that trait.
func deriveTraits(questions map[int64]*EventQuestion, r responses) ([5]float64, [5]int) {
	var sums [5]float64
	var counts [5]int

	for questionID, value := range r {
		question, ok := questions[questionID]
		if !ok {
			continue
		}
		weights, ok := question.OptionWeights(value)
		if !ok {
			continue
		}

		values := weights.values()
		for i, w := range values {
			if w == 0 {
				continue
			}
			sums[i] += w
			counts[i]++
		}
	}

	var traits [5]float64
	for i := range traits {
		if counts[i] == 0 {
			continue
		}
		normalized := 50 + (sums[i]/(float64(counts[i])*2))*50
		traits[i] = math.Max(0, math.Min(100, normalized))
	}

	return traits, counts
}

// lifestyleScore rewards identical answers fully, gives partial credit for
// close answers on scale questions, and a small credit for differing
// multiple-choice answers.
func lifestyleScore(questions map[int64]*EventQuestion, a, b responses) float64 {
	total, common := 0.0, 0

	for questionID, valueA := range a {
		valueB, ok := b[questionID]
		if !ok {
			continue
		}
		question, ok := questions[questionID]
		if !ok {
			continue
		}
		common++
		total += answerCredit(question, valueA, valueB)
	}

	if common == 0 {
		return neutralPairScore
	}

	return clampPair(pairScoreFloor + (total/float64(common))*(pairScoreCeiling-pairScoreFloor))
}

// answerCredit is the shared per-question credit rule: 1.0 identical, scale
// closeness for scale questions, 0.2 for differing multiple choice.
func answerCredit(question *EventQuestion, valueA, valueB string) float64 {
	if valueA == valueB {
		return 1.0
	}

	if question.Kind == QuestionScale && question.MaxScale > 0 {
		numA, errA := strconv.ParseFloat(valueA, 64)
		numB, errB := strconv.ParseFloat(valueB, 64)
		if errA == nil && errB == nil {
			credit := 1 - math.Abs(numA-numB)/float64(question.MaxScale)
			return math.Max(0, credit)
		}
	}

	if question.Kind == QuestionMultipleChoice {
		return 0.2
	}

	return 0
}

// scenarioScore blends the identical-answer credit with how aligned the
// chosen options' trait weight vectors are. Two different answers that pull
// in the same trait direction still score well; opposed pulls score low.
func scenarioScore(questions map[int64]*EventQuestion, a, b responses) float64 {
	total, common := 0.0, 0

	for questionID, valueA := range a {
		valueB, ok := b[questionID]
		if !ok {
			continue
		}
		question, ok := questions[questionID]
		if !ok {
			continue
		}
		common++

		credit := answerCredit(question, valueA, valueB)
		total += credit*0.6 + weightAlignment(question, valueA, valueB)*0.4
	}

	if common == 0 {
		return neutralPairScore
	}

	return clampPair(pairScoreFloor + (total/float64(common))*(pairScoreCeiling-pairScoreFloor))
}

// weightAlignment maps the cosine of the two options' weight vectors onto
// [0,1]. Options without usable weights sit at the neutral 0.5.
func weightAlignment(question *EventQuestion, valueA, valueB string) float64 {
	weightsA, okA := question.OptionWeights(valueA)
	weightsB, okB := question.OptionWeights(valueB)
	if !okA || !okB || weightsA.IsZero() || weightsB.IsZero() {
		return 0.5
	}

	va, vb := weightsA.values(), weightsB.values()
	dot, normA, normB := 0.0, 0.0, 0.0
	for i := range va {
		dot += va[i] * vb[i]
		normA += va[i] * va[i]
		normB += vb[i] * vb[i]
	}

	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (1 + cosine) / 2
}

// valuesAlignmentScore weights each question's credit by its configured
// importance, so core-value questions dominate the outcome.
func valuesAlignmentScore(questions map[int64]*EventQuestion, a, b responses) float64 {
	weightedTotal, weightSum := 0.0, 0.0

	for questionID, valueA := range a {
		valueB, ok := b[questionID]
		if !ok {
			continue
		}
		question, ok := questions[questionID]
		if !ok {
			continue
		}

		importance := question.Importance
		if importance <= 0 {
			importance = 1
		}

		weightedTotal += answerCredit(question, valueA, valueB) * importance
		weightSum += importance
	}

	if weightSum == 0 {
		return neutralPairScore
	}

	return clampPair(pairScoreFloor + (weightedTotal/weightSum)*(pairScoreCeiling-pairScoreFloor))
}

// genericScore is the fallback: plain ratio of identical answers over
// commonly answered questions.
func genericScore(questions map[int64]*EventQuestion, a, b responses) float64 {
	identical, common := 0, 0

	for questionID, valueA := range a {
		valueB, ok := b[questionID]
		if !ok {
			continue
		}
		if _, ok := questions[questionID]; !ok {
			continue
		}
		common++
		if valueA == valueB {
			identical++
		}
	}

	if common == 0 {
		return neutralPairScore
	}

	ratio := float64(identical) / float64(common)
	return clampPair(pairScoreFloor + ratio*(pairScoreCeiling-pairScoreFloor))
}

// matchReasons classifies up to three commonly-answered questions as similar
// (identical answers) or complementary (opposite-signed trait pulls).
// Questions that are neither are skipped.
func matchReasons(questions map[int64]*EventQuestion, a, b responses) []MatchReason {
	// Walk questions in id order so a re-run reports the same reasons.
	commonIDs := make([]int64, 0, len(a))
	for questionID := range a {
		if _, ok := b[questionID]; ok {
			commonIDs = append(commonIDs, questionID)
		}
	}
	sort.Slice(commonIDs, func(i, j int) bool { return commonIDs[i] < commonIDs[j] })

	var reasons []MatchReason
	for _, questionID := range commonIDs {
		if len(reasons) >= maxMatchReasons {
			break
		}

		valueA, valueB := a[questionID], b[questionID]
		question, ok := questions[questionID]
		if !ok {
			continue
		}

		if valueA == valueB {
			reasons = append(reasons, MatchReason{
				QuestionID: questionID,
				Category:   ReasonSimilar,
				Detail:     question.Prompt,
			})
			continue
		}

		weightsA, okA := question.OptionWeights(valueA)
		weightsB, okB := question.OptionWeights(valueB)
		if okA && okB && weightsA.OpposesOn(weightsB) {
			reasons = append(reasons, MatchReason{
				QuestionID: questionID,
				Category:   ReasonComplementary,
				Detail:     question.Prompt,
			})
		}
	}

	return reasons
}

func clampPair(score float64) float64 {
	return math.Max(pairScoreFloor, math.Min(pairScoreCeiling, score))
}
