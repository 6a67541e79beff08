// internal/scoring/tables.go
// Fixed lookup tables for the compatibility engine. Everything here is
// exhaustively enumerated so a missing entry is a compile-time or
// construction-time error, never a silent zero at runtime.

package scoring

// Component weights. Must sum to 1.0.
const (
	weightPersonality     = 0.40
	weightAttachment      = 0.25
	weightBehavioral      = 0.20
	weightValues          = 0.10
	weightComplementarity = 0.05
)

// Per-trait importance within the personality component. Agreeableness and
// conscientiousness similarity predict relationship quality more strongly
// than openness similarity, so the weights are deliberately asymmetric.
const (
	traitWeightAgreeableness     = 0.35
	traitWeightConscientiousness = 0.25
	traitWeightNeuroticism       = 0.20
	traitWeightExtraversion      = 0.12
	traitWeightOpenness          = 0.08
)

// Both users averaging below this neuroticism get a flat bonus on the
// neuroticism similarity term before weighting.
const (
	bothStableNeuroticismCeiling = 40.0
	bothStableBonus              = 20.0
)

// attachmentTable maps (style index, style index) to a base compatibility in
// [0,1]. Symmetric. The secure-secure diagonal is the maximum; the
// anxious-avoidant cell is the minimum, reflecting the pursue-withdraw
// dynamic.
var attachmentTable = [4][4]float64{
	//               secure anxious avoidant mixed
	/* secure   */ {0.95, 0.65, 0.60, 0.70},
	/* anxious  */ {0.65, 0.45, 0.25, 0.40},
	/* avoidant */ {0.60, 0.25, 0.35, 0.40},
	/* mixed    */ {0.70, 0.40, 0.40, 0.50},
}

// Attachment sub-score adjustments.
const (
	secureScoreThreshold = 60.0 // one secure partner helps
	securePartnerBonus   = 10.0

	severeMismatchThreshold = 70.0 // anxious on one side, avoidant on the other
	severeMismatchPenalty   = 15.0
)

// Behavioral feature weights within the behavioral component.
const (
	behaviorWeightResponseTime = 0.30
	behaviorWeightActivity     = 0.25
	behaviorWeightTextStyle    = 0.25
	behaviorWeightActiveHours  = 0.20
)

// keywordBonuses are flat additions to the values component when both users
// carry the keyword. Applied on top of the Jaccard overlap, capped at 100.
var keywordBonuses = map[string]float64{
	"family_oriented":  15,
	"stable_lifestyle": 12,
	"wants_children":   10,
	"health_focused":   8,
}

// Complementarity bonuses reward moderate, not extreme, trait differences.
const (
	complementExtraversionLow   = 20.0
	complementExtraversionHigh  = 40.0
	complementExtraversionBonus = 15.0

	complementConscientiousnessLow   = 15.0
	complementConscientiousnessHigh  = 30.0
	complementConscientiousnessBonus = 10.0

	complementOpennessLow   = 20.0
	complementOpennessHigh  = 35.0
	complementOpennessBonus = 8.0

	complementarityCap = 50.0
)

// Research-based global adjustments applied to the weighted total.
const (
	highNeuroticismMean    = 70.0
	highNeuroticismPenalty = 10.0

	bothSecureBonus = 5.0

	weakProfileStrengthMean = 0.6
	weakProfileMultiplier   = 0.95

	ageGapToleranceYears = 5.0
	ageGapPenaltyPerYear = 0.5
	ageGapPenaltyMax     = 5.0
)

// Final score bounds. Never 0 or 100: the engine does not imply certainty.
const (
	scoreFloor   = 1.0
	scoreCeiling = 99.0
)
