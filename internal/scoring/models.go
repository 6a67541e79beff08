package scoring

// ComponentScores is the fixed breakdown of a pairwise compatibility score.
// Every component is on a 0-100 scale before weighting.
type ComponentScores struct {
	Personality     float64 `json:"personality"`
	Attachment      float64 `json:"attachment"`
	Behavioral      float64 `json:"behavioral"`
	Values          float64 `json:"values"`
	Complementarity float64 `json:"complementarity"`
}

// Explanations is the human-readable analysis attached to a score.
type Explanations struct {
	StrongestConnections []string `json:"strongest_connections"`
	PotentialChallenges  []string `json:"potential_challenges"`
	RelationshipStyle    string   `json:"relationship_style"`
}

// Result is the score bundle produced for a pair of profiles. TotalScore is
// always within [1,99]; the engine never reports 0 or 100.
type Result struct {
	TotalScore      float64         `json:"total_score"`
	ComponentScores ComponentScores `json:"component_scores"`
	Explanations    Explanations    `json:"detailed_analysis"`
}

// Inputs carries the external, non-profile signals a score depends on.
// Behavior may be nil when no usage data exists for the pair; the behavioral
// component then falls back to a neutral 50.
type Inputs struct {
	Behavior    *BehaviorSimilarity
	AgeGapYears float64
}
