package scoring

import (
	"context"
	"math"

	"github.com/amora-app/amora-backend/internal/profiles"
)

// AgeProvider supplies user ages; the age gap is an external input to the
// scorer, not something it derives.
type AgeProvider interface {
	GetAge(ctx context.Context, userID int64) (int, error)
}

// Service scores pairs of users by id, resolving profiles and external
// signals through injected collaborators.
type Service interface {
	ScoreUsers(ctx context.Context, userA, userB int64) (*Result, error)
}

type service struct {
	repo     profiles.Repository
	behavior BehaviorProvider
	ages     AgeProvider
}

// NewService builds a scoring service. behavior and ages may be nil; the
// corresponding signals then degrade to their neutral values.
func NewService(repo profiles.Repository, behavior BehaviorProvider, ages AgeProvider) Service {
	return &service{repo: repo, behavior: behavior, ages: ages}
}

func (s *service) ScoreUsers(ctx context.Context, userA, userB int64) (*Result, error) {
	found, err := s.repo.GetActiveProfiles(ctx, []int64{userA, userB})
	if err != nil {
		return &Result{}, err
	}

	profileA, profileB := found[userA], found[userB]
	if profileA == nil || profileB == nil {
		return &Result{}, profiles.ErrMissingProfile
	}

	in := Inputs{
		Behavior:    s.pairBehavior(ctx, userA, userB),
		AgeGapYears: s.ageGap(ctx, userA, userB),
	}

	return Score(profileA, profileB, in)
}

func (s *service) pairBehavior(ctx context.Context, userA, userB int64) *BehaviorSimilarity {
	if s.behavior == nil {
		return nil
	}

	featuresA, err := s.behavior.GetBehaviorFeatures(ctx, userA)
	if err != nil {
		return nil
	}
	featuresB, err := s.behavior.GetBehaviorFeatures(ctx, userB)
	if err != nil {
		return nil
	}

	return CompareBehavior(featuresA, featuresB)
}

func (s *service) ageGap(ctx context.Context, userA, userB int64) float64 {
	if s.ages == nil {
		return 0
	}

	ageA, err := s.ages.GetAge(ctx, userA)
	if err != nil {
		return 0
	}
	ageB, err := s.ages.GetAge(ctx, userB)
	if err != nil {
		return 0
	}

	return math.Abs(float64(ageA - ageB))
}
