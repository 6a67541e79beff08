package matches

import (
	"context"
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized to perform this action")

type Service interface {
	GetMatches(ctx context.Context, userID int64, active bool) ([]*Match, error)
	IsMatched(ctx context.Context, userA, userB int64) (bool, error)

	// Unmatch deactivates the match; rows are never hard-deleted.
	Unmatch(ctx context.Context, matchID, userID int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetMatches(ctx context.Context, userID int64, active bool) ([]*Match, error) {
	return s.repo.GetUserMatches(ctx, userID, active)
}

func (s *service) IsMatched(ctx context.Context, userA, userB int64) (bool, error) {
	return s.repo.IsMatched(ctx, userA, userB)
}

func (s *service) Unmatch(ctx context.Context, matchID, userID int64) error {
	match, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return err
	}

	if !match.Involves(userID) {
		return ErrUnauthorized
	}

	now := time.Now()
	match.IsActive = false
	match.UnmatchedBy = &userID
	match.UnmatchedAt = &now

	return s.repo.Unmatch(ctx, match)
}
