package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/amora-app/amora-backend/internal/matches"
)

var ErrMatchFinalized = errors.New("event match already accepted by both sides")

// AcceptEventMatch records one side's acceptance. Accepting twice is a
// no-op. The moment both sides have accepted, the canonical match is
// created in the same transaction, the pair's participations flip to
// matched, and matched_at is stamped.
func (s *service) AcceptEventMatch(ctx context.Context, matchID, userID int64) (*EventMatch, error) {
	var result *EventMatch

	err := s.repo.InTx(ctx, func(tx Tx) error {
		match, err := tx.GetEventMatchForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.Involves(userID) {
			return ErrNotYourMatch
		}

		isUserA := match.User1ID == userID
		if (isUserA && match.UserADeclined) || (!isUserA && match.UserBDeclined) {
			return ErrAlreadyDeclined
		}

		alreadyBoth := match.State() == AcceptanceBothAccepted
		if isUserA {
			match.UserAAccepted = true
		} else {
			match.UserBAccepted = true
		}

		if match.State() == AcceptanceBothAccepted && !alreadyBoth {
			now := s.now()
			match.MatchedAt = &now

			canonical := matches.New(match.User1ID, match.User2ID, match.CompatibilityScore, matches.MatchContext{
				Source: fmt.Sprintf("%s%s", matches.SourceEventPrefix, match.EventID),
			})
			if _, err := tx.CreateCanonicalMatch(ctx, canonical); err != nil {
				return err
			}
			if err := tx.MarkParticipantsMatched(ctx, match.EventID, match.User1ID, match.User2ID); err != nil {
				return err
			}

			RecordMutualAcceptance()
		}

		if err := tx.UpdateEventMatchFlags(ctx, match); err != nil {
			return err
		}

		result = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	RecordAcceptanceDecision("accept")
	return result, nil
}

// DeclineEventMatch records one side's decline. Declining is idempotent
// and only blocked once both sides have already accepted.
func (s *service) DeclineEventMatch(ctx context.Context, matchID, userID int64) (*EventMatch, error) {
	var result *EventMatch

	err := s.repo.InTx(ctx, func(tx Tx) error {
		match, err := tx.GetEventMatchForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.Involves(userID) {
			return ErrNotYourMatch
		}
		if match.State() == AcceptanceBothAccepted {
			return ErrMatchFinalized
		}

		if match.User1ID == userID {
			match.UserADeclined = true
			match.UserAAccepted = false
		} else {
			match.UserBDeclined = true
			match.UserBAccepted = false
		}

		if err := tx.UpdateEventMatchFlags(ctx, match); err != nil {
			return err
		}

		result = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	RecordAcceptanceDecision("decline")
	return result, nil
}
