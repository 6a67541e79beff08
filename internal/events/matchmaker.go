package events

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type scoredPair struct {
	userA, userB int64
	score        float64
	reasons      []MatchReason
}

// ProcessEventMatches scores every pair of completed participants and
// persists the resulting event matches. Candidate persistence and the
// open -> processing transition commit in one transaction: a failed batch
// rolls back entirely and leaves the event open, so the next scheduler
// sweep retries it. Completing the event is left to whichever consumer
// drains the matches. Re-running the batch inserts nothing new: existing
// pairs are skipped and a processed event short-circuits to its stored
// matches.
func (s *service) ProcessEventMatches(ctx context.Context, eventID uuid.UUID) ([]*EventMatch, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == StatusProcessing || event.Status == StatusCompleted {
		return s.repo.GetEventMatches(ctx, eventID)
	}
	if event.Status != StatusOpen {
		return nil, ErrEventNotOpen
	}

	participants, err := s.repo.GetCompletedParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}

	started := s.now()

	// A batch needs at least one pair; fewer participants is a no-op, not
	// an error. The event still transitions so consumers see it settled.
	if len(participants) < 2 {
		err := s.repo.InTx(ctx, func(tx Tx) error {
			return tx.SetEventStatus(ctx, eventID, StatusProcessing)
		})
		if err != nil {
			return nil, err
		}
		RecordBatchRun(event.Type, 0, s.now().Sub(started))
		return []*EventMatch{}, nil
	}

	questions, err := s.repo.GetQuestions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	responsesByUser, err := s.repo.GetResponsesByUser(ctx, eventID)
	if err != nil {
		return nil, err
	}

	pairs := s.scorePairs(ctx, event.Type, participants, questions, responsesByUser)

	err = s.repo.InTx(ctx, func(tx Tx) error {
		for _, pair := range pairs {
			exists, err := tx.EventMatchExists(ctx, eventID, pair.userA, pair.userB)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			match := NewEventMatch(eventID, pair.userA, pair.userB, pair.score, pair.reasons)
			if err := tx.InsertEventMatch(ctx, match); err != nil {
				return err
			}
		}
		return tx.SetEventStatus(ctx, eventID, StatusProcessing)
	})
	if err != nil {
		return nil, err
	}

	RecordBatchRun(event.Type, len(pairs), s.now().Sub(started))
	return s.repo.GetEventMatches(ctx, eventID)
}

// scorePairs evaluates all n*(n-1)/2 pairs on a bounded worker pool. The
// strategies are pure functions over shared read-only inputs, so workers
// write only their own slot of the result slice.
func (s *service) scorePairs(
	ctx context.Context,
	eventType EventType,
	participants []*EventParticipation,
	questions map[int64]*EventQuestion,
	responsesByUser map[int64]map[int64]string,
) []scoredPair {
	n := len(participants)
	pairs := make([]scoredPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, scoredPair{
				userA: participants[i].UserID,
				userB: participants[j].UserID,
			})
		}
	}

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for idx := range pairs {
		idx := idx
		group.Go(func() error {
			pair := &pairs[idx]
			a := responses(responsesByUser[pair.userA])
			b := responses(responsesByUser[pair.userB])
			pair.score, pair.reasons = scorePair(eventType, questions, a, b)
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = group.Wait()

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	return pairs
}
