package interactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/amora-app/amora-backend/internal/matches"
	"github.com/amora-app/amora-backend/internal/scoring"
)

var (
	ErrSelfInteraction      = errors.New("cannot interact with yourself")
	ErrDuplicateInteraction = errors.New("interaction already recorded for this user")
	ErrQuotaExceeded        = errors.New("daily limit reached for this interaction type")
	ErrInvalidKind          = errors.New("invalid interaction kind")
)

// Neutral score used when the scorer cannot produce one, e.g. a user with no
// trait profile yet. The match is still created; the score just carries no
// signal.
const fallbackMatchScore = 50.0

// SwipeResult is the outcome of one recorded interaction.
type SwipeResult struct {
	Interaction *Interaction   `json:"interaction"`
	IsMutual    bool           `json:"is_mutual"`
	Match       *matches.Match `json:"match,omitempty"`
}

type Service interface {
	// RecordInteraction validates, quota-checks, and inserts one
	// interaction, detecting reciprocity and creating the canonical match
	// atomically when both sides have liked each other.
	RecordInteraction(ctx context.Context, actorID, targetID int64, kind Kind) (*SwipeResult, error)

	// GetDailyLimits reports quota usage with the same day boundary and
	// counting logic the write path enforces.
	GetDailyLimits(ctx context.Context, userID int64) (*DailyLimits, error)
}

type service struct {
	repo      Repository
	directory UserDirectory
	scorer    scoring.Service
	redis     *redis.Client

	now func() time.Time
}

func NewService(repo Repository, directory UserDirectory, scorer scoring.Service, redisClient *redis.Client) Service {
	return &service{
		repo:      repo,
		directory: directory,
		scorer:    scorer,
		redis:     redisClient,
		now:       time.Now,
	}
}

func (s *service) RecordInteraction(ctx context.Context, actorID, targetID int64, kind Kind) (*SwipeResult, error) {
	if actorID == targetID {
		return nil, ErrSelfInteraction
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	tier, err := s.directory.GetTier(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier: %w", err)
	}

	loc, err := s.directory.GetLocation(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	result := &SwipeResult{}

	// The whole pipeline runs in one transaction behind a per-actor lock:
	// duplicate check, quota check, insert, reciprocity, match creation.
	// Either all of it commits or none of it does.
	err = s.repo.InTx(ctx, func(tx Tx) error {
		if err := tx.LockActor(ctx, actorID); err != nil {
			return err
		}

		exists, err := tx.InteractionExists(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		// Blocks overwrite earlier interactions; everything else is
		// one-shot per ordered pair.
		if exists && kind != KindBlock {
			return ErrDuplicateInteraction
		}

		if limit := limitFor(tier, kind); limit != unlimited {
			from, to := dayWindow(s.now(), loc)
			used, err := tx.CountKind(ctx, actorID, kind, from, to)
			if err != nil {
				return err
			}
			if used >= limit {
				return ErrQuotaExceeded
			}
		}

		interaction := &Interaction{ActorID: actorID, TargetID: targetID, Kind: kind}
		if err := tx.Insert(ctx, interaction); err != nil {
			return err
		}
		result.Interaction = interaction

		switch kind {
		case KindLike, KindSuperLike:
			return s.resolveReciprocity(ctx, tx, interaction, result)
		case KindBlock:
			// A block also dissolves any existing match between the pair.
			return tx.DeactivateMatch(ctx, actorID, targetID, actorID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			RecordQuotaRejection(string(kind))
		}
		return nil, err
	}

	RecordSwipe(string(kind))
	if result.IsMutual {
		RecordMutualMatch()
	}
	s.invalidateLimitsCache(ctx, actorID, loc)

	return result, nil
}

// resolveReciprocity checks for the reverse interaction of the same kind
// and, when found, marks both rows mutual and creates exactly one canonical
// match. Marking mutual without creating the match (or the reverse) would be
// a correctness bug, so both happen inside the caller's transaction.
func (s *service) resolveReciprocity(ctx context.Context, tx Tx, interaction *Interaction, result *SwipeResult) error {
	reciprocal, err := tx.FindReciprocal(ctx, interaction.ActorID, interaction.TargetID, interaction.Kind)
	if err != nil {
		return err
	}
	if reciprocal == nil {
		return nil
	}

	if err := tx.MarkMutual(ctx, interaction.ID, reciprocal.ID); err != nil {
		return err
	}
	interaction.IsMutual = true

	pairScore := fallbackMatchScore
	matchContext := matches.MatchContext{Source: matches.SourceMutualLike}
	if scored, err := s.scorer.ScoreUsers(ctx, interaction.ActorID, interaction.TargetID); err != nil {
		log.Printf("scoring pair (%d, %d) failed, using fallback: %v", interaction.ActorID, interaction.TargetID, err)
	} else {
		pairScore = scored.TotalScore
		matchContext.ComponentScores = scored.ComponentScores
		matchContext.Explanations = scored.Explanations
	}

	match := matches.New(interaction.ActorID, interaction.TargetID, pairScore, matchContext)

	created, err := tx.CreateMatch(ctx, match)
	if err != nil {
		return err
	}

	result.IsMutual = true
	result.Match = created
	return nil
}

func (s *service) GetDailyLimits(ctx context.Context, userID int64) (*DailyLimits, error) {
	tier, err := s.directory.GetTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier: %w", err)
	}

	loc, err := s.directory.GetLocation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	from, to := dayWindow(s.now(), loc)

	if cached := s.cachedLimits(ctx, userID, from); cached != nil {
		return cached, nil
	}

	limits := &DailyLimits{
		Tier:     tier,
		Limits:   map[Kind]int{},
		Used:     map[Kind]int{},
		ResetsAt: to,
	}

	for _, kind := range []Kind{KindLike, KindSuperLike, KindPass, KindBlock, KindReport} {
		limit := limitFor(tier, kind)
		limits.Limits[kind] = limit
		if limit == unlimited {
			continue
		}

		used, err := s.repo.CountKind(ctx, userID, kind, from, to)
		if err != nil {
			return nil, err
		}
		limits.Used[kind] = used
	}

	s.cacheLimits(ctx, userID, from, to, limits)
	return limits, nil
}

func limitsCacheKey(userID int64, dayStart time.Time) string {
	return fmt.Sprintf("interactions:limits:%d:%s", userID, dayStart.UTC().Format("2006-01-02T15"))
}

func (s *service) cachedLimits(ctx context.Context, userID int64, dayStart time.Time) *DailyLimits {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, limitsCacheKey(userID, dayStart)).Bytes()
	if err != nil {
		return nil
	}

	var limits DailyLimits
	if err := json.Unmarshal(data, &limits); err != nil {
		return nil
	}
	return &limits
}

func (s *service) cacheLimits(ctx context.Context, userID int64, dayStart, dayEnd time.Time, limits *DailyLimits) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(limits)
	if err != nil {
		return
	}

	ttl := time.Until(dayEnd)
	if ttl <= 0 {
		return
	}
	s.redis.Set(ctx, limitsCacheKey(userID, dayStart), data, ttl)
}

func (s *service) invalidateLimitsCache(ctx context.Context, userID int64, loc *time.Location) {
	if s.redis == nil {
		return
	}

	dayStart, _ := dayWindow(s.now(), loc)
	s.redis.Del(ctx, limitsCacheKey(userID, dayStart))
}
