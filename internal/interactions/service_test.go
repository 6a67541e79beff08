package interactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amora-app/amora-backend/internal/matches"
	"github.com/amora-app/amora-backend/internal/scoring"
)

type pairKey struct {
	actor, target int64
}

// fakeLedger backs both Repository and Tx with in-memory state so the
// service's transactional pipeline can run without a database.
type fakeLedger struct {
	nextID       int64
	interactions map[pairKey]*Interaction
	matches      map[[2]int64]*matches.Match
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		interactions: map[pairKey]*Interaction{},
		matches:      map[[2]int64]*matches.Match{},
	}
}

func (f *fakeLedger) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(f)
}

func (f *fakeLedger) LockActor(ctx context.Context, actorID int64) error { return nil }

func (f *fakeLedger) InteractionExists(ctx context.Context, actorID, targetID int64) (bool, error) {
	_, ok := f.interactions[pairKey{actorID, targetID}]
	return ok, nil
}

func (f *fakeLedger) CountKind(ctx context.Context, actorID int64, kind Kind, from, to time.Time) (int, error) {
	count := 0
	for _, in := range f.interactions {
		if in.ActorID != actorID || in.Kind != kind {
			continue
		}
		if in.CreatedAt.Before(from) || !in.CreatedAt.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeLedger) Insert(ctx context.Context, interaction *Interaction) error {
	key := pairKey{interaction.ActorID, interaction.TargetID}
	if existing, ok := f.interactions[key]; ok {
		// Matches the upsert behavior of the block path; is_mutual is
		// write-once-true and survives the overwrite.
		existing.Kind = interaction.Kind
		existing.CreatedAt = time.Now()
		*interaction = *existing
		return nil
	}

	f.nextID++
	interaction.ID = f.nextID
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}
	f.interactions[key] = interaction
	return nil
}

func (f *fakeLedger) FindReciprocal(ctx context.Context, actorID, targetID int64, kind Kind) (*Interaction, error) {
	reverse, ok := f.interactions[pairKey{targetID, actorID}]
	if !ok || reverse.Kind != kind {
		return nil, nil
	}
	return reverse, nil
}

func (f *fakeLedger) MarkMutual(ctx context.Context, ids ...int64) error {
	for _, in := range f.interactions {
		for _, id := range ids {
			if in.ID == id {
				in.IsMutual = true
			}
		}
	}
	return nil
}

func (f *fakeLedger) CreateMatch(ctx context.Context, match *matches.Match) (*matches.Match, error) {
	key := [2]int64{match.User1ID, match.User2ID}
	if existing, ok := f.matches[key]; ok {
		return existing, nil
	}
	match.ID = int64(len(f.matches) + 1)
	f.matches[key] = match
	return match, nil
}

func (f *fakeLedger) DeactivateMatch(ctx context.Context, userA, userB, deactivatedBy int64) error {
	lo, hi := matches.PairKey(userA, userB)
	if match, ok := f.matches[[2]int64{lo, hi}]; ok {
		match.IsActive = false
	}
	return nil
}

type fakeDirectory struct {
	tiers map[int64]Tier
}

func (f *fakeDirectory) GetTier(ctx context.Context, userID int64) (Tier, error) {
	if tier, ok := f.tiers[userID]; ok {
		return tier, nil
	}
	return TierFree, nil
}

func (f *fakeDirectory) GetLocation(ctx context.Context, userID int64) (*time.Location, error) {
	return time.UTC, nil
}

func (f *fakeDirectory) GetAge(ctx context.Context, userID int64) (int, error) {
	return 30, nil
}

type fakeScorer struct {
	score float64
	err   error
	calls int
}

func (f *fakeScorer) ScoreUsers(ctx context.Context, userA, userB int64) (*scoring.Result, error) {
	f.calls++
	if f.err != nil {
		return &scoring.Result{}, f.err
	}
	return &scoring.Result{TotalScore: f.score}, nil
}

func newTestService(ledger *fakeLedger, directory *fakeDirectory, scorer scoring.Service) *service {
	if directory == nil {
		directory = &fakeDirectory{tiers: map[int64]Tier{}}
	}
	if scorer == nil {
		scorer = &fakeScorer{score: 82}
	}
	return &service{
		repo:      ledger,
		directory: directory,
		scorer:    scorer,
		now:       time.Now,
	}
}

func TestRecordInteractionValidation(t *testing.T) {
	svc := newTestService(newFakeLedger(), nil, nil)

	if _, err := svc.RecordInteraction(context.Background(), 1, 1, KindLike); !errors.Is(err, ErrSelfInteraction) {
		t.Fatalf("expected ErrSelfInteraction, got %v", err)
	}
	if _, err := svc.RecordInteraction(context.Background(), 1, 2, Kind("wink")); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestRecordInteractionDuplicate(t *testing.T) {
	svc := newTestService(newFakeLedger(), nil, nil)

	if _, err := svc.RecordInteraction(context.Background(), 1, 2, KindLike); err != nil {
		t.Fatalf("first interaction failed: %v", err)
	}
	if _, err := svc.RecordInteraction(context.Background(), 1, 2, KindPass); !errors.Is(err, ErrDuplicateInteraction) {
		t.Fatalf("expected ErrDuplicateInteraction, got %v", err)
	}
}

func TestReciprocalLikeCreatesOneMatch(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger, nil, &fakeScorer{score: 77})

	first, err := svc.RecordInteraction(context.Background(), 2, 1, KindLike)
	if err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	if first.IsMutual || first.Match != nil {
		t.Fatalf("one-sided like should not match: %+v", first)
	}

	second, err := svc.RecordInteraction(context.Background(), 1, 2, KindLike)
	if err != nil {
		t.Fatalf("reciprocal like failed: %v", err)
	}
	if !second.IsMutual || second.Match == nil {
		t.Fatalf("reciprocal like should create a match: %+v", second)
	}
	if second.Match.User1ID != 1 || second.Match.User2ID != 2 {
		t.Fatalf("match pair should be canonical (1, 2), got (%d, %d)", second.Match.User1ID, second.Match.User2ID)
	}
	if second.Match.CompatibilityScore != 77 {
		t.Fatalf("match should carry the scorer's result, got %v", second.Match.CompatibilityScore)
	}
	if len(ledger.matches) != 1 {
		t.Fatalf("exactly one match should exist, got %d", len(ledger.matches))
	}

	for _, in := range ledger.interactions {
		if !in.IsMutual {
			t.Fatalf("both ledger rows should be mutual: %+v", in)
		}
	}
}

func TestReciprocityRequiresSameKind(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger, nil, nil)

	if _, err := svc.RecordInteraction(context.Background(), 1, 2, KindSuperLike); err != nil {
		t.Fatalf("super like failed: %v", err)
	}

	// A plain like does not answer a super like.
	result, err := svc.RecordInteraction(context.Background(), 2, 1, KindLike)
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if result.IsMutual || result.Match != nil {
		t.Fatalf("cross-kind pair should not match: %+v", result)
	}
	if len(ledger.matches) != 0 {
		t.Fatalf("no match should exist, got %d", len(ledger.matches))
	}
	for _, in := range ledger.interactions {
		if in.IsMutual {
			t.Fatalf("cross-kind rows must stay non-mutual: %+v", in)
		}
	}
}

func TestMutualMatchScoresPairOnce(t *testing.T) {
	scorer := &fakeScorer{score: 64}
	svc := newTestService(newFakeLedger(), nil, scorer)

	if _, err := svc.RecordInteraction(context.Background(), 2, 1, KindLike); err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	result, err := svc.RecordInteraction(context.Background(), 1, 2, KindLike)
	if err != nil {
		t.Fatalf("reciprocal like failed: %v", err)
	}
	if result.Match == nil {
		t.Fatal("reciprocal like should create a match")
	}
	if scorer.calls != 1 {
		t.Fatalf("pair should be scored exactly once, got %d calls", scorer.calls)
	}
	if result.Match.CompatibilityScore != 64 {
		t.Fatalf("match should carry the single score, got %v", result.Match.CompatibilityScore)
	}
}

func TestMatchCreatedWhenScorerFails(t *testing.T) {
	svc := newTestService(newFakeLedger(), nil, &fakeScorer{err: errors.New("no profile")})

	if _, err := svc.RecordInteraction(context.Background(), 2, 1, KindLike); err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	result, err := svc.RecordInteraction(context.Background(), 1, 2, KindLike)
	if err != nil {
		t.Fatalf("reciprocal like failed: %v", err)
	}
	if result.Match == nil {
		t.Fatal("match should still be created without a score")
	}
	if result.Match.CompatibilityScore != fallbackMatchScore {
		t.Fatalf("expected fallback score %v, got %v", fallbackMatchScore, result.Match.CompatibilityScore)
	}
}

func TestLikeQuotaByTier(t *testing.T) {
	cases := []struct {
		name      string
		tier      Tier
		wantError bool
	}{
		{name: "free tier hits the cap", tier: TierFree, wantError: true},
		{name: "premium tier is unlimited", tier: TierPremium, wantError: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newFakeLedger()
			directory := &fakeDirectory{tiers: map[int64]Tier{1: tc.tier}}
			svc := newTestService(ledger, directory, nil)

			for i := 0; i < 20; i++ {
				target := int64(100 + i)
				if _, err := svc.RecordInteraction(context.Background(), 1, target, KindLike); err != nil {
					t.Fatalf("like %d failed: %v", i+1, err)
				}
			}

			_, err := svc.RecordInteraction(context.Background(), 1, 999, KindLike)
			if tc.wantError && !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("expected ErrQuotaExceeded on 21st like, got %v", err)
			}
			if !tc.wantError && err != nil {
				t.Fatalf("premium 21st like should succeed, got %v", err)
			}
		})
	}
}

func TestSuperLikeQuota(t *testing.T) {
	svc := newTestService(newFakeLedger(), nil, nil)

	if _, err := svc.RecordInteraction(context.Background(), 1, 2, KindSuperLike); err != nil {
		t.Fatalf("first super like failed: %v", err)
	}
	if _, err := svc.RecordInteraction(context.Background(), 1, 3, KindSuperLike); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("free tier second super like should exceed quota, got %v", err)
	}
}

func TestBlockDissolvesMatch(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger, nil, nil)

	if _, err := svc.RecordInteraction(context.Background(), 2, 1, KindLike); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if _, err := svc.RecordInteraction(context.Background(), 1, 2, KindLike); err != nil {
		t.Fatalf("reciprocal like failed: %v", err)
	}

	if _, err := svc.RecordInteraction(context.Background(), 3, 1, KindBlock); err != nil {
		t.Fatalf("unrelated block failed: %v", err)
	}
	if !ledger.matches[[2]int64{1, 2}].IsActive {
		t.Fatal("unrelated block should not touch the match")
	}

	// A block overwrites the earlier like and dissolves the match.
	if _, err := svc.RecordInteraction(context.Background(), 2, 1, KindBlock); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if ledger.matches[[2]int64{1, 2}].IsActive {
		t.Fatal("block should dissolve the match between the pair")
	}
	if got := ledger.interactions[pairKey{2, 1}].Kind; got != KindBlock {
		t.Fatalf("block should overwrite the earlier like, kind = %s", got)
	}

	// is_mutual is write-once-true: the overwrite must not revert it on
	// either row.
	if !ledger.interactions[pairKey{2, 1}].IsMutual || !ledger.interactions[pairKey{1, 2}].IsMutual {
		t.Fatal("block overwrite must not revert is_mutual on either row")
	}
}

func TestGetDailyLimits(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger, nil, nil)

	for i := 0; i < 3; i++ {
		if _, err := svc.RecordInteraction(context.Background(), 1, int64(100+i), KindLike); err != nil {
			t.Fatalf("like failed: %v", err)
		}
	}

	limits, err := svc.GetDailyLimits(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDailyLimits failed: %v", err)
	}
	if limits.Tier != TierFree {
		t.Fatalf("expected free tier, got %s", limits.Tier)
	}
	if limits.Used[KindLike] != 3 {
		t.Fatalf("used likes = %d, want 3", limits.Used[KindLike])
	}
	if limits.Remaining(KindLike) != 17 {
		t.Fatalf("remaining likes = %d, want 17", limits.Remaining(KindLike))
	}
	if limits.Remaining(KindPass) != -1 {
		t.Fatalf("passes should be unlimited, got %d", limits.Remaining(KindPass))
	}
}
