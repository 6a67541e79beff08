package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amora-app/amora-backend/internal/matches"
)

// fakeEventStore backs both Repository and Tx with in-memory state.
type fakeEventStore struct {
	event           *WeeklyEvent
	questions       map[int64]*EventQuestion
	participants    []*EventParticipation
	responsesByUser map[int64]map[int64]string

	nextMatchID     int64
	eventMatches    map[int64]*EventMatch
	canonical       map[[2]int64]*matches.Match
	insertedBatches int
}

func newFakeEventStore(event *WeeklyEvent) *fakeEventStore {
	return &fakeEventStore{
		event:           event,
		questions:       map[int64]*EventQuestion{},
		responsesByUser: map[int64]map[int64]string{},
		eventMatches:    map[int64]*EventMatch{},
		canonical:       map[[2]int64]*matches.Match{},
	}
}

func (f *fakeEventStore) addParticipant(userID int64, answers map[int64]string) {
	f.participants = append(f.participants, &EventParticipation{
		ID:      int64(len(f.participants) + 1),
		EventID: f.event.ID,
		UserID:  userID,
		Status:  ParticipationCompleted,
	})
	f.responsesByUser[userID] = answers
}

func (f *fakeEventStore) GetEvent(ctx context.Context, id uuid.UUID) (*WeeklyEvent, error) {
	if f.event == nil || f.event.ID != id {
		return nil, ErrEventNotFound
	}
	copied := *f.event
	return &copied, nil
}

func (f *fakeEventStore) ListDueEvents(ctx context.Context, now time.Time) ([]*WeeklyEvent, error) {
	if f.event != nil && f.event.Status == StatusOpen && !f.event.MatchesAt.After(now) {
		return []*WeeklyEvent{f.event}, nil
	}
	return nil, nil
}

func (f *fakeEventStore) GetQuestions(ctx context.Context, eventID uuid.UUID) (map[int64]*EventQuestion, error) {
	return f.questions, nil
}

func (f *fakeEventStore) GetCompletedParticipants(ctx context.Context, eventID uuid.UUID) ([]*EventParticipation, error) {
	var completed []*EventParticipation
	for _, p := range f.participants {
		if p.Status == ParticipationCompleted {
			completed = append(completed, p)
		}
	}
	return completed, nil
}

func (f *fakeEventStore) GetResponsesByUser(ctx context.Context, eventID uuid.UUID) (map[int64]map[int64]string, error) {
	return f.responsesByUser, nil
}

func (f *fakeEventStore) GetParticipation(ctx context.Context, eventID uuid.UUID, userID int64) (*EventParticipation, error) {
	for _, p := range f.participants {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrParticipationNotFound
}

func (f *fakeEventStore) CreateParticipation(ctx context.Context, participation *EventParticipation) error {
	participation.ID = int64(len(f.participants) + 1)
	participation.JoinedAt = time.Now()
	f.participants = append(f.participants, participation)
	return nil
}

func (f *fakeEventStore) UpdateParticipationStatus(ctx context.Context, participationID int64, from, to ParticipationStatus) (bool, error) {
	for _, p := range f.participants {
		if p.ID == participationID && p.Status == from {
			p.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEventStore) InsertResponse(ctx context.Context, response *EventResponse) error {
	response.ID = int64(len(f.responsesByUser) + 1)
	return nil
}

func (f *fakeEventStore) GetEventMatch(ctx context.Context, id int64) (*EventMatch, error) {
	if match, ok := f.eventMatches[id]; ok {
		return match, nil
	}
	return nil, ErrEventMatchNotFound
}

func (f *fakeEventStore) GetEventMatches(ctx context.Context, eventID uuid.UUID) ([]*EventMatch, error) {
	var result []*EventMatch
	for _, match := range f.eventMatches {
		result = append(result, match)
	}
	return result, nil
}

func (f *fakeEventStore) GetUserEventMatches(ctx context.Context, eventID uuid.UUID, userID int64) ([]*EventMatch, error) {
	var result []*EventMatch
	for _, match := range f.eventMatches {
		if match.Involves(userID) {
			result = append(result, match)
		}
	}
	return result, nil
}

func (f *fakeEventStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(f)
}

func (f *fakeEventStore) EventMatchExists(ctx context.Context, eventID uuid.UUID, userA, userB int64) (bool, error) {
	lo, hi := matches.PairKey(userA, userB)
	for _, match := range f.eventMatches {
		if match.User1ID == lo && match.User2ID == hi {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEventStore) InsertEventMatch(ctx context.Context, match *EventMatch) error {
	f.nextMatchID++
	match.ID = f.nextMatchID
	match.CreatedAt = time.Now()
	f.eventMatches[match.ID] = match
	f.insertedBatches++
	return nil
}

func (f *fakeEventStore) SetEventStatus(ctx context.Context, eventID uuid.UUID, status EventStatus) error {
	f.event.Status = status
	return nil
}

func (f *fakeEventStore) GetEventMatchForUpdate(ctx context.Context, id int64) (*EventMatch, error) {
	return f.GetEventMatch(ctx, id)
}

func (f *fakeEventStore) UpdateEventMatchFlags(ctx context.Context, match *EventMatch) error {
	f.eventMatches[match.ID] = match
	return nil
}

func (f *fakeEventStore) CreateCanonicalMatch(ctx context.Context, match *matches.Match) (*matches.Match, error) {
	key := [2]int64{match.User1ID, match.User2ID}
	if existing, ok := f.canonical[key]; ok {
		return existing, nil
	}
	match.ID = int64(len(f.canonical) + 1)
	f.canonical[key] = match
	return match, nil
}

func (f *fakeEventStore) MarkParticipantsMatched(ctx context.Context, eventID uuid.UUID, userA, userB int64) error {
	for _, p := range f.participants {
		if (p.UserID == userA || p.UserID == userB) && p.Status == ParticipationCompleted {
			p.Status = ParticipationMatched
		}
	}
	return nil
}

func openEvent(eventType EventType) *WeeklyEvent {
	return &WeeklyEvent{
		ID:        uuid.New(),
		Title:     "Friday Night Questions",
		Type:      eventType,
		Status:    StatusOpen,
		OpensAt:   time.Now().Add(-48 * time.Hour),
		MatchesAt: time.Now().Add(-time.Hour),
	}
}

func TestProcessEventMatchesPairCount(t *testing.T) {
	store := newFakeEventStore(openEvent(TypeLifestyleMatching))
	store.questions = questionSet(scaleQuestion(1, 5))

	for userID := int64(1); userID <= 5; userID++ {
		store.addParticipant(userID, map[int64]string{1: "3"})
	}

	svc := NewService(store, 4)
	created, err := svc.ProcessEventMatches(context.Background(), store.event.ID)
	if err != nil {
		t.Fatalf("ProcessEventMatches failed: %v", err)
	}

	// 5 participants -> 10 pairs.
	if len(created) != 10 {
		t.Fatalf("expected 10 event matches, got %d", len(created))
	}
	if store.event.Status != StatusProcessing {
		t.Fatalf("event should be processing, got %s", store.event.Status)
	}

	for _, match := range created {
		if match.User1ID >= match.User2ID {
			t.Fatalf("pair not canonical: (%d, %d)", match.User1ID, match.User2ID)
		}
		if match.CompatibilityScore < 1 || match.CompatibilityScore > 99 {
			t.Fatalf("score %v outside [1,99]", match.CompatibilityScore)
		}
	}
}

func TestProcessEventMatchesIdempotent(t *testing.T) {
	store := newFakeEventStore(openEvent(TypeLifestyleMatching))
	store.questions = questionSet(scaleQuestion(1, 5))
	store.addParticipant(1, map[int64]string{1: "3"})
	store.addParticipant(2, map[int64]string{1: "4"})

	svc := NewService(store, 2)

	first, err := svc.ProcessEventMatches(context.Background(), store.event.ID)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := svc.ProcessEventMatches(context.Background(), store.event.ID)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("both runs should report the single pair, got %d and %d", len(first), len(second))
	}
	if store.insertedBatches != 1 {
		t.Fatalf("re-running the batch should insert nothing new, inserts = %d", store.insertedBatches)
	}
}

func TestProcessEventMatchesTooFewParticipants(t *testing.T) {
	store := newFakeEventStore(openEvent(TypePersonalityQuiz))
	store.addParticipant(1, map[int64]string{})

	svc := NewService(store, 2)
	created, err := svc.ProcessEventMatches(context.Background(), store.event.ID)
	if err != nil {
		t.Fatalf("ProcessEventMatches failed: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("one participant should yield no matches, got %d", len(created))
	}
	if store.event.Status != StatusProcessing {
		t.Fatalf("event should still transition, got %s", store.event.Status)
	}
}

// flakyEventStore fails InsertEventMatch a set number of times to model a
// persistence error mid-batch.
type flakyEventStore struct {
	*fakeEventStore
	failures int
}

func (f *flakyEventStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(f)
}

func (f *flakyEventStore) InsertEventMatch(ctx context.Context, match *EventMatch) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset by peer")
	}
	return f.fakeEventStore.InsertEventMatch(ctx, match)
}

func TestProcessEventMatchesRecoversFromFailedBatch(t *testing.T) {
	store := &flakyEventStore{
		fakeEventStore: newFakeEventStore(openEvent(TypeLifestyleMatching)),
		failures:       1,
	}
	store.questions = questionSet(scaleQuestion(1, 5))
	store.addParticipant(1, map[int64]string{1: "3"})
	store.addParticipant(2, map[int64]string{1: "4"})

	svc := NewService(store, 2)
	ctx := context.Background()

	if _, err := svc.ProcessEventMatches(ctx, store.event.ID); err == nil {
		t.Fatal("batch with a failing insert should report the error")
	}
	// Status only changes in the same transaction as the inserts, so the
	// failed run leaves the event open for the next sweep.
	if store.event.Status != StatusOpen {
		t.Fatalf("failed batch should leave the event open, got %s", store.event.Status)
	}

	if err := svc.ProcessDueEvents(ctx); err != nil {
		t.Fatalf("ProcessDueEvents failed: %v", err)
	}
	if len(store.eventMatches) != 1 {
		t.Fatalf("sweep should retry the stranded event, matches = %d", len(store.eventMatches))
	}
	if store.event.Status != StatusProcessing {
		t.Fatalf("retried event should be processing, got %s", store.event.Status)
	}
}

func TestProcessDueEvents(t *testing.T) {
	store := newFakeEventStore(openEvent(TypeLifestyleMatching))
	store.questions = questionSet(scaleQuestion(1, 5))
	store.addParticipant(1, map[int64]string{1: "2"})
	store.addParticipant(2, map[int64]string{1: "2"})

	svc := NewService(store, 2)
	if err := svc.ProcessDueEvents(context.Background()); err != nil {
		t.Fatalf("ProcessDueEvents failed: %v", err)
	}
	if len(store.eventMatches) != 1 {
		t.Fatalf("due event should be processed, matches = %d", len(store.eventMatches))
	}
}

func TestJoinEventLifecycle(t *testing.T) {
	store := newFakeEventStore(openEvent(TypeLifestyleMatching))
	store.questions = questionSet(scaleQuestion(1, 5))
	svc := NewService(store, 2)
	ctx := context.Background()

	participation, err := svc.JoinEvent(ctx, store.event.ID, 7)
	if err != nil {
		t.Fatalf("JoinEvent failed: %v", err)
	}
	if participation.Status != ParticipationJoined {
		t.Fatalf("new participation should be joined, got %s", participation.Status)
	}

	if _, err := svc.JoinEvent(ctx, store.event.ID, 7); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	response := &EventResponse{QuestionID: 1, ResponseValue: "4"}
	if err := svc.SubmitResponse(ctx, store.event.ID, 7, response); err != nil {
		t.Fatalf("SubmitResponse failed: %v", err)
	}
	if err := svc.SubmitResponse(ctx, store.event.ID, 7, &EventResponse{QuestionID: 99, ResponseValue: "4"}); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if err := svc.SubmitResponse(ctx, store.event.ID, 8, response); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	if err := svc.CompleteParticipation(ctx, store.event.ID, 7); err != nil {
		t.Fatalf("CompleteParticipation failed: %v", err)
	}
	// Completion is one-way.
	if err := svc.CompleteParticipation(ctx, store.event.ID, 7); !errors.Is(err, ErrParticipationClosed) {
		t.Fatalf("expected ErrParticipationClosed, got %v", err)
	}
	if err := svc.SubmitResponse(ctx, store.event.ID, 7, response); !errors.Is(err, ErrParticipationClosed) {
		t.Fatalf("responses after completion should fail, got %v", err)
	}
}
