package events

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEventNotOpen        = errors.New("event is not open for participation")
	ErrAlreadyJoined       = errors.New("user already joined this event")
	ErrNotParticipant      = errors.New("user has not joined this event")
	ErrParticipationClosed = errors.New("participation is no longer accepting responses")
	ErrUnknownQuestion     = errors.New("question does not belong to this event")
	ErrNotYourMatch        = errors.New("event match does not involve this user")
	ErrAlreadyDeclined     = errors.New("event match was already declined")
)

type Service interface {
	GetEvent(ctx context.Context, eventID uuid.UUID) (*WeeklyEvent, error)
	GetQuestions(ctx context.Context, eventID uuid.UUID) ([]*EventQuestion, error)

	JoinEvent(ctx context.Context, eventID uuid.UUID, userID int64) (*EventParticipation, error)
	SubmitResponse(ctx context.Context, eventID uuid.UUID, userID int64, response *EventResponse) error
	CompleteParticipation(ctx context.Context, eventID uuid.UUID, userID int64) error

	// ProcessEventMatches runs the batch matchmaker for one event. It is
	// safe to call more than once for the same event.
	ProcessEventMatches(ctx context.Context, eventID uuid.UUID) ([]*EventMatch, error)

	// ProcessDueEvents runs the matchmaker for every open event whose
	// matching time has passed. Called by the scheduler.
	ProcessDueEvents(ctx context.Context) error

	GetUserEventMatches(ctx context.Context, eventID uuid.UUID, userID int64) ([]*EventMatch, error)
	AcceptEventMatch(ctx context.Context, matchID, userID int64) (*EventMatch, error)
	DeclineEventMatch(ctx context.Context, matchID, userID int64) (*EventMatch, error)
}

type service struct {
	repo Repository

	// workers bounds the parallelism of pair scoring in the batch run.
	workers int

	now func() time.Time
}

func NewService(repo Repository, workers int) Service {
	if workers <= 0 {
		workers = 4
	}
	return &service{
		repo:    repo,
		workers: workers,
		now:     time.Now,
	}
}

func (s *service) GetEvent(ctx context.Context, eventID uuid.UUID) (*WeeklyEvent, error) {
	return s.repo.GetEvent(ctx, eventID)
}

func (s *service) GetQuestions(ctx context.Context, eventID uuid.UUID) ([]*EventQuestion, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	byID, err := s.repo.GetQuestions(ctx, eventID)
	if err != nil {
		return nil, err
	}

	questions := make([]*EventQuestion, 0, len(byID))
	for _, q := range byID {
		questions = append(questions, q)
	}

	return questions, nil
}

func (s *service) JoinEvent(ctx context.Context, eventID uuid.UUID, userID int64) (*EventParticipation, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != StatusOpen {
		return nil, ErrEventNotOpen
	}

	if _, err := s.repo.GetParticipation(ctx, eventID, userID); err == nil {
		return nil, ErrAlreadyJoined
	} else if !errors.Is(err, ErrParticipationNotFound) {
		return nil, err
	}

	participation := &EventParticipation{
		EventID: eventID,
		UserID:  userID,
		Status:  ParticipationJoined,
	}
	if err := s.repo.CreateParticipation(ctx, participation); err != nil {
		return nil, err
	}

	RecordParticipantJoined()
	return participation, nil
}

func (s *service) SubmitResponse(ctx context.Context, eventID uuid.UUID, userID int64, response *EventResponse) error {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != StatusOpen {
		return ErrEventNotOpen
	}

	participation, err := s.repo.GetParticipation(ctx, eventID, userID)
	if errors.Is(err, ErrParticipationNotFound) {
		return ErrNotParticipant
	}
	if err != nil {
		return err
	}
	if participation.Status != ParticipationJoined {
		return ErrParticipationClosed
	}

	questions, err := s.repo.GetQuestions(ctx, eventID)
	if err != nil {
		return err
	}
	if _, ok := questions[response.QuestionID]; !ok {
		return ErrUnknownQuestion
	}

	response.ParticipationID = participation.ID
	return s.repo.InsertResponse(ctx, response)
}

func (s *service) CompleteParticipation(ctx context.Context, eventID uuid.UUID, userID int64) error {
	participation, err := s.repo.GetParticipation(ctx, eventID, userID)
	if errors.Is(err, ErrParticipationNotFound) {
		return ErrNotParticipant
	}
	if err != nil {
		return err
	}

	updated, err := s.repo.UpdateParticipationStatus(ctx, participation.ID, ParticipationJoined, ParticipationCompleted)
	if err != nil {
		return err
	}
	if !updated {
		return ErrParticipationClosed
	}

	return nil
}

func (s *service) GetUserEventMatches(ctx context.Context, eventID uuid.UUID, userID int64) ([]*EventMatch, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.GetUserEventMatches(ctx, eventID, userID)
}

func (s *service) ProcessDueEvents(ctx context.Context) error {
	due, err := s.repo.ListDueEvents(ctx, s.now())
	if err != nil {
		return err
	}

	for _, event := range due {
		matches, err := s.ProcessEventMatches(ctx, event.ID)
		if err != nil {
			log.Printf("Event matchmaking failed for event %s: %v", event.ID, err)
			continue
		}
		log.Printf("Event %s (%s): created %d event matches", event.ID, event.Type, len(matches))
	}

	return nil
}
