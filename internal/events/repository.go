package events

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amora-app/amora-backend/internal/matches"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventMatchNotFound    = errors.New("event match not found")
	ErrParticipationNotFound = errors.New("event participation not found")
)

// Tx is the transactional surface for batch persistence and acceptance.
// Batch inserts, the status flip to processing, and the dual-accept match
// creation all need all-or-nothing semantics.
type Tx interface {
	EventMatchExists(ctx context.Context, eventID uuid.UUID, userA, userB int64) (bool, error)
	InsertEventMatch(ctx context.Context, match *EventMatch) error
	SetEventStatus(ctx context.Context, eventID uuid.UUID, status EventStatus) error

	GetEventMatchForUpdate(ctx context.Context, id int64) (*EventMatch, error)
	UpdateEventMatchFlags(ctx context.Context, match *EventMatch) error
	CreateCanonicalMatch(ctx context.Context, match *matches.Match) (*matches.Match, error)
	MarkParticipantsMatched(ctx context.Context, eventID uuid.UUID, userA, userB int64) error
}

type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*WeeklyEvent, error)

	// ListDueEvents returns open events whose matching time has passed.
	ListDueEvents(ctx context.Context, now time.Time) ([]*WeeklyEvent, error)

	GetQuestions(ctx context.Context, eventID uuid.UUID) (map[int64]*EventQuestion, error)
	GetCompletedParticipants(ctx context.Context, eventID uuid.UUID) ([]*EventParticipation, error)

	// GetResponsesByUser returns, for every completed participant, a map of
	// question id to raw response value.
	GetResponsesByUser(ctx context.Context, eventID uuid.UUID) (map[int64]map[int64]string, error)

	GetParticipation(ctx context.Context, eventID uuid.UUID, userID int64) (*EventParticipation, error)
	CreateParticipation(ctx context.Context, participation *EventParticipation) error
	UpdateParticipationStatus(ctx context.Context, participationID int64, from, to ParticipationStatus) (bool, error)
	InsertResponse(ctx context.Context, response *EventResponse) error

	GetEventMatch(ctx context.Context, id int64) (*EventMatch, error)
	GetEventMatches(ctx context.Context, eventID uuid.UUID) ([]*EventMatch, error)
	GetUserEventMatches(ctx context.Context, eventID uuid.UUID, userID int64) ([]*EventMatch, error)

	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetEvent(ctx context.Context, id uuid.UUID) (*WeeklyEvent, error) {
	var event WeeklyEvent
	query := `
        SELECT id, title, type, status, opens_at, matches_at, created_at
        FROM weekly_events WHERE id = $1
    `

	err := r.db.GetContext(ctx, &event, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *postgresRepository) ListDueEvents(ctx context.Context, now time.Time) ([]*WeeklyEvent, error) {
	var due []*WeeklyEvent
	query := `
        SELECT id, title, type, status, opens_at, matches_at, created_at
        FROM weekly_events
        WHERE status = $1 AND matches_at <= $2
        ORDER BY matches_at
    `

	err := r.db.SelectContext(ctx, &due, query, StatusOpen, now)
	return due, err
}

func (r *postgresRepository) GetQuestions(ctx context.Context, eventID uuid.UUID) (map[int64]*EventQuestion, error) {
	var rows []*EventQuestion
	query := `
        SELECT id, event_id, prompt, kind, max_scale, importance, options
        FROM event_questions WHERE event_id = $1
    `

	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, err
	}

	questions := make(map[int64]*EventQuestion, len(rows))
	for _, q := range rows {
		questions[q.ID] = q
	}

	return questions, nil
}

func (r *postgresRepository) GetCompletedParticipants(ctx context.Context, eventID uuid.UUID) ([]*EventParticipation, error) {
	var participants []*EventParticipation
	query := `
        SELECT id, event_id, user_id, status, joined_at, completed_at
        FROM event_participations
        WHERE event_id = $1 AND status = $2
        ORDER BY user_id
    `

	err := r.db.SelectContext(ctx, &participants, query, eventID, ParticipationCompleted)
	return participants, err
}

func (r *postgresRepository) GetResponsesByUser(ctx context.Context, eventID uuid.UUID) (map[int64]map[int64]string, error) {
	query := `
        SELECT p.user_id, er.question_id, er.response_value
        FROM event_responses er
        JOIN event_participations p ON er.participation_id = p.id
        WHERE p.event_id = $1 AND p.status = $2
    `

	rows, err := r.db.QueryxContext(ctx, query, eventID, ParticipationCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[int64]map[int64]string{}
	for rows.Next() {
		var userID, questionID int64
		var value string
		if err := rows.Scan(&userID, &questionID, &value); err != nil {
			return nil, err
		}
		if result[userID] == nil {
			result[userID] = map[int64]string{}
		}
		result[userID][questionID] = value
	}

	return result, rows.Err()
}

func (r *postgresRepository) GetParticipation(ctx context.Context, eventID uuid.UUID, userID int64) (*EventParticipation, error) {
	var participation EventParticipation
	query := `
        SELECT id, event_id, user_id, status, joined_at, completed_at
        FROM event_participations
        WHERE event_id = $1 AND user_id = $2
    `

	err := r.db.GetContext(ctx, &participation, query, eventID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrParticipationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &participation, nil
}

func (r *postgresRepository) CreateParticipation(ctx context.Context, participation *EventParticipation) error {
	query := `
        INSERT INTO event_participations (event_id, user_id, status)
        VALUES ($1, $2, $3)
        RETURNING id, joined_at
    `

	return r.db.QueryRowxContext(
		ctx, query,
		participation.EventID, participation.UserID, participation.Status,
	).Scan(&participation.ID, &participation.JoinedAt)
}

// UpdateParticipationStatus transitions only when the row is still in the
// expected state, which keeps completion one-way under concurrent calls.
func (r *postgresRepository) UpdateParticipationStatus(ctx context.Context, participationID int64, from, to ParticipationStatus) (bool, error) {
	query := `
        UPDATE event_participations
        SET status = $3,
            completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END
        WHERE id = $1 AND status = $2
    `

	result, err := r.db.ExecContext(ctx, query, participationID, from, to)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (r *postgresRepository) InsertResponse(ctx context.Context, response *EventResponse) error {
	query := `
        INSERT INTO event_responses (participation_id, question_id, response_value, response_time_ms)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (participation_id, question_id)
        DO UPDATE SET response_value = $3, response_time_ms = $4
        RETURNING id
    `

	return r.db.QueryRowxContext(
		ctx, query,
		response.ParticipationID, response.QuestionID,
		response.ResponseValue, response.ResponseTimeMS,
	).Scan(&response.ID)
}

const eventMatchColumns = `
    id, event_id, user1_id, user2_id, compatibility_score, match_reasons,
    user_a_accepted, user_b_accepted, user_a_declined, user_b_declined,
    matched_at, created_at
`

func (r *postgresRepository) GetEventMatch(ctx context.Context, id int64) (*EventMatch, error) {
	var match EventMatch
	query := `SELECT ` + eventMatchColumns + ` FROM event_matches WHERE id = $1`

	err := r.db.GetContext(ctx, &match, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &match, nil
}

func (r *postgresRepository) GetEventMatches(ctx context.Context, eventID uuid.UUID) ([]*EventMatch, error) {
	var result []*EventMatch
	query := `
        SELECT ` + eventMatchColumns + `
        FROM event_matches
        WHERE event_id = $1
        ORDER BY compatibility_score DESC
    `

	err := r.db.SelectContext(ctx, &result, query, eventID)
	return result, err
}

func (r *postgresRepository) GetUserEventMatches(ctx context.Context, eventID uuid.UUID, userID int64) ([]*EventMatch, error) {
	var result []*EventMatch
	query := `
        SELECT ` + eventMatchColumns + `
        FROM event_matches
        WHERE event_id = $1 AND (user1_id = $2 OR user2_id = $2)
        ORDER BY compatibility_score DESC
    `

	err := r.db.SelectContext(ctx, &result, query, eventID, userID)
	return result, err
}

func (r *postgresRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) EventMatchExists(ctx context.Context, eventID uuid.UUID, userA, userB int64) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM event_matches
            WHERE event_id = $1
              AND ((user1_id = $2 AND user2_id = $3) OR (user1_id = $3 AND user2_id = $2))
        )
    `

	err := t.tx.GetContext(ctx, &exists, query, eventID, userA, userB)
	return exists, err
}

func (t *postgresTx) InsertEventMatch(ctx context.Context, match *EventMatch) error {
	query := `
        INSERT INTO event_matches (
            event_id, user1_id, user2_id, compatibility_score, match_reasons
        ) VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `

	return t.tx.QueryRowxContext(
		ctx, query,
		match.EventID, match.User1ID, match.User2ID,
		match.CompatibilityScore, match.MatchReasons,
	).Scan(&match.ID, &match.CreatedAt)
}

func (t *postgresTx) SetEventStatus(ctx context.Context, eventID uuid.UUID, status EventStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE weekly_events SET status = $2 WHERE id = $1`, eventID, status)
	return err
}

func (t *postgresTx) GetEventMatchForUpdate(ctx context.Context, id int64) (*EventMatch, error) {
	var match EventMatch
	query := `SELECT ` + eventMatchColumns + ` FROM event_matches WHERE id = $1 FOR UPDATE`

	err := t.tx.GetContext(ctx, &match, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &match, nil
}

func (t *postgresTx) UpdateEventMatchFlags(ctx context.Context, match *EventMatch) error {
	query := `
        UPDATE event_matches
        SET user_a_accepted = $2, user_b_accepted = $3,
            user_a_declined = $4, user_b_declined = $5, matched_at = $6
        WHERE id = $1
    `

	_, err := t.tx.ExecContext(
		ctx, query,
		match.ID, match.UserAAccepted, match.UserBAccepted,
		match.UserADeclined, match.UserBDeclined, match.MatchedAt,
	)
	return err
}

func (t *postgresTx) CreateCanonicalMatch(ctx context.Context, match *matches.Match) (*matches.Match, error) {
	return matches.Insert(ctx, t.tx, match)
}

func (t *postgresTx) MarkParticipantsMatched(ctx context.Context, eventID uuid.UUID, userA, userB int64) error {
	query := `
        UPDATE event_participations
        SET status = $2
        WHERE event_id = $1 AND user_id IN ($3, $4) AND status = $5
    `

	_, err := t.tx.ExecContext(ctx, query, eventID, ParticipationMatched, userA, userB, ParticipationCompleted)
	return err
}
