package interactions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amora-app/amora-backend/internal/matches"
)

// Tx is the transactional surface of the ledger. RecordInteraction's whole
// check-then-act pipeline (quota check, insert, reciprocity, match creation)
// runs against one Tx so partial application cannot be observed.
type Tx interface {
	// LockActor serializes concurrent interactions from the same actor for
	// the duration of the transaction.
	LockActor(ctx context.Context, actorID int64) error

	InteractionExists(ctx context.Context, actorID, targetID int64) (bool, error)
	CountKind(ctx context.Context, actorID int64, kind Kind, from, to time.Time) (int, error)

	// Insert stores one interaction. A block overwrites any earlier
	// interaction for the ordered pair; other kinds rely on the caller's
	// duplicate check. is_mutual is write-once-true and survives the
	// overwrite.
	Insert(ctx context.Context, interaction *Interaction) error

	// FindReciprocal returns the target's interaction of the same kind
	// toward the actor, nil when the target has not answered in kind.
	FindReciprocal(ctx context.Context, actorID, targetID int64, kind Kind) (*Interaction, error)
	MarkMutual(ctx context.Context, ids ...int64) error
	CreateMatch(ctx context.Context, match *matches.Match) (*matches.Match, error)
	DeactivateMatch(ctx context.Context, userA, userB, deactivatedBy int64) error
}

type Repository interface {
	// InTx runs fn inside a single database transaction.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// CountKind mirrors Tx.CountKind for the read path; both execute the
	// same query so quota display and quota enforcement cannot diverge.
	CountKind(ctx context.Context, actorID int64, kind Kind, from, to time.Time) (int, error)
}

const countKindQuery = `
    SELECT COUNT(*) FROM interactions
    WHERE actor_id = $1 AND kind = $2 AND created_at >= $3 AND created_at < $4
`

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
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

func (r *postgresRepository) CountKind(ctx context.Context, actorID int64, kind Kind, from, to time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, countKindQuery, actorID, kind, from, to)
	return count, err
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) LockActor(ctx context.Context, actorID int64) error {
	_, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, actorID)
	return err
}

func (t *postgresTx) InteractionExists(ctx context.Context, actorID, targetID int64) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM interactions
            WHERE actor_id = $1 AND target_id = $2
        )
    `

	err := t.tx.GetContext(ctx, &exists, query, actorID, targetID)
	return exists, err
}

func (t *postgresTx) CountKind(ctx context.Context, actorID int64, kind Kind, from, to time.Time) (int, error) {
	var count int
	err := t.tx.GetContext(ctx, &count, countKindQuery, actorID, kind, from, to)
	return count, err
}

func (t *postgresTx) Insert(ctx context.Context, interaction *Interaction) error {
	query := `
        INSERT INTO interactions (actor_id, target_id, kind)
        VALUES ($1, $2, $3)
        ON CONFLICT (actor_id, target_id)
        DO UPDATE SET kind = EXCLUDED.kind, created_at = NOW()
        RETURNING id, is_mutual, created_at
    `

	return t.tx.QueryRowxContext(
		ctx, query,
		interaction.ActorID, interaction.TargetID, interaction.Kind,
	).Scan(&interaction.ID, &interaction.IsMutual, &interaction.CreatedAt)
}

func (t *postgresTx) FindReciprocal(ctx context.Context, actorID, targetID int64, kind Kind) (*Interaction, error) {
	var reciprocal Interaction
	query := `
        SELECT id, actor_id, target_id, kind, is_mutual, created_at
        FROM interactions
        WHERE actor_id = $1 AND target_id = $2 AND kind = $3
    `

	err := t.tx.GetContext(ctx, &reciprocal, query, targetID, actorID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &reciprocal, nil
}

func (t *postgresTx) MarkMutual(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE interactions SET is_mutual = TRUE WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	return err
}

func (t *postgresTx) CreateMatch(ctx context.Context, match *matches.Match) (*matches.Match, error) {
	return matches.Insert(ctx, t.tx, match)
}

func (t *postgresTx) DeactivateMatch(ctx context.Context, userA, userB, deactivatedBy int64) error {
	low, high := matches.PairKey(userA, userB)

	query := `
        UPDATE matches
        SET is_active = FALSE, unmatched_by = $3, unmatched_at = NOW()
        WHERE user1_id = $1 AND user2_id = $2 AND is_active = TRUE
    `

	_, err := t.tx.ExecContext(ctx, query, low, high, deactivatedBy)
	return err
}
