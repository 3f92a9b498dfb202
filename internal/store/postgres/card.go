package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hq/internal/domain"
)

const cardColumns = `id, tenant_id, stage, position, data, created_at, updated_at`

// CardRepo stores the cards of one board kind in the shared cards table.
type CardRepo[S domain.Stage, P domain.Payload] struct {
	pool  *pgxpool.Pool
	board string
}

func NewCardRepo[S domain.Stage, P domain.Payload](pool *pgxpool.Pool, board string) *CardRepo[S, P] {
	return &CardRepo[S, P]{pool: pool, board: board}
}

func (r *CardRepo[S, P]) Create(ctx context.Context, c *domain.Card[S, P]) error {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: marshal data: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO cards (id, tenant_id, board, stage, position, data, created_at, updated_at)
		 SELECT $1, $2, $3, $4, COALESCE(MAX(position) + 1, 0), $5, $6, $7
		 FROM cards WHERE tenant_id = $2 AND board = $3 AND stage = $4
		 RETURNING position`,
		c.ID, c.TenantID, r.board, string(c.Stage), data, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.Order)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo[S, P]) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card[S, P], error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cardColumns+`
		 FROM cards WHERE tenant_id = $1 AND board = $2 AND id = $3`,
		tenantID, r.board, id,
	)

	c, err := scanCard[S, P](row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}

	return c, nil
}

// listCardsSQL orders by stage, then position, then creation time. The last
// is the tie-break the board relies on.
const listCardsSQL = `SELECT ` + cardColumns + `
		 FROM cards WHERE tenant_id = $1 AND board = $2
		 ORDER BY stage, position, created_at, id`

// List returns every card of the board.
func (r *CardRepo[S, P]) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Card[S, P], error) {
	rows, err := r.pool.Query(ctx, listCardsSQL, tenantID, r.board)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.List: %w", err)
	}
	defer rows.Close()

	cards := make([]*domain.Card[S, P], 0)
	for rows.Next() {
		c, scanErr := scanCard[S, P](rows)
		if scanErr != nil {
			return nil, fmt.Errorf("cardRepo.List: scan: %w", scanErr)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardRepo.List: rows: %w", err)
	}

	return cards, nil
}

func (r *CardRepo[S, P]) Patch(ctx context.Context, tenantID, id uuid.UUID, patch domain.CardPatch[S, P]) (*domain.Card[S, P], error) {
	var stage *string
	if patch.Stage != nil {
		s := string(*patch.Stage)
		stage = &s
	}

	var data []byte
	if patch.Data != nil {
		var err error
		data, err = json.Marshal(*patch.Data)
		if err != nil {
			return nil, fmt.Errorf("cardRepo.Patch: marshal data: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE cards SET stage = COALESCE($1, stage), position = COALESCE($2, position),
		        data = COALESCE($3, data), updated_at = now()
		 WHERE tenant_id = $4 AND board = $5 AND id = $6
		 RETURNING `+cardColumns,
		stage, patch.Order, data, tenantID, r.board, id,
	)

	c, err := scanCard[S, P](row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.Patch: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.Patch: %w", err)
	}

	return c, nil
}

func (r *CardRepo[S, P]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cards WHERE tenant_id = $1 AND board = $2 AND id = $3`,
		tenantID, r.board, id,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanCard[S domain.Stage, P domain.Payload](row pgx.Row) (*domain.Card[S, P], error) {
	var (
		c     domain.Card[S, P]
		stage string
		data  []byte
	)

	err := row.Scan(&c.ID, &c.TenantID, &stage, &c.Order, &data, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Stage = S(stage)
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}

	return &c, nil
}
