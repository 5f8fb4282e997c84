package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/crm-atlas/internal/kanban"
)

// BoardStore implements kanban.Store against PostgreSQL. The board is a
// single JSONB document row; writes replace the whole document.
type BoardStore struct{ db *sql.DB }

// NewBoardStore creates a Postgres-backed board store.
func NewBoardStore(db *sql.DB) *BoardStore { return &BoardStore{db: db} }

func (s *BoardStore) GetBoard(ctx context.Context) (*kanban.Board, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM crm_idea_board WHERE id = 1`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}

	board := &kanban.Board{}
	if err := json.Unmarshal(raw, board); err != nil {
		return nil, fmt.Errorf("unmarshal board: %w", err)
	}
	return board, nil
}

func (s *BoardStore) SaveBoard(ctx context.Context, board *kanban.Board) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crm_idea_board (id, document, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`, raw)
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}
