package kanban

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists the board document. The Postgres implementation lives in
// repository/postgres.
type Store interface {
	// GetBoard loads the board, or returns (nil, nil) when none exists yet.
	GetBoard(ctx context.Context) (*Board, error)
	// SaveBoard writes the whole board document.
	SaveBoard(ctx context.Context, board *Board) error
}

// Service provides business logic for the idea board.
type Service struct {
	store Store
	mu    sync.RWMutex

	// Cached board for fast reads
	cachedBoard *Board
	cacheTime   time.Time
	cacheTTL    time.Duration
}

// NewService creates a kanban service.
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		cacheTTL: 5 * time.Second, // Short cache for responsiveness
	}
}

// GetBoard retrieves the current board, creating the default one on first
// use.
func (s *Service) GetBoard(ctx context.Context) (*Board, error) {
	s.mu.RLock()
	if s.cachedBoard != nil && time.Since(s.cacheTime) < s.cacheTTL {
		board := s.cachedBoard
		s.mu.RUnlock()
		return board, nil
	}
	s.mu.RUnlock()

	board, err := s.store.GetBoard(ctx)
	if err != nil {
		return nil, err
	}
	if board == nil {
		board = NewDefaultBoard()
		if err := s.store.SaveBoard(ctx, board); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.cachedBoard = board
	s.cacheTime = time.Now()
	s.mu.Unlock()

	return board, nil
}

// UpdateBoard replaces the entire board (used for drag-drop operations).
func (s *Service) UpdateBoard(ctx context.Context, board *Board) error {
	board.LastModified = time.Now()

	if err := s.store.SaveBoard(ctx, board); err != nil {
		return err
	}

	s.mu.Lock()
	s.cachedBoard = board
	s.cacheTime = time.Now()
	s.mu.Unlock()

	return nil
}

// CreateCard creates a new idea card in the specified column.
func (s *Service) CreateCard(ctx context.Context, req CreateCardRequest) (*Card, error) {
	board, err := s.GetBoard(ctx)
	if err != nil {
		return nil, err
	}

	card := Card{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Description:  req.Description,
		ProductID:    req.ProductID,
		Impact:       req.Impact,
		LaunchTarget: req.LaunchTarget,
		CreatedAt:    time.Now(),
		CreatedBy:    req.CreatedBy,
		Labels:       req.Labels,
	}
	if card.Impact == "" {
		card.Impact = ImpactNormal
	}

	columnID := req.ColumnID
	if columnID == "" {
		columnID = ColumnBacklog
	}

	found := false
	for i, col := range board.Columns {
		if col.ID == columnID {
			card.Order = len(col.Cards)
			board.Columns[i].Cards = append(board.Columns[i].Cards, card)
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("column not found: %s", columnID)
	}

	if err := s.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard updates an existing card.
func (s *Service) UpdateCard(ctx context.Context, cardID string, req UpdateCardRequest) (*Card, error) {
	board, err := s.GetBoard(ctx)
	if err != nil {
		return nil, err
	}

	var updated *Card
	for i, col := range board.Columns {
		for j, card := range col.Cards {
			if card.ID == cardID {
				if req.Title != nil {
					board.Columns[i].Cards[j].Title = *req.Title
				}
				if req.Description != nil {
					board.Columns[i].Cards[j].Description = *req.Description
				}
				if req.Impact != nil {
					board.Columns[i].Cards[j].Impact = *req.Impact
				}
				if req.LaunchTarget != nil {
					board.Columns[i].Cards[j].LaunchTarget = req.LaunchTarget
				}
				if req.Labels != nil {
					board.Columns[i].Cards[j].Labels = req.Labels
				}
				updated = &board.Columns[i].Cards[j]
				break
			}
		}
		if updated != nil {
			break
		}
	}
	if updated == nil {
		return nil, fmt.Errorf("card not found: %s", cardID)
	}

	if err := s.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveCard moves a card between columns or reorders it within a column.
func (s *Service) MoveCard(ctx context.Context, req MoveCardRequest) error {
	board, err := s.GetBoard(ctx)
	if err != nil {
		return err
	}

	var card *Card
	for i, col := range board.Columns {
		if col.ID == req.FromColumn {
			for j, c := range col.Cards {
				if c.ID == req.CardID {
					card = &c
					board.Columns[i].Cards = append(col.Cards[:j], col.Cards[j+1:]...)
					break
				}
			}
			break
		}
	}
	if card == nil {
		return fmt.Errorf("card not found: %s", req.CardID)
	}

	// Shipped cards get a timestamp; moving a card back clears it.
	if req.ToColumn == ColumnShipped && card.ShippedAt == nil {
		now := time.Now()
		card.ShippedAt = &now
	}
	if req.FromColumn == ColumnShipped && req.ToColumn != ColumnShipped {
		card.ShippedAt = nil
	}

	for i, col := range board.Columns {
		if col.ID == req.ToColumn {
			card.Order = req.NewOrder

			if req.NewOrder >= len(col.Cards) {
				board.Columns[i].Cards = append(col.Cards, *card)
			} else {
				cards := make([]Card, 0, len(col.Cards)+1)
				cards = append(cards, col.Cards[:req.NewOrder]...)
				cards = append(cards, *card)
				cards = append(cards, col.Cards[req.NewOrder:]...)
				board.Columns[i].Cards = cards
			}

			for j := range board.Columns[i].Cards {
				board.Columns[i].Cards[j].Order = j
			}
			break
		}
	}

	return s.UpdateBoard(ctx, board)
}

// DeleteCard removes a card from whichever column holds it.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	board, err := s.GetBoard(ctx)
	if err != nil {
		return err
	}

	for i, col := range board.Columns {
		for j, c := range col.Cards {
			if c.ID == cardID {
				board.Columns[i].Cards = append(col.Cards[:j], col.Cards[j+1:]...)
				for k := range board.Columns[i].Cards {
					board.Columns[i].Cards[k].Order = k
				}
				return s.UpdateBoard(ctx, board)
			}
		}
	}
	return fmt.Errorf("card not found: %s", cardID)
}
