package kanban

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps the board document in memory for unit testing.
type memStore struct {
	mu    sync.Mutex
	board *Board
}

func (m *memStore) GetBoard(_ context.Context) (*Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board, nil
}

func (m *memStore) SaveBoard(_ context.Context, b *Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board = b
	return nil
}

func TestGetBoardCreatesDefault(t *testing.T) {
	svc := NewService(&memStore{})
	board, err := svc.GetBoard(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Columns, 5)
	assert.Equal(t, ColumnBacklog, board.Columns[0].ID)
	assert.Equal(t, ColumnShipped, board.Columns[4].ID)
}

func TestCreateCardDefaultsToBacklog(t *testing.T) {
	svc := NewService(&memStore{})
	card, err := svc.CreateCard(context.Background(), CreateCardRequest{
		Title: "Browse-abandon push", ProductID: "prod-1",
	})
	require.NoError(t, err)
	assert.Equal(t, ImpactNormal, card.Impact)

	board, _ := svc.GetBoard(context.Background())
	require.Len(t, board.Columns[0].Cards, 1)
	assert.Equal(t, "Browse-abandon push", board.Columns[0].Cards[0].Title)
}

func TestCreateCardUnknownColumn(t *testing.T) {
	svc := NewService(&memStore{})
	_, err := svc.CreateCard(context.Background(), CreateCardRequest{
		Title: "X", ColumnID: "nope",
	})
	assert.Error(t, err)
}

func TestMoveCardToShippedStampsTime(t *testing.T) {
	svc := NewService(&memStore{})
	card, err := svc.CreateCard(context.Background(), CreateCardRequest{Title: "Idea"})
	require.NoError(t, err)

	err = svc.MoveCard(context.Background(), MoveCardRequest{
		CardID: card.ID, FromColumn: ColumnBacklog, ToColumn: ColumnShipped, NewOrder: 0,
	})
	require.NoError(t, err)

	board, _ := svc.GetBoard(context.Background())
	require.Len(t, board.Columns[4].Cards, 1)
	assert.NotNil(t, board.Columns[4].Cards[0].ShippedAt)
	assert.Empty(t, board.Columns[0].Cards)

	// Moving it back out of Shipped clears the timestamp.
	err = svc.MoveCard(context.Background(), MoveCardRequest{
		CardID: card.ID, FromColumn: ColumnShipped, ToColumn: ColumnInFlight, NewOrder: 0,
	})
	require.NoError(t, err)
	board, _ = svc.GetBoard(context.Background())
	assert.Nil(t, board.Columns[3].Cards[0].ShippedAt)
}

func TestMoveCardReorders(t *testing.T) {
	svc := NewService(&memStore{})
	svc.CreateCard(context.Background(), CreateCardRequest{Title: "first"})
	second, _ := svc.CreateCard(context.Background(), CreateCardRequest{Title: "second"})

	err := svc.MoveCard(context.Background(), MoveCardRequest{
		CardID: second.ID, FromColumn: ColumnBacklog, ToColumn: ColumnBacklog, NewOrder: 0,
	})
	require.NoError(t, err)

	board, _ := svc.GetBoard(context.Background())
	cards := board.Columns[0].Cards
	require.Len(t, cards, 2)
	assert.Equal(t, "second", cards[0].Title)
	assert.Equal(t, 0, cards[0].Order)
	assert.Equal(t, "first", cards[1].Title)
	assert.Equal(t, 1, cards[1].Order)
}

func TestUpdateCard(t *testing.T) {
	svc := NewService(&memStore{})
	card, _ := svc.CreateCard(context.Background(), CreateCardRequest{Title: "draft"})

	title := "polished"
	impact := ImpactHigh
	got, err := svc.UpdateCard(context.Background(), card.ID, UpdateCardRequest{
		Title: &title, Impact: &impact,
	})
	require.NoError(t, err)
	assert.Equal(t, "polished", got.Title)
	assert.Equal(t, ImpactHigh, got.Impact)
}

func TestDeleteCard(t *testing.T) {
	svc := NewService(&memStore{})
	card, _ := svc.CreateCard(context.Background(), CreateCardRequest{Title: "gone"})

	require.NoError(t, svc.DeleteCard(context.Background(), card.ID))
	board, _ := svc.GetBoard(context.Background())
	assert.Empty(t, board.Columns[0].Cards)

	assert.Error(t, svc.DeleteCard(context.Background(), card.ID))
}
