// Package kanban implements the campaign-idea board: a column/card board
// the marketing team drags ideas across, from backlog to shipped. The board
// is stored as a single document and edited whole, which keeps drag-drop
// writes trivially consistent.
package kanban

import (
	"time"
)

// Board is the entire idea board, stored as one document.
type Board struct {
	ID           string    `json:"id"` // "default" for the single shared board
	LastModified time.Time `json:"last_modified"`
	Columns      []Column  `json:"columns"`
}

// Column is one stage of the idea pipeline.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Cards []Card `json:"cards"`
}

// Standard column IDs.
const (
	ColumnBacklog  = "backlog"
	ColumnScoping  = "scoping"
	ColumnReady    = "ready"
	ColumnInFlight = "in_flight"
	ColumnShipped  = "shipped"
)

// Impact levels for idea cards.
const (
	ImpactNormal   = "normal"
	ImpactHigh     = "high"
	ImpactCritical = "critical"
)

// Card is one campaign idea on the board.
type Card struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ProductID    string     `json:"product_id"`
	Impact       string     `json:"impact"` // normal, high, critical
	LaunchTarget *time.Time `json:"launch_target,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ShippedAt    *time.Time `json:"shipped_at,omitempty"`
	CreatedBy    string     `json:"created_by"`
	Labels       []string   `json:"labels"`
	Order        int        `json:"order"`
}

// CreateCardRequest is the payload for adding an idea.
type CreateCardRequest struct {
	ColumnID     string     `json:"column_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ProductID    string     `json:"product_id"`
	Impact       string     `json:"impact"`
	LaunchTarget *time.Time `json:"launch_target"`
	Labels       []string   `json:"labels"`
	CreatedBy    string     `json:"created_by"`
}

// UpdateCardRequest is the payload for editing an idea. Nil fields are left
// unchanged.
type UpdateCardRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Impact       *string    `json:"impact"`
	LaunchTarget *time.Time `json:"launch_target"`
	Labels       []string   `json:"labels"`
}

// MoveCardRequest moves a card between columns or reorders it within one.
type MoveCardRequest struct {
	CardID     string `json:"card_id"`
	FromColumn string `json:"from_column"`
	ToColumn   string `json:"to_column"`
	NewOrder   int    `json:"new_order"`
}

// DefaultColumns returns the standard empty pipeline.
func DefaultColumns() []Column {
	return []Column{
		{ID: ColumnBacklog, Title: "Backlog", Order: 0, Cards: []Card{}},
		{ID: ColumnScoping, Title: "Scoping", Order: 1, Cards: []Card{}},
		{ID: ColumnReady, Title: "Ready", Order: 2, Cards: []Card{}},
		{ID: ColumnInFlight, Title: "In Flight", Order: 3, Cards: []Card{}},
		{ID: ColumnShipped, Title: "Shipped", Order: 4, Cards: []Card{}},
	}
}

// NewDefaultBoard creates an empty board with the standard columns.
func NewDefaultBoard() *Board {
	return &Board{
		ID:           "default",
		LastModified: time.Now(),
		Columns:      DefaultColumns(),
	}
}
