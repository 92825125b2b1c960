package queries

import (
	"context"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/go-pg/pg/v10"
)

// TurnEvents reads and writes the turn journal.
type TurnEvents struct {
	db *pg.DB
}

func NewTurnEvents(db *pg.DB) *TurnEvents {
	return &TurnEvents{db: db}
}

func (q *TurnEvents) InsertTurnEvent(ctx context.Context, event *models.TurnEvent) error {
	_, err := q.db.ModelContext(ctx, event).Insert()
	return err
}

// History returns the newest limit events for game, oldest first.
func (q *TurnEvents) History(ctx context.Context, gameID string, limit int) ([]models.TurnEvent, error) {
	var events []models.TurnEvent
	err := q.db.ModelContext(ctx, &events).
		Where("game_id = ?", gameID).
		Order("created_at DESC").
		Limit(limit).
		Select()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func (q *TurnEvents) DeleteGame(ctx context.Context, gameID string) error {
	_, err := q.db.ModelContext(ctx, (*models.TurnEvent)(nil)).Where("game_id = ?", gameID).Delete()
	return err
}
