package queries

import (
	"context"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/turn"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

type EventStore interface {
	InsertTurnEvent(ctx context.Context, event *models.TurnEvent) error
}

// Journal appends one row per accepted transition.
type Journal struct {
	store   EventStore
	timeout time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

func NewJournal(store EventStore, log *logrus.Entry) *Journal {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Journal{
		store:   store,
		timeout: 2 * time.Second,
		now:     time.Now,
		log:     log.WithField("component", "journal"),
	}
}

func (j *Journal) Observe(e turn.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	row := EventRow(e, j.now())
	if err := j.store.InsertTurnEvent(ctx, row); err != nil {
		j.log.WithError(err).WithFields(logrus.Fields{
			"game_id": e.GameID,
			"action":  e.Action,
		}).Warn("Failed writing turn event")
	}
}

// EventRow flattens e into a journal row. The player is the one who acted.
func EventRow(e turn.Event, at time.Time) *models.TurnEvent {
	actor := e.Tag.Player
	if e.Action == turn.ActionFinishTurn {
		actor = e.Previous
	}
	row := &models.TurnEvent{
		Id:        uuid.NewV4().String(),
		GameId:    e.GameID,
		Player:    int(actor),
		Action:    string(e.Action),
		Phase:     e.Tag.Phase.String(),
		CreatedAt: at,
	}
	if e.Space != nil {
		row.Space = e.Space.Name
	}
	if e.Roll != nil {
		row.Die1, row.Die2 = e.Roll.Die1, e.Roll.Die2
	}
	return row
}
