package turn

import (
	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/dice"
)

// Event describes one accepted transition. Space is the space captured for
// the turn, nil once the turn has passed on.
type Event struct {
	GameID   string
	Action   Action
	From     Phase
	Tag      Tag
	Previous models.PlayerID
	Space    *models.Space
	Location board.Location
	Roll     *dice.Roll
	Err      error
}

// Observer is told about every accepted transition, in order. Observe runs
// while the machine is locked and must not call back into it.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

func (m *Machine) emit(e Event) {
	e.GameID = m.gameID
	e.Tag = m.tag
	if m.space != nil {
		space := *m.space
		e.Space = &space
	}
	for _, o := range m.observers {
		o.Observe(e)
	}
}
