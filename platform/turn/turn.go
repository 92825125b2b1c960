// Package turn drives one table through Roll, UnownedProperty or
// OwnedProperty, Finish, and back to Roll for the next player.
//
// Every operation takes the caller's player id. A caller that is not the
// active player gets the current tag back unchanged and no error, so a UI
// can poll the machine freely. The active player calling an operation
// that does not belong to the current phase gets ErrIllegalAction.
package turn

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/dice"
	"github.com/DedS3t/monopoly-engine/platform/ownership"
	"github.com/DedS3t/monopoly-engine/platform/players"
	"github.com/sirupsen/logrus"
)

var (
	ErrIllegalAction     = errors.New("turn: action not legal in this phase")
	ErrSpaceKindMismatch = errors.New("turn: space kind does not match phase")
	ErrInvalidRoll       = errors.New("turn: dice source produced an invalid roll")
)

type Navigator interface {
	GetSpace(loc board.Location) (models.Space, error)
	MovePiece(loc board.Location, roll dice.Roll) board.Location
}

type Registry interface {
	CurrentPlayer() models.PlayerID
	SetCurrentPlayer(id models.PlayerID) error
	LocationOf(id models.PlayerID) (board.Location, error)
	SetLocation(id models.PlayerID, loc board.Location) error
	NextPlayerAfter(id models.PlayerID) models.PlayerID
}

type Ledger interface {
	OwnerOf(name string) (ownership.Record, error)
}

type Transfer interface {
	BuyProperty(player models.PlayerID, space models.Space) error
	PayRent(player models.PlayerID, space models.Space) error
}

type Config struct {
	GameID    string
	Board     Navigator
	Players   Registry
	Ledger    Ledger
	Transfer  Transfer
	Dice      dice.Source
	Log       *logrus.Entry
	Observers []Observer
}

// Machine owns the turn tag for one table. It is safe for concurrent use;
// each operation runs to completion before the next one starts.
type Machine struct {
	mu        sync.Mutex
	gameID    string
	board     Navigator
	players   Registry
	ledger    Ledger
	transfer  Transfer
	dice      dice.Source
	log       *logrus.Entry
	observers []Observer

	tag   Tag
	space *models.Space
	roll  *dice.Roll
}

// New starts the machine in Roll for whoever the registry says is current.
func New(cfg Config) (*Machine, error) {
	if cfg.Board == nil || cfg.Players == nil || cfg.Ledger == nil || cfg.Transfer == nil || cfg.Dice == nil {
		return nil, errors.New("turn: board, players, ledger, transfer and dice are required")
	}
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	first := cfg.Players.CurrentPlayer()
	if first == models.NoPlayer {
		return nil, errors.New("turn: registry has no current player")
	}
	return &Machine{
		gameID:    cfg.GameID,
		board:     cfg.Board,
		players:   cfg.Players,
		ledger:    cfg.Ledger,
		transfer:  cfg.Transfer,
		dice:      cfg.Dice,
		log:       log.WithFields(logrus.Fields{"component": "turn", "game_id": cfg.GameID}),
		observers: append([]Observer(nil), cfg.Observers...),
		tag:       Tag{Player: first, Phase: Roll},
	}, nil
}

// AddObserver registers o for every later transition.
func (m *Machine) AddObserver(o Observer) {
	m.mu.Lock()
	m.observers = append(m.observers, o)
	m.mu.Unlock()
}

func (m *Machine) GameID() string {
	return m.gameID
}

func (m *Machine) Tag() Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tag
}

func (m *Machine) Legal() Action {
	return m.Tag().Phase.Legal()
}

// Space is the space the active player landed on this turn, if any.
func (m *Machine) Space() (models.Space, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.space == nil {
		return models.Space{}, false
	}
	return *m.space, true
}

func (m *Machine) LastRoll() (dice.Roll, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roll == nil {
		return dice.Roll{}, false
	}
	return *m.roll, true
}

// Roll draws one pair of dice, moves the active player's token and picks
// the next phase from what they landed on.
func (m *Machine) Roll(player models.PlayerID) (Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok, err := m.guard(player, Roll, ActionRoll); !ok {
		return m.tag, err
	}
	active := m.tag.Player

	from, err := m.players.LocationOf(active)
	if err != nil {
		return m.tag, err
	}
	roll := m.dice.Next()
	if !roll.Valid() {
		err := fmt.Errorf("%w: %d+%d", ErrInvalidRoll, roll.Die1, roll.Die2)
		m.log.WithError(err).Error("Turn invariant violated")
		return m.tag, err
	}
	to := m.board.MovePiece(from, roll)
	space, err := m.board.GetSpace(to)
	if err != nil {
		return m.tag, err
	}

	next := Finish
	if space.Kind.Ownable() {
		rec, err := m.ledger.OwnerOf(space.Name)
		if err != nil {
			m.log.WithError(err).WithField("space", space.Name).Error("Landed space missing from ledger")
			return m.tag, err
		}
		if rec.Owned() {
			next = OwnedProperty
		} else {
			next = UnownedProperty
		}
	}
	if err := m.players.SetLocation(active, to); err != nil {
		return m.tag, err
	}

	m.roll = &roll
	m.space = &space
	prev := m.tag.Phase
	m.tag.Phase = next

	m.log.WithFields(logrus.Fields{
		"player": active,
		"dice":   fmt.Sprintf("%d+%d", roll.Die1, roll.Die2),
		"from":   from,
		"to":     to,
		"space":  space.Name,
		"phase":  next,
	}).Info("Dice rolled")
	m.emit(Event{Action: ActionRoll, From: prev, Location: to, Roll: &roll})
	return m.tag, nil
}

// BuyProperty buys the landed space for the active player. If they cannot
// afford it the turn still moves to Finish, nothing changes hands, and the
// funds error is returned alongside the new tag.
func (m *Machine) BuyProperty(player models.PlayerID) (Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok, err := m.guard(player, UnownedProperty, ActionBuy); !ok {
		return m.tag, err
	}
	space, err := m.ownableSpace()
	if err != nil {
		return m.tag, err
	}
	return m.settle(ActionBuy, space, m.transfer.BuyProperty(m.tag.Player, space))
}

// PayRent pays the owner of the landed space. Funds failures behave as in
// BuyProperty.
func (m *Machine) PayRent(player models.PlayerID) (Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok, err := m.guard(player, OwnedProperty, ActionPayRent); !ok {
		return m.tag, err
	}
	space, err := m.ownableSpace()
	if err != nil {
		return m.tag, err
	}
	return m.settle(ActionPayRent, space, m.transfer.PayRent(m.tag.Player, space))
}

// FinishTurn hands the turn to the next player in seat order.
func (m *Machine) FinishTurn(player models.PlayerID) (Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok, err := m.guard(player, Finish, ActionFinishTurn); !ok {
		return m.tag, err
	}
	next := m.players.NextPlayerAfter(m.tag.Player)
	if err := m.players.SetCurrentPlayer(next); err != nil {
		return m.tag, err
	}

	prev := m.tag
	m.tag = Tag{Player: next, Phase: Roll}
	m.space = nil
	m.roll = nil

	m.log.WithFields(logrus.Fields{"player": prev.Player, "next": next}).Info("Turn finished")
	m.emit(Event{Action: ActionFinishTurn, From: prev.Phase, Previous: prev.Player})
	return m.tag, nil
}

// guard reports whether player may run action now. Callers other than the
// active player are turned away silently.
func (m *Machine) guard(player models.PlayerID, want Phase, action Action) (bool, error) {
	if player != m.tag.Player {
		m.log.WithFields(logrus.Fields{
			"caller": player,
			"active": m.tag.Player,
			"action": action,
		}).Debug("Ignoring call from inactive player")
		return false, nil
	}
	if m.tag.Phase != want {
		return false, fmt.Errorf("%w: %s during %s", ErrIllegalAction, action, m.tag.Phase)
	}
	return true, nil
}

func (m *Machine) ownableSpace() (models.Space, error) {
	if m.space == nil || !m.space.Kind.Ownable() {
		err := fmt.Errorf("%w: %s with no ownable space", ErrSpaceKindMismatch, m.tag.Phase)
		if m.space != nil {
			err = fmt.Errorf("%w: %s on %s (%s)", ErrSpaceKindMismatch, m.tag.Phase, m.space.Name, m.space.Kind)
		}
		m.log.WithError(err).Error("Turn invariant violated")
		return models.Space{}, err
	}
	return *m.space, nil
}

// settle closes out a buy or rent step. A funds shortfall still finishes
// the phase; any other failure leaves the tag where it was.
func (m *Machine) settle(action Action, space models.Space, err error) (Tag, error) {
	entry := m.log.WithFields(logrus.Fields{
		"player": m.tag.Player,
		"action": action,
		"space":  space.Name,
	})
	if err != nil && !errors.Is(err, players.ErrInsufficientFunds) {
		entry.WithError(err).Error("Transfer failed")
		return m.tag, err
	}
	if err != nil {
		entry.WithError(err).Warn("Transfer declined")
	} else {
		entry.Info("Transfer complete")
	}

	prev := m.tag.Phase
	m.tag.Phase = Finish
	m.emit(Event{Action: action, From: prev, Err: err})
	return m.tag, err
}
