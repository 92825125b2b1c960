// Package table assembles one game: board, ledger, seats, dice and the turn
// machine, plus the read side the HTTP and socket layers render.
package table

import (
	"fmt"
	"sync"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/dice"
	"github.com/DedS3t/monopoly-engine/platform/ownership"
	"github.com/DedS3t/monopoly-engine/platform/players"
	"github.com/DedS3t/monopoly-engine/platform/transfer"
	"github.com/DedS3t/monopoly-engine/platform/turn"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

type Options struct {
	GameID          string
	PlayerCount     int
	StartingBalance int
	BoardPath       string
	// DiceSeed of zero draws a fresh seed.
	DiceSeed int64
	// Dice overrides DiceSeed when set.
	Dice      dice.Source
	Log       *logrus.Entry
	Observers []turn.Observer
}

type Table struct {
	mu sync.RWMutex

	Board    *board.Board
	Ledger   *ownership.Ledger
	Players  *players.Registry
	Transfer *transfer.Transfer
	Machine  *turn.Machine
	Seed     int64

	log *logrus.Entry
}

func New(opts Options) (*Table, error) {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.GameID == "" {
		opts.GameID = uuid.NewV4().String()
	}

	b, err := board.Load(opts.BoardPath)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	ledger, err := ownership.New(b)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	reg, err := players.New(opts.PlayerCount, opts.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}

	t := &Table{Board: b, Ledger: ledger, Players: reg, Seed: opts.DiceSeed}

	source := opts.Dice
	if source == nil {
		if t.Seed == 0 {
			if t.Seed, err = dice.NewSeed(); err != nil {
				return nil, fmt.Errorf("dice: %w", err)
			}
		}
		source = dice.NewRandom(t.Seed)
	}

	log = log.WithField("game", opts.GameID)
	t.log = log
	t.Transfer = transfer.New(b, ledger, reg, log)
	t.Machine, err = turn.New(turn.Config{
		GameID:    opts.GameID,
		Board:     b,
		Players:   reg,
		Ledger:    ledger,
		Transfer:  t.Transfer,
		Dice:      source,
		Log:       log,
		Observers: opts.Observers,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"players":    reg.Count(),
		"spaces":     b.Size(),
		"properties": ledger.Len(),
	}).Info("Table ready")
	return t, nil
}

func (t *Table) GameID() string {
	return t.Machine.GameID()
}

// Do runs one turn action so that State never sees it half applied.
func (t *Table) Do(action turn.Action, player models.PlayerID) (turn.Tag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch action {
	case turn.ActionRoll:
		return t.Machine.Roll(player)
	case turn.ActionBuy:
		return t.Machine.BuyProperty(player)
	case turn.ActionPayRent:
		return t.Machine.PayRent(player)
	case turn.ActionFinishTurn:
		return t.Machine.FinishTurn(player)
	}
	return t.Machine.Tag(), fmt.Errorf("%w: unknown action %q", turn.ErrIllegalAction, action)
}

func (t *Table) State() models.TableDto {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tag := t.Machine.Tag()
	dto := models.TableDto{
		GameId: t.GameID(),
		Player: tag.Player,
		Phase:  tag.Phase.String(),
		Legal:  string(tag.Phase.Legal()),
		Owners: map[string]models.OwnerDto{},
	}
	if space, ok := t.Machine.Space(); ok {
		dto.Space = &space
		if tag.Phase == turn.OwnedProperty {
			rent, err := t.Transfer.Rent(space)
			if err != nil {
				t.log.WithError(err).WithField("space", space.Name).Error("Failed pricing rent")
			}
			dto.RentDue = rent
		}
	}
	if r, ok := t.Machine.LastRoll(); ok {
		dto.Dice = []int{r.Die1, r.Die2}
	}

	for _, id := range t.Players.IDs() {
		bal, err := t.Players.Balance(id)
		if err != nil {
			t.log.WithError(err).WithField("player", id).Error("Failed reading balance")
		}
		loc, err := t.Players.LocationOf(id)
		if err != nil {
			t.log.WithError(err).WithField("player", id).Error("Failed reading location")
		}
		props := t.Ledger.OwnedBy(id)
		if props == nil {
			props = []string{}
		}
		dto.Players = append(dto.Players, models.PlayerDto{
			Id:         id,
			Balance:    bal,
			Pos:        int(loc),
			Properties: props,
			Active:     id == tag.Player,
		})
	}

	for name, rec := range t.Ledger.Snapshot() {
		if rec.Owned() {
			dto.Owners[name] = models.OwnerDto{Owner: rec.Player, FullSet: rec.FullSet}
		}
	}
	return dto
}

// Ownership reports the owner of one ownable space by name.
func (t *Table) Ownership(name string) (models.OwnerDto, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, err := t.Ledger.OwnerOf(name)
	if err != nil {
		return models.OwnerDto{}, err
	}
	return models.OwnerDto{Owner: rec.Player, FullSet: rec.FullSet}, nil
}

// Groups lists the ownable colour groups and their members in board order.
func (t *Table) Groups() map[string][]string {
	out := map[string][]string{}
	for _, s := range t.Board.Spaces() {
		if s.Ownable() {
			out[s.Group] = t.Board.SetOf(s.Group)
		}
	}
	return out
}
