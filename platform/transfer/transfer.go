// Package transfer moves money for purchases and rent and commits the
// matching ownership change.
package transfer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/ownership"
	"github.com/DedS3t/monopoly-engine/platform/players"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotOwnable   = errors.New("transfer: space cannot be owned")
	ErrAlreadyOwned = errors.New("transfer: property already owned")
	ErrNotOwned     = errors.New("transfer: property has no owner")
)

type Sets interface {
	SetOf(group string) []string
}

type Ledger interface {
	OwnerOf(name string) (ownership.Record, error)
	Acquire(player models.PlayerID, name string, setNames []string) (bool, error)
	Release(player models.PlayerID, name string, setNames []string) (bool, error)
	OwnedBy(player models.PlayerID) []string
}

type Wallets interface {
	CanAfford(id models.PlayerID, cost int) bool
	Debit(id models.PlayerID, amount int) error
	Pay(from, to models.PlayerID, amount int) error
}

type Transfer struct {
	mu      sync.Mutex
	sets    Sets
	ledger  Ledger
	wallets Wallets
	log     *logrus.Entry
}

func New(sets Sets, ledger Ledger, wallets Wallets, log *logrus.Entry) *Transfer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Transfer{
		sets:    sets,
		ledger:  ledger,
		wallets: wallets,
		log:     log.WithField("component", "transfer"),
	}
}

// BuyProperty charges player the space's price and records the purchase in
// the ledger. Nothing changes unless both succeed.
func (t *Transfer) BuyProperty(player models.PlayerID, space models.Space) error {
	if !space.Ownable() {
		return fmt.Errorf("%w: %s is %s", ErrNotOwnable, space.Name, space.Kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.ledger.OwnerOf(space.Name)
	if err != nil {
		return err
	}
	if rec.Owned() {
		return fmt.Errorf("%w: %s by player %d", ErrAlreadyOwned, space.Name, rec.Player)
	}
	if !t.wallets.CanAfford(player, space.Price) {
		return fmt.Errorf("%w: player %d cannot pay %d for %s", players.ErrInsufficientFunds, player, space.Price, space.Name)
	}

	set := t.sets.SetOf(space.Group)
	ok, err := t.ledger.Acquire(player, space.Name, set)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, space.Name)
	}
	if err := t.wallets.Debit(player, space.Price); err != nil {
		if _, rerr := t.ledger.Release(player, space.Name, set); rerr != nil {
			t.log.WithError(rerr).Error("Failed rolling back purchase")
		}
		return err
	}

	t.log.WithFields(logrus.Fields{
		"player": player,
		"space":  space.Name,
		"price":  space.Price,
	}).Debug("Property bought")
	return nil
}

// PayRent moves the rent due on space from player to its owner. Landing on
// your own property costs nothing.
func (t *Transfer) PayRent(player models.PlayerID, space models.Space) error {
	if !space.Ownable() {
		return fmt.Errorf("%w: %s is %s", ErrNotOwnable, space.Name, space.Kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.ledger.OwnerOf(space.Name)
	if err != nil {
		return err
	}
	if !rec.Owned() {
		return fmt.Errorf("%w: %s", ErrNotOwned, space.Name)
	}
	if rec.Player == player {
		return nil
	}

	rent := t.rent(space, rec)
	if err := t.wallets.Pay(player, rec.Player, rent); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"player": player,
		"owner":  rec.Player,
		"space":  space.Name,
		"rent":   rent,
	}).Debug("Rent paid")
	return nil
}

// Rent is the amount a visitor owes on space right now, or 0 if nobody
// owns it.
func (t *Transfer) Rent(space models.Space) (int, error) {
	if !space.Ownable() {
		return 0, fmt.Errorf("%w: %s is %s", ErrNotOwnable, space.Name, space.Kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.ledger.OwnerOf(space.Name)
	if err != nil {
		return 0, err
	}
	if !rec.Owned() {
		return 0, nil
	}
	return t.rent(space, rec), nil
}

func (t *Transfer) rent(space models.Space, rec ownership.Record) int {
	switch space.Kind {
	case models.Train:
		n := t.ownedInSet(rec.Player, space.Group)
		if n >= 1 && n <= len(space.MultipliedRent) {
			return space.MultipliedRent[n-1]
		}
		return space.Rent
	case models.Deed, models.Utility:
		if rec.FullSet {
			return space.Rent * 2
		}
		return space.Rent
	}
	return 0
}

func (t *Transfer) ownedInSet(player models.PlayerID, group string) int {
	inSet := make(map[string]bool)
	for _, name := range t.sets.SetOf(group) {
		inSet[name] = true
	}
	n := 0
	for _, name := range t.ledger.OwnedBy(player) {
		if inSet[name] {
			n++
		}
	}
	return n
}
