// Package ownership tracks who holds each ownable space and whether that
// holder has completed the space's monopoly set.
//
// Every ownable name is registered once at construction and stays in the
// ledger for its whole lifetime; only the owner and full-set flag change.
// Asking about a name that was never registered is an error, which keeps
// "never seen" distinct from "seen, unowned".
package ownership

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/DedS3t/monopoly-engine/app/models"
)

const (
	MinSetSize = 2
	MaxSetSize = 4
)

var (
	ErrDuplicateName   = errors.New("ownership: duplicate property name")
	ErrUnknownProperty = errors.New("ownership: unknown property")
	ErrInvalidSet      = errors.New("ownership: invalid set")
)

// Record is the owner of a property. A zero Record means no owner.
type Record struct {
	Player  models.PlayerID `json:"player"`
	FullSet bool            `json:"full_set"`
}

func (r Record) Owned() bool {
	return r.Player != models.NoPlayer
}

// Spaces is the part of a board the ledger needs to build itself.
type Spaces interface {
	Spaces() []models.Space
}

// Ledger maps property names to owner records. It is safe for concurrent
// use; each method is one atomic unit.
type Ledger struct {
	mu     sync.RWMutex
	owners map[string]Record
}

// New registers every ownable space on b with no owner.
func New(b Spaces) (*Ledger, error) {
	l := &Ledger{owners: make(map[string]Record)}
	for _, space := range b.Spaces() {
		if !space.Kind.Ownable() {
			continue
		}
		if _, exists := l.owners[space.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, space.Name)
		}
		l.owners[space.Name] = Record{}
	}
	return l, nil
}

// OwnerOf returns the record for name. The record's Owned reports false
// for a registered property nobody holds.
func (l *Ledger) OwnerOf(name string) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.get(name)
}

// Acquire gives name to player if nobody owns it yet, then marks the whole
// set when player now holds all of setNames. It returns false without
// error when name already has an owner.
func (l *Ledger) Acquire(player models.PlayerID, name string, setNames []string) (bool, error) {
	if player == models.NoPlayer {
		return false, fmt.Errorf("ownership: acquire %s: no player", name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validate(name, setNames); err != nil {
		return false, err
	}
	if l.owners[name].Owned() {
		return false, nil
	}

	l.owners[name] = Record{Player: player}
	if l.sameOwner(player, setNames) {
		for _, sn := range setNames {
			l.owners[sn] = Record{Player: player, FullSet: true}
		}
	}
	return true, nil
}

// Release returns name to the bank if player owns it. The full-set flag is
// cleared on every member of setNames that player still holds.
func (l *Ledger) Release(player models.PlayerID, name string, setNames []string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validate(name, setNames); err != nil {
		return false, err
	}
	if l.owners[name].Player != player || !l.owners[name].Owned() {
		return false, nil
	}

	for _, sn := range setNames {
		if l.owners[sn].Player == player {
			l.owners[sn] = Record{Player: player}
		}
	}
	l.owners[name] = Record{}
	return true, nil
}

// IsFullSetOwned reports whether player currently owns every name in
// setNames. It recomputes from owners and never changes the ledger.
func (l *Ledger) IsFullSetOwned(player models.PlayerID, setNames []string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := checkSetSize(setNames); err != nil {
		return false, err
	}
	for _, sn := range setNames {
		if _, err := l.get(sn); err != nil {
			return false, err
		}
	}
	if player == models.NoPlayer {
		return false, nil
	}
	return l.sameOwner(player, setNames), nil
}

// OwnedBy lists the properties player holds, sorted by name.
func (l *Ledger) OwnedBy(player models.PlayerID) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var names []string
	for name, rec := range l.owners {
		if rec.Owned() && rec.Player == player {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Snapshot copies every record.
func (l *Ledger) Snapshot() map[string]Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]Record, len(l.owners))
	for name, rec := range l.owners {
		out[name] = rec
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.owners)
}

func (l *Ledger) get(name string) (Record, error) {
	rec, ok := l.owners[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return rec, nil
}

// validate runs before any mutation so a rejected call leaves the ledger
// untouched.
func (l *Ledger) validate(name string, setNames []string) error {
	if err := checkSetSize(setNames); err != nil {
		return err
	}
	if !contains(setNames, name) {
		return fmt.Errorf("%w: set %v does not include %s", ErrInvalidSet, setNames, name)
	}
	for _, sn := range setNames {
		if _, err := l.get(sn); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) sameOwner(player models.PlayerID, setNames []string) bool {
	for _, sn := range setNames {
		if l.owners[sn].Player != player {
			return false
		}
	}
	return true
}

func checkSetSize(setNames []string) error {
	if len(setNames) < MinSetSize || len(setNames) > MaxSetSize {
		return fmt.Errorf("%w: set has %d entries, want %d..%d", ErrInvalidSet, len(setNames), MinSetSize, MaxSetSize)
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
