package players

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
)

const (
	MinPlayers = 2
	MaxPlayers = 8
)

var (
	ErrUnknownPlayer     = errors.New("players: unknown player")
	ErrInsufficientFunds = errors.New("players: insufficient funds")
)

type player struct {
	pos board.Location
	bal int
}

// Registry holds the seats at a table: ids 1..count, their locations and
// balances, and whose turn the table is on.
type Registry struct {
	mu      sync.RWMutex
	seats   []player // index 0 is player 1
	current models.PlayerID
}

// New seats count players on Go, each holding startingBalance.
func New(count int, startingBalance int) (*Registry, error) {
	if count < MinPlayers || count > MaxPlayers {
		return nil, fmt.Errorf("players: need %d..%d players, got %d", MinPlayers, MaxPlayers, count)
	}
	if startingBalance < 0 {
		return nil, fmt.Errorf("players: negative starting balance %d", startingBalance)
	}
	r := &Registry{seats: make([]player, count), current: 1}
	for i := range r.seats {
		r.seats[i].bal = startingBalance
	}
	return r, nil
}

func (r *Registry) Count() int {
	return len(r.seats)
}

func (r *Registry) IDs() []models.PlayerID {
	ids := make([]models.PlayerID, len(r.seats))
	for i := range ids {
		ids[i] = models.PlayerID(i + 1)
	}
	return ids
}

func (r *Registry) Valid(id models.PlayerID) bool {
	return int(id) >= 1 && int(id) <= len(r.seats)
}

func (r *Registry) CurrentPlayer() models.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Registry) SetCurrentPlayer(id models.PlayerID) error {
	if !r.Valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	r.mu.Lock()
	r.current = id
	r.mu.Unlock()
	return nil
}

// NextPlayerAfter wraps from the last seat back to player 1.
func (r *Registry) NextPlayerAfter(id models.PlayerID) models.PlayerID {
	if !r.Valid(id) {
		return 1
	}
	return models.PlayerID(int(id)%len(r.seats) + 1)
}

func (r *Registry) LocationOf(id models.PlayerID) (board.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, err := r.seat(id)
	if err != nil {
		return 0, err
	}
	return p.pos, nil
}

func (r *Registry) SetLocation(id models.PlayerID, loc board.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.seat(id)
	if err != nil {
		return err
	}
	p.pos = loc
	return nil
}

func (r *Registry) Balance(id models.PlayerID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, err := r.seat(id)
	if err != nil {
		return 0, err
	}
	return p.bal, nil
}

func (r *Registry) CanAfford(id models.PlayerID, cost int) bool {
	bal, err := r.Balance(id)
	return err == nil && bal >= cost
}

// Debit takes amount from id, refusing to go below zero.
func (r *Registry) Debit(id models.PlayerID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.seat(id)
	if err != nil {
		return err
	}
	if p.bal < amount {
		return fmt.Errorf("%w: player %d has %d, needs %d", ErrInsufficientFunds, id, p.bal, amount)
	}
	p.bal -= amount
	return nil
}

// Pay moves amount from one player to another. Either both balances change
// or neither does.
func (r *Registry) Pay(from, to models.PlayerID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payer, err := r.seat(from)
	if err != nil {
		return err
	}
	payee, err := r.seat(to)
	if err != nil {
		return err
	}
	if payer.bal < amount {
		return fmt.Errorf("%w: player %d has %d, owes %d", ErrInsufficientFunds, from, payer.bal, amount)
	}
	payer.bal -= amount
	payee.bal += amount
	return nil
}

func (r *Registry) seat(id models.PlayerID) (*player, error) {
	if !r.Valid(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	return &r.seats[id-1], nil
}
