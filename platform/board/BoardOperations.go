package board

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/dice"
)

// Every monopoly set has between MinSetSize and MaxSetSize members.
const (
	MinSetSize = 2
	MaxSetSize = 4
)

var (
	ErrUnknownLocation = errors.New("board: unknown location")
	ErrMalformedBoard  = errors.New("board: malformed board")
)

//go:embed properties.json
var defaultProperties []byte

// Location is a board position counted from Go, 0..Size()-1.
type Location int

// Board is an immutable ring of spaces plus the monopoly sets derived
// from the spaces' groups.
type Board struct {
	spaces []models.Space
	sets   map[string][]string
}

func LoadProperties(path string) ([]models.Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board %s: %w", path, err)
	}
	return ParseProperties(data)
}

func ParseProperties(data []byte) ([]models.Space, error) {
	var properties []models.Space
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBoard, err)
	}
	return properties, nil
}

// Default returns the standard 40 space board.
func Default() (*Board, error) {
	spaces, err := ParseProperties(defaultProperties)
	if err != nil {
		return nil, err
	}
	return New(spaces)
}

// Load reads a board from path, falling back to the default when path is empty.
func Load(path string) (*Board, error) {
	if path == "" {
		return Default()
	}
	spaces, err := LoadProperties(path)
	if err != nil {
		return nil, err
	}
	return New(spaces)
}

// New indexes spaces by position. Every position from 0 to len(spaces)-1
// must appear exactly once, every ownable space must name a group of
// MinSetSize..MaxSetSize members, and no amount may be negative.
// Name uniqueness is left to the ownership ledger.
func New(spaces []models.Space) (*Board, error) {
	if len(spaces) == 0 {
		return nil, fmt.Errorf("%w: no spaces", ErrMalformedBoard)
	}
	ordered := make([]models.Space, len(spaces))
	filled := make([]bool, len(spaces))
	for _, space := range spaces {
		pos := space.Position
		if pos < 0 || pos >= len(spaces) {
			return nil, fmt.Errorf("%w: %q has position %d outside 0..%d", ErrMalformedBoard, space.Name, pos, len(spaces)-1)
		}
		if filled[pos] {
			return nil, fmt.Errorf("%w: position %d used twice", ErrMalformedBoard, pos)
		}
		if space.Ownable() && space.Group == "" {
			return nil, fmt.Errorf("%w: ownable %q has no group", ErrMalformedBoard, space.Name)
		}
		if err := checkAmounts(space); err != nil {
			return nil, err
		}
		ordered[pos] = space
		filled[pos] = true
	}

	sets := make(map[string][]string)
	for _, space := range ordered {
		if space.Ownable() {
			sets[space.Group] = append(sets[space.Group], space.Name)
		}
	}
	for group, names := range sets {
		if len(names) < MinSetSize || len(names) > MaxSetSize {
			return nil, fmt.Errorf("%w: group %q has %d spaces, want %d..%d", ErrMalformedBoard, group, len(names), MinSetSize, MaxSetSize)
		}
	}
	return &Board{spaces: ordered, sets: sets}, nil
}

func (b *Board) Size() int {
	return len(b.spaces)
}

func (b *Board) GetSpace(loc Location) (models.Space, error) {
	if int(loc) < 0 || int(loc) >= len(b.spaces) {
		return models.Space{}, fmt.Errorf("%w: %d", ErrUnknownLocation, loc)
	}
	return b.spaces[loc], nil
}

// MovePiece advances loc clockwise by the roll total, wrapping past Go.
func (b *Board) MovePiece(loc Location, roll dice.Roll) Location {
	n := len(b.spaces)
	next := (int(loc) + roll.Sum()) % n
	if next < 0 {
		next += n
	}
	return Location(next)
}

func (b *Board) GetByName(name string) (models.Space, error) { // O(N) time complexity
	for _, space := range b.spaces {
		if space.Name == name {
			return space, nil
		}
	}
	return models.Space{}, fmt.Errorf("board: no space named %q", name)
}

// SetOf returns the names of every ownable space in group, in board order.
func (b *Board) SetOf(group string) []string {
	return append([]string(nil), b.sets[group]...)
}

func (b *Board) Spaces() []models.Space {
	return append([]models.Space(nil), b.spaces...)
}

func checkAmounts(space models.Space) error {
	if space.Price < 0 || space.Rent < 0 || space.Mortgage < 0 {
		return fmt.Errorf("%w: %q has a negative amount", ErrMalformedBoard, space.Name)
	}
	for _, rent := range space.MultipliedRent {
		if rent < 0 {
			return fmt.Errorf("%w: %q has a negative multiplied rent", ErrMalformedBoard, space.Name)
		}
	}
	return nil
}
