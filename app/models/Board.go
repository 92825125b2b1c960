package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SpaceKind is the closed set of things a board location can be.
type SpaceKind int

const (
	Go SpaceKind = iota
	Deed
	Train
	Utility
	Jail
	Tax
	Card
	FreeParking
	GoToJail
)

var kindNames = map[SpaceKind]string{
	Go:          "go",
	Deed:        "deed",
	Train:       "train",
	Utility:     "utility",
	Jail:        "jail",
	Tax:         "tax",
	Card:        "card",
	FreeParking: "freeparking",
	GoToJail:    "gotojail",
}

func (k SpaceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SpaceKind(%d)", int(k))
}

// Ownable reports whether a player can hold a deed to a space of this kind.
func (k SpaceKind) Ownable() bool {
	switch k {
	case Deed, Train, Utility:
		return true
	case Go, Jail, Tax, Card, FreeParking, GoToJail:
		return false
	}
	return false
}

func ParseSpaceKind(s string) (SpaceKind, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == lower {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown space kind %q", s)
}

func (k SpaceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *SpaceKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseSpaceKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Space is one location on the board. Group names the monopoly set an
// ownable space belongs to and is empty for everything else.
type Space struct {
	Name           string    `json:"name"`
	Kind           SpaceKind `json:"type"`
	Group          string    `json:"group,omitempty"`
	Position       int       `json:"position"`
	Price          int       `json:"price,omitempty"`
	Rent           int       `json:"rent,omitempty"`
	MultipliedRent []int     `json:"multiplied_rent,omitempty"`
	Mortgage       int       `json:"mortgage,omitempty"`
}

func (s Space) Ownable() bool {
	return s.Kind.Ownable()
}
