package turn

import (
	"encoding/json"
	"fmt"

	"github.com/DedS3t/monopoly-engine/app/models"
)

type Phase int

const (
	Roll Phase = iota
	UnownedProperty
	OwnedProperty
	Finish
)

func (p Phase) String() string {
	switch p {
	case Roll:
		return "Roll"
	case UnownedProperty:
		return "UnownedProperty"
	case OwnedProperty:
		return "OwnedProperty"
	case Finish:
		return "Finish"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Action names an operation on the machine.
type Action string

const (
	ActionRoll       Action = "roll"
	ActionBuy        Action = "buy-property"
	ActionPayRent    Action = "pay-rent"
	ActionFinishTurn Action = "finish-turn"
)

// Legal is the one action the active player may take in phase p.
func (p Phase) Legal() Action {
	switch p {
	case Roll:
		return ActionRoll
	case UnownedProperty:
		return ActionBuy
	case OwnedProperty:
		return ActionPayRent
	case Finish:
		return ActionFinishTurn
	}
	return ""
}

// Tag is whose turn it is and how far through it they are.
type Tag struct {
	Player models.PlayerID `json:"player"`
	Phase  Phase           `json:"phase"`
}

func (t Tag) String() string {
	return fmt.Sprintf("player %d %s", t.Player, t.Phase)
}
