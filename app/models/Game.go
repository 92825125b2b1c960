package models

import "time"

// TurnEvent is one row of the append-only turn journal.
type TurnEvent struct {
	tableName struct{} `pg:"turn_events"`

	Id        string    `pg:",pk" json:"id"`
	GameId    string    `pg:",notnull" json:"game_id"`
	Player    int       `pg:",use_zero" json:"player"`
	Action    string    `pg:",notnull" json:"action"`
	Phase     string    `pg:",notnull" json:"phase"`
	Space     string    `json:"space,omitempty"`
	Die1      int       `pg:",use_zero" json:"die1"`
	Die2      int       `pg:",use_zero" json:"die2"`
	CreatedAt time.Time `pg:"default:now()" json:"created_at"`
}

type TableDto struct {
	GameId  string              `json:"game_id"`
	Player  PlayerID            `json:"player"`
	Phase   string              `json:"phase"`
	Legal   string              `json:"legal"`
	Space   *Space              `json:"space,omitempty"`
	Dice    []int               `json:"dice,omitempty"`
	RentDue int                 `json:"rent_due,omitempty"`
	Players []PlayerDto         `json:"players"`
	Owners  map[string]OwnerDto `json:"owners"`
}

type OwnerDto struct {
	Owner   PlayerID `json:"owner"`
	FullSet bool     `json:"full_set"`
}
