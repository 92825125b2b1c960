package models

// PlayerID identifies a seat at the table, 1..playerCount.
type PlayerID int

// NoPlayer is the zero PlayerID and never identifies a seat.
const NoPlayer PlayerID = 0

type PlayerDto struct {
	Id         PlayerID `json:"id"`
	Balance    int      `json:"balance"`
	Pos        int      `json:"pos"`
	Properties []string `json:"properties"`
	Active     bool     `json:"active"`
}
