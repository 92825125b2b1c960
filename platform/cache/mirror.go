package cache

import (
	"fmt"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/turn"
	"github.com/gomodule/redigo/redis"
	"github.com/sirupsen/logrus"
)

// Pool hands out connections; *redis.Pool satisfies it.
type Pool interface {
	Get() redis.Conn
}

type Players interface {
	IDs() []models.PlayerID
	LocationOf(id models.PlayerID) (board.Location, error)
	Balance(id models.PlayerID) (int, error)
}

// TurnMirror copies the turn tag and every seat's position and balance to
// redis after each transition, for UIs that read the table from there.
//
//	<game>            active player id
//	<game>.turn       hash: phase, legal, space, die1, die2
//	<game>.<player>   hash: pos, bal
type TurnMirror struct {
	pool    Pool
	players Players
	log     *logrus.Entry
}

func NewTurnMirror(pool Pool, players Players, log *logrus.Entry) *TurnMirror {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TurnMirror{pool: pool, players: players, log: log.WithField("component", "turn-mirror")}
}

func TurnKey(game string) string {
	return fmt.Sprintf("%s.turn", game)
}

func PlayerKey(game string, id models.PlayerID) string {
	return fmt.Sprintf("%s.%d", game, id)
}

func (m *TurnMirror) Observe(e turn.Event) {
	if err := m.Publish(e); err != nil {
		m.log.WithError(err).WithField("game_id", e.GameID).Warn("Failed mirroring turn")
	}
}

func (m *TurnMirror) Publish(e turn.Event) error {
	conn := m.pool.Get()
	defer conn.Close()

	space := ""
	if e.Space != nil {
		space = e.Space.Name
	}
	die1, die2 := 0, 0
	if e.Roll != nil {
		die1, die2 = e.Roll.Die1, e.Roll.Die2
	}

	cmds := []redis.Args{
		redis.Args{"SET"}.Add(e.GameID, int(e.Tag.Player)),
		redis.Args{"HSET"}.Add(TurnKey(e.GameID)).
			Add("phase", e.Tag.Phase.String()).
			Add("legal", string(e.Tag.Phase.Legal())).
			Add("space", space).
			Add("die1", die1).
			Add("die2", die2),
	}
	for _, id := range m.players.IDs() {
		pos, err := m.players.LocationOf(id)
		if err != nil {
			return err
		}
		bal, err := m.players.Balance(id)
		if err != nil {
			return err
		}
		cmds = append(cmds, redis.Args{"HSET"}.Add(PlayerKey(e.GameID, id)).Add("pos", int(pos)).Add("bal", bal))
	}
	return Tx(conn, cmds...)
}

// Clear removes every key the mirror wrote for game.
func (m *TurnMirror) Clear(game string) error {
	conn := m.pool.Get()
	defer conn.Close()

	keys := []string{game, TurnKey(game)}
	for _, id := range m.players.IDs() {
		keys = append(keys, PlayerKey(game, id))
	}
	return Del(conn, keys...)
}
