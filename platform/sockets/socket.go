package socket

import (
	"encoding/json"
	"net/http"

	"github.com/DedS3t/monopoly-engine/platform/turn"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const namespace = "/"

// Room is anything that can fan an event out to a socket.io room;
// *socketio.Server satisfies it.
type Room interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// TurnMessage is the JSON payload pushed to the table room.
type TurnMessage struct {
	GameID string `json:"game_id"`
	Action string `json:"action"`
	Player int    `json:"player"`
	Phase  string `json:"phase"`
	Legal  string `json:"legal"`
	Space  string `json:"space,omitempty"`
	Dice   []int  `json:"dice,omitempty"`
	Error  string `json:"error,omitempty"`
}

func NewTurnMessage(e turn.Event) TurnMessage {
	msg := TurnMessage{
		GameID: e.GameID,
		Action: string(e.Action),
		Player: int(e.Tag.Player),
		Phase:  e.Tag.Phase.String(),
		Legal:  string(e.Tag.Phase.Legal()),
	}
	if e.Space != nil {
		msg.Space = e.Space.Name
	}
	if e.Roll != nil {
		msg.Dice = []int{e.Roll.Die1, e.Roll.Die2}
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	return msg
}

// Broadcaster pushes "turn-event" for every transition and "change-turn"
// with the new player id when the turn passes.
type Broadcaster struct {
	room Room
	log  *logrus.Entry
}

func NewBroadcaster(room Room, log *logrus.Entry) *Broadcaster {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Broadcaster{room: room, log: log.WithField("component", "sockets")}
}

func (b *Broadcaster) Observe(e turn.Event) {
	payload, err := json.Marshal(NewTurnMessage(e))
	if err != nil {
		b.log.WithError(err).Warn("Failed encoding turn event")
		return
	}
	b.room.BroadcastToRoom(namespace, e.GameID, "turn-event", string(payload))
	if e.Action == turn.ActionFinishTurn {
		b.room.BroadcastToRoom(namespace, e.GameID, "change-turn", int(e.Tag.Player))
	}
}

// Snapshot supplies the current table state sent to a socket on join.
type Snapshot func() interface{}

// NewServer builds the socket.io server. Clients emit "join-table" with the
// game id and receive the current state as "table".
func NewServer(gameID string, snapshot Snapshot, log *logrus.Entry) (*socketio.Server, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "sockets")

	server, err := socketio.NewServer(nil)
	if err != nil {
		return nil, err
	}

	server.OnConnect(namespace, func(s socketio.Conn) error {
		s.SetContext("")
		return nil
	})

	server.OnEvent(namespace, "join-table", func(s socketio.Conn, id string) {
		if id != gameID {
			s.Emit("error-message", "Invalid game")
			return
		}
		s.Join(id)
		state, err := json.Marshal(snapshot())
		if err != nil {
			log.WithError(err).Warn("Failed encoding table")
			return
		}
		s.Emit("table", string(state))
		log.WithField("socket", s.ID()).Debug("Socket joined table")
	})

	server.OnError(namespace, func(s socketio.Conn, e error) {
		log.WithError(e).Warn("Socket error")
	})

	server.OnDisconnect(namespace, func(s socketio.Conn, reason string) {
		s.LeaveAll()
	})

	return server, nil
}

// Handler mounts server under /socket.io/ behind CORS for the UI origins.
func Handler(server *socketio.Server, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
	})
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	return c.Handler(mux)
}
