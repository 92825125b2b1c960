package turn

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/dice"
	"github.com/DedS3t/monopoly-engine/platform/ownership"
	"github.com/DedS3t/monopoly-engine/platform/players"
	"github.com/DedS3t/monopoly-engine/platform/transfer"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// 0 Go, 2-3 brown, 4 tax, 5/7 stations, 9/11 utilities.
func testSpaces() []models.Space {
	return []models.Space{
		{Name: "Go", Kind: models.Go, Position: 0},
		{Name: "Jail", Kind: models.Jail, Position: 1},
		{Name: "Old Kent Road", Kind: models.Deed, Group: "brown", Position: 2, Price: 60, Rent: 2},
		{Name: "Whitechapel Road", Kind: models.Deed, Group: "brown", Position: 3, Price: 60, Rent: 4},
		{Name: "Income Tax", Kind: models.Tax, Position: 4},
		{Name: "King's Cross", Kind: models.Train, Group: "stations", Position: 5, Price: 200, Rent: 25, MultipliedRent: []int{25, 50}},
		{Name: "Chance", Kind: models.Card, Position: 6},
		{Name: "Marylebone", Kind: models.Train, Group: "stations", Position: 7, Price: 200, Rent: 25, MultipliedRent: []int{25, 50}},
		{Name: "Free Parking", Kind: models.FreeParking, Position: 8},
		{Name: "Electric Company", Kind: models.Utility, Group: "utilities", Position: 9, Price: 150, Rent: 20},
		{Name: "Go To Jail", Kind: models.GoToJail, Position: 10},
		{Name: "Water Works", Kind: models.Utility, Group: "utilities", Position: 11, Price: 150, Rent: 20},
	}
}

type fixture struct {
	board   *board.Board
	ledger  *ownership.Ledger
	players *players.Registry
	machine *Machine
	events  []Event
}

func quietLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func newFixture(t *testing.T, count, balance int, src dice.Source) *fixture {
	t.Helper()
	b, err := board.New(testSpaces())
	require.NoError(t, err)
	l, err := ownership.New(b)
	require.NoError(t, err)
	p, err := players.New(count, balance)
	require.NoError(t, err)

	f := &fixture{board: b, ledger: l, players: p}
	f.machine, err = New(Config{
		GameID:    "test",
		Board:     b,
		Players:   p,
		Ledger:    l,
		Transfer:  transfer.New(b, l, p, quietLog()),
		Dice:      src,
		Log:       quietLog(),
		Observers: []Observer{ObserverFunc(func(e Event) { f.events = append(f.events, e) })},
	})
	require.NoError(t, err)
	return f
}

func roll(d1, d2 int) dice.Roll {
	return dice.Roll{Die1: d1, Die2: d2}
}

func TestNew_StartsAtRoll(t *testing.T) {
	f := newFixture(t, 4, 1500, dice.Sequence(roll(1, 1)))
	assert.Equal(t, Tag{Player: 1, Phase: Roll}, f.machine.Tag())
	assert.Equal(t, ActionRoll, f.machine.Legal())
	_, ok := f.machine.Space()
	assert.False(t, ok)
	_, ok = f.machine.LastRoll()
	assert.False(t, ok)
}

func TestNew_UsesRegistryCurrentPlayer(t *testing.T) {
	b, err := board.New(testSpaces())
	require.NoError(t, err)
	l, err := ownership.New(b)
	require.NoError(t, err)
	p, err := players.New(3, 1500)
	require.NoError(t, err)
	require.NoError(t, p.SetCurrentPlayer(3))

	m, err := New(Config{Board: b, Players: p, Ledger: l, Transfer: transfer.New(b, l, p, quietLog()), Dice: dice.Sequence(roll(1, 1))})
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 3, Phase: Roll}, m.Tag())
}

func TestNew_MissingDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRoll_WrongPlayerIsNoop(t *testing.T) {
	f := newFixture(t, 4, 1500, dice.Sequence(roll(1, 1), roll(2, 2)))

	tag, err := f.machine.Roll(2)
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 1, Phase: Roll}, tag)
	assert.Empty(t, f.events)

	// the ignored call must not have consumed a roll
	tag, err = f.machine.Roll(1)
	require.NoError(t, err)
	assert.Equal(t, UnownedProperty, tag.Phase)
	r, ok := f.machine.LastRoll()
	require.True(t, ok)
	assert.Equal(t, roll(1, 1), r)
}

func TestRoll_RejectsOutOfRangeDice(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(0, 7)))

	tag, err := f.machine.Roll(1)
	assert.ErrorIs(t, err, ErrInvalidRoll)
	assert.Equal(t, Tag{Player: 1, Phase: Roll}, tag)

	loc, err := f.players.LocationOf(1)
	require.NoError(t, err)
	assert.Equal(t, board.Location(0), loc)
	_, ok := f.machine.LastRoll()
	assert.False(t, ok)
	assert.Empty(t, f.events)
}

func TestRoll_PhaseByLandedSpace(t *testing.T) {
	tests := []struct {
		name  string
		roll  dice.Roll
		owned bool
		want  Phase
		space string
	}{
		{name: "unowned deed", roll: roll(1, 1), want: UnownedProperty, space: "Old Kent Road"},
		{name: "owned deed", roll: roll(1, 1), owned: true, want: OwnedProperty, space: "Old Kent Road"},
		{name: "unowned train", roll: roll(2, 3), want: UnownedProperty, space: "King's Cross"},
		{name: "utility", roll: roll(4, 5), want: UnownedProperty, space: "Electric Company"},
		{name: "tax", roll: roll(2, 2), want: Finish, space: "Income Tax"},
		{name: "card", roll: roll(3, 3), want: Finish, space: "Chance"},
		{name: "free parking", roll: roll(4, 4), want: Finish, space: "Free Parking"},
		{name: "go to jail", roll: roll(5, 5), want: Finish, space: "Go To Jail"},
		{name: "wrap to go", roll: roll(6, 6), want: Finish, space: "Go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 1500, dice.Sequence(tt.roll))
			if tt.owned {
				_, err := f.ledger.Acquire(2, tt.space, f.board.SetOf("brown"))
				require.NoError(t, err)
			}

			tag, err := f.machine.Roll(1)
			require.NoError(t, err)
			assert.Equal(t, Tag{Player: 1, Phase: tt.want}, tag)

			space, ok := f.machine.Space()
			require.True(t, ok)
			assert.Equal(t, tt.space, space.Name)
		})
	}
}

func TestRoll_StoresComputedLocation(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(3, 4)))
	require.NoError(t, f.players.SetLocation(1, 9))

	_, err := f.machine.Roll(1)
	require.NoError(t, err)

	loc, err := f.players.LocationOf(1)
	require.NoError(t, err)
	assert.Equal(t, board.Location(4), loc)
	space, _ := f.machine.Space()
	assert.Equal(t, "Income Tax", space.Name)
}

func TestRoll_DoublesDoNotRepeat(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(2, 2)))
	tag, err := f.machine.Roll(1)
	require.NoError(t, err)
	assert.Equal(t, Finish, tag.Phase)

	tag, err = f.machine.Roll(1)
	assert.ErrorIs(t, err, ErrIllegalAction)
	assert.Equal(t, Tag{Player: 1, Phase: Finish}, tag)
}

func TestEndToEnd_BuyThenFinish(t *testing.T) {
	f := newFixture(t, 4, 1500, dice.Sequence(roll(1, 1)))

	tag, err := f.machine.Roll(1)
	require.NoError(t, err)
	require.Equal(t, Tag{Player: 1, Phase: UnownedProperty}, tag)

	tag, err = f.machine.BuyProperty(1)
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 1, Phase: Finish}, tag)

	rec, err := f.ledger.OwnerOf("Old Kent Road")
	require.NoError(t, err)
	assert.Equal(t, models.PlayerID(1), rec.Player)
	bal, _ := f.players.Balance(1)
	assert.Equal(t, 1440, bal)

	tag, err = f.machine.FinishTurn(1)
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 2, Phase: Roll}, tag)
	assert.Equal(t, models.PlayerID(2), f.players.CurrentPlayer())
	_, ok := f.machine.Space()
	assert.False(t, ok)

	tag, err = f.machine.FinishTurn(1)
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 2, Phase: Roll}, tag)
}

func TestPayRent(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(1, 1)))

	_, err := f.machine.Roll(1)
	require.NoError(t, err)
	_, err = f.machine.BuyProperty(1)
	require.NoError(t, err)
	_, err = f.machine.FinishTurn(1)
	require.NoError(t, err)

	tag, err := f.machine.Roll(2)
	require.NoError(t, err)
	require.Equal(t, Tag{Player: 2, Phase: OwnedProperty}, tag)

	tag, err = f.machine.PayRent(1)
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 2, Phase: OwnedProperty}, tag)

	tag, err = f.machine.PayRent(2)
	require.NoError(t, err)
	assert.Equal(t, Tag{Player: 2, Phase: Finish}, tag)

	bal1, _ := f.players.Balance(1)
	bal2, _ := f.players.Balance(2)
	assert.Equal(t, 1500-60+2, bal1)
	assert.Equal(t, 1500-2, bal2)
}

func TestWrongPlayerNeverAdvances(t *testing.T) {
	f := newFixture(t, 3, 1500, dice.Sequence(roll(1, 1)))
	_, err := f.machine.Roll(1)
	require.NoError(t, err)

	for _, op := range []func(models.PlayerID) (Tag, error){
		f.machine.Roll, f.machine.BuyProperty, f.machine.PayRent, f.machine.FinishTurn,
	} {
		for _, caller := range []models.PlayerID{0, 2, 3, 99} {
			tag, err := op(caller)
			require.NoError(t, err)
			assert.Equal(t, Tag{Player: 1, Phase: UnownedProperty}, tag)
		}
	}
	assert.Len(t, f.events, 1)
}

func TestIllegalActionForPhase(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(1, 1)))

	for _, op := range []func(models.PlayerID) (Tag, error){
		f.machine.BuyProperty, f.machine.PayRent, f.machine.FinishTurn,
	} {
		tag, err := op(1)
		assert.ErrorIs(t, err, ErrIllegalAction)
		assert.Equal(t, Tag{Player: 1, Phase: Roll}, tag)
	}

	_, err := f.machine.Roll(1)
	require.NoError(t, err)
	_, err = f.machine.PayRent(1)
	assert.ErrorIs(t, err, ErrIllegalAction)
	_, err = f.machine.FinishTurn(1)
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestBuyProperty_InsufficientFundsFinishes(t *testing.T) {
	f := newFixture(t, 2, 50, dice.Sequence(roll(1, 1)))

	_, err := f.machine.Roll(1)
	require.NoError(t, err)
	tag, err := f.machine.BuyProperty(1)
	assert.ErrorIs(t, err, players.ErrInsufficientFunds)
	assert.Equal(t, Tag{Player: 1, Phase: Finish}, tag)

	rec, err := f.ledger.OwnerOf("Old Kent Road")
	require.NoError(t, err)
	assert.False(t, rec.Owned())
	bal, _ := f.players.Balance(1)
	assert.Equal(t, 50, bal)

	last := f.events[len(f.events)-1]
	assert.Equal(t, ActionBuy, last.Action)
	assert.ErrorIs(t, last.Err, players.ErrInsufficientFunds)
}

type failingTransfer struct{ err error }

func (f failingTransfer) BuyProperty(models.PlayerID, models.Space) error { return f.err }
func (f failingTransfer) PayRent(models.PlayerID, models.Space) error     { return f.err }

func TestBuyProperty_TransferFailureKeepsPhase(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(1, 1)))
	boom := errors.New("boom")
	f.machine.transfer = failingTransfer{err: boom}

	_, err := f.machine.Roll(1)
	require.NoError(t, err)
	tag, err := f.machine.BuyProperty(1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Tag{Player: 1, Phase: UnownedProperty}, tag)
}

func TestSpaceKindMismatch(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(1, 1)))
	tax := testSpaces()[4]
	f.machine.tag.Phase = UnownedProperty
	f.machine.space = &tax

	tag, err := f.machine.BuyProperty(1)
	assert.ErrorIs(t, err, ErrSpaceKindMismatch)
	assert.Equal(t, UnownedProperty, tag.Phase)

	f.machine.tag.Phase = OwnedProperty
	f.machine.space = nil
	_, err = f.machine.PayRent(1)
	assert.ErrorIs(t, err, ErrSpaceKindMismatch)
}

func TestFinishTurn_WrapsAround(t *testing.T) {
	f := newFixture(t, 3, 1500, dice.Sequence(roll(2, 2)))
	want := []models.PlayerID{2, 3, 1, 2}
	for _, next := range want {
		active := f.machine.Tag().Player
		_, err := f.machine.Roll(active)
		require.NoError(t, err)
		tag, err := f.machine.FinishTurn(active)
		require.NoError(t, err)
		assert.Equal(t, Tag{Player: next, Phase: Roll}, tag)
	}
}

func TestObserverEvents(t *testing.T) {
	f := newFixture(t, 2, 1500, dice.Sequence(roll(1, 1)))
	_, _ = f.machine.Roll(1)
	_, _ = f.machine.BuyProperty(1)
	_, _ = f.machine.FinishTurn(1)

	require.Len(t, f.events, 3)
	assert.Equal(t, ActionRoll, f.events[0].Action)
	assert.Equal(t, Roll, f.events[0].From)
	assert.Equal(t, Tag{Player: 1, Phase: UnownedProperty}, f.events[0].Tag)
	require.NotNil(t, f.events[0].Roll)
	assert.Equal(t, 2, f.events[0].Roll.Sum())
	assert.Equal(t, board.Location(2), f.events[0].Location)
	assert.Equal(t, "test", f.events[0].GameID)

	assert.Equal(t, ActionBuy, f.events[1].Action)
	require.NotNil(t, f.events[1].Space)
	assert.Equal(t, "Old Kent Road", f.events[1].Space.Name)

	assert.Equal(t, ActionFinishTurn, f.events[2].Action)
	assert.Equal(t, models.PlayerID(1), f.events[2].Previous)
	assert.Equal(t, Tag{Player: 2, Phase: Roll}, f.events[2].Tag)
	assert.Nil(t, f.events[2].Space)
}

func TestPhaseLegal(t *testing.T) {
	assert.Equal(t, ActionRoll, Roll.Legal())
	assert.Equal(t, ActionBuy, UnownedProperty.Legal())
	assert.Equal(t, ActionPayRent, OwnedProperty.Legal())
	assert.Equal(t, ActionFinishTurn, Finish.Legal())
	assert.Equal(t, "OwnedProperty", OwnedProperty.String())
}

// Random callers hammering random operations: the tag only ever moves
// along legal edges, and only the active player moves it.
func TestMachine_OnlyActivePlayerAdvances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		count := rapid.IntRange(2, 4).Draw(t, "players")

		b, _ := board.New(testSpaces())
		l, _ := ownership.New(b)
		p, _ := players.New(count, 400)
		m, err := New(Config{
			Board: b, Players: p, Ledger: l,
			Transfer: transfer.New(b, l, p, quietLog()),
			Dice:     dice.NewRandom(seed),
			Log:      quietLog(),
		})
		if err != nil {
			t.Fatalf("new machine: %v", err)
		}
		ops := map[Action]func(models.PlayerID) (Tag, error){
			ActionRoll:       m.Roll,
			ActionBuy:        m.BuyProperty,
			ActionPayRent:    m.PayRent,
			ActionFinishTurn: m.FinishTurn,
		}
		actions := []Action{ActionRoll, ActionBuy, ActionPayRent, ActionFinishTurn}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			before := m.Tag()
			caller := models.PlayerID(rapid.IntRange(1, count).Draw(t, fmt.Sprintf("caller%d", i)))
			action := rapid.SampledFrom(actions).Draw(t, fmt.Sprintf("action%d", i))

			after, err := ops[action](caller)
			if err != nil && !errors.Is(err, ErrIllegalAction) && !errors.Is(err, players.ErrInsufficientFunds) {
				t.Fatalf("unexpected error: %v", err)
			}
			if caller != before.Player || action != before.Phase.Legal() {
				if after != before {
					t.Fatalf("%s by %d moved %v to %v", action, caller, before, after)
				}
				continue
			}
			switch before.Phase {
			case Roll:
				if after.Player != before.Player || after.Phase == Roll {
					t.Fatalf("roll moved %v to %v", before, after)
				}
			case UnownedProperty, OwnedProperty:
				if after != (Tag{Player: before.Player, Phase: Finish}) {
					t.Fatalf("%s moved %v to %v", action, before, after)
				}
			case Finish:
				want := Tag{Player: p.NextPlayerAfter(before.Player), Phase: Roll}
				if after != want {
					t.Fatalf("finish moved %v to %v, want %v", before, after, want)
				}
			}
		}
	})
}
