package combat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Status uint8

const (
	WaitingForOpponent Status = iota
	InProgress
	Finished
)

func (s Status) String() string {
	switch s {
	case WaitingForOpponent:
		return "waiting_for_opponent"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var (
	ErrBattleNotWaiting = errors.New("battle is not waiting for an opponent")
	ErrBattleNotStarted = errors.New("battle has not started")
	ErrBattleFinished   = errors.New("battle already finished")
	ErrSamePlayer       = errors.New("player cannot join their own battle")
	ErrMissingPlayer    = errors.New("player id is empty")
	ErrAlreadySeeded    = errors.New("battle already has units")
	ErrTooManyUnits     = errors.New("too many units for one side")
	ErrInvalidUnit      = errors.New("invalid unit")
)

var newBattleID = func() string { return "b_" + uuid.NewString() }

// Battle owns the unit set of one fight. Units are never physically removed
// when they die; RemoveUnit exists for records that vanish from outside.
type Battle struct {
	ID      string `json:"id"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2,omitempty"`
	Winner  string `json:"winner,omitempty"`
	Status  Status `json:"status"`
	Turn    uint64 `json:"turn"`
	Bounty1 uint32 `json:"bounty1"`
	Bounty2 uint32 `json:"bounty2"`

	units []*Unit
}

// Outcome is handed to settlement once a battle finishes.
type Outcome struct {
	BattleID   string `json:"battle_id"`
	Winner     string `json:"winner"`
	Loser      string `json:"loser"`
	WinnerSide Side   `json:"winner_side"`
	Turn       uint64 `json:"turn"`
	Bounty     uint32 `json:"bounty"`
}

func NewBattle(player1 string, bounty uint32) *Battle {
	return &Battle{
		ID:      newBattleID(),
		Player1: player1,
		Bounty1: bounty,
		Status:  WaitingForOpponent,
	}
}

// Join seats the second player and starts the battle, capturing their bounty.
func (b *Battle) Join(player2 string, bounty uint32) error {
	if b.Status != WaitingForOpponent {
		return ErrBattleNotWaiting
	}
	if player2 == "" {
		return ErrMissingPlayer
	}
	if player2 == b.Player1 {
		return ErrSamePlayer
	}
	b.Player2 = player2
	b.Bounty2 = bounty
	b.Status = InProgress
	return nil
}

func (b *Battle) Owner(s Side) string {
	if s == SideLeft {
		return b.Player1
	}
	return b.Player2
}

// Seed builds both sides from their rosters. It may run once, after Join.
func (b *Battle) Seed(f *UnitFactory, left, right RosterSide) error {
	switch b.Status {
	case WaitingForOpponent:
		return ErrBattleNotStarted
	case Finished:
		return ErrBattleFinished
	}
	if len(b.units) > 0 {
		return ErrAlreadySeeded
	}
	for _, rs := range []RosterSide{left, right} {
		if len(rs.Entries) > f.tc.MaxUnitsPerSide {
			return fmt.Errorf("%w: %s has %d, limit %d", ErrTooManyUnits, rs.Owner, len(rs.Entries), f.tc.MaxUnitsPerSide)
		}
	}
	units := make([]*Unit, 0, len(left.Entries)+len(right.Entries))
	for i, rs := range []RosterSide{left, right} {
		side := Side(i)
		for idx, e := range rs.Entries {
			u := f.NewUnit(e, rs.Upgrades)
			u.Side = side
			u.Owner = b.Owner(side)
			u.Pos = SpawnPosition(idx, side, f.tc)
			units = append(units, u)
		}
	}
	for _, u := range units {
		if err := b.AddUnit(u); err != nil {
			b.units = nil
			return err
		}
	}
	return nil
}

// AddUnit attaches a unit to the battle after checking the record invariants.
func (b *Battle) AddUnit(u *Unit) error {
	switch {
	case u == nil:
		return fmt.Errorf("%w: nil", ErrInvalidUnit)
	case !u.Side.Valid():
		return fmt.Errorf("%w: %s side %d", ErrInvalidUnit, u.ID, u.Side)
	case !(u.Radius > 0):
		return fmt.Errorf("%w: %s radius %v", ErrInvalidUnit, u.ID, u.Radius)
	case u.HP > u.MaxHP || u.Mana > u.MaxMana:
		return fmt.Errorf("%w: %s hp or mana above max", ErrInvalidUnit, u.ID)
	}
	if b.Unit(u.ID) != nil {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidUnit, u.ID)
	}
	u.BattleID = b.ID
	b.units = append(b.units, u)
	return nil
}

// Unit returns the live record for id, or nil if it no longer exists.
func (b *Battle) Unit(id string) *Unit {
	for _, u := range b.units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (b *Battle) RemoveUnit(id string) bool {
	for i, u := range b.units {
		if u.ID == id {
			b.units = append(b.units[:i], b.units[i+1:]...)
			return true
		}
	}
	return false
}

// Units returns the battle's unit records, dead ones included.
func (b *Battle) Units() []*Unit {
	return b.units
}

func (b *Battle) AliveCount(s Side) int {
	n := 0
	for _, u := range b.units {
		if u.Side == s && u.Alive() {
			n++
		}
	}
	return n
}

// EvaluateEnd finishes the battle once a side has no living units. When
// both sides are wiped out in the same tick side 0 wins.
func (b *Battle) EvaluateEnd() bool {
	if b.Status != InProgress {
		return false
	}
	left, right := b.AliveCount(SideLeft), b.AliveCount(SideRight)
	switch {
	case left > 0 && right > 0:
		return false
	case left == 0 && right > 0:
		b.Winner = b.Player2
	default:
		b.Winner = b.Player1
	}
	b.Status = Finished
	return true
}

// Outcome reports the result of a finished battle.
func (b *Battle) Outcome() (Outcome, bool) {
	if b.Status != Finished {
		return Outcome{}, false
	}
	o := Outcome{BattleID: b.ID, Winner: b.Winner, Turn: b.Turn}
	if b.Winner == b.Player1 {
		o.WinnerSide, o.Loser, o.Bounty = SideLeft, b.Player2, b.Bounty2
	} else {
		o.WinnerSide, o.Loser, o.Bounty = SideRight, b.Player1, b.Bounty1
	}
	return o, true
}

// Snapshot deep-copies the battle and its units.
func (b *Battle) Snapshot() *Battle {
	c := *b
	c.units = make([]*Unit, len(b.units))
	for i, u := range b.units {
		c.units[i] = u.clone()
	}
	return &c
}
