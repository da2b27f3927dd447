package combat

import (
	"encoding/json"
	"fmt"
)

type SimResult struct {
	BattleID     string             `json:"battle_id"`
	Winner       string             `json:"winner,omitempty"`
	WinnerSide   *Side              `json:"winner_side,omitempty"`
	TimedOut     bool               `json:"timed_out,omitempty"`
	Ticks        uint64             `json:"ticks"`
	Duration     float64            `json:"duration"`
	Events       []Event            `json:"events,omitempty"`
	DamageByUnit map[string]float64 `json:"damage_by_unit"`
	Crits        map[string]int     `json:"crits,omitempty"`
	Deaths       []string           `json:"deaths,omitempty"`
	Meta         SimMeta            `json:"meta"`
	Units        []Unit             `json:"units"`
}

type SimMeta struct {
	Player1 string   `json:"player1"`
	Player2 string   `json:"player2"`
	Bounty1 uint32   `json:"bounty1"`
	Bounty2 uint32   `json:"bounty2"`
	Notes   []string `json:"notes,omitempty"`
}

type Env struct {
	Time  float64
	Delta float64
	Rng   Rand
}

// RunSingle drives a seeded battle to completion on the calling goroutine,
// stopping after maxTicks if neither side has been wiped out.
func RunSingle(env *Env, b *Battle, p *Pipeline, maxTicks int, record bool) SimResult {
	var events []Event
	emit := func(ev Event) {
		if record {
			events = append(events, ev)
		}
	}

	damageByUnit := map[string]float64{}
	crits := map[string]int{}
	var deaths []string
	names := map[string]string{}
	for _, u := range b.Units() {
		if u.RosterID != "" {
			names[u.ID] = u.Owner + "/" + u.RosterID
		}
	}
	label := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	prevHit, prevDeath, prevEmit := p.OnHit, p.OnDeath, p.Emit
	defer func() { p.OnHit, p.OnDeath, p.Emit = prevHit, prevDeath, prevEmit }()
	p.OnHit = func(b *Battle, h Hit) {
		damageByUnit[label(h.Attacker)] += float64(h.Damage)
		if h.Crit {
			crits[label(h.Attacker)]++
		}
		if prevHit != nil {
			prevHit(b, h)
		}
	}
	p.OnDeath = func(b *Battle, u *Unit) {
		deaths = append(deaths, label(u.ID))
		if prevDeath != nil {
			prevDeath(b, u)
		}
	}
	p.Emit = func(ev Event) {
		emit(ev)
		if prevEmit != nil {
			prevEmit(ev)
		}
	}

	if env.Delta == 0 {
		env.Delta = p.tc.DeltaTime()
	}
	meta := SimMeta{Player1: b.Player1, Player2: b.Player2, Bounty1: b.Bounty1, Bounty2: b.Bounty2}
	emit(Event{T: env.Time, Type: "BattleStart", Payload: map[string]any{
		"battle_id": b.ID, "left": b.AliveCount(SideLeft), "right": b.AliveCount(SideRight),
	}})

	for i := 0; b.Status == InProgress && (maxTicks <= 0 || i < maxTicks); i++ {
		if err := p.Tick(b, env.Rng); err != nil {
			meta.Notes = append(meta.Notes, err.Error())
			break
		}
		env.Time += env.Delta
	}

	res := SimResult{
		BattleID:     b.ID,
		Ticks:        b.Turn,
		Duration:     env.Time,
		DamageByUnit: damageByUnit,
		Crits:        crits,
		Deaths:       deaths,
		Meta:         meta,
	}
	if o, ok := b.Outcome(); ok {
		res.Winner = o.Winner
		side := o.WinnerSide
		res.WinnerSide = &side
	} else {
		res.TimedOut = true
		meta.Notes = append(meta.Notes, fmt.Sprintf("no winner after %d ticks", b.Turn))
		res.Meta = meta
	}
	for _, u := range b.Units() {
		res.Units = append(res.Units, *u)
	}
	if record {
		res.Events = events
	}
	return res
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
