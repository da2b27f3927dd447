package combat

import (
	"log/slog"
	"math"

	"crewarena/internal/config"
)

// Hit describes one queued damage instance.
type Hit struct {
	Attacker string
	Target   string
	Damage   uint32
	Crit     bool
	Splash   bool
}

// Pipeline runs one battle tick: rebuild the index, resolve attacks, move,
// commit damage and evaluate the end state. A Pipeline holds scratch buffers
// and must not be shared between goroutines.
type Pipeline struct {
	tc   *config.Tunables
	log  *slog.Logger
	grid *Grid

	pending []uint64
	ids     []string

	OnHit   func(b *Battle, h Hit)
	OnDeath func(b *Battle, u *Unit)
	Emit    func(Event)
}

func NewPipeline(tc *config.Tunables, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		tc:   tc,
		log:  log,
		grid: NewGrid(tc.GridCellSize, tc.GridWidth()),
	}
}

func (p *Pipeline) Grid() *Grid { return p.grid }

func (p *Pipeline) now(b *Battle) float64 {
	return float64(b.Turn) * p.tc.DeltaTime()
}

func (p *Pipeline) emit(b *Battle, typ string, payload map[string]any) {
	if p.Emit != nil {
		p.Emit(Event{T: p.now(b), Type: typ, Payload: payload})
	}
}

// Tick advances the battle by one fixed step.
func (p *Pipeline) Tick(b *Battle, rng Rand) error {
	switch b.Status {
	case WaitingForOpponent:
		return ErrBattleNotStarted
	case Finished:
		return ErrBattleFinished
	}
	p.BuildIndex(b)
	p.ResolveCombat(b, rng)
	p.Move(b)
	p.CommitDamage(b)
	b.Turn++
	if b.EvaluateEnd() {
		p.log.Info("battle finished", "battle_id", b.ID, "winner", b.Winner, "turn", b.Turn)
		p.emit(b, "BattleFinished", map[string]any{"winner": b.Winner, "turn": b.Turn})
	}
	return nil
}

// BuildIndex rebuilds the grid from the living units and clears the
// per-tick buffers.
func (p *Pipeline) BuildIndex(b *Battle) {
	p.grid.Build(b.Units())
	n := p.grid.Len()
	p.pending = resize(p.pending, n)
	p.ids = p.ids[:0]
	for s := 0; s < n; s++ {
		p.ids = append(p.ids, p.grid.Unit(s).ID)
	}
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	var zero T
	for i := range s {
		s[i] = zero
	}
	return s
}

// live resolves an indexed slot back to the battle's record. Records removed
// since the index was built come back nil.
func (p *Pipeline) live(b *Battle, slot int) *Unit {
	u := b.Unit(p.ids[slot])
	if u == nil {
		p.log.Debug("unit vanished mid-tick", "battle_id", b.ID, "unit_id", p.ids[slot])
	}
	return u
}

// ResolveCombat lets every indexed unit pick a target and queue damage.
// Targets are read from the index so no attack sees another's effect.
func (p *Pipeline) ResolveCombat(b *Battle, rng Rand) {
	dt := p.tc.DeltaTime()
	for s := 0; s < p.grid.Len(); s++ {
		u := p.live(b, s)
		if u == nil {
			continue
		}
		if u.Stunned {
			u.StunDuration -= dt
			if u.StunDuration <= 0 {
				u.Stunned = false
				u.StunDuration = 0
			}
			continue
		}
		u.AttackCooldown -= dt

		t := p.grid.NearestEnemy(s, p.tc.AttackRange)
		if t < 0 {
			u.TargetID = ""
			continue
		}
		target := p.live(b, t)
		if target == nil {
			continue
		}
		u.TargetID = target.ID
		if u.AttackCooldown > 0 {
			continue
		}
		p.attack(b, u, t, target, rng)
	}
}

func (p *Pipeline) attack(b *Battle, u *Unit, t int, target *Unit, rng Rand) {
	dmg, crit := ComputeDamage(u, target, rng.Float64(), p.tc)
	p.queue(b, Hit{Attacker: u.ID, Target: target.ID, Damage: dmg, Crit: crit}, t)

	if u.Splash && p.tc.SplashRadius > 0 {
		sd := SplashDamage(dmg, p.tc)
		p.grid.Within(p.grid.Pos(t), p.tc.SplashRadius, func(o int) {
			if o == t || p.grid.Side(o) == u.Side {
				return
			}
			p.queue(b, Hit{Attacker: u.ID, Target: p.ids[o], Damage: sd, Splash: true}, o)
		})
	}

	u.Mana = satAdd(u.Mana, int64(u.ManaPerAttack))
	if u.Mana > u.MaxMana {
		u.Mana = u.MaxMana
	}
	u.AttackCooldown = 1 / u.AttackSpeed
	if u.Mana >= p.tc.AbilityManaThreshold {
		u.AbilityReady = true
	}
}

func (p *Pipeline) queue(b *Battle, h Hit, slot int) {
	p.pending[slot] += uint64(h.Damage)
	if p.OnHit != nil {
		p.OnHit(b, h)
	}
	p.emit(b, "Hit", map[string]any{
		"attacker": h.Attacker, "target": h.Target, "damage": h.Damage, "crit": h.Crit, "splash": h.Splash,
	})
}

// Move walks every unit toward its nearest enemy until it is within the
// engagement distance. Stun and targeting do not hold a unit in place.
func (p *Pipeline) Move(b *Battle) {
	step := p.tc.MoveSpeed * p.tc.DeltaTime()
	for s := 0; s < p.grid.Len(); s++ {
		u := p.live(b, s)
		if u == nil {
			continue
		}
		u.Velocity = Vec2{}
		t := p.grid.NearestEnemy(s, p.tc.MoveSearchRange)
		if t < 0 {
			continue
		}
		d := p.grid.Pos(t).Sub(p.grid.Pos(s))
		if d.Len() <= p.tc.EngagementDistance {
			continue
		}
		dir := d.Norm()
		u.Velocity = dir.Scale(p.tc.MoveSpeed)
		u.Pos = u.Pos.Add(dir.Scale(step)).ClampBox(u.Radius, p.tc.ArenaSize-u.Radius)
	}
}

// CommitDamage applies all queued damage at once, then regenerates the
// survivors.
func (p *Pipeline) CommitDamage(b *Battle) {
	for s := 0; s < p.grid.Len(); s++ {
		dmg := p.pending[s]
		if dmg == 0 {
			continue
		}
		u := p.live(b, s)
		if u == nil || !u.Alive() {
			continue
		}
		if dmg >= uint64(u.HP) {
			u.HP = 0
			p.log.Info("unit died", "battle_id", b.ID, "unit_id", u.ID, "name", u.Name, "side", u.Side)
			p.emit(b, "Death", map[string]any{"unit": u.ID, "side": u.Side})
			if p.OnDeath != nil {
				p.OnDeath(b, u)
			}
			continue
		}
		u.HP -= uint32(dmg)
	}
	dt := p.tc.DeltaTime()
	for s := 0; s < p.grid.Len(); s++ {
		u := p.live(b, s)
		if u == nil || !u.Alive() {
			continue
		}
		regen(u, dt)
	}
}

func regen(u *Unit, dt float64) {
	if !(u.HPRegen > 0) || math.IsInf(u.HPRegen, 0) || u.HP >= u.MaxHP {
		u.regenCarry = 0
		return
	}
	u.regenCarry += u.HPRegen * dt
	whole := math.Floor(u.regenCarry)
	if whole < 1 {
		return
	}
	u.regenCarry -= whole
	u.HP = satAdd(u.HP, int64(whole))
	if u.HP > u.MaxHP {
		u.HP = u.MaxHP
	}
}

// ComputeDamage rolls a crit against roll and mitigates by the target's
// defense, less the attacker's armor shred.
func ComputeDamage(attacker, target *Unit, roll float64, tc *config.Tunables) (uint32, bool) {
	base := float64(attacker.Attack)
	crit := roll < attacker.CritChance
	if crit {
		base *= attacker.CritDamage
	}
	def := satAdd(target.Defense, -int64(attacker.ArmorShred))
	return Mitigated(base, def, tc.DefenseScale, tc.MinDamage), crit
}

// Mitigated applies defense/(defense+scale) mitigation and the damage floor.
func Mitigated(base float64, defense uint32, scale float64, floor uint32) uint32 {
	d := float64(defense)
	dmg := math.Floor(base * (1 - d/(d+scale)))
	switch {
	case !(dmg >= float64(floor)):
		return floor
	case dmg >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(dmg)
}

func SplashDamage(dmg uint32, tc *config.Tunables) uint32 {
	return Mitigated(float64(dmg)*tc.SplashFraction, 0, 1, tc.MinDamage)
}
