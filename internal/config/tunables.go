package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Tunables holds every geometry and gameplay constant the battle pipeline reads.
type Tunables struct {
	ArenaSize          float64 `yaml:"arena_size"`
	TickRate           int     `yaml:"tick_rate"`
	GridCellSize       float64 `yaml:"grid_cell_size"`
	AttackRange        float64 `yaml:"attack_range"`
	MoveSearchRange    float64 `yaml:"move_search_range"`
	EngagementDistance float64 `yaml:"engagement_distance"`
	MoveSpeed          float64 `yaml:"move_speed"`
	UnitRadius         float64 `yaml:"unit_radius"`

	ManaPerAttack        uint32  `yaml:"mana_per_attack"`
	AbilityManaThreshold uint32  `yaml:"ability_mana_threshold"`
	BaseCritDamage       float64 `yaml:"base_crit_damage"`
	BaseAttackSpeed      float64 `yaml:"base_attack_speed"`
	BaseMaxMana          uint32  `yaml:"base_max_mana"`
	MinDamage            uint32  `yaml:"min_damage"`
	DefenseScale         float64 `yaml:"defense_scale"`

	MaxUnitsPerSide int     `yaml:"max_units_per_side"`
	SplashRadius    float64 `yaml:"splash_radius"`
	SplashFraction  float64 `yaml:"splash_fraction"`
	MaxTicks        int     `yaml:"max_ticks"`

	Spawn SpawnLayout `yaml:"spawn"`
}

// SpawnLayout places seeded units in rows, side 0 on the left, side 1 on the right.
type SpawnLayout struct {
	LeftX       float64 `yaml:"left_x"`
	RightX      float64 `yaml:"right_x"`
	ColSpacing  float64 `yaml:"col_spacing"`
	TopY        float64 `yaml:"top_y"`
	RowSpacing  float64 `yaml:"row_spacing"`
	UnitsPerRow int     `yaml:"units_per_row"`
}

func DefaultTunables() Tunables {
	return Tunables{
		ArenaSize:            1600,
		TickRate:             20,
		GridCellSize:         200,
		AttackRange:          800,
		MoveSearchRange:      2000,
		EngagementDistance:   600,
		MoveSpeed:            100,
		UnitRadius:           32,
		ManaPerAttack:        20,
		AbilityManaThreshold: 100,
		BaseCritDamage:       1.5,
		BaseAttackSpeed:      1.0,
		BaseMaxMana:          100,
		MinDamage:            1,
		DefenseScale:         100,
		MaxUnitsPerSide:      15,
		SplashRadius:         120,
		SplashFraction:       0.5,
		MaxTicks:             20 * 300,
		Spawn: SpawnLayout{
			LeftX:       200,
			RightX:      1400,
			ColSpacing:  80,
			TopY:        300,
			RowSpacing:  150,
			UnitsPerRow: 5,
		},
	}
}

// ApplyDefaults fills zero fields from DefaultTunables so partial YAML files work.
func (t *Tunables) ApplyDefaults() {
	d := DefaultTunables()
	setF := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	setU := func(v *uint32, def uint32) {
		if *v == 0 {
			*v = def
		}
	}
	setI := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	setF(&t.ArenaSize, d.ArenaSize)
	setI(&t.TickRate, d.TickRate)
	setF(&t.GridCellSize, d.GridCellSize)
	setF(&t.AttackRange, d.AttackRange)
	setF(&t.MoveSearchRange, d.MoveSearchRange)
	setF(&t.EngagementDistance, d.EngagementDistance)
	setF(&t.MoveSpeed, d.MoveSpeed)
	setF(&t.UnitRadius, d.UnitRadius)
	setU(&t.ManaPerAttack, d.ManaPerAttack)
	setU(&t.AbilityManaThreshold, d.AbilityManaThreshold)
	setF(&t.BaseCritDamage, d.BaseCritDamage)
	setF(&t.BaseAttackSpeed, d.BaseAttackSpeed)
	setU(&t.BaseMaxMana, d.BaseMaxMana)
	setU(&t.MinDamage, d.MinDamage)
	setF(&t.DefenseScale, d.DefenseScale)
	setI(&t.MaxUnitsPerSide, d.MaxUnitsPerSide)
	setF(&t.SplashRadius, d.SplashRadius)
	setF(&t.SplashFraction, d.SplashFraction)
	setI(&t.MaxTicks, d.MaxTicks)
	setF(&t.Spawn.LeftX, d.Spawn.LeftX)
	setF(&t.Spawn.RightX, d.Spawn.RightX)
	setF(&t.Spawn.ColSpacing, d.Spawn.ColSpacing)
	setF(&t.Spawn.TopY, d.Spawn.TopY)
	setF(&t.Spawn.RowSpacing, d.Spawn.RowSpacing)
	setI(&t.Spawn.UnitsPerRow, d.Spawn.UnitsPerRow)
}

var ErrInvalidTunables = errors.New("invalid tunables")

func (t *Tunables) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"arena_size", t.ArenaSize},
		{"tick_rate", float64(t.TickRate)},
		{"grid_cell_size", t.GridCellSize},
		{"attack_range", t.AttackRange},
		{"move_search_range", t.MoveSearchRange},
		{"unit_radius", t.UnitRadius},
		{"base_attack_speed", t.BaseAttackSpeed},
		{"defense_scale", t.DefenseScale},
		{"max_units_per_side", float64(t.MaxUnitsPerSide)},
		{"spawn.units_per_row", float64(t.Spawn.UnitsPerRow)},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidTunables, p.name, p.v)
		}
	}
	if 2*t.UnitRadius >= t.ArenaSize {
		return fmt.Errorf("%w: unit_radius %v does not fit arena_size %v", ErrInvalidTunables, t.UnitRadius, t.ArenaSize)
	}
	if t.EngagementDistance < 0 || t.MoveSpeed < 0 || t.SplashRadius < 0 || t.SplashFraction < 0 {
		return fmt.Errorf("%w: negative movement or splash value", ErrInvalidTunables)
	}
	return nil
}

// TickPeriod is the wall-clock spacing between two scheduled ticks.
func (t *Tunables) TickPeriod() time.Duration {
	return time.Second / time.Duration(t.TickRate)
}

// DeltaTime is the simulated seconds covered by one tick.
func (t *Tunables) DeltaTime() float64 {
	return 1.0 / float64(t.TickRate)
}

func (t *Tunables) GridWidth() int {
	w := int(math.Ceil(t.ArenaSize / t.GridCellSize))
	if w < 1 {
		w = 1
	}
	return w
}
