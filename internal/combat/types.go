package combat

type Event struct {
	T       float64        `json:"t"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Rand is the only randomness the pipeline needs; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type Side uint8

const (
	SideLeft  Side = 0
	SideRight Side = 1
)

func (s Side) Valid() bool { return s == SideLeft || s == SideRight }

func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Unit is a battle-scoped combatant. Combat stats are frozen at creation;
// only hp, mana, cooldowns, position and stun state change during a battle.
type Unit struct {
	ID       string  `json:"id"`
	BattleID string  `json:"battle_id"`
	RosterID string  `json:"roster_id"`
	Name     string  `json:"name"`
	Owner    string  `json:"owner"`
	Side     Side    `json:"side"`
	Pos      Vec2    `json:"pos"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`

	MaxHP        uint32 `json:"max_hp"`
	HP           uint32 `json:"hp"`
	Attack       uint32 `json:"attack"`
	Defense      uint32 `json:"defense"`
	AbilityPower uint32 `json:"ability_power"`
	MagicResist  uint32 `json:"magic_resist"`

	AttackSpeed float64 `json:"attack_speed"`
	CritChance  float64 `json:"crit_chance"`
	CritDamage  float64 `json:"crit_damage"`

	MaxMana       uint32 `json:"max_mana"`
	Mana          uint32 `json:"mana"`
	ManaPerAttack uint32 `json:"mana_per_attack"`

	AttackCooldown  float64 `json:"attack_cooldown"`
	TargetID        string  `json:"target_id,omitempty"`
	AbilityReady    bool    `json:"ability_ready"`
	AbilityCooldown float64 `json:"ability_cooldown"`
	Stunned         bool    `json:"stunned"`
	StunDuration    float64 `json:"stun_duration"`

	// completed item properties
	Splash     bool    `json:"splash"`
	ArmorShred uint32  `json:"armor_shred"`
	HPRegen    float64 `json:"hp_regen"`

	regenCarry float64
}

func (u *Unit) Alive() bool { return u.HP > 0 }

// Stun disables targeting, attacking and movement for d seconds. A longer
// running stun is not shortened.
func (u *Unit) Stun(d float64) {
	if d <= 0 {
		return
	}
	u.Stunned = true
	if d > u.StunDuration {
		u.StunDuration = d
	}
}

func (u *Unit) clone() *Unit {
	c := *u
	return &c
}
