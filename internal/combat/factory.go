package combat

import (
	"log/slog"

	"github.com/google/uuid"

	"crewarena/internal/config"
)

// RosterEntry is the frozen roster snapshot a unit is built from.
type RosterEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Traits     []Trait         `json:"traits,omitempty"`
	MaxHP      uint32          `json:"max_hp"`
	Attack     uint32          `json:"attack"`
	Defense    uint32          `json:"defense"`
	Components []ItemComponent `json:"components,omitempty"`
	Completed  CompletedItem   `json:"completed,omitempty"`
}

// RosterSide is one player's contribution to a battle.
type RosterSide struct {
	Owner    string        `json:"owner"`
	Bounty   uint32        `json:"bounty"`
	Upgrades []UpgradeKind `json:"upgrades,omitempty"`
	Entries  []RosterEntry `json:"entries"`
}

const maxTraits = 2

var newUnitID = func() string { return "u_" + uuid.NewString() }

type UnitFactory struct {
	items *ItemBook
	tc    *config.Tunables
	log   *slog.Logger
}

func NewUnitFactory(items *ItemBook, tc *config.Tunables, log *slog.Logger) *UnitFactory {
	if log == nil {
		log = slog.Default()
	}
	if items == nil {
		items = NewItemBook(nil, log)
	}
	return &UnitFactory{items: items, tc: tc, log: log}
}

// Stats aggregates an entry's base stats, items and upgrades without
// building a unit.
func (f *UnitFactory) Stats(entry RosterEntry, upgrades []UpgradeKind) StatBlock {
	traits := entry.Traits
	if len(traits) > maxTraits {
		f.log.Warn("roster entry carries more than two traits, extras ignored",
			"roster_id", entry.ID, "traits", len(traits))
		traits = traits[:maxTraits]
	}
	set := collectTraits(entry.ID, traits, f.log)
	s := f.items.Aggregate(entry, f.tc)
	applyUpgrades(&s, set, upgrades, f.log)
	return s
}

// NewUnit freezes an aggregated stat sheet into a fresh unit. Position,
// side and owner are left for the caller.
func (f *UnitFactory) NewUnit(entry RosterEntry, upgrades []UpgradeKind) *Unit {
	s := f.Stats(entry, upgrades)
	return &Unit{
		ID:            newUnitID(),
		RosterID:      entry.ID,
		Name:          entry.Name,
		Radius:        f.tc.UnitRadius,
		MaxHP:         s.HP,
		HP:            s.HP,
		Attack:        s.AD,
		Defense:       s.Armor,
		AbilityPower:  s.AP,
		MagicResist:   s.MR,
		AttackSpeed:   s.AttackSpeed,
		CritChance:    s.CritChance,
		CritDamage:    s.CritDamage,
		MaxMana:       s.Mana,
		Mana:          s.Mana,
		ManaPerAttack: f.tc.ManaPerAttack,
		Splash:        s.Splash,
		ArmorShred:    s.ArmorShred,
		HPRegen:       s.HPRegen,
	}
}

// SpawnPosition lays units out in rows, left side growing right and right
// side growing left.
func SpawnPosition(index int, side Side, tc *config.Tunables) Vec2 {
	l := tc.Spawn
	per := l.UnitsPerRow
	if per <= 0 {
		per = 1
	}
	col, row := index%per, index/per
	y := l.TopY + float64(row)*l.RowSpacing
	if side == SideLeft {
		return Vec2{X: l.LeftX + float64(col)*l.ColSpacing, Y: y}
	}
	return Vec2{X: l.RightX - float64(col)*l.ColSpacing, Y: y}
}

func RosterFromConfig(rc *config.RosterConfig) []RosterSide {
	if rc == nil {
		return nil
	}
	out := make([]RosterSide, 0, len(rc.Sides))
	for _, sd := range rc.Sides {
		side := RosterSide{Owner: sd.Owner, Bounty: sd.Bounty}
		for _, k := range sd.Upgrades {
			side.Upgrades = append(side.Upgrades, UpgradeKind(k))
		}
		for _, c := range sd.Crew {
			e := RosterEntry{
				ID:        c.ID,
				Name:      c.Name,
				MaxHP:     c.MaxHP,
				Attack:    c.Attack,
				Defense:   c.Defense,
				Completed: CompletedItem(c.Completed),
			}
			for _, t := range c.Traits {
				e.Traits = append(e.Traits, Trait(t))
			}
			for _, it := range c.Items {
				e.Components = append(e.Components, ItemComponent(it))
			}
			side.Entries = append(side.Entries, e)
		}
		out = append(out, side)
	}
	return out
}
