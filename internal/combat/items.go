package combat

import (
	"log/slog"
	"math"

	"crewarena/internal/config"
)

type ItemComponent string

type CompletedItem string

// BonusRow is one additive stat delta. Splash and ArmorShred are properties
// of completed items and do not come from components.
type BonusRow struct {
	HP, AD, Armor, AP, MR, Mana int64

	CritChance  float64
	CritDamage  float64
	AttackSpeed float64
	HPRegen     float64

	Splash     bool
	ArmorShred int64
}

func rowFromStats(s config.ItemStats) BonusRow {
	return BonusRow{
		HP: s.HP, AD: s.AD, Armor: s.Armor, AP: s.AP, MR: s.MR, Mana: s.Mana,
		CritChance:  s.CritChance,
		CritDamage:  s.CritDamage,
		AttackSpeed: s.AttackSpeed,
		HPRegen:     s.HPRegen,
		Splash:      s.Splash,
		ArmorShred:  s.ArmorShred,
	}
}

func (r BonusRow) finite() bool {
	for _, f := range []float64{r.CritChance, r.CritDamage, r.AttackSpeed, r.HPRegen} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

type recipeKey struct{ a, b ItemComponent }

func pairOf(x, y ItemComponent) recipeKey {
	if y < x {
		x, y = y, x
	}
	return recipeKey{x, y}
}

// ItemBook resolves component and completed item kinds to bonus rows.
type ItemBook struct {
	components map[ItemComponent]BonusRow
	completed  map[CompletedItem]BonusRow
	recipes    map[recipeKey]CompletedItem
	log        *slog.Logger
}

func NewItemBook(cfg *config.ItemsConfig, log *slog.Logger) *ItemBook {
	if log == nil {
		log = slog.Default()
	}
	ib := &ItemBook{
		components: map[ItemComponent]BonusRow{},
		completed:  map[CompletedItem]BonusRow{},
		recipes:    map[recipeKey]CompletedItem{},
		log:        log,
	}
	if cfg == nil {
		return ib
	}
	for _, s := range cfg.Components {
		if s.ID == "" {
			log.Warn("skipping component row without id", "name", s.Name)
			continue
		}
		ib.components[ItemComponent(s.ID)] = rowFromStats(s)
	}
	for _, s := range cfg.Completed {
		if s.ID == "" {
			log.Warn("skipping completed item row without id", "name", s.Name)
			continue
		}
		ib.completed[CompletedItem(s.ID)] = rowFromStats(s)
	}
	for _, r := range cfg.Recipes {
		if r.A == "" || r.B == "" || r.Result == "" {
			log.Warn("skipping incomplete recipe", "a", r.A, "b", r.B, "result", r.Result)
			continue
		}
		ib.recipes[pairOf(ItemComponent(r.A), ItemComponent(r.B))] = CompletedItem(r.Result)
	}
	return ib
}

// Combine looks up the completed item made from two components, in either order.
func (ib *ItemBook) Combine(x, y ItemComponent) (CompletedItem, bool) {
	c, ok := ib.recipes[pairOf(x, y)]
	return c, ok
}

func (ib *ItemBook) Component(c ItemComponent) (BonusRow, bool) {
	r, ok := ib.components[c]
	return r, ok
}

func (ib *ItemBook) Completed(c CompletedItem) (BonusRow, bool) {
	r, ok := ib.completed[c]
	return r, ok
}

// StatBlock is the aggregated stat sheet a unit is frozen from.
type StatBlock struct {
	HP, AD, Armor, AP, MR, Mana uint32

	CritChance  float64
	CritDamage  float64
	AttackSpeed float64
	HPRegen     float64

	Splash     bool
	ArmorShred uint32
}

func (s *StatBlock) add(r BonusRow) {
	s.HP = satAdd(s.HP, r.HP)
	s.AD = satAdd(s.AD, r.AD)
	s.Armor = satAdd(s.Armor, r.Armor)
	s.AP = satAdd(s.AP, r.AP)
	s.MR = satAdd(s.MR, r.MR)
	s.Mana = satAdd(s.Mana, r.Mana)
	s.CritChance += r.CritChance
	s.CritDamage += r.CritDamage
	s.AttackSpeed += r.AttackSpeed
	s.HPRegen += r.HPRegen
	s.Splash = s.Splash || r.Splash
	s.ArmorShred = satAdd(s.ArmorShred, r.ArmorShred)
}

// satAdd adds a signed delta and saturates into [0, MaxUint32].
func satAdd(v uint32, d int64) uint32 {
	if d > math.MaxUint32 {
		return math.MaxUint32
	}
	if d < -math.MaxUint32 {
		return 0
	}
	n := int64(v) + d
	if n < 0 {
		return 0
	}
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// Aggregate builds a stat sheet from base stats and equipped items. Two
// components that form a recipe contribute the completed item's row instead
// of their own rows. Unknown or malformed inputs are logged and skipped.
func (ib *ItemBook) Aggregate(entry RosterEntry, tc *config.Tunables) StatBlock {
	s := StatBlock{
		HP:          entry.MaxHP,
		AD:          entry.Attack,
		Armor:       entry.Defense,
		CritDamage:  tc.BaseCritDamage,
		AttackSpeed: tc.BaseAttackSpeed,
		Mana:        tc.BaseMaxMana,
	}

	comps := entry.Components
	if len(comps) > 2 {
		ib.log.Warn("roster entry carries more than two components, extras ignored",
			"roster_id", entry.ID, "components", len(comps))
		comps = comps[:2]
	}

	combined := false
	if len(comps) == 2 {
		if result, ok := ib.Combine(comps[0], comps[1]); ok {
			if row, ok := ib.Completed(result); ok && row.finite() {
				s.add(row)
				combined = true
			} else {
				ib.log.Warn("recipe result has no usable bonus row, applying components",
					"roster_id", entry.ID, "result", result)
			}
		}
	}
	if !combined {
		for _, c := range comps {
			row, ok := ib.Component(c)
			if !ok || !row.finite() {
				ib.log.Warn("skipping unrecognized component", "roster_id", entry.ID, "component", c)
				continue
			}
			s.add(row)
		}
	}

	if entry.Completed != "" {
		row, ok := ib.Completed(entry.Completed)
		if !ok || !row.finite() {
			ib.log.Warn("skipping unrecognized completed item", "roster_id", entry.ID, "item", entry.Completed)
		} else {
			s.add(row)
		}
	}
	return s
}
