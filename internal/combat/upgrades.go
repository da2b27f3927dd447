package combat

import (
	"log/slog"
	"math"
)

type Trait string

const (
	TraitStrawHat       Trait = "straw_hat"
	TraitMarine         Trait = "marine"
	TraitRevolutionary  Trait = "revolutionary"
	TraitRedHairPirates Trait = "red_hair_pirates"
	TraitGiants         Trait = "giants"
	TraitHolyKnights    Trait = "holy_knights"
	TraitFiveElders     Trait = "five_elders"
	TraitLogia          Trait = "logia"
	TraitParamecia      Trait = "paramecia"
	TraitZoan           Trait = "zoan"
	TraitSword          Trait = "sword"
	TraitDFUser         Trait = "df_user"
)

var knownTraits = map[Trait]bool{
	TraitStrawHat: true, TraitMarine: true, TraitRevolutionary: true,
	TraitRedHairPirates: true, TraitGiants: true, TraitHolyKnights: true,
	TraitFiveElders: true, TraitLogia: true, TraitParamecia: true,
	TraitZoan: true, TraitSword: true, TraitDFUser: true,
}

type traitSet map[Trait]bool

type UpgradeKind string

const (
	UpgradeBonusGold         UpgradeKind = "bonus_gold"
	UpgradeBonusHealth       UpgradeKind = "bonus_health"
	UpgradeBonusAttack       UpgradeKind = "bonus_attack"
	UpgradeBonusDefense      UpgradeKind = "bonus_defense"
	UpgradeBonusSpeed        UpgradeKind = "bonus_speed"
	UpgradeStrawHatBuff      UpgradeKind = "straw_hat_buff"
	UpgradeMarineBuff        UpgradeKind = "marine_buff"
	UpgradeRevolutionaryBuff UpgradeKind = "revolutionary_buff"
	UpgradeLogiaBuff         UpgradeKind = "logia_buff"
	UpgradeParameciaBuff     UpgradeKind = "paramecia_buff"
	UpgradeZoanBuff          UpgradeKind = "zoan_buff"
	UpgradeGamblerLuck       UpgradeKind = "gambler_luck"
	UpgradeFastLearner       UpgradeKind = "fast_learner"
	UpgradePlunderer         UpgradeKind = "plunderer"
	UpgradeMedic             UpgradeKind = "medic"
	UpgradeArsenal           UpgradeKind = "arsenal"
)

type upgradeEffect func(s *StatBlock, traits traitSet)

// upgradeEffects maps each ship upgrade to its effect on a unit's stat sheet.
// Kinds that only touch the economy are present as no-ops so they are not
// reported as unrecognized.
var upgradeEffects = map[UpgradeKind]upgradeEffect{
	UpgradeBonusHealth:       flatHP(10),
	UpgradeBonusAttack:       flatAttack(2),
	UpgradeBonusDefense:      flatDefense(2),
	UpgradeBonusSpeed:        attackSpeedMul(1.1),
	UpgradeMedic:             hpRegen(5),
	UpgradeStrawHatBuff:      gated(TraitStrawHat, percentCore(20)),
	UpgradeMarineBuff:        gated(TraitMarine, percentCore(20)),
	UpgradeRevolutionaryBuff: gated(TraitRevolutionary, percentCore(20)),
	UpgradeLogiaBuff:         gated(TraitLogia, flatDefense(5)),
	UpgradeParameciaBuff:     gated(TraitParamecia, flatHP(20)),
	UpgradeZoanBuff:          gated(TraitZoan, flatHP(50)),
	UpgradeBonusGold:         noEffect,
	UpgradeGamblerLuck:       noEffect,
	UpgradeFastLearner:       noEffect,
	UpgradePlunderer:         noEffect,
	UpgradeArsenal:           noEffect,
}

func noEffect(*StatBlock, traitSet) {}

func flatHP(n int64) upgradeEffect {
	return func(s *StatBlock, _ traitSet) { s.HP = satAdd(s.HP, n) }
}

func flatAttack(n int64) upgradeEffect {
	return func(s *StatBlock, _ traitSet) { s.AD = satAdd(s.AD, n) }
}

func flatDefense(n int64) upgradeEffect {
	return func(s *StatBlock, _ traitSet) { s.Armor = satAdd(s.Armor, n) }
}

func attackSpeedMul(f float64) upgradeEffect {
	return func(s *StatBlock, _ traitSet) { s.AttackSpeed *= f }
}

func hpRegen(perSecond float64) upgradeEffect {
	return func(s *StatBlock, _ traitSet) { s.HPRegen += perSecond }
}

// percentCore raises hp, attack and defense by pct percent, truncating.
func percentCore(pct uint64) upgradeEffect {
	scale := func(v uint32) uint32 {
		n := uint64(v) * (100 + pct) / 100
		if n > math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(n)
	}
	return func(s *StatBlock, _ traitSet) {
		s.HP = scale(s.HP)
		s.AD = scale(s.AD)
		s.Armor = scale(s.Armor)
	}
}

func gated(t Trait, inner upgradeEffect) upgradeEffect {
	return func(s *StatBlock, traits traitSet) {
		if traits[t] {
			inner(s, traits)
		}
	}
}

// applyUpgrades runs every owned upgrade against the stat sheet in order.
func applyUpgrades(s *StatBlock, traits traitSet, kinds []UpgradeKind, log *slog.Logger) {
	for _, k := range kinds {
		eff, ok := upgradeEffects[k]
		if !ok {
			log.Warn("skipping unrecognized ship upgrade", "upgrade", k)
			continue
		}
		eff(s, traits)
	}
}

func collectTraits(rosterID string, traits []Trait, log *slog.Logger) traitSet {
	set := traitSet{}
	for _, t := range traits {
		if !knownTraits[t] {
			log.Warn("skipping unrecognized trait", "roster_id", rosterID, "trait", t)
			continue
		}
		set[t] = true
	}
	return set
}
