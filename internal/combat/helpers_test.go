package combat

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"crewarena/internal/config"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// fixedRoll always returns the same sample, to force or forbid crits.
type fixedRoll float64

func (f fixedRoll) Float64() float64 { return float64(f) }

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTunables() *config.Tunables {
	tc := config.DefaultTunables()
	return &tc
}

func mkUnit(id string, side Side, pos Vec2, hp, atk, def uint32) *Unit {
	return &Unit{
		ID:            id,
		Name:          id,
		Side:          side,
		Pos:           pos,
		Radius:        32,
		MaxHP:         hp,
		HP:            hp,
		Attack:        atk,
		Defense:       def,
		AttackSpeed:   1,
		CritDamage:    1.5,
		MaxMana:       100,
		Mana:          100,
		ManaPerAttack: 20,
	}
}

func newTestBattle(t *testing.T, units ...*Unit) *Battle {
	t.Helper()
	b := NewBattle("alice", 100)
	require.NoError(t, b.Join("bob", 200))
	for _, u := range units {
		require.NoError(t, b.AddUnit(u))
	}
	return b
}

func testItemsConfig() *config.ItemsConfig {
	return &config.ItemsConfig{
		Components: []config.ItemStats{
			{ID: "cutlass", AD: 10},
			{ID: "goggles", CritChance: 0.15},
			{ID: "meat", HP: 50},
			{ID: "dial", AttackSpeed: 0.15},
		},
		Recipes: []config.Recipe{
			{A: "cutlass", B: "goggles", Result: "yoru"},
			{A: "cutlass", B: "dial", Result: "kabuto"},
		},
		Completed: []config.ItemStats{
			{ID: "yoru", AD: 12, CritChance: 0.2, CritDamage: 0.75},
			{ID: "kabuto", AD: 10, AttackSpeed: 0.15, Splash: true},
			{ID: "shusui", AD: 20, ArmorShred: 5},
			{ID: "gomu", HP: 100, HPRegen: 5},
		},
	}
}
