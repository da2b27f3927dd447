package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewarena/internal/config"
)

func TestDeadSideLosesAfterOneTick(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{200, 300}, 100, 10, 0)
	l.HP = 0
	r := mkUnit("r", SideRight, Vec2{1400, 300}, 100, 10, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, testRNG()))
	assert.Equal(t, Finished, b.Status)
	assert.Equal(t, "bob", b.Winner)
	assert.Equal(t, uint64(1), b.Turn)
}

func TestMutualKillFavorsSideZero(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 50, 100, 0)
	r := mkUnit("r", SideRight, Vec2{600, 400}, 50, 100, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(0), l.HP)
	assert.Equal(t, uint32(0), r.HP)
	assert.Equal(t, Finished, b.Status)
	assert.Equal(t, "alice", b.Winner)
}

func TestAttacksResolveSimultaneously(t *testing.T) {
	// l would kill r, but r still strikes back in the same tick
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 500, 0)
	r := mkUnit("r", SideRight, Vec2{600, 400}, 100, 30, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(70), l.HP)
	assert.Equal(t, uint32(0), r.HP)
	assert.Equal(t, "alice", b.Winner)
}

func TestAttackUpdatesAttacker(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 10, 0)
	l.Mana = 0
	l.AttackSpeed = 2
	r := mkUnit("r", SideRight, Vec2{600, 400}, 1000, 0, 0)
	r.AttackSpeed = 0.001
	r.AttackCooldown = 100
	b := newTestBattle(t, l, r)
	p := NewPipeline(testTunables(), quietLog())

	require.NoError(t, p.Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(990), r.HP)
	assert.Equal(t, uint32(20), l.Mana)
	assert.False(t, l.AbilityReady)
	assert.Equal(t, 0.5, l.AttackCooldown)
	assert.Equal(t, "r", l.TargetID)

	// cooling down: no second hit on the next tick
	require.NoError(t, p.Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(990), r.HP)
	assert.InDelta(t, 0.45, l.AttackCooldown, 1e-9)
}

func TestManaCapsAndReadiesAbility(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 10, 0)
	l.Mana = 90
	r := mkUnit("r", SideRight, Vec2{600, 400}, 1000, 0, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(100), l.Mana)
	assert.True(t, l.AbilityReady)
}

func TestStunnedUnitSkipsTicks(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 10, 0)
	l.Stun(0.075)
	r := mkUnit("r", SideRight, Vec2{600, 400}, 1000, 0, 0)
	r.AttackCooldown = 100
	b := newTestBattle(t, l, r)
	p := NewPipeline(testTunables(), quietLog())

	require.NoError(t, p.Tick(b, fixedRoll(0.99)))
	assert.True(t, l.Stunned)
	require.NoError(t, p.Tick(b, fixedRoll(0.99)))
	assert.False(t, l.Stunned)
	assert.Equal(t, uint32(1000), r.HP)

	require.NoError(t, p.Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(990), r.HP)
}

func TestStunDoesNotShorten(t *testing.T) {
	u := mkUnit("u", SideLeft, Vec2{}, 1, 1, 0)
	u.Stun(2)
	u.Stun(0.5)
	assert.Equal(t, 2.0, u.StunDuration)
	u.Stun(0)
	assert.Equal(t, 2.0, u.StunDuration)
}

func TestMovementTowardsEnemy(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{200, 300}, 100, 10, 0)
	r := mkUnit("r", SideRight, Vec2{1400, 300}, 100, 10, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, testRNG()))
	assert.InDelta(t, 205, l.Pos.X, 1e-9)
	assert.InDelta(t, 1395, r.Pos.X, 1e-9)
	assert.InDelta(t, 300, l.Pos.Y, 1e-9)
	assert.InDelta(t, 100, l.Velocity.X, 1e-9)
}

func TestInRangeUnitsCloseToEngagementDistance(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 0, 0)
	r := mkUnit("r", SideRight, Vec2{1100, 400}, 100, 0, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, testRNG()))
	assert.InDelta(t, 405, l.Pos.X, 1e-9)
	assert.InDelta(t, 1095, r.Pos.X, 1e-9)
	assert.Equal(t, "r", l.TargetID)
}

func TestEngagedUnitsHold(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 0, 0)
	r := mkUnit("r", SideRight, Vec2{1000, 400}, 100, 0, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, testRNG()))
	assert.Equal(t, Vec2{400, 400}, l.Pos)
	assert.Equal(t, Vec2{1000, 400}, r.Pos)
	assert.Equal(t, Vec2{}, l.Velocity)
}

func TestStunnedUnitStillMoves(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{200, 300}, 100, 10, 0)
	l.Stun(1)
	r := mkUnit("r", SideRight, Vec2{1400, 300}, 100, 10, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, testRNG()))
	assert.True(t, l.Stunned)
	assert.InDelta(t, 205, l.Pos.X, 1e-9)
	assert.InDelta(t, 100, l.Velocity.X, 1e-9)
}

func TestMovementClampsToArena(t *testing.T) {
	tc := testTunables()
	l := mkUnit("l", SideLeft, Vec2{100, 800}, 100, 0, 0)
	r := mkUnit("r", SideRight, Vec2{1590, 800}, 100, 0, 0)
	b := newTestBattle(t, l, r)

	require.NoError(t, NewPipeline(tc, quietLog()).Tick(b, testRNG()))
	assert.Equal(t, tc.ArenaSize-r.Radius, r.Pos.X)
	assert.Equal(t, 800.0, r.Pos.Y)
}

func TestSplashHitsNearbyEnemies(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{200, 300}, 100, 100, 0)
	l.Splash = true
	r1 := mkUnit("r1", SideRight, Vec2{600, 300}, 1000, 0, 0)
	r2 := mkUnit("r2", SideRight, Vec2{650, 300}, 1000, 0, 0)
	r3 := mkUnit("r3", SideRight, Vec2{900, 300}, 1000, 0, 0)
	for _, r := range []*Unit{r1, r2, r3} {
		r.AttackCooldown = 100
	}
	b := newTestBattle(t, l, r1, r2, r3)

	require.NoError(t, NewPipeline(testTunables(), quietLog()).Tick(b, fixedRoll(0.99)))
	assert.Equal(t, uint32(900), r1.HP)
	assert.Equal(t, uint32(950), r2.HP)
	assert.Equal(t, uint32(1000), r3.HP)
}

func TestUnitVanishingMidTick(t *testing.T) {
	l := mkUnit("l", SideLeft, Vec2{400, 400}, 100, 10, 0)
	r := mkUnit("r", SideRight, Vec2{600, 400}, 100, 50, 0)
	b := newTestBattle(t, l, r)
	p := NewPipeline(testTunables(), quietLog())
	p.OnHit = func(b *Battle, h Hit) { b.RemoveUnit(h.Target) }

	require.NotPanics(t, func() { require.NoError(t, p.Tick(b, fixedRoll(0.99))) })
	assert.Nil(t, b.Unit("r"))
	assert.Equal(t, uint32(100), l.HP)
	assert.Equal(t, "alice", b.Winner)
}

func TestRegenAccumulates(t *testing.T) {
	u := mkUnit("u", SideLeft, Vec2{}, 100, 1, 0)
	u.HP = 50
	u.HPRegen = 5
	for i := 0; i < 3; i++ {
		regen(u, 0.05)
	}
	assert.Equal(t, uint32(50), u.HP)
	regen(u, 0.05)
	assert.Equal(t, uint32(51), u.HP)

	u.HP = 100
	regen(u, 10)
	assert.Equal(t, uint32(100), u.HP)
}

func TestInvariantsHoldThroughFullBattle(t *testing.T) {
	tc, ic, rc, err := config.LoadAll("../../assets")
	require.NoError(t, err)
	sides := RosterFromConfig(rc)
	require.Len(t, sides, 2)

	f := NewUnitFactory(NewItemBook(ic, quietLog()), tc, quietLog())
	b := NewBattle(sides[0].Owner, sides[0].Bounty)
	require.NoError(t, b.Join(sides[1].Owner, sides[1].Bounty))
	require.NoError(t, b.Seed(f, sides[0], sides[1]))

	p := NewPipeline(tc, quietLog())
	rng := testRNG()
	deadAt := map[string]uint64{}
	for i := 0; i < tc.MaxTicks && b.Status == InProgress; i++ {
		require.NoError(t, p.Tick(b, rng))
		for _, u := range b.Units() {
			require.LessOrEqual(t, u.HP, u.MaxHP, "hp of %s at turn %d", u.ID, b.Turn)
			require.LessOrEqual(t, u.Mana, u.MaxMana, "mana of %s at turn %d", u.ID, b.Turn)
			require.GreaterOrEqual(t, u.Pos.X, u.Radius)
			require.LessOrEqual(t, u.Pos.X, tc.ArenaSize-u.Radius)
			if turn, ok := deadAt[u.ID]; ok {
				require.Equal(t, uint32(0), u.HP, "%s revived after dying at turn %d", u.ID, turn)
			} else if !u.Alive() {
				deadAt[u.ID] = b.Turn
			}
		}
	}
	require.Equal(t, Finished, b.Status)
	assert.Contains(t, []string{sides[0].Owner, sides[1].Owner}, b.Winner)
	assert.Len(t, b.Units(), len(sides[0].Entries)+len(sides[1].Entries))
}

func TestSameSeedSameBattle(t *testing.T) {
	run := func() SimResult {
		tc := testTunables()
		l := mkUnit("l", SideLeft, Vec2{200, 300}, 300, 30, 5)
		l.CritChance = 0.4
		r := mkUnit("r", SideRight, Vec2{1400, 300}, 300, 28, 8)
		r.CritChance = 0.4
		b := newTestBattle(t, l, r)
		return RunSingle(&Env{Rng: testRNG()}, b, NewPipeline(tc, quietLog()), tc.MaxTicks, false)
	}
	a, b := run(), run()
	assert.Equal(t, a.Ticks, b.Ticks)
	assert.Equal(t, a.Winner, b.Winner)
	assert.Equal(t, a.DamageByUnit, b.DamageByUnit)
	assert.Equal(t, a.Crits, b.Crits)
}
