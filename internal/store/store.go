package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"crewarena/internal/combat"
)

var ErrPlayerNotFound = errors.New("player not found")

// Schema is the minimal layout the adapters read and write. Player currency
// and win/loss counters are owned by the settlement side and not touched here.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	bounty   BIGINT NOT NULL DEFAULT 0,
	upgrades TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS crew (
	id             TEXT PRIMARY KEY,
	owner          TEXT NOT NULL REFERENCES players(id),
	name           TEXT NOT NULL,
	traits         TEXT[] NOT NULL DEFAULT '{}',
	max_hp         BIGINT NOT NULL,
	attack         BIGINT NOT NULL,
	defense        BIGINT NOT NULL,
	slot_index     SMALLINT,
	items          TEXT[] NOT NULL DEFAULT '{}',
	completed_item TEXT
);
CREATE TABLE IF NOT EXISTS battle_results (
	battle_id   TEXT PRIMARY KEY,
	winner      TEXT NOT NULL,
	loser       TEXT NOT NULL,
	winner_side SMALLINT NOT NULL,
	turns       BIGINT NOT NULL,
	bounty      BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store reads roster snapshots from Postgres and records battle outcomes.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func New(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// Open connects with a postgres connection string and checks the link.
func Open(dsn string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, log), nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

// LoadSide builds the roster snapshot for one player from their on-field crew.
func (s *Store) LoadSide(ctx context.Context, owner string) (combat.RosterSide, error) {
	side := combat.RosterSide{Owner: owner}

	var bounty int64
	var upgrades []string
	err := s.db.QueryRowContext(ctx, `
		SELECT bounty, upgrades
		FROM players
		WHERE id = $1
	`, owner).Scan(&bounty, pq.Array(&upgrades))
	if errors.Is(err, sql.ErrNoRows) {
		return side, fmt.Errorf("%w: %s", ErrPlayerNotFound, owner)
	}
	if err != nil {
		return side, fmt.Errorf("load player %s: %w", owner, err)
	}
	side.Bounty = clampU32(bounty)
	for _, u := range upgrades {
		side.Upgrades = append(side.Upgrades, combat.UpgradeKind(u))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, traits, max_hp, attack, defense, items, COALESCE(completed_item, '')
		FROM crew
		WHERE owner = $1 AND slot_index IS NOT NULL
		ORDER BY slot_index ASC
	`, owner)
	if err != nil {
		return side, fmt.Errorf("load crew %s: %w", owner, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                   combat.RosterEntry
			traits, items       []string
			hp, attack, defense int64
			completed           string
		)
		if err := rows.Scan(&e.ID, &e.Name, pq.Array(&traits), &hp, &attack, &defense, pq.Array(&items), &completed); err != nil {
			return side, fmt.Errorf("scan crew %s: %w", owner, err)
		}
		e.MaxHP, e.Attack, e.Defense = clampU32(hp), clampU32(attack), clampU32(defense)
		e.Completed = combat.CompletedItem(completed)
		for _, t := range traits {
			e.Traits = append(e.Traits, combat.Trait(t))
		}
		for _, it := range items {
			e.Components = append(e.Components, combat.ItemComponent(it))
		}
		side.Entries = append(side.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return side, fmt.Errorf("iterate crew %s: %w", owner, err)
	}
	s.log.Debug("loaded roster side", "owner", owner, "crew", len(side.Entries), "upgrades", len(side.Upgrades))
	return side, nil
}

// RecordOutcome stores a finished battle once; repeated calls are no-ops.
func (s *Store) RecordOutcome(ctx context.Context, o combat.Outcome) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO battle_results (battle_id, winner, loser, winner_side, turns, bounty)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (battle_id) DO NOTHING
	`, o.BattleID, o.Winner, o.Loser, int(o.WinnerSide), int64(o.Turn), int64(o.Bounty))
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", o.BattleID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.log.Info("outcome already recorded", "battle_id", o.BattleID)
	}
	return nil
}

func clampU32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(v)
}
