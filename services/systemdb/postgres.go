package systemdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Database persisted in PostgreSQL.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a Postgres database backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// InitSchema creates the system tables if they do not exist.
func (p *Postgres) InitSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS systems (
			id                       BIGSERIAL PRIMARY KEY,
			name                     TEXT NOT NULL,
			current_configuration_id BIGINT,
			created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS configurations (
			id         BIGSERIAL PRIMARY KEY,
			system_id  BIGINT NOT NULL REFERENCES systems (id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS system_db_state (
			singleton         BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			current_system_id BIGINT REFERENCES systems (id)
		)
	`)
	if err != nil {
		return fmt.Errorf("init system schema: %w", err)
	}
	return nil
}

// CreateSystem inserts a system and its first configuration in one
// transaction. The first system becomes current.
func (p *Postgres) CreateSystem(ctx context.Context, name string) (*System, error) {
	var sys System
	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		if name == "" {
			// Serialize creators so two default names never share a number.
			if _, err := tx.Exec(ctx, `LOCK TABLE systems IN SHARE ROW EXCLUSIVE MODE`); err != nil {
				return fmt.Errorf("lock systems: %w", err)
			}
			var n int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM systems`).Scan(&n); err != nil {
				return fmt.Errorf("count systems: %w", err)
			}
			name = defaultSystemName(n + 1)
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO systems (name) VALUES ($1)
			RETURNING id, name, created_at
		`, name).Scan(&sys.ID, &sys.Name, &sys.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert system: %w", err)
		}

		conf, err := insertConfiguration(ctx, tx, sys.ID, defaultConfigurationName(1))
		if err != nil {
			return err
		}
		sys.Configuration = conf

		if _, err := tx.Exec(ctx, `
			UPDATE systems SET current_configuration_id = $1 WHERE id = $2
		`, conf.ID, sys.ID); err != nil {
			return fmt.Errorf("set current configuration: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO system_db_state (singleton, current_system_id) VALUES (TRUE, $1)
			ON CONFLICT (singleton) DO UPDATE
			SET current_system_id = COALESCE(system_db_state.current_system_id, EXCLUDED.current_system_id)
		`, sys.ID)
		if err != nil {
			return fmt.Errorf("update current system: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create system: %w", err)
	}
	return &sys, nil
}

// CreateConfiguration inserts a configuration without changing the system's
// current configuration.
func (p *Postgres) CreateConfiguration(ctx context.Context, systemID int64, name string) (*Configuration, error) {
	var conf *Configuration
	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		// The row lock on the system serializes creators of its configurations.
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM systems WHERE id = $1 FOR UPDATE`, systemID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("system %d: %w", systemID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock system: %w", err)
		}
		var n int
		err = tx.QueryRow(ctx, `SELECT count(*) FROM configurations WHERE system_id = $1`, systemID).Scan(&n)
		if err != nil {
			return fmt.Errorf("count configurations: %w", err)
		}
		if name == "" {
			name = defaultConfigurationName(n + 1)
		}
		conf, err = insertConfiguration(ctx, tx, systemID, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create configuration: %w", err)
	}
	return conf, nil
}

// System resolves ref to a system with its current configuration.
func (p *Postgres) System(ctx context.Context, ref string) (*System, error) {
	id, err := p.resolveSystem(ctx, ref)
	if err != nil {
		return nil, err
	}
	return loadSystem(ctx, p.db, id)
}

// Configuration resolves ref to a configuration of the given system.
func (p *Postgres) Configuration(ctx context.Context, systemID int64, ref string) (*Configuration, error) {
	if ref == RefCurrent {
		sys, err := loadSystem(ctx, p.db, systemID)
		if err != nil {
			return nil, err
		}
		return sys.Configuration, nil
	}

	var n int
	if err := p.db.QueryRow(ctx, `
		SELECT count(*) FROM configurations WHERE system_id = $1
	`, systemID).Scan(&n); err != nil {
		return nil, fmt.Errorf("count configurations: %w", err)
	}

	var row pgx.Row
	i, isOrdinal, err := ordinal(ref, n)
	switch {
	case err != nil:
		return nil, fmt.Errorf("configuration %q: %w", ref, err)
	case isOrdinal:
		row = p.db.QueryRow(ctx, `
			SELECT id, system_id, name, created_at FROM configurations
			WHERE system_id = $1 ORDER BY id OFFSET $2 LIMIT 1
		`, systemID, i)
	default:
		row = p.db.QueryRow(ctx, `
			SELECT id, system_id, name, created_at FROM configurations
			WHERE system_id = $1 AND name = $2 ORDER BY id LIMIT 1
		`, systemID, ref)
	}

	var c Configuration
	err = row.Scan(&c.ID, &c.SystemID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("configuration %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get configuration: %w", err)
	}
	return &c, nil
}

// SetCurrentSystem makes the given system current.
func (p *Postgres) SetCurrentSystem(ctx context.Context, systemID int64) error {
	if _, err := loadSystem(ctx, p.db, systemID); err != nil {
		return err
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO system_db_state (singleton, current_system_id) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET current_system_id = EXCLUDED.current_system_id
	`, systemID)
	if err != nil {
		return fmt.Errorf("set current system: %w", err)
	}
	return nil
}

// SetCurrentConfiguration makes a configuration current within its system.
func (p *Postgres) SetCurrentConfiguration(ctx context.Context, systemID, configurationID int64) error {
	tag, err := p.db.Exec(ctx, `
		UPDATE systems SET current_configuration_id = $2
		WHERE id = $1 AND EXISTS (
			SELECT 1 FROM configurations WHERE id = $2 AND system_id = $1
		)
	`, systemID, configurationID)
	if err != nil {
		return fmt.Errorf("set current configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("configuration %d of system %d: %w", configurationID, systemID, ErrNotFound)
	}
	return nil
}

// Summary counts the systems and the current system's configurations.
func (p *Postgres) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM systems`).Scan(&s.NSystems); err != nil {
		return s, fmt.Errorf("count systems: %w", err)
	}

	current, err := currentSystemID(ctx, p.db)
	if errors.Is(err, ErrNoCurrentSystem) {
		return s, nil
	}
	if err != nil {
		return s, err
	}

	err = p.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM systems WHERE id <= $1),
			(SELECT count(*) FROM configurations WHERE system_id = $1),
			(SELECT count(*) FROM configurations c JOIN systems s ON s.id = c.system_id
			 WHERE s.id = $1 AND c.id <= s.current_configuration_id)
	`, current).Scan(&s.CurrentSystem, &s.NConfigurations, &s.CurrentConfiguration)
	if err != nil {
		return s, fmt.Errorf("summarize systems: %w", err)
	}
	return s, nil
}

func (p *Postgres) resolveSystem(ctx context.Context, ref string) (int64, error) {
	if ref == RefCurrent {
		return currentSystemID(ctx, p.db)
	}

	var n int
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM systems`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count systems: %w", err)
	}

	var row pgx.Row
	i, isOrdinal, err := ordinal(ref, n)
	switch {
	case err != nil:
		return 0, fmt.Errorf("system %q: %w", ref, err)
	case isOrdinal:
		row = p.db.QueryRow(ctx, `SELECT id FROM systems ORDER BY id OFFSET $1 LIMIT 1`, i)
	default:
		row = p.db.QueryRow(ctx, `SELECT id FROM systems WHERE name = $1 ORDER BY id LIMIT 1`, ref)
	}

	var id int64
	err = row.Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("system %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve system: %w", err)
	}
	return id, nil
}

func currentSystemID(ctx context.Context, q querier) (int64, error) {
	var id *int64
	err := q.QueryRow(ctx, `SELECT current_system_id FROM system_db_state`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && id == nil) {
		return 0, ErrNoCurrentSystem
	}
	if err != nil {
		return 0, fmt.Errorf("get current system: %w", err)
	}
	return *id, nil
}

func loadSystem(ctx context.Context, q querier, id int64) (*System, error) {
	var s System
	var c Configuration
	err := q.QueryRow(ctx, `
		SELECT s.id, s.name, s.created_at, c.id, c.system_id, c.name, c.created_at
		FROM systems s JOIN configurations c ON c.id = s.current_configuration_id
		WHERE s.id = $1
	`, id).Scan(&s.ID, &s.Name, &s.CreatedAt, &c.ID, &c.SystemID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("system %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get system: %w", err)
	}
	s.Configuration = &c
	return &s, nil
}

func insertConfiguration(ctx context.Context, q querier, systemID int64, name string) (*Configuration, error) {
	c := Configuration{SystemID: systemID}
	err := q.QueryRow(ctx, `
		INSERT INTO configurations (system_id, name) VALUES ($1, $2)
		RETURNING id, name, created_at
	`, systemID, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert configuration: %w", err)
	}
	return &c, nil
}
