package records

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_state_by_code": `SELECT id, name, state_code FROM states
		WHERE state_code = $1 AND status = 1 AND deleted_at IS NULL LIMIT 1`,
	"get_state_by_name": `SELECT id, name, state_code FROM states
		WHERE name = $1 AND status = 1 AND deleted_at IS NULL LIMIT 1`,
	"get_premise_by_id": `SELECT id, premise_name, address_line_1, address_line_2,
			latitude, longitude, postal_code, state_id, city_id, ahj_id,
			formatted_address, reference_number
		FROM premises WHERE id = $1 AND deleted_at IS NULL LIMIT 1`,
	"query_nearby": `SELECT id, premise_name, address_line_1, address_line_2,
			latitude, longitude, postal_code, state_id, city_id, ahj_id,
			formatted_address, reference_number,
			sqrt(power(latitude - $1, 2) + power(longitude - $2, 2)) AS distance
		FROM premises
		WHERE deleted_at IS NULL
			AND latitude IS NOT NULL AND longitude IS NOT NULL
			AND abs(latitude - $1) < $3
			AND abs(longitude - $2) < $3
			AND ($4::bigint IS NULL OR state_id = $4)
		ORDER BY distance
		LIMIT 10`,
	"list_categories": `SELECT DISTINCT ot.id, ot.name, aot.ahj_id
		FROM ahj_occupancy_type aot
		JOIN ahj_lists a ON aot.ahj_id = a.id
		JOIN states s ON a.state_id = s.id
		JOIN occupancy_type ot ON aot.occupancy_type_id = ot.id
		WHERE s.state_code = $1 AND aot.status = 1 AND a.deleted_at IS NULL
		ORDER BY ot.name`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "records: parse postgres config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "records: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "records: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "records: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) QueryNearby(ctx context.Context, lat, lng float64, stateID *int64, radiusDeg float64) ([]Premise, error) {
	rows, err := s.pool.Query(ctx, "query_nearby", lat, lng, radiusDeg, stateID)
	if err != nil {
		return nil, eris.Wrap(err, "records: query nearby premises")
	}
	defer rows.Close()

	var out []Premise
	for rows.Next() {
		var p Premise
		var addr2, formatted, refNum *string
		if err := rows.Scan(
			&p.ID, &p.PremiseName, &p.AddressLine1, &addr2,
			&p.Latitude, &p.Longitude, &p.PostalCode, &p.StateID,
			&p.CityID, &p.AhjID, &formatted, &refNum, &p.Distance,
		); err != nil {
			return nil, eris.Wrap(err, "records: scan premise")
		}
		if addr2 != nil {
			p.AddressLine2 = *addr2
		}
		if formatted != nil {
			p.FormattedAddress = *formatted
		}
		if refNum != nil {
			p.ReferenceNumber = *refNum
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "records: iterate premises")
	}
	return out, nil
}

func (s *PostgresStore) GetStateByCode(ctx context.Context, code string) (*State, error) {
	return s.getState(ctx, "get_state_by_code", code)
}

func (s *PostgresStore) GetStateByName(ctx context.Context, name string) (*State, error) {
	return s.getState(ctx, "get_state_by_name", name)
}

func (s *PostgresStore) getState(ctx context.Context, stmt, arg string) (*State, error) {
	var st State
	err := s.pool.QueryRow(ctx, stmt, arg).Scan(&st.ID, &st.Name, &st.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "records: %s %s", stmt, arg)
	}
	return &st, nil
}

func (s *PostgresStore) GetPremiseByID(ctx context.Context, id int64) (*Premise, error) {
	var p Premise
	var addr2, formatted, refNum *string
	err := s.pool.QueryRow(ctx, "get_premise_by_id", id).Scan(
		&p.ID, &p.PremiseName, &p.AddressLine1, &addr2,
		&p.Latitude, &p.Longitude, &p.PostalCode, &p.StateID,
		&p.CityID, &p.AhjID, &formatted, &refNum,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "records: get premise %d", id)
	}
	if addr2 != nil {
		p.AddressLine2 = *addr2
	}
	if formatted != nil {
		p.FormattedAddress = *formatted
	}
	if refNum != nil {
		p.ReferenceNumber = *refNum
	}
	return &p, nil
}

func (s *PostgresStore) ListCategoriesForState(ctx context.Context, stateCode string) ([]Category, error) {
	rows, err := s.pool.Query(ctx, "list_categories", stateCode)
	if err != nil {
		return nil, eris.Wrapf(err, "records: list categories for %s", stateCode)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.AhjID); err != nil {
			return nil, eris.Wrap(err, "records: scan category")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "records: iterate categories")
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "records: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
