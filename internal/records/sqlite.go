package records

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves local
// development and tests where a Postgres instance is not available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "records: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "records: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS states (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	state_code TEXT NOT NULL,
	status     INTEGER NOT NULL DEFAULT 1,
	deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS premises (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	premise_name      TEXT NOT NULL,
	address_line_1    TEXT NOT NULL,
	address_line_2    TEXT,
	latitude          REAL,
	longitude         REAL,
	postal_code       TEXT NOT NULL DEFAULT '',
	state_id          INTEGER NOT NULL REFERENCES states(id),
	city_id           INTEGER,
	ahj_id            INTEGER,
	formatted_address TEXT,
	reference_number  TEXT,
	deleted_at        DATETIME
);

CREATE TABLE IF NOT EXISTS ahj_lists (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	state_id   INTEGER NOT NULL REFERENCES states(id),
	deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS occupancy_type (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ahj_occupancy_type (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	ahj_id            INTEGER NOT NULL REFERENCES ahj_lists(id),
	occupancy_type_id INTEGER NOT NULL REFERENCES occupancy_type(id),
	status            INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_states_code ON states(state_code);
CREATE INDEX IF NOT EXISTS idx_premises_state ON premises(state_id);
CREATE INDEX IF NOT EXISTS idx_premises_lat ON premises(latitude);
CREATE INDEX IF NOT EXISTS idx_premises_lng ON premises(longitude);
CREATE INDEX IF NOT EXISTS idx_aot_ahj ON ahj_occupancy_type(ahj_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "records: migrate sqlite")
}

// QueryNearby selects candidates inside the bounding box and computes planar
// distance in Go, since SQLite math functions are a build-time option.
func (s *SQLiteStore) QueryNearby(ctx context.Context, lat, lng float64, stateID *int64, radiusDeg float64) ([]Premise, error) {
	query := `SELECT id, premise_name, address_line_1, address_line_2,
			latitude, longitude, postal_code, state_id, city_id, ahj_id,
			formatted_address, reference_number
		FROM premises
		WHERE deleted_at IS NULL
			AND latitude IS NOT NULL AND longitude IS NOT NULL
			AND ABS(latitude - ?) < ?
			AND ABS(longitude - ?) < ?`
	args := []any{lat, radiusDeg, lng, radiusDeg}
	if stateID != nil {
		query += " AND state_id = ?"
		args = append(args, *stateID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "records: query nearby premises")
	}
	defer rows.Close()

	var out []Premise
	for rows.Next() {
		p, err := scanPremise(rows.Scan)
		if err != nil {
			return nil, err
		}
		p.Distance = math.Sqrt(math.Pow(p.Latitude-lat, 2) + math.Pow(p.Longitude-lng, 2))
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "records: iterate premises")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > maxNearby {
		out = out[:maxNearby]
	}
	return out, nil
}

func (s *SQLiteStore) GetStateByCode(ctx context.Context, code string) (*State, error) {
	return s.getState(ctx,
		`SELECT id, name, state_code FROM states
		 WHERE state_code = ? AND status = 1 AND deleted_at IS NULL LIMIT 1`, code)
}

func (s *SQLiteStore) GetStateByName(ctx context.Context, name string) (*State, error) {
	return s.getState(ctx,
		`SELECT id, name, state_code FROM states
		 WHERE name = ? AND status = 1 AND deleted_at IS NULL LIMIT 1`, name)
}

func (s *SQLiteStore) getState(ctx context.Context, query, arg string) (*State, error) {
	var st State
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&st.ID, &st.Name, &st.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "records: get state %s", arg)
	}
	return &st, nil
}

func (s *SQLiteStore) GetPremiseByID(ctx context.Context, id int64) (*Premise, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, premise_name, address_line_1, address_line_2,
			latitude, longitude, postal_code, state_id, city_id, ahj_id,
			formatted_address, reference_number
		 FROM premises WHERE id = ? AND deleted_at IS NULL LIMIT 1`, id)

	p, err := scanPremise(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) ListCategoriesForState(ctx context.Context, stateCode string) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT ot.id, ot.name, aot.ahj_id
		 FROM ahj_occupancy_type aot
		 JOIN ahj_lists a ON aot.ahj_id = a.id
		 JOIN states s ON a.state_id = s.id
		 JOIN occupancy_type ot ON aot.occupancy_type_id = ot.id
		 WHERE s.state_code = ? AND aot.status = 1 AND a.deleted_at IS NULL
		 ORDER BY ot.name`, stateCode)
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "records: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanPremise reads one premises row via the given Scan function.
func scanPremise(scan func(dest ...any) error) (*Premise, error) {
	var p Premise
	var addr2, formatted, refNum sql.NullString
	err := scan(
		&p.ID, &p.PremiseName, &p.AddressLine1, &addr2,
		&p.Latitude, &p.Longitude, &p.PostalCode, &p.StateID,
		&p.CityID, &p.AhjID, &formatted, &refNum,
	)
	if err != nil {
		return nil, eris.Wrap(err, "records: scan premise")
	}
	p.AddressLine2 = addr2.String
	p.FormattedAddress = formatted.String
	p.ReferenceNumber = refNum.String
	return &p, nil
}

// Seed helpers used by tests and local development fixtures.

// InsertState inserts a state row and returns its ID.
func (s *SQLiteStore) InsertState(ctx context.Context, name, code string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO states (name, state_code, status) VALUES (?, ?, 1)`, name, code)
	if err != nil {
		return 0, eris.Wrapf(err, "records: insert state %s", code)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "records: state id")
}

// InsertPremise inserts a premises row and returns its ID.
func (s *SQLiteStore) InsertPremise(ctx context.Context, p Premise) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO premises (premise_name, address_line_1, address_line_2,
			latitude, longitude, postal_code, state_id, city_id, ahj_id,
			formatted_address, reference_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PremiseName, p.AddressLine1, nullable(p.AddressLine2),
		p.Latitude, p.Longitude, p.PostalCode, p.StateID, p.CityID, p.AhjID,
		nullable(p.FormattedAddress), nullable(p.ReferenceNumber))
	if err != nil {
		return 0, eris.Wrapf(err, "records: insert premise %s", p.PremiseName)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "records: premise id")
}

// InsertCategory registers an occupancy category for the given state,
// creating a jurisdiction row for the state when needed. Returns the
// occupancy type ID.
func (s *SQLiteStore) InsertCategory(ctx context.Context, stateID int64, name string) (int64, error) {
	var ahjID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM ahj_lists WHERE state_id = ? AND deleted_at IS NULL LIMIT 1`,
		stateID).Scan(&ahjID)
	if errors.Is(err, sql.ErrNoRows) {
		res, insErr := s.db.ExecContext(ctx,
			`INSERT INTO ahj_lists (state_id) VALUES (?)`, stateID)
		if insErr != nil {
			return 0, eris.Wrap(insErr, "records: insert ahj")
		}
		ahjID, insErr = res.LastInsertId()
		if insErr != nil {
			return 0, eris.Wrap(insErr, "records: ahj id")
		}
	} else if err != nil {
		return 0, eris.Wrap(err, "records: lookup ahj")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO occupancy_type (name) VALUES (?)`, name)
	if err != nil {
		return 0, eris.Wrapf(err, "records: insert occupancy type %s", name)
	}
	typeID, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "records: occupancy type id")
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO ahj_occupancy_type (ahj_id, occupancy_type_id, status) VALUES (?, ?, 1)`,
		ahjID, typeID); err != nil {
		return 0, eris.Wrap(err, "records: link occupancy type")
	}
	return typeID, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
