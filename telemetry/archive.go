package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	logger "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	archiveTripAfter = 3
	archiveOpenFor   = time.Minute
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Archive appends records to a Postgres table. A circuit breaker stops the
// node from waiting on a dead database every cycle.
type Archive struct {
	db     *sql.DB
	table  string
	cb     *gobreaker.CircuitBreaker
	insert string
}

func OpenArchive(ctx context.Context, dsn, table string) (*Archive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	a, err := NewArchive(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := a.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func NewArchive(db *sql.DB, table string) (*Archive, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid archive table name %q", table)
	}
	a := &Archive{
		db:    db,
		table: table,
		insert: fmt.Sprintf(`INSERT INTO %s (nodo_id, temperatura, humedad, co2, sonido, sonido_clase, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, table),
	}
	a.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "archive",
		Timeout: archiveOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= archiveTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker [%v] %v -> %v", name, from, to)
		},
	})
	return a, nil
}

func (a *Archive) ensureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id           BIGSERIAL PRIMARY KEY,
	nodo_id      TEXT NOT NULL,
	temperatura  DOUBLE PRECISION,
	humedad      DOUBLE PRECISION,
	co2          DOUBLE PRECISION,
	sonido       DOUBLE PRECISION,
	sonido_clase TEXT,
	timestamp    TIMESTAMP,
	recibido     TIMESTAMPTZ NOT NULL DEFAULT now()
)`, a.table))
	return err
}

func (a *Archive) Name() string { return "archive" }

func (a *Archive) Publish(ctx context.Context, rec Record) error {
	var sound, label, ts interface{}
	if rec.Sound.IsLabel() {
		label = rec.Sound.Label
	} else {
		sound = rec.Sound.Value
	}
	if rec.Timestamp != nil {
		ts = *rec.Timestamp
	}
	_, err := a.cb.Execute(func() (interface{}, error) {
		return a.db.ExecContext(ctx, a.insert, rec.NodeID, rec.Temperature, rec.Humidity, rec.CO2, sound, label, ts)
	})
	return err
}

func (a *Archive) Close() error {
	return a.db.Close()
}
