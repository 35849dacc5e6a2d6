// Package store is the record store adapter: gorm repositories over postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store bundles the repositories over one gorm handle.
type Store struct {
	db  *gorm.DB
	loc *time.Location

	Vehicles  *VehicleStore
	Drivers   *DriverStore
	Routes    *RouteStore
	Trips     *TripStore
	Summaries *SummaryStore
	Deficits  *DeficitStore
	Users     *UserStore
	Locations *LocationStore
}

// New wires every repository. loc is the zone calendar dates are cut in.
func New(db *gorm.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	s := &Store{db: db, loc: loc}
	s.Vehicles = &VehicleStore{db: db}
	s.Drivers = &DriverStore{db: db}
	s.Routes = &RouteStore{db: db}
	s.Summaries = &SummaryStore{db: db, loc: loc}
	s.Trips = &TripStore{db: db, loc: loc, summaries: s.Summaries}
	s.Deficits = &DeficitStore{db: db}
	s.Users = &UserStore{db: db}
	s.Locations = &LocationStore{db: db}
	return s
}

func (s *Store) Location() *time.Location { return s.loc }

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps driver and gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// Page bounds a list query. Zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}
