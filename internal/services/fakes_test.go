package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

// In-memory repositories. They implement just enough filtering for the
// service tests and count lookups so memoisation can be asserted.

type fakeVehicles struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*models.Vehicle
	history map[uuid.UUID]bool
	gets    int
}

func newFakeVehicles(vs ...models.Vehicle) *fakeVehicles {
	f := &fakeVehicles{rows: map[uuid.UUID]*models.Vehicle{}, history: map[uuid.UUID]bool{}}
	for i := range vs {
		v := vs[i]
		f.rows[v.ID] = &v
	}
	return f
}

func (f *fakeVehicles) Create(_ context.Context, v *models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.Registration == v.Registration {
			return store.ErrDuplicate
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	c := *v
	f.rows[v.ID] = &c
	return nil
}

func (f *fakeVehicles) GetByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	v, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (f *fakeVehicles) List(_ context.Context, filter store.VehicleFilter) ([]models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Vehicle
	for _, v := range f.rows {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeVehicles) Update(_ context.Context, v *models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[v.ID]; !ok {
		return store.ErrNotFound
	}
	c := *v
	f.rows[v.ID] = &c
	return nil
}

func (f *fakeVehicles) SetStatus(_ context.Context, id uuid.UUID, status models.VehicleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	v.Status = status
	return nil
}

func (f *fakeVehicles) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeVehicles) HasHistory(_ context.Context, id uuid.UUID) (bool, error) {
	return f.history[id], nil
}

func (f *fakeVehicles) Count(_ context.Context, status models.VehicleStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, v := range f.rows {
		if status == "" || v.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeDrivers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Driver
	gets int
}

func newFakeDrivers(ds ...models.Driver) *fakeDrivers {
	f := &fakeDrivers{rows: map[uuid.UUID]*models.Driver{}}
	for i := range ds {
		d := ds[i]
		f.rows[d.ID] = &d
	}
	return f
}

func (f *fakeDrivers) Create(_ context.Context, d *models.Driver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.LicenseNumber == d.LicenseNumber {
			return store.ErrDuplicate
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	c := *d
	f.rows[d.ID] = &c
	return nil
}

func (f *fakeDrivers) GetByID(_ context.Context, id uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	d, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeDrivers) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.rows {
		if d.UserID != nil && *d.UserID == userID {
			c := *d
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDrivers) List(context.Context, store.DriverFilter) ([]models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Driver
	for _, d := range f.rows {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDrivers) Update(_ context.Context, d *models.Driver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[d.ID]; !ok {
		return store.ErrNotFound
	}
	c := *d
	f.rows[d.ID] = &c
	return nil
}

func (f *fakeDrivers) SetStatus(_ context.Context, id uuid.UUID, status models.DriverStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	d.Status = status
	return nil
}

func (f *fakeDrivers) SetRating(_ context.Context, id uuid.UUID, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	d.Rating = rating
	return nil
}

func (f *fakeDrivers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeDrivers) HasHistory(context.Context, uuid.UUID) (bool, error) { return false, nil }

type fakeRoutes struct {
	rows          map[uuid.UUID]*models.Route
	activeVehicle map[uuid.UUID]int64
	withTrips     map[uuid.UUID]bool
	deleted       []uuid.UUID
}

func newFakeRoutes(rs ...models.Route) *fakeRoutes {
	f := &fakeRoutes{rows: map[uuid.UUID]*models.Route{}, activeVehicle: map[uuid.UUID]int64{}, withTrips: map[uuid.UUID]bool{}}
	for i := range rs {
		r := rs[i]
		f.rows[r.ID] = &r
	}
	return f
}

func (f *fakeRoutes) Create(_ context.Context, r *models.Route) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	c := *r
	f.rows[r.ID] = &c
	return nil
}

func (f *fakeRoutes) GetByID(_ context.Context, id uuid.UUID) (*models.Route, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeRoutes) List(context.Context, store.RouteFilter) ([]models.Route, error) {
	var out []models.Route
	for _, r := range f.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoutes) Update(_ context.Context, r *models.Route) error {
	stages := f.rows[r.ID].Stages
	c := *r
	c.Stages = stages
	f.rows[r.ID] = &c
	return nil
}

func (f *fakeRoutes) SetStatus(_ context.Context, id uuid.UUID, status models.RouteStatus) error {
	f.rows[id].Status = status
	return nil
}

func (f *fakeRoutes) ReplaceStages(_ context.Context, id uuid.UUID, stages []models.Stage) error {
	f.rows[id].Stages = stages
	return nil
}

func (f *fakeRoutes) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRoutes) HasTrips(_ context.Context, id uuid.UUID) (bool, error) {
	return f.withTrips[id], nil
}

func (f *fakeRoutes) ActiveVehicleCount(_ context.Context, id uuid.UUID) (int64, error) {
	return f.activeVehicle[id], nil
}

// fakeTrips mimics the store's completion rule: a trip moving into completed
// reports true once.
type fakeTrips struct {
	rows        []*models.Trip
	completions int
	lastFilter  store.TripFilter
}

func (f *fakeTrips) Create(_ context.Context, t *models.Trip) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == models.TripCompleted {
		f.completions++
	}
	c := *t
	f.rows = append(f.rows, &c)
	return nil
}

func (f *fakeTrips) find(id uuid.UUID) *models.Trip {
	for _, t := range f.rows {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (f *fakeTrips) GetByID(_ context.Context, id uuid.UUID) (*models.Trip, error) {
	t := f.find(id)
	if t == nil {
		return nil, store.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeTrips) GetDetail(_ context.Context, id uuid.UUID) (*store.TripDetail, error) {
	t := f.find(id)
	if t == nil {
		return nil, store.ErrNotFound
	}
	return &store.TripDetail{Trip: *t}, nil
}

func (f *fakeTrips) match(filter store.TripFilter, t *models.Trip) bool {
	if len(filter.VehicleIDs) > 0 && !contains(filter.VehicleIDs, t.VehicleID) {
		return false
	}
	if len(filter.DriverIDs) > 0 && !contains(filter.DriverIDs, t.DriverID) {
		return false
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.ExcludeStatus != "" && t.Status == filter.ExcludeStatus {
		return false
	}
	ts := t.Timestamp()
	if !filter.From.IsZero() && ts.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !ts.Before(filter.To) {
		return false
	}
	return true
}

func (f *fakeTrips) List(_ context.Context, filter store.TripFilter) ([]models.Trip, error) {
	f.lastFilter = filter
	var out []models.Trip
	for _, t := range f.rows {
		if f.match(filter, t) {
			out = append(out, *t)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeTrips) Each(_ context.Context, filter store.TripFilter, fn func(*models.Trip) error) error {
	f.lastFilter = filter
	for _, t := range f.rows {
		if !f.match(filter, t) {
			continue
		}
		c := *t
		if err := fn(&c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTrips) Update(_ context.Context, t *models.Trip) (bool, error) {
	old := f.find(t.ID)
	if old == nil {
		return false, store.ErrNotFound
	}
	completed := old.Status != models.TripCompleted && t.Status == models.TripCompleted
	if completed {
		f.completions++
	}
	*old = *t
	return completed, nil
}

func (f *fakeTrips) Delete(_ context.Context, id uuid.UUID) error {
	for i, t := range f.rows {
		if t.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type fakeSummaries struct {
	rows        map[string]*models.DailySummary
	regenerated int
	build       func(vehicleID uuid.UUID, date models.Date) models.DailySummary
}

func summaryKey(vehicleID uuid.UUID, date models.Date) string {
	return vehicleID.String() + "/" + date.String()
}

func (f *fakeSummaries) Get(_ context.Context, vehicleID uuid.UUID, date models.Date) (*models.DailySummary, error) {
	s, ok := f.rows[summaryKey(vehicleID, date)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeSummaries) List(_ context.Context, filter store.SummaryFilter) ([]models.DailySummary, error) {
	var out []models.DailySummary
	for _, s := range f.rows {
		if s.Date.Before(filter.From.Time) || s.Date.After(filter.To.Time) {
			continue
		}
		if filter.VehicleID != nil && s.VehicleID != *filter.VehicleID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSummaries) Regenerate(_ context.Context, vehicleID uuid.UUID, date models.Date) (*models.DailySummary, error) {
	f.regenerated++
	s := models.DailySummary{VehicleID: vehicleID, Date: date}
	if f.build != nil {
		s = f.build(vehicleID, date)
	}
	if f.rows == nil {
		f.rows = map[string]*models.DailySummary{}
	}
	f.rows[summaryKey(vehicleID, date)] = &s
	return &s, nil
}

type fakeDeficits struct {
	rows []models.Deficit
}

func (f *fakeDeficits) Create(_ context.Context, d *models.Deficit) error {
	d.ID = uuid.New()
	f.rows = append(f.rows, *d)
	return nil
}

func (f *fakeDeficits) GetByID(_ context.Context, id uuid.UUID) (*models.Deficit, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDeficits) List(_ context.Context, filter store.DeficitFilter) ([]models.Deficit, error) {
	var out []models.Deficit
	for _, d := range f.rows {
		if filter.DriverID != nil && d.DriverID != *filter.DriverID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDeficits) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeUsers struct {
	rows map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{rows: map[uuid.UUID]*models.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	for _, existing := range f.rows {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	c := *u
	f.rows[u.ID] = &c
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.rows {
		if u.Email == strings.ToLower(email) {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, p store.Page) ([]models.User, error) {
	var out []models.User
	for _, u := range f.rows {
		out = append(out, *u)
		if p.Limit > 0 && len(out) == p.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	if _, ok := f.rows[u.ID]; !ok {
		return store.ErrNotFound
	}
	c := *u
	f.rows[u.ID] = &c
	return nil
}

type fakeLocations struct {
	rows []models.LocationHistory
}

func (f *fakeLocations) Create(_ context.Context, l *models.LocationHistory) error {
	l.ID = uuid.New()
	f.rows = append(f.rows, *l)
	return nil
}

func (f *fakeLocations) Latest(_ context.Context, driverID uuid.UUID) (*models.LocationHistory, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].DriverID == driverID {
			l := f.rows[i]
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeLocations) History(_ context.Context, driverID uuid.UUID, limit int) ([]models.LocationHistory, error) {
	var out []models.LocationHistory
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].DriverID == driverID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeLocations) LatestForActiveDrivers(context.Context) ([]models.LocationHistory, error) {
	return nil, nil
}
