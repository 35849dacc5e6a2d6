package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matatu_manager/internal/middleware"
	"matatu_manager/internal/models"
	"matatu_manager/internal/services"
	"matatu_manager/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memVehicles is a minimal vehicle repository for handler tests.
type memVehicles struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.Vehicle
	history map[uuid.UUID]bool
}

func newMemVehicles() *memVehicles {
	return &memVehicles{rows: map[uuid.UUID]models.Vehicle{}, history: map[uuid.UUID]bool{}}
}

func (m *memVehicles) Create(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Registration == v.Registration {
			return store.ErrDuplicate
		}
	}
	v.ID = uuid.New()
	m.rows[v.ID] = *v
	return nil
}

func (m *memVehicles) GetByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *memVehicles) List(_ context.Context, f store.VehicleFilter) ([]models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Vehicle{}
	for _, v := range m.rows {
		if f.Status == "" || v.Status == f.Status {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memVehicles) Update(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[v.ID] = *v
	return nil
}

func (m *memVehicles) SetStatus(_ context.Context, id uuid.UUID, status models.VehicleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.rows[id]
	v.Status = status
	m.rows[id] = v
	return nil
}

func (m *memVehicles) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memVehicles) HasHistory(_ context.Context, id uuid.UUID) (bool, error) {
	return m.history[id], nil
}

func (m *memVehicles) Count(_ context.Context, status models.VehicleStatus) (int64, error) {
	vs, _ := m.List(context.Background(), store.VehicleFilter{Status: status})
	return int64(len(vs)), nil
}

func vehicleRouter(repo *memVehicles) *gin.Engine {
	h := NewVehicleController(services.NewVehicleService(repo, nil))
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/vehicles", h.Create)
	r.GET("/vehicles", h.List)
	r.GET("/vehicles/:id", h.Get)
	r.DELETE("/vehicles/:id", h.Delete)
	return r
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Errors)
	return body.Errors[0].Type
}

func TestVehicleController_CreateAndGet(t *testing.T) {
	repo := newMemVehicles()
	r := vehicleRouter(repo)

	w := do(r, http.MethodPost, "/vehicles", gin.H{"registration": "KCA 123A", "passenger_capacity": 14})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Vehicle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.VehicleActive, created.Status)

	w = do(r, http.MethodGet, "/vehicles/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/vehicles", gin.H{"registration": "KCA 123A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate_registration", errorType(t, w))
}

func TestVehicleController_BadInput(t *testing.T) {
	r := vehicleRouter(newMemVehicles())

	w := do(r, http.MethodGet, "/vehicles/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", errorType(t, w))

	w = do(r, http.MethodGet, "/vehicles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "vehicle_not_found", errorType(t, w))

	req := httptest.NewRequest(http.MethodPost, "/vehicles", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", errorType(t, rec))

	w = do(r, http.MethodGet, "/vehicles?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/vehicles?status=flying", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVehicleController_DeleteKeepsUsedVehicle(t *testing.T) {
	repo := newMemVehicles()
	used := models.Vehicle{Registration: "KBZ 900Z"}
	require.NoError(t, repo.Create(context.Background(), &used))
	repo.history[used.ID] = true
	unused := models.Vehicle{Registration: "KDA 001A"}
	require.NoError(t, repo.Create(context.Background(), &unused))
	r := vehicleRouter(repo)

	w := do(r, http.MethodDelete, "/vehicles/"+used.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VehicleInactive, repo.rows[used.ID].Status)

	w = do(r, http.MethodDelete, "/vehicles/"+unused.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, repo.rows, unused.ID)
}

func TestQueryIDsAcceptsRepeatedAndCommaSeparated(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/?ids="+a.String()+","+b.String()+"&ids="+c.String(), nil)

	ids, ok := queryIDs(ctx, "ids")
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{a, b, c}, ids)
}

func TestPageDefaultsAndCaps(t *testing.T) {
	cases := map[string]store.Page{
		"/":                 {Offset: 0, Limit: 100},
		"/?skip=20&limit=5": {Offset: 20, Limit: 5},
		"/?limit=5000":      {Offset: 0, Limit: 1000},
		"/?skip=-3&limit=0": {Offset: 0, Limit: 100},
	}
	for url, want := range cases {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest(http.MethodGet, url, nil)
		got, ok := page(ctx)
		require.True(t, ok, url)
		assert.Equal(t, want, got, url)
	}
}

func TestReportController_CombinedNeedsAFilter(t *testing.T) {
	h := NewReportController(services.NewReportService(nil, nil, nil, nil, nil, time.UTC, "Fleet"))
	r := gin.New()
	r.GET("/reports/combined", h.CombinedReport())
	r.GET("/reports/vehicles/:id", h.VehicleReport())

	w := do(r, http.MethodGet, "/reports/combined", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_filter", errorType(t, w))

	w = do(r, http.MethodGet, "/reports/combined?vehicle_ids=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", errorType(t, w))

	w = do(r, http.MethodGet, "/reports/vehicles/"+uuid.NewString()+"?start_date=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date_format", errorType(t, w))
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{errors.New("connection refused"), http.StatusServiceUnavailable},
	} {
		r := gin.New()
		r.GET("/health", NewHealthController(stubPinger{tc.err}).Health)
		w := do(r, http.MethodGet, "/health", nil)
		assert.Equal(t, tc.code, w.Code)
	}
}

func TestLocationHubBroadcastAndClose(t *testing.T) {
	hub := NewLocationHub()
	c := &wsClient{send: make(chan []byte, 1)}
	hub.register(c)
	assert.Equal(t, 1, hub.Clients())

	hub.Publish(services.LocationUpdate{EventType: "initial"})
	select {
	case msg := <-c.send:
		assert.Contains(t, string(msg), `"initial"`)
	case <-time.After(time.Second):
		t.Fatal("update was not broadcast")
	}

	hub.Close()
	assert.Zero(t, hub.Clients())
	_, open := <-c.send
	assert.False(t, open)
	// publishing after close is a no-op
	hub.Publish(services.LocationUpdate{})
	hub.Close()
}

func TestLocationHubSendSkipsDroppedClients(t *testing.T) {
	hub := NewLocationHub()
	c := &wsClient{send: make(chan []byte, 1)}
	hub.register(c)
	assert.True(t, hub.send(c, []byte(`{}`)))
	// buffer full
	assert.False(t, hub.send(c, []byte(`{}`)))

	hub.unregister(c)
	assert.NotPanics(t, func() {
		assert.False(t, hub.send(c, []byte(`{}`)))
		(&LocationController{hub: hub}).reply(c, gin.H{"status": "skipped"})
	})

	other := &wsClient{send: make(chan []byte, 1)}
	hub.register(other)
	hub.Close()
	assert.False(t, hub.send(other, []byte(`{}`)))
}

func TestWsClientBind(t *testing.T) {
	mine := uuid.New()
	driver := &wsClient{driverID: mine}

	got, err := driver.bind(services.LocationData{Latitude: 1})
	require.NoError(t, err)
	assert.Equal(t, mine, got.DriverID)

	got, err = driver.bind(services.LocationData{DriverID: mine})
	require.NoError(t, err)
	assert.Equal(t, mine, got.DriverID)

	_, err = driver.bind(services.LocationData{DriverID: uuid.New()})
	assert.Equal(t, errOtherDriver, err)

	_, err = (&wsClient{}).bind(services.LocationData{DriverID: mine})
	assert.Equal(t, errNotADriver, err)
}

// memDrivers, memLocations and noTrips back a LocationService; only the
// methods it calls are implemented.
type memDrivers struct {
	services.DriverRepository
	rows []models.Driver
}

func (m *memDrivers) GetByID(_ context.Context, id uuid.UUID) (*models.Driver, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			d := m.rows[i]
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memDrivers) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Driver, error) {
	for i := range m.rows {
		if u := m.rows[i].UserID; u != nil && *u == userID {
			d := m.rows[i]
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

type memLocations struct {
	services.LocationRepository
	mu   sync.Mutex
	rows []models.LocationHistory
}

func (m *memLocations) Create(_ context.Context, l *models.LocationHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.New()
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memLocations) Latest(context.Context, uuid.UUID) (*models.LocationHistory, error) {
	return nil, store.ErrNotFound
}

func (m *memLocations) saved() []models.LocationHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LocationHistory(nil), m.rows...)
}

type noTrips struct {
	services.TripRepository
}

func (noTrips) List(context.Context, store.TripFilter) ([]models.Trip, error) { return nil, nil }

func TestLocationWebSocketBindsFixesToCallersDriver(t *testing.T) {
	user := uuid.New()
	mine := models.Driver{Base: models.Base{ID: uuid.New()}, Name: "Omondi", Status: models.DriverActive, UserID: &user}
	other := models.Driver{Base: models.Base{ID: uuid.New()}, Name: "Njoroge", Status: models.DriverActive}
	locations := &memLocations{}
	svc := services.NewLocationService(locations, &memDrivers{rows: []models.Driver{mine, other}}, noTrips{})
	hub := NewLocationHub()
	defer hub.Close()
	ctrl := NewLocationController(svc, hub, nil)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		id, _ := uuid.Parse(c.Query("user"))
		c.Set("user_id", id)
	}, ctrl.HandleLocationWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	dial := func(u uuid.UUID) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + u.String()
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	exchange := func(conn *websocket.Conn, msg string) map[string]any {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var out map[string]any
		require.NoError(t, conn.ReadJSON(&out))
		return out
	}

	viewer := dial(uuid.New())
	resp := exchange(viewer, `{"driver_id":"`+other.ID.String()+`","latitude":-1.29,"longitude":36.82}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "forbidden", resp["type"])

	driver := dial(user)
	resp = exchange(driver, `{"driver_id":"`+other.ID.String()+`","latitude":-1.29,"longitude":36.82}`)
	assert.Equal(t, "forbidden", resp["type"])
	assert.Empty(t, locations.saved())

	resp = exchange(driver, `{"latitude":-1.29,"longitude":36.82}`)
	assert.Equal(t, "saved", resp["status"])
	assert.Equal(t, "initial", resp["event_type"])
	saved := locations.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, mine.ID, saved[0].DriverID)
}
