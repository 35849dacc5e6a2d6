package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/middleware"
	"matatu_manager/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	clientBuffer   = 32
)

// LocationHub fans saved driver locations out to every connected client.
type LocationHub struct {
	clients   map[*wsClient]bool
	broadcast chan services.LocationUpdate
	mu        sync.Mutex
	closed    bool
}

// wsClient is one connection. driverID is the driver bound to its user,
// uuid.Nil for viewers, whose fixes are refused.
type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	once     sync.Once
	driverID uuid.UUID
}

var (
	errNotADriver  = apperr.ForbiddenError{Msg: "Only accounts linked to a driver can send locations"}
	errOtherDriver = apperr.ForbiddenError{Msg: "Cannot send locations for another driver"}
)

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// bind attributes a fix to the connection's driver.
func (c *wsClient) bind(data services.LocationData) (services.LocationData, error) {
	if c.driverID == uuid.Nil {
		return data, errNotADriver
	}
	if data.DriverID != uuid.Nil && data.DriverID != c.driverID {
		return data, errOtherDriver
	}
	data.DriverID = c.driverID
	return data, nil
}

// NewLocationHub starts the broadcast loop. It stops when Close is called.
func NewLocationHub() *LocationHub {
	hub := &LocationHub{
		clients:   make(map[*wsClient]bool),
		broadcast: make(chan services.LocationUpdate, 100),
	}
	go hub.run()
	return hub
}

func (h *LocationHub) run() {
	for update := range h.broadcast {
		payload, err := json.Marshal(update)
		if err != nil {
			logrus.WithError(err).Error("LocationHub: could not encode update")
			continue
		}
		h.mu.Lock()
		for c := range h.clients {
			select {
			case c.send <- payload:
			default:
				// slow reader, drop it rather than stall the fleet feed
				delete(h.clients, c)
				c.close()
				logrus.WithField("conn_ptr", fmt.Sprintf("%p", c.conn)).Warn("LocationHub: client too slow, unregistered")
			}
		}
		h.mu.Unlock()
	}
}

func (h *LocationHub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", c.conn)).Info("Client registered with LocationHub.")
}

func (h *LocationHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		c.close()
	}
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", c.conn)).Info("Client unregistered from LocationHub.")
}

// send queues a direct message for c. It reports false once c has been
// dropped, since its channel is closed under mu.
func (h *LocationHub) send(c *wsClient, payload []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Publish queues an update for broadcast, dropping it when the queue is full.
func (h *LocationHub) Publish(update services.LocationUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.broadcast <- update:
	default:
		logrus.Warn("Location broadcast channel full, dropping message.")
	}
}

// Clients reports how many connections are subscribed.
func (h *LocationHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *LocationHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.broadcast)
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

type LocationController struct {
	locations *services.LocationService
	hub       *LocationHub
	upgrader  websocket.Upgrader
}

// NewLocationController checks websocket origins against origins. An empty
// list accepts any origin.
func NewLocationController(locations *services.LocationService, hub *LocationHub, origins []string) *LocationController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &LocationController{
		locations: locations,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleLocationWebSocket upgrades an authenticated request. Every client
// receives the fleet feed; text frames are read as GPS fixes of the driver
// linked to the caller's account.
func (h *LocationController) HandleLocationWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)
	driverID, err := h.boundDriver(c, userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, clientBuffer), driverID: driverID}
	h.hub.register(client)

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"driver_id": driverID,
		"conn_ptr":  fmt.Sprintf("%p", conn),
	}).Info("Location WebSocket connection established.")

	go h.writePump(client)
	h.readPump(c, client)
}

// boundDriver resolves the driver linked to userID. An account with no
// driver gets uuid.Nil and may only watch.
func (h *LocationController) boundDriver(c *gin.Context, userID uuid.UUID) (uuid.UUID, error) {
	d, err := h.locations.DriverForUser(c.Request.Context(), userID)
	var missing apperr.NotFoundError
	switch {
	case errors.As(err, &missing):
		return uuid.Nil, nil
	case err != nil:
		return uuid.Nil, err
	}
	return d.ID, nil
}

func (h *LocationController) readPump(c *gin.Context, client *wsClient) {
	defer func() {
		h.hub.unregister(client)
		client.conn.Close()
	}()
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, p, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Warn("Error reading WebSocket message.")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.processLocation(c, client, p)
	}
}

func (h *LocationController) processLocation(c *gin.Context, client *wsClient, p []byte) {
	var data services.LocationData
	if err := json.Unmarshal(p, &data); err != nil {
		logrus.WithError(err).WithField("payload", string(p)).Warn("processLocation: invalid location payload")
		h.reply(client, gin.H{"status": "error", "type": "invalid_location", "message": "Invalid location data format. Check timestamp format."})
		return
	}

	data, err := client.bind(data)
	if err != nil {
		h.reply(client, gin.H{"status": "error", "type": apperr.TypeOf(err), "message": err.Error()})
		return
	}

	update, err := h.locations.Record(c.Request.Context(), data)
	if err != nil {
		h.reply(client, gin.H{"status": "error", "type": apperr.TypeOf(err), "message": err.Error()})
		return
	}
	if update == nil {
		h.reply(client, gin.H{"status": "skipped", "message": "Location received - no significant change"})
		return
	}
	h.reply(client, gin.H{
		"status":      "saved",
		"event_type":  update.EventType,
		"distance":    update.Distance,
		"is_moving":   update.IsMoving,
		"sequence_id": update.SequenceID,
	})
	h.hub.Publish(*update)
}

func (h *LocationController) reply(client *wsClient, msg gin.H) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.hub.send(client, payload)
}

// writePump is the only writer on the connection.
func (h *LocationController) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *LocationController) LatestLocations(c *gin.Context) {
	out, err := h.locations.LatestForActiveDrivers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LocationController) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}
	out, err := h.locations.History(c.Request.Context(), id, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
