package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// Client é uma conexão aceita; escritas são serializadas pelo mutex próprio
type Client struct {
	ID   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) writeRaw(b []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) writeJSON(v any, timeout time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.writeRaw(b, timeout)
}

// Hub mantém os clientes conectados ao /ws e faz broadcast de frames.
// Cliente cuja escrita falha é descartado; não há fila por cliente.
type Hub struct {
	upgrader     websocket.Upgrader
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	log          *zap.Logger
	WriteTimeout time.Duration

	OnCount func(n int) // métricas: total de conexões após cada entrada/saída
}

// NewHub cria o Hub com a política de origem informada (nil aceita qualquer origem)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader:     websocket.Upgrader{CheckOrigin: allowOrigin},
		clients:      make(map[*Client]struct{}),
		log:          log,
		WriteTimeout: 5 * time.Second,
	}
}

// Add registra a conexão e devolve o cliente criado
func (h *Hub) Add(conn *websocket.Conn) *Client {
	c := &Client{ID: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.count(n)
	return c
}

// Remove descarta o cliente e fecha a conexão; chamadas repetidas são inofensivas
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
		h.count(n)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) count(n int) {
	if h.OnCount != nil {
		h.OnCount(n)
	}
}

// Broadcast envia o frame a todos os clientes e devolve quantos receberam
func (h *Hub) Broadcast(f events.Frame) int {
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(f)
	if err != nil {
		h.log.Error("marshal frame failed", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.writeRaw(b, h.WriteTimeout); err != nil {
			h.log.Debug("dropping ws client", zap.String("client_id", c.ID), zap.Error(err))
			h.Remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Notify permite usar o Hub como destino direto da ingestão no mesmo processo
func (h *Hub) Notify(_ context.Context, f events.Frame) error {
	h.Broadcast(f)
	return nil
}

// HandleWS aceita a conexão, envia o frame connected e responde "ping" com pong
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := h.Add(conn)
	defer h.Remove(c)

	log := h.log.With(zap.String("client_id", c.ID))
	log.Info("ws client connected", zap.Int("clients", h.Count()))

	hello := events.Frame{
		Type:      events.FrameConnected,
		Message:   "Conectado ao monitor de futebol virtual",
		ClientID:  c.ID,
		Timestamp: time.Now().UTC(),
	}
	if err := c.writeJSON(hello, h.WriteTimeout); err != nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Info("ws client disconnected")
			return
		}
		if isPing(msg) {
			if err := c.writeJSON(events.Frame{Type: events.FramePong, Timestamp: time.Now().UTC()}, h.WriteTimeout); err != nil {
				return
			}
		}
	}
}

// isPing aceita o texto "ping" e também {"type":"ping"}
func isPing(msg []byte) bool {
	s := strings.TrimSpace(string(msg))
	if strings.EqualFold(s, "ping") {
		return true
	}
	var m struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(msg, &m) == nil && m.Type == "ping"
}
