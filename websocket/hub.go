package websocket

import (
	"context"

	"go.uber.org/zap"
)

type envelope struct {
	companyID string
	data      []byte
}

type countRequest struct {
	companyID string
	reply     chan int
}

// Hub раздаёт сообщения виджетам, сгруппированным по компании.
type Hub struct {
	// companyID -> подключенные виджеты
	clients map[string]map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	counts     chan countRequest

	done   chan struct{}
	logger *zap.Logger
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает Hub до отмены ctx, после чего закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, set := range h.clients {
			for c := range set {
				close(c.send)
			}
		}
		h.clients = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			set := h.clients[client.CompanyID]
			if set == nil {
				set = make(map[*Client]bool)
				h.clients[client.CompanyID] = set
			}
			set[client] = true
			h.logger.Debug("виджет подключился",
				zap.String("company_id", client.CompanyID),
				zap.Int("clients", len(set)),
			)

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.clients[msg.companyID] {
				select {
				case client.send <- msg.data:
				default:
					// медленный клиент отключается
					h.logger.Warn("буфер виджета переполнен, соединение закрыто",
						zap.String("company_id", client.CompanyID))
					h.remove(client)
				}
			}

		case req := <-h.counts:
			req.reply <- len(h.clients[req.companyID])
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.CompanyID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.CompanyID)
	}
	h.logger.Debug("виджет отключился", zap.String("company_id", client.CompanyID))
}

// Register добавляет клиента. После остановки Hub ничего не делает.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента и закрывает его канал отправки.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastTo отправляет сообщение всем виджетам компании.
func (h *Hub) BroadcastTo(companyID string, data []byte) {
	select {
	case h.broadcast <- envelope{companyID: companyID, data: data}:
	case <-h.done:
	}
}

// ClientCount возвращает число подключенных виджетов компании.
func (h *Hub) ClientCount(companyID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{companyID: companyID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}
