package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"airportmath/internal/hub"
)

type WSHandler struct {
	hub            *hub.Hub
	departures     *DepartureHandler
	originPatterns []string
	logger         *slog.Logger
}

func NewWSHandler(h *hub.Hub, departures *DepartureHandler, originPatterns []string, logger *slog.Logger) *WSHandler {
	if len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return &WSHandler{
		hub:            h,
		departures:     departures,
		originPatterns: originPatterns,
		logger:         logger.With("handler", "websocket"),
	}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WatchedMessage struct {
	Type    string         `json:"type"`
	Payload WatchedPayload `json:"payload"`
}

type WatchedPayload struct {
	Airport string      `json:"airport"`
	Watches []hub.Watch `json:"watches"`
}

type WSErrorMessage struct {
	Type    string        `json:"type"`
	Payload errorResponse `json:"payload"`
}

type PongMessage struct {
	Type string `json:"type"`
}

// ServeWS upgrades to a live countdown. The client sends
// {"type":"watch","payload":<DepartureRequest>} and then receives a status
// message every tick until it sends "unwatch" or disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	// the server's read/write timeouts would otherwise cut long countdowns
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		requestLogger(h.logger, r).Error("websocket accept failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, 16)

	h.hub.Register(client)
	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, cancel, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		ServerStats.IncWSMessagesIn()

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			h.sendError(client, "invalid message format")
			continue
		}

		switch msg.Type {
		case "watch":
			h.watch(ctx, client, msg.Payload)

		case "unwatch":
			client.SetWatches(nil)

		case "ping":
			h.send(client, PongMessage{Type: "pong"})

		default:
			h.sendError(client, "unknown message type")
		}
	}
}

func (h *WSHandler) watch(ctx context.Context, client *hub.Client, payload json.RawMessage) {
	var req DepartureRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, "invalid watch payload")
		return
	}

	plan, err := h.departures.plan(ctx, req)
	if err != nil {
		h.logger.Debug("watch rejected", "client_id", client.ID, "error", err)
		h.sendError(client, err.Error())
		return
	}

	watches := make([]hub.Watch, 0, len(plan.departures))
	for _, d := range plan.departures {
		watches = append(watches, hub.Watch{
			Mode:      d.Route.Mode.ID,
			LeaveTime: d.Calculation.LeaveTime,
		})
	}
	h.send(client, WatchedMessage{
		Type: "watched",
		Payload: WatchedPayload{
			Airport: plan.airport.IATA,
			Watches: watches,
		},
	})
	client.SetWatches(watches)
	h.hub.Push(client)
}

func (h *WSHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, client *hub.Client) {
	defer cancel()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancelWrite()
			if err != nil {
				return
			}
			ServerStats.IncWSMessagesOut()

		case <-ticker.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) send(client *hub.Client, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !h.hub.SendTo(client, data) {
		h.logger.Debug("failed to send message", "client_id", client.ID)
	}
}

func (h *WSHandler) sendError(client *hub.Client, message string) {
	h.send(client, WSErrorMessage{Type: "error", Payload: errorResponse{Error: message}})
}
