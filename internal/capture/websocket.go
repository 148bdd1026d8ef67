package capture

import (
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stealthdriver/uc/internal/storage"
	"github.com/stealthdriver/uc/internal/types"
)

// wsConnection extends types.WebSocketConnection with tab routing info.
type wsConnection struct {
	*types.WebSocketConnection
	Segment string
	ShortID string
}

// WebSocketCapture handles capturing WebSocket traffic.
type WebSocketCapture struct {
	registry      *storage.WriterRegistry
	tabRegistry   types.TabInfoProvider
	captureWS     bool
	maxFrameBytes int

	connections   map[string]*wsConnection
	connectionsMu sync.RWMutex
}

func NewWebSocketCapture(registry *storage.WriterRegistry, tabRegistry types.TabInfoProvider, captureWS bool, maxFrameBytes int) *WebSocketCapture {
	return &WebSocketCapture{
		registry:      registry,
		tabRegistry:   tabRegistry,
		captureWS:     captureWS,
		maxFrameBytes: maxFrameBytes,
		connections:   make(map[string]*wsConnection),
	}
}

func (w *WebSocketCapture) OnWebSocketCreated(tabID string, ev *network.EventWebSocketCreated) {
	if !w.captureWS {
		return
	}

	tabInfo, ok := w.tabRegistry.GetByStringID(tabID)
	segment := "unknown"
	shortID := "unknown"
	if ok {
		segment = tabInfo.Segment
		shortID = tabInfo.ShortID
	}

	conn := &wsConnection{
		WebSocketConnection: &types.WebSocketConnection{
			RequestID: string(ev.RequestID),
			URL:       ev.URL,
			TabID:     tabID,
			CreatedAt: time.Now().UTC(),
		},
		Segment: segment,
		ShortID: shortID,
	}

	w.connectionsMu.Lock()
	w.connections[string(ev.RequestID)] = conn
	w.connectionsMu.Unlock()

	capture := &types.WebSocketCapture{
		Timestamp: time.Now().UTC(),
		RequestID: string(ev.RequestID),
		TabID:     tabID,
		URL:       ev.URL,
		EventType: "created",
	}

	writer := w.registry.GetWriter(segment, "websocket", shortID)
	if err := writer.Write(capture); err != nil {
		slog.Error("failed to write WebSocket created event", "request_id", ev.RequestID, "error", err)
	}
}

func (w *WebSocketCapture) OnWebSocketFrameReceived(tabID string, ev *network.EventWebSocketFrameReceived) {
	w.writeFrame(tabID, string(ev.RequestID), "frame_received", "incoming", int(ev.Response.Opcode), ev.Response.PayloadData)
}

func (w *WebSocketCapture) OnWebSocketFrameSent(tabID string, ev *network.EventWebSocketFrameSent) {
	w.writeFrame(tabID, string(ev.RequestID), "frame_sent", "outgoing", int(ev.Response.Opcode), ev.Response.PayloadData)
}

func (w *WebSocketCapture) writeFrame(tabID, requestID, eventType, direction string, opcode int, payloadData string) {
	if !w.captureWS {
		return
	}

	w.connectionsMu.RLock()
	conn, ok := w.connections[requestID]
	w.connectionsMu.RUnlock()
	if !ok {
		return
	}

	payload, truncated, originalSize, payloadHash := truncateStringBytes(payloadData, w.maxFrameBytes)
	capture := &types.WebSocketCapture{
		Timestamp:    time.Now().UTC(),
		RequestID:    requestID,
		TabID:        tabID,
		URL:          conn.URL,
		EventType:    eventType,
		Direction:    direction,
		Opcode:       opcode,
		PayloadData:  payload,
		Truncated:    truncated,
		OriginalSize: originalSize,
		SHA256:       payloadHash,
	}

	writer := w.registry.GetWriter(conn.Segment, "websocket", conn.ShortID)
	if err := writer.Write(capture); err != nil {
		slog.Error("failed to write WebSocket frame", "request_id", requestID, "error", err)
	}
}

func (w *WebSocketCapture) OnWebSocketClosed(tabID string, ev *network.EventWebSocketClosed) {
	if !w.captureWS {
		return
	}

	w.connectionsMu.Lock()
	conn, ok := w.connections[string(ev.RequestID)]
	if ok {
		delete(w.connections, string(ev.RequestID))
	}
	w.connectionsMu.Unlock()
	if !ok {
		return
	}

	capture := &types.WebSocketCapture{
		Timestamp: time.Now().UTC(),
		RequestID: string(ev.RequestID),
		TabID:     tabID,
		URL:       conn.URL,
		EventType: "closed",
	}

	writer := w.registry.GetWriter(conn.Segment, "websocket", conn.ShortID)
	if err := writer.Write(capture); err != nil {
		slog.Error("failed to write WebSocket closed event", "request_id", ev.RequestID, "error", err)
	}
}

func (w *WebSocketCapture) GetActiveConnections() int {
	w.connectionsMu.RLock()
	defer w.connectionsMu.RUnlock()
	return len(w.connections)
}
