package cdpmode

import (
	"context"
	"encoding/json"
)

// Event is one CDP notification received on the browser connection.
type Event struct {
	Method    string          `json:"method"`
	SessionID string          `json:"session_id,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// OnEvent registers fn for a CDP event method ("Network.requestWillBeSent",
// "*" for all methods is not supported; register per method). It returns an
// unregister function. Handlers run on the read loop goroutine and must not
// block.
func (c *Client) OnEvent(method string, fn func(ev Event)) (func(), error) {
	cdp, err := c.rawConn(context.Background())
	if err != nil {
		return nil, err
	}
	unregister := cdp.registerEventHandler(method, func(sessionID string, params json.RawMessage) {
		fn(Event{Method: method, SessionID: sessionID, Params: params})
	})
	return unregister, nil
}

// EnableNetworkEvents turns on the Network domain for the page's session so
// request and WebSocket events start flowing.
func (p *Page) EnableNetworkEvents(ctx context.Context) error {
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if _, err := cdp.sendFlat(ctx, sessionID, "Network.enable", nil); err != nil {
		return newError(CodeCDPUnavailable, "network enable failed", err)
	}
	return nil
}
