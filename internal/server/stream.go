package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desertthunder/curate/internal/tasks"
)

const (
	keepAlive      = 15 * time.Second
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
)

// ResponseType marks a websocket frame that answers a request rather than reporting an event.
const ResponseType = "RESPONSE"

// events streams the session's events as server-sent events until the client leaves.
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	session := Session(r.Context())
	events, cancel := a.dispatcher.Channel().Subscribe(session)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected %s\n\n", session)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				a.logger.Warn("failed to encode event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

// wsRequest is an inbound websocket frame. ID is echoed on the response.
type wsRequest struct {
	ID string `json:"id,omitempty"`
	tasks.Request
}

// wsResponse answers a wsRequest.
type wsResponse struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	tasks.Response
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// socket carries requests in and responses plus session events out over one connection.
func (a *API) socket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session := Session(ctx)
	events, cancel := a.dispatcher.Channel().Subscribe(session)
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	responses := make(chan wsResponse)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		a.writeLoop(conn, events, responses, done)
	}()
	defer func() {
		close(done)
		<-writerDone
	}()

	a.logger.Debug("websocket connected", "session", session)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Warn("websocket closed unexpectedly", "session", session, "err", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var req wsRequest
		resp := wsResponse{Type: ResponseType}
		if err := json.Unmarshal(message, &req); err != nil {
			resp.Response = tasks.Response{Success: false, Error: "Invalid message format"}
		} else {
			resp.ID = req.ID
			resp.Response = a.dispatcher.Handle(ctx, session, req.Request)
		}

		select {
		case responses <- resp:
		case <-writerDone:
			return
		}
	}
}

// writeLoop is the only writer on conn. It returns on done, on a closed event
// channel or on a write error, closing conn in the last two cases.
func (a *API) writeLoop(conn *websocket.Conn, events <-chan tasks.Event, responses <-chan wsResponse, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v any) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			a.logger.Debug("websocket write failed", "err", err)
			conn.Close()
			return false
		}
		return true
	}

	for {
		select {
		case <-done:
			return
		case resp := <-responses:
			if !write(resp) {
				return
			}
		case e, ok := <-events:
			if !ok {
				conn.Close()
				return
			}
			if !write(e) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
