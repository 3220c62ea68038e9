package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// clientMessage is a frame sent by a connected browser client.
type clientMessage struct {
	Type    string          `json:"type"` // "track" or "broadcast"
	State   *PresenceState  `json:"state,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// serverMessage is a frame pushed to a connected browser client.
type serverMessage struct {
	Type     string                   `json:"type"`
	Key      string                   `json:"key,omitempty"`
	State    *PresenceState           `json:"state,omitempty"`
	States   map[string]PresenceState `json:"states,omitempty"`
	Change   *ChangeEvent             `json:"change,omitempty"`
	Event    string                   `json:"event,omitempty"`
	Payload  json.RawMessage          `json:"payload,omitempty"`
}

// ServeConn bridges one websocket connection onto the named channel and
// blocks until the connection drops or the peer closes it. The subscription
// is torn down on exit, which removes the participant from every other
// client's presence view. A reconnecting peer gets a fresh participant key,
// not a resumed session.
func ServeConn(hub *Hub, channelName string, conn *websocket.Conn) {
	outbound := make(chan serverMessage, queueSize)
	send := func(msg serverMessage) {
		select {
		case outbound <- msg:
		default:
			log.Printf("realtime: %s: slow websocket peer, dropping frame", channelName)
		}
	}

	sub := hub.Subscribe(channelName, Handlers{
		OnChange: func(ev ChangeEvent) {
			send(serverMessage{Type: "change", Change: &ev})
		},
		OnBroadcast: func(ev BroadcastEvent) {
			send(serverMessage{Type: "broadcast", Event: ev.Event, Payload: ev.Payload})
		},
		OnPresenceSync: func(states map[string]PresenceState) {
			send(serverMessage{Type: "presence_sync", States: states})
		},
		OnPresenceJoin: func(key string, state PresenceState) {
			send(serverMessage{Type: "presence_join", Key: key, State: &state})
		},
		OnPresenceLeave: func(key string, state PresenceState) {
			send(serverMessage{Type: "presence_leave", Key: key, State: &state})
		},
	})
	defer sub.Close()

	// Tell the client its own participant key first.
	send(serverMessage{Type: "subscribed", Key: sub.Key()})

	done := make(chan struct{})
	go writePump(conn, outbound, done)
	readPump(conn, sub)
	close(done)
}

// readPump consumes client frames until the connection errors or closes.
func readPump(conn *websocket.Conn, sub *Subscription) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("realtime: bad client frame: %v", err)
			continue
		}
		switch msg.Type {
		case "track":
			if msg.State != nil {
				sub.Track(*msg.State)
			}
		case "broadcast":
			if err := sub.Broadcast(msg.Event, msg.Payload); err != nil {
				log.Printf("realtime: broadcast relay: %v", err)
			}
		}
	}
}

// writePump serializes outbound frames and keeps the connection alive with
// pings. Runs until done closes or a write fails.
func writePump(conn *websocket.Conn, outbound chan serverMessage, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-outbound:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
