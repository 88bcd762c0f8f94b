package platform

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"voicepods/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	reconnectDelay = 5 * time.Second
)

// GatewayClient maintains the websocket connection to the platform gateway
// and feeds decoded voice-state frames to the event sink.
type GatewayClient struct {
	URL  string
	Sink EventSink

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

func NewGatewayClient(url string, sink EventSink) *GatewayClient {
	return &GatewayClient{
		URL:  url,
		Sink: sink,
		done: make(chan struct{}),
	}
}

// Run connects and pumps events until Close is called, reconnecting with a
// fixed delay on any connection loss.
func (g *GatewayClient) Run() {
	for {
		select {
		case <-g.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(g.URL, nil)
		if err != nil {
			log.Printf("ERROR: gateway dial failed: %v (retrying in %s)", err, reconnectDelay)
			time.Sleep(reconnectDelay)
			continue
		}
		g.mu.Lock()
		g.conn = conn
		g.mu.Unlock()
		log.Printf("Gateway connected: %s", g.URL)

		go g.pingPump(conn)
		g.readPump(conn)
	}
}

// Close stops the client and drops the current connection.
func (g *GatewayClient) Close() {
	close(g.done)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		g.conn.Close()
	}
}

func (g *GatewayClient) readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading gateway frame: %v", err)
			}
			return
		}

		var event models.MembershipEvent
		if err := json.Unmarshal(frame, &event); err != nil {
			log.Printf("Error decoding gateway frame: %v", err)
			continue
		}
		if event.Kind != models.EventJoined && event.Kind != models.EventLeft {
			continue
		}

		g.Sink.Deliver(event)
	}
}

func (g *GatewayClient) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-g.done:
			return
		}
	}
}
