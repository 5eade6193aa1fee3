package webserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"f1visualizer/pkg/cache"
	"f1visualizer/pkg/dashboard"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	MessageView  = "view"
	MessageCache = "cache"
	MessageError = "error"
)

// Message is what the server writes on the websocket.
type Message struct {
	Type  string          `json:"type"`
	View  *dashboard.View `json:"view,omitempty"`
	Cache string          `json:"cache,omitempty"`
	Error string          `json:"error,omitempty"`
}

// wsConn serialises writes, gorilla connections support one writer at a time.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (w *wsConn) write(msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteJSON(msg)
}

// websocketHandler reruns the dashboard for every selection the client sends,
// one at a time, and answers with the resulting view.
func (m *Manager) websocketHandler(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade")
		return
	}
	defer c.Close()

	conn := &wsConn{c: c}
	log := logrus.WithField("client", uuid.New().String())
	log.WithField("remote", r.RemoteAddr).Info("websocket opened")

	if m.stats != nil {
		statsChan, cancel := m.stats.Subscribe(cache.TopicStats)
		defer cancel()
		go forwardStats(conn, statsChan, log)
	}

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("read")
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}

		var sel dashboard.Selection
		if err := json.Unmarshal(message, &sel); err != nil {
			log.WithError(err).Debug("invalid selection")
			if err := conn.write(Message{Type: MessageError, Error: "invalid selection: " + err.Error()}); err != nil {
				break
			}
			continue
		}
		log.WithField("selection", string(message)).Debug("recv")
		view := m.dashboard.HandleSelectionChange(r.Context(), sel)
		if err := conn.write(Message{Type: MessageView, View: &view}); err != nil {
			log.WithError(err).Warn("write")
			break
		}
	}
	log.Info("websocket closed")
}

func forwardStats(conn *wsConn, statsChan <-chan cache.Stats, log *logrus.Entry) {
	for stats := range statsChan {
		if err := conn.write(Message{Type: MessageCache, Cache: stats.String()}); err != nil {
			log.WithError(err).Debug("cache notification")
			return
		}
	}
}
