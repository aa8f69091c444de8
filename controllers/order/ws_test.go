package orderControllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conquestsam/African-Snakie/models"
)

func TestBroadcastPrunesDeadConnections(t *testing.T) {
	wsMu.Lock()
	wsClients = make(map[*websocket.Conn]bool)
	wsMu.Unlock()

	// Register the server-side connection without a read loop so only the
	// broadcast write path can detect the dead peer.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		wsMu.Lock()
		wsClients[conn] = true
		wsMu.Unlock()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	broadcastOrderUpdate(models.Order{OrderRef: "20250908130500-live"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "20250908130500-live")

	require.NoError(t, client.Close())

	// Writes to the closed peer fail and must evict the connection.
	require.Eventually(t, func() bool {
		broadcastOrderUpdate(models.Order{OrderRef: "20250908130500-dead"})
		wsMu.Lock()
		defer wsMu.Unlock()
		return len(wsClients) == 0
	}, 3*time.Second, 50*time.Millisecond)
}
