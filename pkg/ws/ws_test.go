package ws_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/internal"
	"github.com/relayhttp/relay/pkg/ws"
)

func TestUpgrade(t *testing.T) {
	t.Parallel()

	t.Run("echoes over an upgraded connection", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/echo", func(c internal.Context) error {
			conn, err := ws.Upgrade(c, ws.WithCheckOrigin(func(*http.Request) bool { return true }))
			if err != nil {
				return err
			}
			defer conn.Close()

			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			return conn.WriteMessage(mt, msg)
		})

		srv := httptest.NewServer(app)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/echo"
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		defer resp.Body.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, "ping", string(msg))
	})

	t.Run("accumulated headers reach the handshake", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/echo", func(c internal.Context) error {
			c.SetHeader("X-Session", "abc")
			conn, err := ws.Upgrade(c, ws.WithCheckOrigin(func(*http.Request) bool { return true }))
			if err != nil {
				return err
			}
			return conn.Close()
		})

		srv := httptest.NewServer(app)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/echo"
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		defer resp.Body.Close()

		require.Equal(t, "abc", resp.Header.Get("X-Session"))
	})

	t.Run("failed upgrade returns an error response", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/echo", func(c internal.Context) error {
			_, err := ws.Upgrade(c)
			return err
		})

		srv := httptest.NewServer(app)
		defer srv.Close()

		// Plain GET without the upgrade handshake headers.
		resp, err := http.Get(srv.URL + "/echo")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
