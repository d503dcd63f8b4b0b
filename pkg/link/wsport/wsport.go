// Package wsport carries the serial link over a websocket, used to connect
// the bridge to a simulated USB interface.
package wsport

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"
)

// Dial connects to the websocket endpoint serving the other side of the link.
func Dial(endpoint string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket url %s: %w", endpoint, err)
	}
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conn, err := websocket.Dial(u.String(), "", origin.String())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// Handler serves one side of the link to each websocket client. fn owns
// the connection until it returns.
func Handler(fn func(io.ReadWriteCloser)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		fn(conn)
	})
}
