package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/router"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:          url,
		PingTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   100,
	}
}

func TestClient_Connect(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !client.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if client.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}
}

func TestClient_ConnectFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	err := client.Connect(context.Background())

	var te *TransportError
	if !errors.As(err, &te) || te.Op != "dial" {
		t.Fatalf("Connect error = %v, want dial TransportError", err)
	}
}

func TestClient_Send(t *testing.T) {
	var received []byte
	var mu sync.Mutex

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	testMsg := []byte(`{"action":"auth","key":"k","secret":"s"}`)
	if err := client.Send(testMsg); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(testMsg) {
		t.Errorf("received %q, want %q", received, testMsg)
	}
}

func TestClient_MessagesTextAndBinary(t *testing.T) {
	frames := []struct {
		kind int
		data string
	}{
		{websocket.TextMessage, `[{"T":"success","msg":"connected"}]`},
		{websocket.BinaryMessage, `{"stream":"authorization","data":{"status":"authorized"}}`},
		{websocket.TextMessage, `[{"T":"t","S":"AAPL"}]`},
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(f.kind, []byte(f.data)); err != nil {
				return
			}
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	timeout := time.After(500 * time.Millisecond)
	for i, want := range frames {
		select {
		case msg := <-client.Messages():
			if string(msg.Data) != want.data {
				t.Errorf("frame %d: got %q, want %q", i, msg.Data, want.data)
			}
			if msg.Binary != (want.kind == websocket.BinaryMessage) {
				t.Errorf("frame %d: Binary = %v", i, msg.Binary)
			}
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-timeout:
			t.Fatalf("timeout waiting for frame %d", i)
		}
	}
}

func TestClient_ServerCloseReportsError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case err := <-client.Errors():
		var te *TransportError
		if !errors.As(err, &te) || te.Op != "read" {
			t.Errorf("error = %v, want read TransportError", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no error after server close")
	}
}

func TestClient_SendNotConnected(t *testing.T) {
	client := NewClient(testClientConfig("ws://localhost:12345"), nil)

	if err := client.Send([]byte("test")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_DoubleClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := client.Connect(context.Background()); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("Connect after Close = %v, want ErrAlreadyClosed", err)
	}
}

func TestClient_PingHandler(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteControl(websocket.PingMessage, []byte("heartbeat"), time.Now().Add(time.Second)); err != nil {
			t.Logf("ping error: %v", err)
			return
		}
		time.Sleep(500 * time.Millisecond)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	time.Sleep(200 * time.Millisecond)

	if !client.IsConnected() {
		t.Error("expected client to be connected after ping")
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		typ, version, feed string
		want               string
	}{
		{StreamData, "v2", "iex", "wss://stream.data.alpaca.markets/v2/iex"},
		{StreamData, "v2", "sip", "wss://stream.data.alpaca.markets/v2/sip"},
		{StreamData, "", "iex", "wss://stream.data.alpaca.markets/v2/iex"},
		{StreamData, "v1beta3/crypto/us", "", "wss://stream.data.alpaca.markets/v1beta3/crypto/us"},
		{StreamData, "v1beta3/crypto/us", "iex", "wss://stream.data.alpaca.markets/v1beta3/crypto/us"},
		{StreamData, "/v1beta1/news/", "sip", "wss://stream.data.alpaca.markets/v1beta1/news"},
		{StreamData, "/v2/", "sip", "wss://stream.data.alpaca.markets/v2/sip"},
		{StreamDataSandbox, "v2", "iex", "wss://stream.data.sandbox.alpaca.markets/v2/iex"},
		{StreamDataTest, "v9", "sip", DataTestStreamURL},
		{StreamAccount, "", "", "wss://api.alpaca.markets/stream"},
		{StreamAccountPaper, "", "", "wss://paper-api.alpaca.markets/stream"},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.version+"/"+tt.feed, func(t *testing.T) {
			got, err := StreamURL(tt.typ, tt.version, tt.feed)
			if err != nil {
				t.Fatalf("StreamURL error: %v", err)
			}
			if got != tt.want {
				t.Errorf("StreamURL = %q, want %q", got, tt.want)
			}
		})
	}

	_, err := StreamURL("bogus", "", "")
	var ce *config.ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("StreamURL(bogus) error = %v, want ConfigurationError", err)
	}
}

func TestFamilyFor(t *testing.T) {
	for typ, want := range map[string]router.Family{
		StreamData:         router.FamilyMarketData,
		StreamDataTest:     router.FamilyMarketData,
		StreamAccount:      router.FamilyAccount,
		StreamAccountPaper: router.FamilyAccount,
	} {
		got, err := FamilyFor(typ)
		if err != nil || got != want {
			t.Errorf("FamilyFor(%q) = %v, %v; want %v", typ, got, err, want)
		}
	}
}

func TestDefaultConfigs(t *testing.T) {
	clientCfg := DefaultClientConfig()
	if clientCfg.PingTimeout != 60*time.Second {
		t.Errorf("PingTimeout = %v, want 60s", clientCfg.PingTimeout)
	}
	if clientCfg.BufferSize != 1000 {
		t.Errorf("BufferSize = %d, want 1000", clientCfg.BufferSize)
	}

	mgrCfg := DefaultManagerConfig()
	if !mgrCfg.AutoReconnect || mgrCfg.MaxRetries != 5 || mgrCfg.RetryDelay != 3*time.Second {
		t.Errorf("DefaultManagerConfig = %+v", mgrCfg)
	}
	if mgrCfg.Version != "v2" || mgrCfg.Feed != "iex" {
		t.Errorf("Version/Feed = %q/%q", mgrCfg.Version, mgrCfg.Feed)
	}
}

func TestManagerConfigFrom(t *testing.T) {
	off := false
	zero := 0
	cfg := ManagerConfigFrom(config.StreamConfig{
		Type:          StreamAccountPaper,
		AutoReconnect: &off,
		MaxRetries:    &zero,
		RetryDelay:    time.Second,
		Backoff:       config.BackoffConstant,
		BufferSize:    42,
	})

	if cfg.Type != StreamAccountPaper || cfg.AutoReconnect || cfg.MaxRetries != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RetryDelay != time.Second || cfg.Backoff != config.BackoffConstant {
		t.Errorf("delay/backoff = %v/%q", cfg.RetryDelay, cfg.Backoff)
	}
	if cfg.Client.BufferSize != 42 || cfg.Version != "v2" {
		t.Errorf("BufferSize/Version = %d/%q", cfg.Client.BufferSize, cfg.Version)
	}
}
