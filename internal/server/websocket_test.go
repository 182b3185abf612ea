package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/lunarnav/internal/config"
	"github.com/zeusync/lunarnav/internal/core/events/bus"
	"github.com/zeusync/lunarnav/internal/core/nav"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/core/scene"
	"github.com/zeusync/lunarnav/internal/core/systems/physics"
	"github.com/zeusync/lunarnav/internal/settings"
)

type testEnv struct {
	srv   *Server
	http  *httptest.Server
	store *settings.MemoryStore
}

func newTestEnv(t *testing.T, world physics.Intersector, mutate func(*config.ServerConfig)) *testEnv {
	t.Helper()
	cfg := config.Default().Server
	if mutate != nil {
		mutate(&cfg)
	}
	store := settings.NewMemoryStore()
	srv, err := NewServer(cfg, nav.DefaultConfig(), world, store, bus.New(), log.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, http: ts, store: store}
}

func (e *testEnv) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws" + query
}

func (e *testEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(query), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	welcome := readJSON(t, conn)
	require.Equal(t, MessageWelcome, welcome["type"])
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m map[string]any
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func position(t *testing.T, m map[string]any, key string) mgl64.Vec3 {
	t.Helper()
	raw, ok := m[key].([]any)
	require.True(t, ok, "%s missing in %v", key, m)
	require.Len(t, raw, 3)
	return mgl64.Vec3{raw[0].(float64), raw[1].(float64), raw[2].(float64)}
}

// crateWorld puts a box just in front of the desktop spawn point.
func crateWorld() physics.Intersector {
	root := scene.NewGroup("world")
	crate := scene.NewMesh("crate", scene.NewBox(2, 2, 2))
	crate.Position = mgl64.Vec3{0.3, 3.2, 28.9}
	root.Add(crate)
	return scene.NewRaycaster(root)
}

func TestWebSocketDesktopMovement(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("?mode=desktop"), nil)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readJSON(t, conn)
	assert.Equal(t, "desktop", welcome["mode"])
	assert.NotEmpty(t, welcome["session"])
	assert.Equal(t, mgl64.Vec3{0, 3, 30}, position(t, welcome, "position"))

	send(t, conn, ClientMessage{Type: MessageKey, Code: "KeyW", Down: true})
	send(t, conn, ClientMessage{Type: MessageTick, DT: 0.016})

	pose := readJSON(t, conn)
	require.Equal(t, MessagePose, pose["type"])
	assert.Equal(t, "free", pose["transition"])
	assert.Equal(t, false, pose["collided"])
	assert.InDelta(t, 30-0.1024, position(t, pose, "position").Z(), 1e-9)
}

func TestWebSocketCollision(t *testing.T) {
	env := newTestEnv(t, crateWorld(), nil)
	conn := env.dial(t, "")

	send(t, conn, ClientMessage{Type: MessageKey, Code: "ArrowUp", Down: true})
	send(t, conn, ClientMessage{Type: MessageTick, DT: 0.016})

	begin := readJSON(t, conn)
	require.Equal(t, MessageCollision, begin["type"])
	assert.Equal(t, "begin", begin["phase"])
	assert.Equal(t, "crate", begin["object"])

	pose := readJSON(t, conn)
	require.Equal(t, MessagePose, pose["type"])
	assert.Equal(t, "enter", pose["transition"])
	assert.Equal(t, "mesh", pose["collision"])
	assert.Equal(t, true, pose["collided"])
	assert.InDelta(t, 29.9+0.75, position(t, pose, "position").Z(), 1e-9)

	send(t, conn, ClientMessage{Type: MessageKey, Code: "ArrowUp", Down: false})
	send(t, conn, ClientMessage{Type: MessageTick, DT: 0.016})

	end := readJSON(t, conn)
	assert.Equal(t, "end", end["phase"])
	pose = readJSON(t, conn)
	assert.Equal(t, "release", pose["transition"])
	assert.Equal(t, false, pose["collided"])
}

func TestWebSocketImmersive(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	conn := env.dial(t, "?mode=desktop")

	send(t, conn, ClientMessage{
		Type:       MessageXR,
		Presenting: true,
		Sources: []XRSourceState{
			{Handedness: nav.HandLeft, Axes: []float64{0, 0, 1, 0}},
			{Handedness: nav.HandRight, Axes: []float64{0, 0, 0, -1}},
		},
	})
	send(t, conn, ClientMessage{Type: MessageHead, Orientation: []float64{0, 0, 0, 1}})
	send(t, conn, ClientMessage{Type: MessageMode, Mode: "immersive"})
	send(t, conn, ClientMessage{Type: MessageTick, DT: 0.016})

	pose := readJSON(t, conn)
	require.Equal(t, MessagePose, pose["type"])
	assert.Equal(t, "immersive", pose["mode"])
	p := position(t, pose, "position")
	assert.Less(t, p.Z(), 15.0)
	assert.InDelta(t, 0, p.X(), 1e-9)
	assert.InDelta(t, 5.0, p.Y(), 1e-9)
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	env := newTestEnv(t, nil, func(c *config.ServerConfig) { c.AllowedModes = []string{"desktop"} })
	conn := env.dial(t, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	for _, msg := range []ClientMessage{
		{Type: "dance"},
		{Type: MessageTouch, Button: "up", Down: true},
		{Type: MessageHead, Orientation: []float64{1}},
		{Type: MessageMode, Mode: "immersive"},
		{Type: MessageMode, Mode: "hover"},
	} {
		send(t, conn, msg)
	}

	want := []string{"invalid message", "unknown message type", "touch button", "head orientation", "not allowed", "unknown mode"}
	for _, fragment := range want {
		m := readJSON(t, conn)
		require.Equal(t, MessageError, m["type"])
		assert.Contains(t, m["message"], fragment)
	}

	send(t, conn, ClientMessage{Type: MessageTick, DT: 0.016})
	pose := readJSON(t, conn)
	assert.Equal(t, "desktop", pose["mode"], "session survives bad input")
}

func TestWebSocketHandshakeRejections(t *testing.T) {
	env := newTestEnv(t, nil, func(c *config.ServerConfig) {
		c.AllowedModes = []string{"desktop"}
		c.MaxSessions = 1
	})

	for _, query := range []string{"?mode=immersive", "?mode=hover"} {
		_, resp, err := websocket.DefaultDialer.Dial(env.wsURL(query), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}

	env.dial(t, "")
	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func doRequest(t *testing.T, method, url string, body []byte, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSettingsAPI(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	url := env.http.URL + "/settings"
	conn := env.dial(t, "")

	resp := doRequest(t, http.MethodGet, url, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	doc := settings.Default()
	doc.Bloom.Enabled = true
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	resp = doRequest(t, http.MethodPut, url, body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	notice := readJSON(t, conn)
	assert.Equal(t, MessageSettings, notice["type"])
	assert.Equal(t, etag, notice["etag"])

	resp = doRequest(t, http.MethodGet, url, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, etag, resp.Header.Get("ETag"))
	var got settings.SceneSettings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, doc, got)

	resp = doRequest(t, http.MethodGet, url, nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = doRequest(t, http.MethodPut, url, body, map[string]string{"If-Match": `"stale"`})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp = doRequest(t, http.MethodPut, url, body, map[string]string{"If-Match": etag})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodPut, url, []byte(`{"billboard":{"opacity":3}}`), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doRequest(t, http.MethodPut, url, []byte(`{"fog":true}`), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, url, body, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Allow"), "PUT")

	resp = doRequest(t, http.MethodDelete, url, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cleared := readJSON(t, conn)
	assert.Equal(t, true, cleared["cleared"])

	resp = doRequest(t, http.MethodGet, url, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsConcurrentIfMatch(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	url := env.http.URL + "/settings"

	body, err := json.Marshal(settings.Default())
	require.NoError(t, err)
	resp := doRequest(t, http.MethodPut, url, body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")

	const writers = 8
	statuses := make(chan int, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		doc := settings.Default()
		doc.Water.PosY = float64(100 + i)
		payload, err := json.Marshal(doc)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
			if err != nil {
				statuses <- 0
				return
			}
			req.Header.Set("If-Match", etag)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			_ = resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for status := range statuses {
		counts[status]++
	}
	assert.Equal(t, map[int]int{http.StatusOK: 1, http.StatusPreconditionFailed: writers - 1}, counts)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.dial(t, "")

	resp := doRequest(t, http.MethodGet, env.http.URL+"/healthz", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["sessions"])
}

func TestServeShutdown(t *testing.T) {
	env := newTestEnv(t, nil, func(c *config.ServerConfig) { c.ShutdownTimeout = time.Second })
	srv := env.srv

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readJSON(t, conn)
	assert.True(t, srv.GetStats().Running)

	other, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(ctx, other), ErrServerAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	require.NoError(t, srv.Close())
	again, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(context.Background(), again), ErrServerClosed)
}

func TestNewServerValidates(t *testing.T) {
	cfg := config.Default().Server
	cfg.AllowedModes = nil
	_, err := NewServer(cfg, nav.DefaultConfig(), nil, settings.NewMemoryStore(), bus.New(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewServer(config.Default().Server, nav.DefaultConfig(), nil, nil, bus.New(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
