package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohacam"
)

func simulated(t *testing.T, mode string) daemonConfig {
	return daemonConfig{
		Simulate: true,
		Session: sessionConfig{
			Facing: "back",
			Mode:   mode,
			Preset: string(alohacam.PresetHigh),
		},
		Output: outputConfig{Directory: t.TempDir()},
	}
}

type wsClient struct {
	t  *testing.T
	ws *websocket.Conn
}

func dial(t *testing.T, url string) *wsClient {
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return &wsClient{t: t, ws: ws}
}

func (c *wsClient) send(cmd command) {
	require.NoError(c.t, c.ws.WriteJSON(cmd))
}

// next reads events until one of the given type arrives.
func (c *wsClient) next(typ string) event {
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ev event
		require.NoError(c.t, c.ws.ReadJSON(&ev))
		if ev.Type == typ {
			return ev
		}
	}
}

func startServer(t *testing.T, c daemonConfig) (*camera, *wsClient) {
	mode, err := alohacam.ParseOutputMode(c.Session.Mode)
	require.NoError(t, err)
	cam, err := openCamera(c, mode)
	require.NoError(t, err)
	t.Cleanup(cam.Close)

	_, err = cam.waitFor(context.Background(), "status")
	require.NoError(t, err)
	cam.session.Sync()

	s := newServer(cam, c.Output.Directory)
	go s.broadcast()
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return cam, dial(t, ts.URL)
}

func TestServeState(t *testing.T) {
	_, client := startServer(t, simulated(t, "photo"))

	ev := client.next("state")
	require.NotNil(t, ev.State)
	assert.Equal(t, "configured", ev.State.Status)
	assert.Equal(t, "back", ev.State.Facing)
	assert.Equal(t, "photo", ev.State.Mode)
	assert.True(t, ev.State.HasBackAndFront)
	assert.True(t, ev.State.Running)
}

func TestServePhoto(t *testing.T) {
	c := simulated(t, "photo")
	_, client := startServer(t, c)
	client.next("state")

	client.send(command{Type: "photo"})
	client.next("willCapture")
	ev := client.next("photo")
	assert.Empty(t, ev.Error)
	require.NotEmpty(t, ev.Path)
	assert.Equal(t, c.Output.Directory, filepath.Dir(ev.Path))

	data, err := os.ReadFile(ev.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, data)
	client.next("photoFinished")
}

func TestServeControls(t *testing.T) {
	_, client := startServer(t, simulated(t, "photo"))
	client.next("state")

	client.send(command{Type: "zoom", Zoom: 2})
	assert.Equal(t, 2.0, client.next("zoom").Zoom)

	client.send(command{Type: "torch", On: true})
	ev := client.next("torch")
	require.NotNil(t, ev.On)
	assert.True(t, *ev.On)

	client.send(command{Type: "facing", Facing: "front"})
	client.send(command{Type: "state"})
	assert.Equal(t, "front", client.next("state").State.Facing)
}

func TestServeRecording(t *testing.T) {
	if testing.Short() {
		t.Skip("records in real time")
	}
	c := simulated(t, "video")
	_, client := startServer(t, c)
	client.next("state")

	path := filepath.Join(c.Output.Directory, "clip.mp4")
	client.send(command{Type: "start", Path: path})
	client.next("recordingStarted")
	time.Sleep(500 * time.Millisecond)
	client.send(command{Type: "stop"})

	ev := client.next("recordingFinished")
	assert.Empty(t, ev.Error)
	assert.Equal(t, path, ev.Path)
	assert.FileExists(t, path)
}

func TestServeRecordingStaysInOutputDirectory(t *testing.T) {
	c := simulated(t, "video")
	_, client := startServer(t, c)
	client.next("state")

	elsewhere := filepath.Join(t.TempDir(), "precious.mp4")
	require.NoError(t, os.WriteFile(elsewhere, []byte("precious data"), 0644))

	client.send(command{Type: "start", Path: elsewhere})
	client.send(command{Type: "stop"})
	ev := client.next("recordingFinished")
	assert.Equal(t, filepath.Join(c.Output.Directory, "precious.mp4"), ev.Path)

	data, err := os.ReadFile(elsewhere)
	require.NoError(t, err)
	assert.Equal(t, "precious data", string(data))

	client.send(command{Type: "start", Path: "../.."})
	assert.Contains(t, client.next("error").Error, "invalid recording name")

	existing := filepath.Join(c.Output.Directory, "taken.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))
	client.send(command{Type: "start", Path: "taken.mp4"})
	assert.Contains(t, client.next("error").Error, "already exists")
}

func TestServeUnknownCommand(t *testing.T) {
	_, client := startServer(t, simulated(t, "photo"))
	client.next("state")

	client.send(command{Type: "teleport"})
	assert.Contains(t, client.next("error").Error, "teleport")

	client.send(command{Type: "mode", Mode: "hologram"})
	assert.Contains(t, client.next("error").Error, "hologram")
}

func TestRecordCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("records in real time")
	}
	c := simulated(t, "video")
	path := filepath.Join(c.Output.Directory, "clip.mp4")

	got, err := record(context.Background(), c, path, 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.FileExists(t, path)
}

func TestPhotoCommand(t *testing.T) {
	c := simulated(t, "photo")
	path := filepath.Join(c.Output.Directory, "still.jpg")

	require.NoError(t, photo(context.Background(), c, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, data)
}
