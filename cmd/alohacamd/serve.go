package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lanikai/alohacam"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Control the camera over a websocket",
	Long: `Run a camera session and accept JSON commands at ws://host:port/ws, e.g.

  {"type": "start", "path": "clip.mp4"}  {"type": "stop"}  {"type": "photo"}
  {"type": "zoom", "zoom": 2}  {"type": "torch", "on": true}
  {"type": "facing", "facing": "front"}  {"type": "mode", "mode": "both"}
  {"type": "focus", "x": 0.5, "y": 0.5}  {"type": "flash", "on": true}
  {"type": "resume"}  {"type": "state"}

Recordings are written to the output directory; a start path only names the
file. Every delegate callback is sent back to all clients as an event.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mode, err := alohacam.ParseOutputMode(cfg.Session.Mode)
		if err != nil {
			return err
		}
		cam, err := openCamera(cfg, mode)
		if err != nil {
			return err
		}
		defer cam.Close()

		s := newServer(cam, cfg.Output.Directory)
		go s.broadcast()

		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: s.routes(),
		}
		go func() {
			<-ctx.Done()
			httpServer.Shutdown(context.Background())
		}()

		log.Info("Listening on ws://localhost:%d/ws", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8000, "HTTP port on which to listen")
	bind(serveCmd.Flags(), map[string]string{"server.port": "port"})
}

// command is an inbound websocket message.
type command struct {
	Type   string  `json:"type"`
	Facing string  `json:"facing,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Zoom   float64 `json:"zoom,omitempty"`
	On     bool    `json:"on,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Path   string  `json:"path,omitempty"`
}

// server fans session events out to every connected client.
type server struct {
	cam *camera
	dir string

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	ws   *websocket.Conn
	send chan event
}

func newServer(cam *camera, dir string) *server {
	return &server{
		cam: cam,
		dir: dir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]bool),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket)
	return mux
}

// broadcast runs until the camera is closed.
func (s *server) broadcast() {
	for {
		select {
		case ev := <-s.cam.events:
			if ev.Type == "photo" && ev.Error == "" {
				ev.Path = s.savePhoto(ev.data)
			}
			s.publish(ev)
		case <-s.cam.closed:
			return
		}
	}
}

func (s *server) savePhoto(data []byte) string {
	path := outputPath(s.dir, "photo", ".jpg")
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Error("Saving photo: %v", err)
		return ""
	}
	return path
}

func (s *server) publish(ev event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.post(ev)
	}
}

func (c *client) post(ev event) {
	select {
	case c.send <- ev:
	default:
		log.Warn("Client %s too slow, dropping %s event", c.ws.RemoteAddr(), ev.Type)
	}
}

func (s *server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade: %v", err)
		return
	}
	defer ws.Close()

	c := &client{ws: ws, send: make(chan event, 32)}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	done := make(chan struct{})
	defer close(done)
	go c.write(done)

	c.post(event{Type: "state", State: s.cam.state()})

	for {
		var cmd command
		if err := ws.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Failed to read websocket message: %v", err)
			}
			return
		}
		if err := s.handle(c, cmd); err != nil {
			log.Warn("%v", err)
			c.post(event{Type: "error", Error: err.Error()})
		}
	}
}

// write is the only goroutine writing to the connection.
func (c *client) write(done <-chan struct{}) {
	for {
		select {
		case ev := <-c.send:
			if err := c.ws.WriteJSON(ev); err != nil {
				log.Warn("Failed to write websocket message: %v", err)
				c.ws.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// recordingPath places a client-chosen file name in the output directory.
// Clients cannot pick directories or replace existing files.
func (s *server) recordingPath(name string) (string, error) {
	if name == "" {
		return outputPath(s.dir, "recording", ".mp4"), nil
	}
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", errors.Errorf("invalid recording name %q", name)
	}
	path := filepath.Join(s.dir, base)
	if _, err := os.Stat(path); err == nil {
		return "", errors.Errorf("recording %s already exists", base)
	}
	return path, nil
}

func (s *server) handle(c *client, cmd command) error {
	session := s.cam.session
	switch cmd.Type {
	case "start":
		path, err := s.recordingPath(cmd.Path)
		if err != nil {
			return err
		}
		session.StartRecording(path)
	case "stop":
		session.StopRecording()
	case "photo":
		session.CapturePhoto()
	case "facing":
		facing, err := parseFacing(cmd.Facing)
		if err != nil {
			return err
		}
		session.SetFacing(facing)
	case "mode":
		mode, err := alohacam.ParseOutputMode(cmd.Mode)
		if err != nil {
			return err
		}
		session.SetOutputMode(mode)
	case "zoom":
		session.SetZoom(cmd.Zoom)
	case "torch":
		session.SetTorch(cmd.On)
	case "flash":
		session.SetFlashEnabled(cmd.On)
	case "focus":
		session.FocusAndExpose(alohacam.Point{X: cmd.X, Y: cmd.Y}, alohacam.FocusAuto, alohacam.ExposureAuto, true)
	case "resume":
		session.ResumeInterruptedSession()
	case "state":
		session.Sync()
		c.post(event{Type: "state", State: s.cam.state()})
	default:
		return errors.Errorf("unknown command %q", cmd.Type)
	}
	return nil
}
