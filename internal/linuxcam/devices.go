package linuxcam

import (
	"path/filepath"
	"sort"

	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/v4l2"
)

type camera struct {
	info     v4l2.Info
	position device.Position
}

func (c *camera) ID() string                  { return c.info.Path }
func (c *camera) Name() string                { return c.info.Card }
func (c *camera) Type() device.Type           { return device.External }
func (c *camera) Position() device.Position   { return c.position }
func (c *camera) MediaType() device.MediaType { return device.Video }

type microphone struct {
	path string
}

func (m *microphone) ID() string                  { return m.path }
func (m *microphone) Name() string                { return "ADTS stream " + m.path }
func (m *microphone) Type() device.Type           { return device.Microphone }
func (m *microphone) Position() device.Position   { return device.Unspecified }
func (m *microphone) MediaType() device.MediaType { return device.Audio }

func videoNodes(dir string) ([]string, error) {
	nodes, err := filepath.Glob(filepath.Join(dir, "video*"))
	sort.Strings(nodes)
	return nodes, err
}

// ParsePositions converts a path-to-position map as found in configuration
// files.
func ParsePositions(m map[string]string) (map[string]device.Position, error) {
	out := make(map[string]device.Position, len(m))
	for path, s := range m {
		pos, err := device.ParsePosition(s)
		if err != nil {
			return nil, err
		}
		out[path] = pos
	}
	return out, nil
}
