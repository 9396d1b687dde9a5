package device

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/lanikai/alohacam/internal/logging"
)

var log = logging.DefaultLogger.WithTag("device")

// EnumerateFunc lists the devices of one media type currently present, in
// platform preference order.
type EnumerateFunc func(MediaType) []Device

// Discovery picks capture devices from a platform enumeration. Exact matches
// are cached until Invalidate, which callers trigger on hot-plug events.
// Fallbacks are never cached: a better device may appear at any time.
type Discovery struct {
	enumerate EnumerateFunc

	matches *lru.Cache

	mu sync.Mutex
}

type matchKey struct {
	media    MediaType
	typ      Type
	position Position
}

const matchCacheSize = 16

func NewDiscovery(enumerate EnumerateFunc) *Discovery {
	return &Discovery{
		enumerate: enumerate,
		matches:   lru.New(matchCacheSize),
	}
}

// BestMatch returns the device of the given media type that best fits the
// requested type and position:
//
//  1. exact type and position,
//  2. any device at the position,
//  3. the first device enumerated.
//
// It returns nil when nothing is enumerated.
func (d *Discovery) BestMatch(media MediaType, typ Type, position Position) Device {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := matchKey{media, typ, position}
	if v, ok := d.matches.Get(key); ok {
		return v.(Device)
	}

	devices := d.enumerate(media)
	dev := bestMatch(devices, typ, position)
	if dev != nil && dev.Type() == typ && dev.Position() == position {
		d.matches.Add(key, dev)
	}
	log.Debug("best %v match for %v/%v among %d: %s", media, typ, position, len(devices), Describe(dev))
	return dev
}

func bestMatch(devices []Device, typ Type, position Position) Device {
	if len(devices) == 0 {
		return nil
	}
	for _, dev := range devices {
		if dev.Type() == typ && dev.Position() == position {
			return dev
		}
	}
	for _, dev := range devices {
		if dev.Position() == position {
			return dev
		}
	}
	return devices[0]
}

// HasBackAndFront reports whether the enumerated cameras cover more than one
// distinct position.
func (d *Discovery) HasBackAndFront() bool {
	positions := make(map[Position]bool)
	for _, dev := range d.enumerate(Video) {
		positions[dev.Position()] = true
	}
	return len(positions) > 1
}

// Invalidate drops cached matches so the next lookup re-enumerates.
func (d *Discovery) Invalidate() {
	d.mu.Lock()
	d.matches.Clear()
	d.mu.Unlock()
}
