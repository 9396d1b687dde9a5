package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDevice struct {
	id       string
	typ      Type
	position Position
}

func (f fakeDevice) ID() string           { return f.id }
func (f fakeDevice) Name() string         { return f.id }
func (f fakeDevice) Type() Type           { return f.typ }
func (f fakeDevice) Position() Position   { return f.position }
func (f fakeDevice) MediaType() MediaType { return Video }

func fixed(devices ...Device) EnumerateFunc {
	return func(m MediaType) []Device {
		if m != Video {
			return nil
		}
		return devices
	}
}

func TestBestMatchPrecedence(t *testing.T) {
	ultraBack := fakeDevice{"ultra-back", UltraWide, Back}
	wideBack := fakeDevice{"wide-back", WideAngle, Back}
	wideFront := fakeDevice{"wide-front", WideAngle, Front}

	tests := []struct {
		name     string
		devices  []Device
		typ      Type
		position Position
		want     string
	}{
		{"exact match wins over earlier position match", []Device{ultraBack, wideFront, wideBack}, WideAngle, Back, "wide-back"},
		{"position match when type missing", []Device{wideFront, ultraBack}, Telephoto, Back, "ultra-back"},
		{"first device when position missing", []Device{wideBack, ultraBack}, WideAngle, Front, "wide-back"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDiscovery(fixed(tt.devices...))
			dev := d.BestMatch(Video, tt.typ, tt.position)
			if assert.NotNil(t, dev) {
				assert.Equal(t, tt.want, dev.ID())
			}
		})
	}
}

func TestBestMatchEmpty(t *testing.T) {
	d := NewDiscovery(fixed())
	assert.Nil(t, d.BestMatch(Video, WideAngle, Back))
	assert.Nil(t, d.BestMatch(Audio, Microphone, Unspecified))
}

func TestHasBackAndFront(t *testing.T) {
	back := fakeDevice{"a", WideAngle, Back}
	back2 := fakeDevice{"b", Telephoto, Back}
	front := fakeDevice{"c", WideAngle, Front}

	assert.False(t, NewDiscovery(fixed(back, back2)).HasBackAndFront())
	assert.True(t, NewDiscovery(fixed(back, front)).HasBackAndFront())
	assert.False(t, NewDiscovery(fixed()).HasBackAndFront())
}

func TestInvalidateReEnumerates(t *testing.T) {
	calls := 0
	devices := []Device{fakeDevice{"a", WideAngle, Back}}
	d := NewDiscovery(func(MediaType) []Device {
		calls++
		return devices
	})

	d.BestMatch(Video, WideAngle, Back)
	d.BestMatch(Video, WideAngle, Back)
	assert.Equal(t, 1, calls)

	devices = []Device{fakeDevice{"b", WideAngle, Back}}
	d.Invalidate()
	assert.Equal(t, "b", d.BestMatch(Video, WideAngle, Back).ID())
	assert.Equal(t, 2, calls)
}

func TestFallbackIsNotCached(t *testing.T) {
	devices := []Device{fakeDevice{"back", WideAngle, Back}}
	d := NewDiscovery(func(MediaType) []Device { return devices })

	assert.Equal(t, "back", d.BestMatch(Video, WideAngle, Front).ID())

	// A front camera is plugged in; no invalidation needed to find it.
	devices = append(devices, fakeDevice{"front", WideAngle, Front})
	assert.Equal(t, "front", d.BestMatch(Video, WideAngle, Front).ID())
}
