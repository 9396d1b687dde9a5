//go:build !linux || !(amd64 || arm64)

package v4l2

// Device is unavailable on this platform; Open always fails.
type Device struct {
	path string
}

func Open(path string) (*Device, error) {
	return nil, ErrUnsupported
}

func (dev *Device) Path() string                               { return dev.path }
func (dev *Device) Close() error                               { return nil }
func (dev *Device) closeFile() error                           { return nil }
func (dev *Device) QueryCapabilities() (Info, error)           { return Info{}, ErrUnsupported }
func (dev *Device) QueryControl(uint32) (Control, error)       { return Control{}, ErrUnsupported }
func (dev *Device) GetControl(uint32) (int32, error)           { return 0, ErrUnsupported }
func (dev *Device) SetControl(uint32, int32) error             { return ErrUnsupported }
func (dev *Device) setCodecControl(uint32, int32) error        { return ErrUnsupported }
func (dev *Device) SetBitrate(int) error                       { return ErrUnsupported }
func (dev *Device) SetPixelFormat(int, int, uint32) error      { return ErrUnsupported }
func (dev *Device) SetRepeatSequenceHeader(bool) error         { return ErrUnsupported }
func (dev *Device) Start() error                               { return ErrUnsupported }
func (dev *Device) Stop() error                                { return nil }
func (dev *Device) ReadFrame() (Frame, error)                  { return Frame{}, ErrUnsupported }
