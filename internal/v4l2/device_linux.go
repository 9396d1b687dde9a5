//go:build linux && (amd64 || arm64)

package v4l2

import (
	"io"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// Number of requested kernel driver buffers.
const numBuffers = 4

// A V4L2 character device.
type Device struct {
	// Device path, usually "/dev/video0".
	path string

	// File descriptor of v4l2 device.
	fd int

	// Guards buffers against Stop while a frame is being copied out.
	mu sync.Mutex

	// Memory-mapped buffers, indexed like the kernel's.
	buffers [][]byte
}

func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0666)
	if err != nil {
		return nil, xerrors.Errorf("v4l2: open %s: %w", path, err)
	}

	return &Device{
		path: path,
		fd:   fd,
	}, nil
}

func (dev *Device) Path() string {
	return dev.path
}

func (dev *Device) Close() error {
	if err := dev.Stop(); err != nil {
		log.Warn("%s: stop on close: %v", dev.path, err)
	}

	return dev.closeFile()
}

func (dev *Device) closeFile() error {
	return unix.Close(dev.fd)
}

func (dev *Device) ioctl(request uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(dev.fd),
		uintptr(request),
		uintptr(arg),
	)
	if errno != 0 {
		return errno
	}
	return nil
}

// QueryCapabilities identifies the device.
func (dev *Device) QueryCapabilities() (Info, error) {
	var qc v4l2_capability
	if err := dev.ioctl(VIDIOC_QUERYCAP, unsafe.Pointer(&qc)); err != nil {
		return Info{}, xerrors.Errorf("v4l2: %s: QUERYCAP: %w", dev.path, err)
	}

	caps := qc.capabilities
	if caps&V4L2_CAP_DEVICE_CAPS != 0 {
		caps = qc.device_caps
	}
	return Info{
		Path:         dev.path,
		Driver:       cstring(qc.driver[:]),
		Card:         cstring(qc.card[:]),
		BusInfo:      cstring(qc.bus_info[:]),
		Capabilities: caps,
	}, nil
}

// Query buffer parameters.
func (dev *Device) queryBuffer(n uint32) (length, offset uint32, err error) {
	qb := v4l2_buffer{
		index:  n,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err = dev.ioctl(VIDIOC_QUERYBUF, unsafe.Pointer(&qb)); err != nil {
		return
	}

	length = qb.length
	offset = nativeEndian.Uint32(qb.m[0:4])
	return
}

// Request specified number of kernel buffers memory-mapped to user-space.
// Returns how many the driver granted.
func (dev *Device) requestBuffers(n int) (int, error) {
	rb := v4l2_requestbuffers{
		count:  uint32(n),
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	err := dev.ioctl(VIDIOC_REQBUFS, unsafe.Pointer(&rb))
	return int(rb.count), err
}

func (dev *Device) mapMemory() error {
	if dev.buffers != nil {
		panic("v4l2 device: memory already mapped")
	}

	granted, err := dev.requestBuffers(numBuffers)
	if err != nil {
		return xerrors.Errorf("v4l2: %s: REQBUFS: %w", dev.path, err)
	}
	if granted == 0 {
		return xerrors.Errorf("v4l2: %s: driver granted no buffers", dev.path)
	}

	for i := 0; i < granted; i++ {
		length, offset, err := dev.queryBuffer(uint32(i))
		if err != nil {
			dev.unmapMemory()
			return xerrors.Errorf("v4l2: %s: QUERYBUF %d: %w", dev.path, i, err)
		}
		buf, err := unix.Mmap(
			dev.fd,
			int64(offset),
			int(length),
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_SHARED,
		)
		if err != nil {
			dev.unmapMemory()
			return xerrors.Errorf("v4l2: %s: mmap: %w", dev.path, err)
		}
		dev.buffers = append(dev.buffers, buf)
	}
	return nil
}

func (dev *Device) unmapMemory() error {
	for _, buf := range dev.buffers {
		if err := unix.Munmap(buf); err != nil {
			return err
		}
	}
	dev.buffers = nil

	_, err := dev.requestBuffers(0)
	return err
}

func (dev *Device) enqueue(index int) error {
	qbuf := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
		index:  uint32(index),
	}
	return dev.ioctl(VIDIOC_QBUF, unsafe.Pointer(&qbuf))
}

func (dev *Device) dequeue() (v4l2_buffer, error) {
	dqbuf := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	err := dev.ioctl(VIDIOC_DQBUF, unsafe.Pointer(&dqbuf))
	return dqbuf, err
}

func (dev *Device) enableStream() error {
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	return dev.ioctl(VIDIOC_STREAMON, unsafe.Pointer(&typ))
}

func (dev *Device) disableStream() error {
	// Disable stream (dequeues any outstanding buffers as well)
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	return dev.ioctl(VIDIOC_STREAMOFF, unsafe.Pointer(&typ))
}

// QueryControl returns the range of a control, or ErrNoControl.
func (dev *Device) QueryControl(id uint32) (Control, error) {
	qc := v4l2_queryctrl{id: id}
	if err := dev.ioctl(VIDIOC_QUERYCTRL, unsafe.Pointer(&qc)); err != nil {
		if err == syscall.EINVAL {
			return Control{}, ErrNoControl
		}
		return Control{}, xerrors.Errorf("v4l2: %s: QUERYCTRL %#x: %w", dev.path, id, err)
	}
	if qc.flags&V4L2_CTRL_FLAG_DISABLED != 0 {
		return Control{}, ErrNoControl
	}
	return Control{
		ID:      qc.id,
		Name:    cstring(qc.name[:]),
		Min:     qc.minimum,
		Max:     qc.maximum,
		Step:    qc.step,
		Default: qc.default_value,
	}, nil
}

func (dev *Device) GetControl(id uint32) (int32, error) {
	ctrl := v4l2_control{id: id}
	if err := dev.ioctl(VIDIOC_G_CTRL, unsafe.Pointer(&ctrl)); err != nil {
		return 0, xerrors.Errorf("v4l2: %s: G_CTRL %#x: %w", dev.path, id, err)
	}
	return ctrl.value, nil
}

func (dev *Device) SetControl(id uint32, value int32) error {
	ctrl := v4l2_control{id: id, value: value}
	if err := dev.ioctl(VIDIOC_S_CTRL, unsafe.Pointer(&ctrl)); err != nil {
		return xerrors.Errorf("v4l2: %s: S_CTRL %#x=%d: %w", dev.path, id, value, err)
	}
	return nil
}

func (dev *Device) setExtControl(class, id uint32, value int32) error {
	const numControls = 1

	ctrls := [numControls]v4l2_ext_control{
		{
			id:   id,
			size: 0,
		},
	}
	nativeEndian.PutUint32(ctrls[0].value[:], uint32(value))

	extctrls := v4l2_ext_controls{
		ctrl_class: class,
		count:      numControls,
		controls:   unsafe.Pointer(&ctrls),
	}
	if err := dev.ioctl(VIDIOC_S_EXT_CTRLS, unsafe.Pointer(&extctrls)); err != nil {
		return xerrors.Errorf("v4l2: %s: S_EXT_CTRLS %#x=%d: %w", dev.path, id, value, err)
	}
	return nil
}

func (dev *Device) setCodecControl(id uint32, value int32) error {
	return dev.setExtControl(V4L2_CTRL_CLASS_MPEG, id, value)
}

func (dev *Device) SetBitrate(bitrate int) error {
	return dev.setCodecControl(V4L2_CID_MPEG_VIDEO_BITRATE, int32(bitrate))
}

func (dev *Device) SetPixelFormat(width, height int, format uint32) error {
	pfmt := v4l2_pix_format{
		width:       uint32(width),
		height:      uint32(height),
		pixelformat: format,
		field:       V4L2_FIELD_ANY,
	}
	f := v4l2_format{
		typ: V4L2_BUF_TYPE_VIDEO_CAPTURE,
		fmt: pfmt.marshal(),
	}
	if err := dev.ioctl(VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return xerrors.Errorf("v4l2: %s: S_FMT %dx%d: %w", dev.path, width, height, err)
	}
	return nil
}

func (dev *Device) SetRepeatSequenceHeader(on bool) error {
	var value int32
	if on {
		value = 1
	}
	return dev.setCodecControl(V4L2_CID_MPEG_VIDEO_REPEAT_SEQ_HEADER, value)
}

// Start video capture.
func (dev *Device) Start() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.mapMemory(); err != nil {
		return err
	}

	for i := range dev.buffers {
		if err := dev.enqueue(i); err != nil {
			return xerrors.Errorf("v4l2: %s: QBUF: %w", dev.path, err)
		}
	}

	if err := dev.enableStream(); err != nil {
		return xerrors.Errorf("v4l2: %s: STREAMON: %w", dev.path, err)
	}
	return nil
}

// Stop video capture. A ReadFrame blocked in another goroutine returns
// io.EOF.
func (dev *Device) Stop() error {
	// Disable stream (dequeues any outstanding buffers as well). Done before
	// taking the lock so a blocked ReadFrame wakes up.
	if err := dev.disableStream(); err != nil {
		return xerrors.Errorf("v4l2: %s: STREAMOFF: %w", dev.path, err)
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.buffers == nil {
		return nil
	}
	return dev.unmapMemory()
}

// Read a video frame from the device. Blocks until data is available.
func (dev *Device) ReadFrame() (Frame, error) {
	buf, err := dev.dequeue()
	if err != nil {
		if err == syscall.EINVAL {
			err = io.EOF
		}
		return Frame{}, err
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if int(buf.index) >= len(dev.buffers) {
		return Frame{}, io.EOF
	}

	frame := Frame{
		// Copy data to new heap-allocated buffer.
		Data:      append([]byte(nil), dev.buffers[buf.index][:buf.bytesused]...),
		Timestamp: time.Duration(buf.timestamp.sec)*time.Second + time.Duration(buf.timestamp.usec)*time.Microsecond,
		KeyFrame:  buf.flags&V4L2_BUF_FLAG_KEYFRAME != 0,
	}

	if err := dev.enqueue(int(buf.index)); err != nil {
		return frame, xerrors.Errorf("v4l2: %s: QBUF: %w", dev.path, err)
	}
	return frame, nil
}
