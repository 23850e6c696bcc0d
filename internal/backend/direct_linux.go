package backend

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/render"
)

// Direct runs on a bare TTY: keyboards are grabbed exclusively through
// evdev, outputs are enumerated from sysfs DRM state, and frames go to
// the system framebuffer. Input and DRM hotplug are watched with
// inotify so devices can come and go while the session runs.
type Direct struct {
	cfg    *config.Config
	events chan<- Event

	mu        sync.Mutex
	keyboards map[string]*evdevDevice
	outputs   []Output

	fbFd     int
	fb       []byte
	fbStride int
	fbBounds geom.Rect

	watcher *fsnotify.Watcher
	done    chan struct{}
}

const directName = "direct"

const (
	inputDir = "/dev/input"
	drmDir   = "/sys/class/drm"
	fbDev    = "/dev/fb0"
)

// evdev ioctls, from linux/input.h.
const (
	eviocGrab    = 0x40044590 // EVIOCGRAB
	eviocGBitAll = 0x80084520 // EVIOCGBIT(0, 8): supported event types
)

// Linux event types and modifier keycodes.
const (
	evKey = 0x01

	keyLeftCtrl   = 29
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftAlt    = 56
	keyRightCtrl  = 97
	keyRightAlt   = 100
	keyLeftMeta   = 125
	keyRightMeta  = 126
)

type evdevDevice struct {
	path string
	fd   int
}

// inputEvent mirrors struct input_event on 64-bit kernels.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24

func NewDirect(cfg *config.Config) *Direct {
	return &Direct{
		cfg:       cfg,
		keyboards: make(map[string]*evdevDevice),
		done:      make(chan struct{}),
	}
}

// Init grabs every keyboard, maps the framebuffer, reads the connector
// state, and starts the hotplug watcher. Any failure releases whatever
// was already acquired; a stuck exclusive keyboard grab would leave the
// machine unusable.
func (b *Direct) Init(events chan<- Event) ([]Output, error) {
	b.events = events
	b.done = make(chan struct{})

	if err := b.openFramebuffer(); err != nil {
		return nil, &InitError{Backend: directName, Err: err}
	}

	if err := b.grabKeyboards(); err != nil {
		b.Shutdown()
		return nil, &InitError{Backend: directName, Err: err}
	}
	if len(b.keyboards) == 0 {
		b.Shutdown()
		return nil, &InitError{Backend: directName, Err: fmt.Errorf("no keyboards found under %s", inputDir)}
	}

	b.outputs = enumerateOutputs(drmDir, b.fbBounds)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		b.Shutdown()
		return nil, &InitError{Backend: directName, Err: err}
	}
	b.watcher = watcher
	if err := watcher.Add(inputDir); err != nil {
		log.Printf("input hotplug watch unavailable: %v", err)
	}
	if err := watcher.Add(drmDir); err != nil {
		log.Printf("drm hotplug watch unavailable: %v", err)
	}
	go b.watchHotplug()

	return b.outputs, nil
}

func (b *Direct) openFramebuffer() error {
	fd, err := unix.Open(fbDev, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", fbDev, err)
	}
	b.fbFd = fd

	var vinfo fbVarScreeninfo
	if err := fbIoctl(fd, fbioGetVScreeninfo, unsafe.Pointer(&vinfo)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("FBIOGET_VSCREENINFO: %w", err)
	}
	var finfo fbFixScreeninfo
	if err := fbIoctl(fd, fbioGetFScreeninfo, unsafe.Pointer(&finfo)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("FBIOGET_FSCREENINFO: %w", err)
	}
	if vinfo.BitsPerPixel != 32 {
		unix.Close(fd)
		return fmt.Errorf("framebuffer is %d bpp, need 32", vinfo.BitsPerPixel)
	}

	size := int(finfo.SmemLen)
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("mmap framebuffer: %w", err)
	}
	b.fb = mem
	b.fbStride = int(finfo.LineLength)
	b.fbBounds = geom.Rect{Width: int(vinfo.Xres), Height: int(vinfo.Yres)}
	return nil
}

func (b *Direct) grabKeyboards() error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		b.tryGrab(filepath.Join(inputDir, e.Name()))
	}
	return nil
}

// tryGrab opens one event device and takes an exclusive grab if it looks
// like a keyboard. Non-keyboards and busy devices are skipped quietly.
func (b *Direct) tryGrab(path string) {
	b.mu.Lock()
	if _, have := b.keyboards[path]; have {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return
	}

	var evbits [8]byte
	if err := fbIoctl(fd, eviocGBitAll, unsafe.Pointer(&evbits[0])); err != nil {
		unix.Close(fd)
		return
	}
	if evbits[evKey/8]&(1<<(evKey%8)) == 0 {
		unix.Close(fd)
		return
	}

	if err := unix.IoctlSetInt(fd, eviocGrab, 1); err != nil {
		unix.Close(fd)
		log.Printf("grab %s: %v", path, err)
		return
	}

	dev := &evdevDevice{path: path, fd: fd}
	b.mu.Lock()
	b.keyboards[path] = dev
	b.mu.Unlock()

	log.Printf("grabbed keyboard %s", path)
	go b.readDevice(dev)
}

// releaseDevice ungrabs and closes a keyboard exactly once; whoever
// removes it from the map owns the file descriptor.
func (b *Direct) releaseDevice(dev *evdevDevice) {
	b.mu.Lock()
	if _, owned := b.keyboards[dev.path]; !owned {
		b.mu.Unlock()
		return
	}
	delete(b.keyboards, dev.path)
	b.mu.Unlock()

	unix.IoctlSetInt(dev.fd, eviocGrab, 0)
	unix.Close(dev.fd)
}

// readDevice decodes input_event records from one keyboard and tracks
// the modifier and shift state locally, since evdev gives raw keycodes.
func (b *Direct) readDevice(dev *evdevDevice) {
	defer b.releaseDevice(dev)

	var mod, shift bool
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := unix.Read(dev.fd, buf)
		if err != nil {
			select {
			case <-b.done:
			default:
				b.send(InputDeviceChanged{Path: dev.path, Keyboard: true})
			}
			return
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			ev := decodeInputEvent(buf[off:])
			if ev.Type != evKey || ev.Value > 1 { // 2 = autorepeat
				continue
			}
			pressed := ev.Value == 1
			switch ev.Code {
			case b.modCodeLeft(), b.modCodeRight():
				mod = pressed
				continue
			case keyLeftShift, keyRightShift:
				shift = pressed
				continue
			}
			b.send(Key{Code: ev.Code, Pressed: pressed, Mod: mod, Shift: shift})
		}
	}
}

func (b *Direct) modCodeLeft() uint16 {
	switch b.cfg.Modifier {
	case "alt":
		return keyLeftAlt
	case "ctrl":
		return keyLeftCtrl
	default:
		return keyLeftMeta
	}
}

func (b *Direct) modCodeRight() uint16 {
	switch b.cfg.Modifier {
	case "alt":
		return keyRightAlt
	case "ctrl":
		return keyRightCtrl
	default:
		return keyRightMeta
	}
}

func decodeInputEvent(buf []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:])),
		Type:  binary.LittleEndian.Uint16(buf[16:]),
		Code:  binary.LittleEndian.Uint16(buf[18:]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:])),
	}
}

// watchHotplug reacts to devices appearing under /dev/input and to DRM
// connector changes.
func (b *Direct) watchHotplug() {
	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			switch {
			case strings.HasPrefix(ev.Name, inputDir) && ev.Op.Has(fsnotify.Create):
				if strings.HasPrefix(filepath.Base(ev.Name), "event") {
					b.tryGrab(ev.Name)
					b.send(InputDeviceChanged{Path: ev.Name, Added: true, Keyboard: true})
				}
			case strings.HasPrefix(ev.Name, drmDir):
				outputs := enumerateOutputs(drmDir, b.fbBounds)
				b.mu.Lock()
				b.outputs = outputs
				b.mu.Unlock()
				for _, o := range outputs {
					b.send(OutputChanged{Output: o})
				}
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("hotplug watcher: %v", err)
		}
	}
}

// enumerateOutputs reads connector status from sysfs. The framebuffer
// bounds win over the mode line because that is what we can actually
// present to.
func enumerateOutputs(dir string, fbBounds geom.Rect) []Output {
	var outputs []Output
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			// Connectors look like card0-HDMI-A-1; the bare card0 entry
			// is the device node.
			if !strings.HasPrefix(e.Name(), "card") || !strings.Contains(e.Name(), "-") {
				continue
			}
			status, err := os.ReadFile(filepath.Join(dir, e.Name(), "status"))
			if err != nil {
				continue
			}
			connected := strings.TrimSpace(string(status)) == "connected"
			outputs = append(outputs, Output{
				Name:      e.Name(),
				Bounds:    fbBounds,
				RefreshHz: 60,
				Connected: connected,
			})
		}
	}
	if len(outputs) == 0 {
		outputs = []Output{{Name: "fb0", Bounds: fbBounds, RefreshHz: 60, Connected: true}}
	}
	return outputs
}

func (b *Direct) send(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// Inject feeds a synthesized event into the session queue. Surface
// lifecycle on the direct path arrives through here from the client
// bridge; it also lets tests drive the backend without hardware.
func (b *Direct) Inject(ev Event) {
	b.send(ev)
}

func (b *Direct) Outputs() []Output {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Output, len(b.outputs))
	copy(out, b.outputs)
	return out
}

// Present draws the display list straight into the framebuffer. Text
// runs are not rasterized on this path; the frame's quads carry the
// scene.
func (b *Direct) Present(output string, frame *render.Frame) error {
	if b.fb == nil {
		return ErrDeviceLost
	}
	for _, q := range frame.Quads {
		b.fillQuad(q)
	}
	return nil
}

func (b *Direct) fillQuad(q render.Quad) {
	x0, y0 := q.Rect.X, q.Rect.Y
	x1, y1 := x0+q.Rect.Width, y0+q.Rect.Height
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > b.fbBounds.Width {
		x1 = b.fbBounds.Width
	}
	if y1 > b.fbBounds.Height {
		y1 = b.fbBounds.Height
	}

	c := uint32(q.Color)
	for y := y0; y < y1; y++ {
		row := y * b.fbStride
		for x := x0; x < x1; x++ {
			off := row + x*4
			if off+4 > len(b.fb) {
				return
			}
			px := binary.LittleEndian.Uint32(b.fb[off:])
			binary.LittleEndian.PutUint32(b.fb[off:], blendPixel(px, c, q.Alpha))
		}
	}
}

func blendPixel(dst, src uint32, alpha float64) uint32 {
	if alpha >= 1 {
		return src
	}
	if alpha <= 0 {
		return dst
	}
	mix := func(d, s uint32) uint32 {
		return uint32(float64(d)*(1-alpha) + float64(s)*alpha)
	}
	r := mix(dst>>16&0xff, src>>16&0xff)
	g := mix(dst>>8&0xff, src>>8&0xff)
	bl := mix(dst&0xff, src&0xff)
	return r<<16 | g<<8 | bl
}

// CloseSurface acknowledges destruction of a bridged surface. The bridge
// owns no real clients, so the unmap is synthesized immediately; the
// session still removes the window only when the event comes back around.
func (b *Direct) CloseSurface(s Surface) error {
	go b.send(SurfaceUnmapped{Surface: s})
	return nil
}

// Shutdown releases every grab, the framebuffer mapping, and the
// watcher. Order matters: keyboards first, so a crash during the rest
// never leaves input unusable.
func (b *Direct) Shutdown() error {
	select {
	case <-b.done:
	default:
		close(b.done)
	}

	b.mu.Lock()
	devices := make([]*evdevDevice, 0, len(b.keyboards))
	for _, d := range b.keyboards {
		devices = append(devices, d)
	}
	b.keyboards = make(map[string]*evdevDevice)
	b.mu.Unlock()
	for _, d := range devices {
		unix.IoctlSetInt(d.fd, eviocGrab, 0)
		unix.Close(d.fd)
	}

	if b.watcher != nil {
		b.watcher.Close()
		b.watcher = nil
	}
	if b.fb != nil {
		unix.Munmap(b.fb)
		b.fb = nil
	}
	if b.fbFd != 0 {
		unix.Close(b.fbFd)
		b.fbFd = 0
	}
	return nil
}
