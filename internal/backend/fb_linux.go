package backend

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Framebuffer ioctls, from linux/fb.h.
const (
	fbioGetVScreeninfo = 0x4600 // FBIOGET_VSCREENINFO
	fbioGetFScreeninfo = 0x4602 // FBIOGET_FSCREENINFO
)

// fbVarScreeninfo is the prefix of struct fb_var_screeninfo we care
// about; the blank field pads out the remaining 32 words so the kernel
// writes into owned memory.
type fbVarScreeninfo struct {
	Xres         uint32
	Yres         uint32
	XresVirtual  uint32
	YresVirtual  uint32
	Xoffset      uint32
	Yoffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	_            [32]uint32
}

// fbFixScreeninfo mirrors struct fb_fix_screeninfo on 64-bit kernels.
type fbFixScreeninfo struct {
	ID           [16]byte
	SmemStart    uint64
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	Xpanstep     uint16
	Ypanstep     uint16
	Ywrapstep    uint16
	_            uint16
	LineLength   uint32
	_            uint32
	MmioStart    uint64
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	_            [3]uint16
}

func fbIoctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
