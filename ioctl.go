package sndpcm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// system is the OS boundary used by a PCM handle. Descriptors are plain ints.
type system interface {
	Open(path string, flags int) (int, error)
	Close(fd int) error
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
	// Ioctl returns the non-negative result of the call on success.
	Ioctl(fd int, req uintptr, arg unsafe.Pointer) (int, error)
	Mmap(fd int, offset int64, length int, prot int) ([]byte, error)
	Munmap(b []byte) error
	Fcntl(fd int, cmd int, arg int) (int, error)
}

// unixSystem talks to the kernel.
type unixSystem struct{}

func (unixSystem) Open(path string, flags int) (int, error) {
	return unix.Open(path, flags|unix.O_CLOEXEC, 0)
}

func (unixSystem) Close(fd int) error {
	return unix.Close(fd)
}

func (unixSystem) Read(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func (unixSystem) Write(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

func (unixSystem) Ioctl(fd int, req uintptr, arg unsafe.Pointer) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return -1, errno
	}

	return int(r), nil
}

func (unixSystem) Mmap(fd int, offset int64, length int, prot int) ([]byte, error) {
	return unix.Mmap(fd, offset, length, prot, unix.MAP_SHARED)
}

func (unixSystem) Munmap(b []byte) error {
	return unix.Munmap(b)
}

func (unixSystem) Fcntl(fd int, cmd int, arg int) (int, error) {
	return unix.FcntlInt(uintptr(fd), cmd, arg)
}

const (
	iocNrbits    = 8
	iocTypebits  = 8
	iocSizebits  = 14
	iocNrshift   = 0
	iocTypeshift = iocNrshift + iocNrbits
	iocSizeshift = iocTypeshift + iocTypebits
	iocDirshift  = iocSizeshift + iocSizebits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

// ioc builds an ioctl request code.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirshift) | (typ << iocTypeshift) | (nr << iocNrshift) | (size << iocSizeshift)
}

// ioNone builds a request code for a command with no data transfer.
func ioNone(typ, nr uintptr) uintptr { return ioc(iocNone, typ, nr, 0) }

// ior builds a request code for a command that reads from the driver.
func ior(typ, nr, size uintptr) uintptr { return ioc(iocRead, typ, nr, size) }

// iow builds a request code for a command that writes to the driver.
func iow(typ, nr, size uintptr) uintptr { return ioc(iocWrite, typ, nr, size) }

// iowr builds a request code for a command that transfers data both ways.
func iowr(typ, nr, size uintptr) uintptr { return ioc(iocRead|iocWrite, typ, nr, size) }

var (
	// PCM channel IOCTLs
	SND_PCM_IOCTL_PVERSION        uintptr
	SND_PCM_IOCTL_INFO            uintptr
	SND_PCM_IOCTL_CHANNEL_INFO    uintptr
	SND_PCM_IOCTL_CHANNEL_PARAMS  uintptr
	SND_PCM_IOCTL_CHANNEL_SETUP   uintptr
	SND_PCM_IOCTL_VOICE_SETUP     uintptr
	SND_PCM_IOCTL_CHANNEL_STATUS  uintptr
	SND_PCM_IOCTL_CHANNEL_PREPARE uintptr
	SND_PCM_IOCTL_CHANNEL_GO      uintptr
	SND_PCM_IOCTL_CHANNEL_FLUSH   uintptr
	SND_PCM_IOCTL_SYNC_GO         uintptr
	SND_PCM_IOCTL_CHANNEL_DRAIN   uintptr
	SND_PCM_IOCTL_CHANNEL_PAUSE   uintptr

	// Vectored transfer IOCTLs, shared by all sound devices
	SND_IOCTL_READV  uintptr
	SND_IOCTL_WRITEV uintptr

	// Control IOCTLs
	SND_CTL_IOCTL_PVERSION             uintptr
	SND_CTL_IOCTL_PCM_DEVICE           uintptr
	SND_CTL_IOCTL_PCM_CHANNEL          uintptr
	SND_CTL_IOCTL_PCM_PREFER_SUBDEVICE uintptr
)

func init() {
	intSize := unsafe.Sizeof(int32(0))

	// PCM IOCTLs ('A' for ALSA)
	SND_PCM_IOCTL_PVERSION = ior('A', 0x00, intSize)
	SND_PCM_IOCTL_INFO = ior('A', 0x01, unsafe.Sizeof(sndPcmInfo{}))
	SND_PCM_IOCTL_CHANNEL_INFO = iowr('A', 0x02, unsafe.Sizeof(sndPcmChannelInfo{}))
	SND_PCM_IOCTL_CHANNEL_PARAMS = iowr('A', 0x10, unsafe.Sizeof(sndPcmChannelParams{}))
	SND_PCM_IOCTL_CHANNEL_SETUP = iowr('A', 0x20, unsafe.Sizeof(sndPcmChannelSetup{}))
	SND_PCM_IOCTL_VOICE_SETUP = iowr('A', 0x21, unsafe.Sizeof(sndPcmVoiceSetup{}))
	SND_PCM_IOCTL_CHANNEL_STATUS = iowr('A', 0x30, unsafe.Sizeof(sndPcmChannelStatus{}))

	// State change IOCTLs
	SND_PCM_IOCTL_CHANNEL_PREPARE = ioNone('A', 0x40)
	SND_PCM_IOCTL_CHANNEL_GO = ioNone('A', 0x41)
	SND_PCM_IOCTL_CHANNEL_FLUSH = ioNone('A', 0x42)
	SND_PCM_IOCTL_SYNC_GO = iow('A', 0x43, unsafe.Sizeof(sndPcmSync{}))
	SND_PCM_IOCTL_CHANNEL_DRAIN = ioNone('A', 0x44)
	SND_PCM_IOCTL_CHANNEL_PAUSE = iow('A', 0x45, intSize)

	// Vectored transfer IOCTLs ('K' for kernel sound core)
	SND_IOCTL_READV = iow('K', 0x00, unsafe.Sizeof(sndVArgs{}))
	SND_IOCTL_WRITEV = iow('K', 0x01, unsafe.Sizeof(sndVArgs{}))

	// Control IOCTLs ('U' for universal control)
	SND_CTL_IOCTL_PVERSION = ior('U', 0x00, intSize)
	SND_CTL_IOCTL_PCM_DEVICE = iow('U', 0x30, intSize)
	SND_CTL_IOCTL_PCM_CHANNEL = iow('U', 0x31, intSize)
	SND_CTL_IOCTL_PCM_PREFER_SUBDEVICE = iow('U', 0x32, intSize)
}
