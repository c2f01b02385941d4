package sndpcm

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

type fakeCall struct {
	fd  int
	req uintptr
}

type fakeMmap struct {
	fd     int
	offset int64
	length int
	prot   int
}

type fakeHandler func(fd int, arg unsafe.Pointer) (int, error)

// fakeSystem emulates the device nodes of one card in memory.
type fakeSystem struct {
	nextFd   int
	fds      map[int]string
	flags    map[int]int
	opened   []string
	closed   []string
	calls    []fakeCall
	handlers map[uintptr]fakeHandler

	openErr  map[string]error
	closeErr map[string]error
	fcntlErr map[int]error

	mappings  map[*byte]int
	mmaps     []fakeMmap
	mmapErr   map[int64]error
	munmapErr error

	written  [][]byte
	readData []byte
	rwErr    error
}

func newFakeSystem() *fakeSystem {
	f := &fakeSystem{
		nextFd:   3,
		fds:      make(map[int]string),
		flags:    make(map[int]int),
		handlers: make(map[uintptr]fakeHandler),
		openErr:  make(map[string]error),
		closeErr: make(map[string]error),
		fcntlErr: make(map[int]error),
		mappings: make(map[*byte]int),
		mmapErr:  make(map[int64]error),
	}

	f.handle(SND_PCM_IOCTL_PVERSION, func(_ int, arg unsafe.Pointer) (int, error) {
		*(*int32)(arg) = SND_PCM_VERSION_MAX

		return 0, nil
	})
	f.handle(SND_CTL_IOCTL_PVERSION, func(_ int, arg unsafe.Pointer) (int, error) {
		*(*int32)(arg) = SND_CTL_VERSION_MAX

		return 0, nil
	})
	f.handle(SND_PCM_IOCTL_CHANNEL_INFO, func(_ int, arg unsafe.Pointer) (int, error) {
		info := (*sndPcmChannelInfo)(arg)
		info.Subdevice = 0
		info.MmapSize = 4096

		return 0, nil
	})

	return f
}

func (f *fakeSystem) handle(req uintptr, h fakeHandler) {
	f.handlers[req] = h
}

// count returns how many times req was issued.
func (f *fakeSystem) count(req uintptr) int {
	n := 0
	for _, c := range f.calls {
		if c.req == req {
			n++
		}
	}

	return n
}

// openCount returns how many times path was opened.
func (f *fakeSystem) openCount(path string) int {
	n := 0
	for _, p := range f.opened {
		if p == path {
			n++
		}
	}

	return n
}

func (f *fakeSystem) Open(path string, flags int) (int, error) {
	f.opened = append(f.opened, path)
	if err := f.openErr[path]; err != nil {
		return -1, err
	}

	fd := f.nextFd
	f.nextFd++
	f.fds[fd] = path
	f.flags[fd] = flags

	return fd, nil
}

func (f *fakeSystem) Close(fd int) error {
	path, ok := f.fds[fd]
	if !ok {
		return syscall.EBADF
	}

	delete(f.fds, fd)
	f.closed = append(f.closed, path)

	return f.closeErr[path]
}

func (f *fakeSystem) Read(fd int, p []byte) (int, error) {
	if _, ok := f.fds[fd]; !ok {
		return -1, syscall.EBADF
	}
	if f.rwErr != nil {
		return -1, f.rwErr
	}

	return copy(p, f.readData), nil
}

func (f *fakeSystem) Write(fd int, p []byte) (int, error) {
	if _, ok := f.fds[fd]; !ok {
		return -1, syscall.EBADF
	}
	if f.rwErr != nil {
		return -1, f.rwErr
	}

	f.written = append(f.written, append([]byte(nil), p...))

	return len(p), nil
}

func (f *fakeSystem) Ioctl(fd int, req uintptr, arg unsafe.Pointer) (int, error) {
	if _, ok := f.fds[fd]; !ok {
		return -1, syscall.EBADF
	}

	f.calls = append(f.calls, fakeCall{fd: fd, req: req})

	if h, ok := f.handlers[req]; ok {
		return h(fd, arg)
	}

	return 0, nil
}

func (f *fakeSystem) Mmap(fd int, offset int64, length int, prot int) ([]byte, error) {
	if _, ok := f.fds[fd]; !ok {
		return nil, syscall.EBADF
	}

	f.mmaps = append(f.mmaps, fakeMmap{fd: fd, offset: offset, length: length, prot: prot})
	if err := f.mmapErr[offset]; err != nil {
		return nil, err
	}

	b := make([]byte, length)
	f.mappings[&b[0]] = length

	return b, nil
}

func (f *fakeSystem) Munmap(b []byte) error {
	if len(b) == 0 {
		return syscall.EINVAL
	}

	if _, ok := f.mappings[&b[0]]; !ok {
		return fmt.Errorf("unknown mapping: %w", syscall.EINVAL)
	}

	if f.munmapErr != nil {
		return f.munmapErr
	}

	delete(f.mappings, &b[0])

	return nil
}

func (f *fakeSystem) Fcntl(fd int, cmd int, arg int) (int, error) {
	if err := f.fcntlErr[fd]; err != nil {
		return -1, err
	}

	switch cmd {
	case unix.F_GETFL:
		return f.flags[fd], nil
	case unix.F_SETFL:
		f.flags[fd] = arg

		return 0, nil
	}

	return -1, syscall.EINVAL
}

// fdFor returns the open descriptor of path, or -1.
func (f *fakeSystem) fdFor(path string) int {
	for fd, p := range f.fds {
		if p == path {
			return fd
		}
	}

	return -1
}

// recordLogger keeps the messages it receives.
type recordLogger struct {
	debug []string
	warn  []string
}

func (l *recordLogger) Debug(msg string, _ ...any) { l.debug = append(l.debug, msg) }
func (l *recordLogger) Warn(msg string, _ ...any)  { l.warn = append(l.warn, msg) }

const (
	testPlaybackPath = "/dev/snd/pcmC0D0p"
	testCapturePath  = "/dev/snd/pcmC0D0c"
	testControlPath  = "/dev/snd/controlC0"
)
