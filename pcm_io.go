package sndpcm

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Write writes data to the playback channel and returns the number of bytes written.
// The provided `data` argument must be a slice of a supported numeric type (e.g., []int16, []float32).
// In non-blocking mode the count may be short.
func (p *PCM) Write(data any) (int, error) {
	c, err := p.channel(SND_PCM_CHANNEL_PLAYBACK)
	if err != nil {
		return 0, err
	}

	buf, err := sliceBytes(data)
	if err != nil {
		return 0, errInvalid("invalid data type for Write: %v", err)
	}

	if len(buf) == 0 {
		return 0, nil
	}

	defer runtime.KeepAlive(data)

	n, err := p.sys.Write(c.fd, buf)
	if err != nil {
		return 0, fmt.Errorf("write to playback channel failed: %w", err)
	}

	return n, nil
}

// Read reads from the capture channel into data and returns the number of bytes read.
// The provided `data` must be a slice of a supported numeric type (e.g., []int16, []float32).
// In non-blocking mode the count may be short.
func (p *PCM) Read(data any) (int, error) {
	c, err := p.channel(SND_PCM_CHANNEL_CAPTURE)
	if err != nil {
		return 0, err
	}

	buf, err := sliceBytes(data)
	if err != nil {
		return 0, errInvalid("invalid buffer type for Read: %v", err)
	}

	if len(buf) == 0 {
		return 0, nil
	}

	defer runtime.KeepAlive(data)

	n, err := p.sys.Read(c.fd, buf)
	if err != nil {
		return 0, fmt.Errorf("read from capture channel failed: %w", err)
	}

	return n, nil
}

// Writev writes every buffer of bufs to the playback channel in one driver transfer.
func (p *PCM) Writev(bufs [][]byte) (int, error) {
	return p.vector(SND_PCM_CHANNEL_PLAYBACK, bufs)
}

// Readv fills the buffers of bufs from the capture channel in one driver transfer.
func (p *PCM) Readv(bufs [][]byte) (int, error) {
	return p.vector(SND_PCM_CHANNEL_CAPTURE, bufs)
}

// vector submits bufs as a single vectored transfer on ch.
func (p *PCM) vector(ch Channel, bufs [][]byte) (int, error) {
	c, err := p.channel(ch)
	if err != nil {
		return 0, err
	}

	if len(bufs) == 0 {
		return 0, nil
	}

	if cap(c.iov) < len(bufs) {
		c.iov = make([]unix.Iovec, len(bufs))
	}
	iov := c.iov[:len(bufs)]

	for i, b := range bufs {
		iov[i] = unix.Iovec{}
		if len(b) > 0 {
			iov[i].Base = &b[0]
		}
		iov[i].SetLen(len(b))
	}

	req := &vectorRequest{
		write: ch == SND_PCM_CHANNEL_PLAYBACK,
		args: sndVArgs{
			Vector: uintptr(unsafe.Pointer(&iov[0])),
			Count:  culong(len(iov)),
		},
	}

	n, err := submit(p.sys, c.fd, req)
	runtime.KeepAlive(bufs)
	runtime.KeepAlive(iov)

	// Drop references to caller buffers.
	clear(iov)

	if err != nil {
		return 0, err
	}

	return n, nil
}

// sliceBytes returns the memory of a numeric slice as bytes.
// A nil or empty slice of a supported type yields an empty result.
func sliceBytes(data any) ([]byte, error) {
	if data == nil {
		return nil, errors.New("data cannot be nil")
	}

	if b, ok := data.([]byte); ok {
		return b, nil
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a slice, got %T", data)
	}

	switch rv.Type().Elem().Kind() {
	case reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32,
		reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return nil, fmt.Errorf("unsupported slice element type: %s", rv.Type().Elem().Kind())
	}

	if rv.Len() == 0 {
		return nil, nil
	}

	size := rv.Len() * int(rv.Type().Elem().Size())

	return unsafe.Slice((*byte)(rv.UnsafePointer()), size), nil
}
