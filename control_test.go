package sndpcm

import (
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlPreferSubdevice(t *testing.T) {
	f := newFakeSystem()

	type ctlCall struct {
		req uintptr
		val int32
	}
	var calls []ctlCall
	for _, req := range []uintptr{SND_CTL_IOCTL_PCM_DEVICE, SND_CTL_IOCTL_PCM_CHANNEL, SND_CTL_IOCTL_PCM_PREFER_SUBDEVICE} {
		f.handle(req, func(_ int, arg unsafe.Pointer) (int, error) {
			calls = append(calls, ctlCall{req: req, val: *(*int32)(arg)})

			return 0, nil
		})
	}

	ctl, err := openControl(f, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/snd/controlC2"}, f.opened)

	require.NoError(t, ctl.PreferSubdevice(3, SND_PCM_CHANNEL_CAPTURE, 1))
	assert.Equal(t, []ctlCall{
		{SND_CTL_IOCTL_PCM_DEVICE, 3},
		{SND_CTL_IOCTL_PCM_CHANNEL, int32(SND_PCM_CHANNEL_CAPTURE)},
		{SND_CTL_IOCTL_PCM_PREFER_SUBDEVICE, 1},
	}, calls)

	require.NoError(t, ctl.Close())
	require.NoError(t, ctl.Close(), "second Close is a no-op")
	assert.Empty(t, f.fds)

	assert.ErrorIs(t, ctl.PreferSubdevice(0, SND_PCM_CHANNEL_PLAYBACK, -1), syscall.EINVAL)
}

func TestControlIncompatibleVersion(t *testing.T) {
	f := newFakeSystem()
	f.handle(SND_CTL_IOCTL_PVERSION, func(_ int, arg unsafe.Pointer) (int, error) {
		*(*int32)(arg) = ProtocolVersion(1, 0, 0)

		return 0, nil
	})

	_, err := openControl(f, 0)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
	assert.Empty(t, f.fds)

	pcm, err := Open(0, 0, SND_PCM_OPEN_PLAYBACK, withSystem(f))
	assert.Nil(t, pcm)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
	assert.Equal(t, 0, f.openCount(testPlaybackPath))
}

func TestControlPreferFailureAbortsOpen(t *testing.T) {
	f := newFakeSystem()
	f.handle(SND_CTL_IOCTL_PCM_PREFER_SUBDEVICE, func(int, unsafe.Pointer) (int, error) {
		return -1, syscall.ENOTTY
	})

	_, err := Open(0, 0, SND_PCM_OPEN_DUPLEX, withSystem(f))
	assert.ErrorIs(t, err, syscall.ENOTTY)
	assert.Empty(t, f.fds)
}

// stubControl records subdevice preferences without a device.
type stubControl struct {
	prefs  []int
	closed bool
}

func (s *stubControl) PreferSubdevice(_ int, _ Channel, subdevice int) error {
	s.prefs = append(s.prefs, subdevice)

	return nil
}

func (s *stubControl) Close() error {
	s.closed = true

	return nil
}

func TestOpenReleasesControlOnFailure(t *testing.T) {
	f := newFakeSystem()
	f.openErr[testPlaybackPath] = syscall.EACCES
	stub := &stubControl{}

	_, err := Open(0, 0, SND_PCM_OPEN_DUPLEX, withSystem(f), withControl(func(system, int) (Control, error) {
		return stub, nil
	}))
	assert.ErrorIs(t, err, syscall.EACCES)
	assert.True(t, stub.closed)
	assert.Equal(t, []int{-1}, stub.prefs, "capture is not attempted after playback failed")
	assert.Equal(t, 0, f.openCount(testCapturePath))
}
