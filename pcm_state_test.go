package sndpcm

import (
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	f := newFakeSystem()
	pcm := openFake(t, f, SND_PCM_OPEN_DUPLEX)
	defer pcm.Close()

	playback := f.fdFor(testPlaybackPath)
	capture := f.fdFor(testCapturePath)

	testCases := []struct {
		name string
		call func() error
		req  uintptr
		fd   int
	}{
		{"PreparePlayback", func() error { return pcm.Prepare(SND_PCM_CHANNEL_PLAYBACK) }, SND_PCM_IOCTL_CHANNEL_PREPARE, playback},
		{"PrepareCapture", func() error { return pcm.Prepare(SND_PCM_CHANNEL_CAPTURE) }, SND_PCM_IOCTL_CHANNEL_PREPARE, capture},
		{"GoCapture", func() error { return pcm.Go(SND_PCM_CHANNEL_CAPTURE) }, SND_PCM_IOCTL_CHANNEL_GO, capture},
		{"FlushPlayback", func() error { return pcm.Flush(SND_PCM_CHANNEL_PLAYBACK) }, SND_PCM_IOCTL_CHANNEL_FLUSH, playback},
		{"Drain", pcm.Drain, SND_PCM_IOCTL_CHANNEL_DRAIN, playback},
		{"Pause", func() error { return pcm.Pause(true) }, SND_PCM_IOCTL_CHANNEL_PAUSE, playback},
		{"SyncGo", func() error { return pcm.SyncGo(SyncID{}) }, SND_PCM_IOCTL_SYNC_GO, playback},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f.calls = nil
			require.NoError(t, tc.call())
			require.Len(t, f.calls, 1)
			assert.Equal(t, tc.req, f.calls[0].req)
			assert.Equal(t, tc.fd, f.calls[0].fd)
		})
	}
}

func TestTransitionInvalidChannelIsIOError(t *testing.T) {
	f := newFakeSystem()
	pcm := openFake(t, f, SND_PCM_OPEN_DUPLEX)
	defer pcm.Close()

	assert.ErrorIs(t, pcm.Prepare(Channel(2)), syscall.EIO)
	assert.ErrorIs(t, pcm.Go(Channel(-1)), syscall.EIO)
	assert.ErrorIs(t, pcm.Flush(Channel(9)), syscall.EIO)
	assert.Equal(t, -int(syscall.EIO), ErrorCode(pcm.Prepare(Channel(2))))
}

func TestTransitionClosedChannel(t *testing.T) {
	f := newFakeSystem()
	pcm := openFake(t, f, SND_PCM_OPEN_CAPTURE)
	defer pcm.Close()

	f.calls = nil

	assert.ErrorIs(t, pcm.Prepare(SND_PCM_CHANNEL_PLAYBACK), syscall.EINVAL)
	assert.ErrorIs(t, pcm.Go(SND_PCM_CHANNEL_PLAYBACK), syscall.EINVAL)
	assert.ErrorIs(t, pcm.Drain(), syscall.EINVAL, "drain is playback only")
	assert.ErrorIs(t, pcm.Pause(true), syscall.EINVAL, "pause is playback only")
	assert.ErrorIs(t, pcm.SyncGo(SyncID{}), syscall.EINVAL, "sync go needs the playback channel")
	assert.Empty(t, f.calls)
}

func TestPauseArgument(t *testing.T) {
	f := newFakeSystem()
	var enabled []int32
	f.handle(SND_PCM_IOCTL_CHANNEL_PAUSE, func(_ int, arg unsafe.Pointer) (int, error) {
		enabled = append(enabled, *(*int32)(arg))

		return 0, nil
	})

	pcm := openFake(t, f, SND_PCM_OPEN_PLAYBACK)
	defer pcm.Close()

	require.NoError(t, pcm.Pause(true))
	require.NoError(t, pcm.Pause(false))
	assert.Equal(t, []int32{1, 0}, enabled)
}

func TestSyncGoCarriesGroup(t *testing.T) {
	f := newFakeSystem()
	var got sndPcmSync
	f.handle(SND_PCM_IOCTL_SYNC_GO, func(_ int, arg unsafe.Pointer) (int, error) {
		got = *(*sndPcmSync)(arg)

		return 0, nil
	})

	pcm := openFake(t, f, SND_PCM_OPEN_DUPLEX)
	defer pcm.Close()

	id := SyncID{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, pcm.SyncGo(id))
	assert.Equal(t, [16]byte(id), got.Id)
}

func TestTransitionDeviceError(t *testing.T) {
	f := newFakeSystem()
	f.handle(SND_PCM_IOCTL_CHANNEL_GO, func(int, unsafe.Pointer) (int, error) {
		return -1, syscall.EPIPE
	})

	pcm := openFake(t, f, SND_PCM_OPEN_PLAYBACK)
	defer pcm.Close()

	err := pcm.Go(SND_PCM_CHANNEL_PLAYBACK)
	assert.ErrorIs(t, err, syscall.EPIPE)
	assert.Equal(t, -int(syscall.EPIPE), ErrorCode(err))
}
