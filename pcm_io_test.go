package sndpcm

import (
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWriteInvalidBuffers(t *testing.T) {
	f := newFakeSystem()
	pcm := openFake(t, f, SND_PCM_OPEN_PLAYBACK)
	defer pcm.Close()

	_, err := pcm.Write(nil)
	assert.ErrorIs(t, err, syscall.EINVAL, "Write with nil buffer should fail")

	_, err = pcm.Write(123)
	assert.ErrorIs(t, err, syscall.EINVAL, "Write with non-slice buffer should fail")

	_, err = pcm.Write([]string{"a"})
	assert.ErrorIs(t, err, syscall.EINVAL, "Write with unsupported slice type should fail")

	assert.Empty(t, f.written, "the descriptor must not be touched")

	var emptySlice []int16
	n, err := pcm.Write(emptySlice)
	assert.NoError(t, err, "Write with empty slice should succeed")
	assert.Zero(t, n)

	n, err = pcm.Write([]byte{})
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.written)
}

func TestWrite(t *testing.T) {
	f := newFakeSystem()
	pcm := openFake(t, f, SND_PCM_OPEN_PLAYBACK)
	defer pcm.Close()

	n, err := pcm.Write([]int16{0x0102, 0x0304})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, f.written, 1)
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, f.written[0])

	n, err = pcm.Write([]float32{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	f.rwErr = syscall.EAGAIN
	_, err = pcm.Write([]byte{1})
	assert.ErrorIs(t, err, syscall.EAGAIN)
}

func TestRead(t *testing.T) {
	f := newFakeSystem()
	f.readData = []byte{1, 0, 2, 0}
	pcm := openFake(t, f, SND_PCM_OPEN_CAPTURE)
	defer pcm.Close()

	buf := make([]int16, 4)
	n, err := pcm.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "short read in bytes")
	assert.Equal(t, []int16{1, 2, 0, 0}, buf)

	_, err = pcm.Read(nil)
	assert.ErrorIs(t, err, syscall.EINVAL)
}

func TestTransferWrongDirection(t *testing.T) {
	f := newFakeSystem()
	pcm := openFake(t, f, SND_PCM_OPEN_CAPTURE)
	defer pcm.Close()

	_, err := pcm.Write([]byte{1, 2})
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = pcm.Writev([][]byte{{1, 2}})
	assert.ErrorIs(t, err, syscall.EINVAL)

	assert.Empty(t, f.written)
	assert.Equal(t, 0, f.count(SND_IOCTL_WRITEV))
}

func TestWritevIsSingleTransfer(t *testing.T) {
	f := newFakeSystem()
	var got [][]byte
	f.handle(SND_IOCTL_WRITEV, func(_ int, arg unsafe.Pointer) (int, error) {
		args := (*sndVArgs)(arg)
		iov := unsafe.Slice((*unix.Iovec)(unsafe.Pointer(args.Vector)), int(args.Count))

		total := 0
		for _, v := range iov {
			b := unsafe.Slice(v.Base, int(v.Len))
			got = append(got, append([]byte(nil), b...))
			total += len(b)
		}

		return total, nil
	})

	pcm := openFake(t, f, SND_PCM_OPEN_PLAYBACK)
	defer pcm.Close()

	n, err := pcm.Writev([][]byte{{1, 2, 3}, {}, {4}})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, [][]byte{{1, 2, 3}, nil, {4}}, got)
	assert.Equal(t, 1, f.count(SND_IOCTL_WRITEV), "one driver transfer for the whole vector")
	assert.Empty(t, f.written, "no per-buffer writes")

	n, err = pcm.Writev(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.count(SND_IOCTL_WRITEV))
}

func TestReadv(t *testing.T) {
	f := newFakeSystem()
	f.handle(SND_IOCTL_READV, func(_ int, arg unsafe.Pointer) (int, error) {
		args := (*sndVArgs)(arg)
		iov := unsafe.Slice((*unix.Iovec)(unsafe.Pointer(args.Vector)), int(args.Count))

		total := 0
		for i, v := range iov {
			b := unsafe.Slice(v.Base, int(v.Len))
			for j := range b {
				b[j] = byte(i + 1)
			}
			total += len(b)
		}

		return total, nil
	})

	pcm := openFake(t, f, SND_PCM_OPEN_CAPTURE)
	defer pcm.Close()

	a, b := make([]byte, 2), make([]byte, 3)
	n, err := pcm.Readv([][]byte{a, b})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte{1, 1}, a)
	assert.Equal(t, []byte{2, 2, 2}, b)
	assert.Equal(t, 1, f.count(SND_IOCTL_READV))

	f.handle(SND_IOCTL_READV, func(int, unsafe.Pointer) (int, error) {
		return -1, syscall.EAGAIN
	})
	_, err = pcm.Readv([][]byte{a})
	assert.ErrorIs(t, err, syscall.EAGAIN)
}
