package sndpcm

import (
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	mmapFragmentData = 1 << 0
	mmapFragmentIO   = 1 << 1
)

// MmapControl is a view of the control region of a mapped channel. The driver updates
// the region concurrently, so every field is read atomically.
type MmapControl struct {
	ctl *sndPcmMmapControl
}

// MmapFragment describes one fragment of the data region.
type MmapFragment struct {
	Number int
	Voice  int    // Voice of the fragment, or -1 for interleaved data.
	Addr   uint32 // Offset of the fragment in the data region.
	Data   bool   // Fragment holds data not yet consumed.
	IO     bool   // Fragment is being transferred by the hardware.
}

func newMmapControl(b []byte) *MmapControl {
	return &MmapControl{ctl: (*sndPcmMmapControl)(unsafe.Pointer(unsafe.SliceData(b)))}
}

// State returns the channel state maintained by the driver.
func (m *MmapControl) State() ChannelState {
	return ChannelState(atomic.LoadInt32(&m.ctl.Status.Status))
}

// FragIO returns the fragment currently being transferred.
func (m *MmapControl) FragIO() int {
	return int(atomic.LoadInt32(&m.ctl.Status.FragIO))
}

// Block returns the number of fragments transferred so far.
func (m *MmapControl) Block() uint32 {
	return atomic.LoadUint32(&m.ctl.Status.Block)
}

// ExpBlock returns the fragment count at which the application is woken up.
func (m *MmapControl) ExpBlock() uint32 {
	return atomic.LoadUint32(&m.ctl.Status.ExpBlock)
}

// Voices returns the number of voices in the data region.
func (m *MmapControl) Voices() int {
	return int(atomic.LoadInt32(&m.ctl.Status.Voices))
}

// FragSize returns the size in bytes of one fragment.
func (m *MmapControl) FragSize() int {
	return int(atomic.LoadInt32(&m.ctl.Status.FragSize))
}

// Frags returns the number of fragments in the data region.
func (m *MmapControl) Frags() int {
	return int(atomic.LoadInt32(&m.ctl.Status.Frags))
}

// Fragment returns the descriptor of fragment i.
func (m *MmapControl) Fragment(i int) (MmapFragment, bool) {
	if i < 0 || i >= len(m.ctl.Fragments) {
		return MmapFragment{}, false
	}

	f := &m.ctl.Fragments[i]
	flags := atomic.LoadUint32(&f.Flags)

	return MmapFragment{
		Number: int(f.Number),
		Voice:  int(f.Voice),
		Addr:   atomic.LoadUint32(&f.Addr),
		Data:   flags&mmapFragmentData != 0,
		IO:     flags&mmapFragmentIO != 0,
	}, true
}

// SetFragmentData marks fragment i as filled (playback) or consumed (capture, data false).
func (m *MmapControl) SetFragmentData(i int, data bool) bool {
	if i < 0 || i >= len(m.ctl.Fragments) {
		return false
	}

	f := &m.ctl.Fragments[i]
	if data {
		atomic.OrUint32(&f.Flags, mmapFragmentData)
	} else {
		atomic.AndUint32(&f.Flags, ^uint32(mmapFragmentData))
	}

	return true
}

// Mmap maps the control and the data region of channel ch.
// The data region is write-only for playback and read-only for capture. Both regions
// stay mapped until Munmap or Close.
func (p *PCM) Mmap(ch Channel) (*MmapControl, []byte, error) {
	c, err := p.channel(ch)
	if err != nil {
		return nil, nil, err
	}

	if c.mmapControl != nil {
		return nil, nil, fmt.Errorf("%s channel is already mapped: %w", ch, syscall.EBUSY)
	}

	info, err := p.ChannelInfo(ch)
	if err != nil {
		return nil, nil, err
	}

	if info.MmapSize <= 0 {
		return nil, nil, errInvalid("%s channel reports no data region", ch)
	}

	prot := unix.PROT_READ
	if ch == SND_PCM_CHANNEL_PLAYBACK {
		prot = unix.PROT_WRITE
	}

	var control, data []byte
	err = acquire(
		step{
			do: func() error {
				b, err := p.sys.Mmap(c.fd, SND_PCM_MMAP_OFFSET_CONTROL, int(unsafe.Sizeof(sndPcmMmapControl{})),
					unix.PROT_READ|unix.PROT_WRITE)
				if err != nil {
					return fmt.Errorf("failed to mmap control region of %s channel: %w", ch, err)
				}
				control = b

				return nil
			},
			undo: func() {
				if err := p.sys.Munmap(control); err != nil {
					p.log.Warn("sndpcm: failed to unmap control region", "channel", ch.String(), "error", err)
				}
			},
		},
		step{
			do: func() error {
				b, err := p.sys.Mmap(c.fd, SND_PCM_MMAP_OFFSET_DATA, info.MmapSize, prot)
				if err != nil {
					return fmt.Errorf("failed to mmap data region of %s channel: %w", ch, err)
				}
				data = b

				return nil
			},
		},
	)
	if err != nil {
		return nil, nil, err
	}

	c.mmapControl = control
	c.mmapData = data
	c.mmapSize = info.MmapSize

	return newMmapControl(control), data, nil
}

// Munmap unmaps both regions of channel ch. Each region is released even when the other
// fails, and the first failure is returned. Unmapping a channel that is not mapped is a no-op,
// even when the channel is not open.
func (p *PCM) Munmap(ch Channel) error {
	if p == nil {
		return errInvalid("PCM handle is nil")
	}

	if !ch.valid() {
		return errInvalid("invalid channel %d", ch)
	}

	return p.unmap(ch, &p.chans[ch])
}

func (p *PCM) unmap(ch Channel, c *pcmChannel) error {
	control, data := c.mmapControl, c.mmapData
	c.mmapControl = nil
	c.mmapData = nil
	c.mmapSize = 0

	return releaseAll(
		func(err error) { p.log.Warn("sndpcm: munmap failed", "channel", ch.String(), "error", err) },
		func() error {
			if control == nil {
				return nil
			}

			return p.sys.Munmap(control)
		},
		func() error {
			if data == nil {
				return nil
			}

			return p.sys.Munmap(data)
		},
	)
}
