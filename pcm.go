package sndpcm

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// pcmChannel is the state of one direction of a PCM handle.
type pcmChannel struct {
	fd int // -1 when the channel is not open

	// Last setup fetched from the driver. Only static geometry is cached, never the
	// transport state, and it is dropped by every call that can change geometry.
	setupValid bool
	setup      sndPcmChannelSetup

	mmapControl []byte
	mmapData    []byte
	mmapSize    int

	iov []unix.Iovec // Scratch vector reused by Readv/Writev.
}

// PCM is an open PCM device. It owns the playback and the capture channel of one
// card and device; either may be absent.
type PCM struct {
	sys     system
	log     Logger
	card    int
	device  int
	mode    OpenMode
	version int32
	chans   [2]pcmChannel
}

// Open opens the channels of a PCM device selected by mode without a subdevice preference.
// Note: only direct hardware devices (e.g., /dev/snd/pcmC0D0p) are supported.
func Open(card, device int, mode OpenMode, opts ...Option) (*PCM, error) {
	return OpenSubdevice(card, device, -1, mode, opts...)
}

// OpenByName opens a PCM by its name, in the format "hw:C,D" or "hw:C,D,S" where S is
// the preferred subdevice.
func OpenByName(name string, mode OpenMode, opts ...Option) (*PCM, error) {
	if !strings.HasPrefix(name, "hw:") {
		return nil, errInvalid("invalid PCM name format %q: missing 'hw:' prefix", name)
	}

	parts := strings.Split(strings.TrimPrefix(name, "hw:"), ",")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, errInvalid("invalid PCM name format %q: expected 'hw:card,device[,subdevice]'", name)
	}

	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errInvalid("invalid number %q in PCM name %q", part, name)
		}
		nums[i] = int(n)
	}

	subdevice := -1
	if len(nums) == 3 {
		subdevice = nums[2]
	}

	return OpenSubdevice(nums[0], nums[1], subdevice, mode, opts...)
}

// Close unmaps and closes both channels. Every channel is torn down even when an
// earlier step fails; the first close failure is returned.
// Closing an already closed handle is a no-op.
func (p *PCM) Close() error {
	if p == nil {
		return errInvalid("PCM handle is nil")
	}

	return releaseAll(
		func(err error) { p.log.Warn("sndpcm: close failed", "error", err) },
		func() error { return p.teardown(SND_PCM_CHANNEL_PLAYBACK) },
		func() error { return p.teardown(SND_PCM_CHANNEL_CAPTURE) },
	)
}

// teardown releases everything one channel holds.
func (p *PCM) teardown(ch Channel) error {
	c := &p.chans[ch]
	if err := p.unmap(ch, c); err != nil {
		p.log.Warn("sndpcm: munmap failed during close", "channel", ch.String(), "error", err)
	}

	c.iov = nil

	return p.closeChannel(ch)
}

// closeChannel closes the descriptor of ch if it is open and drops its cached setup.
func (p *PCM) closeChannel(ch Channel) error {
	c := &p.chans[ch]
	if c.fd < 0 {
		return nil
	}

	err := p.sys.Close(c.fd)
	c.fd = -1
	c.setupValid = false

	if err != nil {
		return fmt.Errorf("failed to close %s channel: %w", ch, err)
	}

	return nil
}

// channel returns the state of ch, which must be open.
func (p *PCM) channel(ch Channel) (*pcmChannel, error) {
	if p == nil {
		return nil, errInvalid("PCM handle is nil")
	}

	if !ch.valid() {
		return nil, errInvalid("invalid channel %d", ch)
	}

	c := &p.chans[ch]
	if c.fd < 0 {
		return nil, errInvalid("%s channel is not open", ch)
	}

	return c, nil
}

// Card returns the card number of the PCM.
func (p *PCM) Card() int {
	if p == nil {
		return 0
	}

	return p.card
}

// Device returns the device number of the PCM.
func (p *PCM) Device() int {
	if p == nil {
		return 0
	}

	return p.device
}

// Mode returns the open mode, reflecting the current blocking mode.
func (p *PCM) Mode() OpenMode {
	if p == nil {
		return 0
	}

	return p.mode
}

// Version returns the protocol version reported by the driver.
func (p *PCM) Version() int32 {
	if p == nil {
		return 0
	}

	return p.version
}

// Fd returns the descriptor of channel ch, e.g. for polling.
func (p *PCM) Fd(ch Channel) (int, error) {
	c, err := p.channel(ch)
	if err != nil {
		return -1, err
	}

	return c.fd, nil
}

// SetNonblock switches every open channel to non-blocking or blocking I/O.
// The open mode is only updated once all channels were switched.
func (p *PCM) SetNonblock(nonblock bool) error {
	if p == nil {
		return errInvalid("PCM handle is nil")
	}

	for _, ch := range channels {
		fd := p.chans[ch].fd
		if fd < 0 {
			continue
		}

		flags, err := p.sys.Fcntl(fd, unix.F_GETFL, 0)
		if err != nil {
			return fmt.Errorf("fcntl F_GETFL on %s channel failed: %w", ch, err)
		}

		if nonblock {
			flags |= unix.O_NONBLOCK
		} else {
			flags &^= unix.O_NONBLOCK
		}

		if _, err := p.sys.Fcntl(fd, unix.F_SETFL, flags); err != nil {
			return fmt.Errorf("fcntl F_SETFL on %s channel failed: %w", ch, err)
		}
	}

	if nonblock {
		p.mode |= SND_PCM_OPEN_NONBLOCK
	} else {
		p.mode &^= SND_PCM_OPEN_NONBLOCK
	}

	return nil
}

// Info returns information about the PCM device, queried through whichever channel is open.
func (p *PCM) Info() (Info, error) {
	if p == nil {
		return Info{}, errInvalid("PCM handle is nil")
	}

	for _, ch := range channels {
		fd := p.chans[ch].fd
		if fd < 0 {
			continue
		}

		req := &infoRequest{}
		if _, err := submit(p.sys, fd, req); err != nil {
			return Info{}, err
		}

		return req.info.toInfo(), nil
	}

	return Info{}, errInvalid("no channel is open")
}

// ChannelInfo returns the capabilities of channel ch.
func (p *PCM) ChannelInfo(ch Channel) (ChannelInfo, error) {
	c, err := p.channel(ch)
	if err != nil {
		return ChannelInfo{}, err
	}

	req := &channelInfoRequest{}
	req.info.Channel = int32(ch)
	if _, err := submit(p.sys, c.fd, req); err != nil {
		return ChannelInfo{}, err
	}

	return req.info.toChannelInfo(), nil
}
