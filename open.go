package sndpcm

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// OpenSubdevice opens the channels of a PCM device selected by mode. When subdevice is not
// negative, each channel is reopened until the driver grants that subdevice.
// Either every requested channel is opened or none is left open.
func OpenSubdevice(card, device, subdevice int, mode OpenMode, opts ...Option) (*PCM, error) {
	if card < 0 || card >= SND_CARDS {
		return nil, errInvalid("card %d out of range [0, %d)", card, SND_CARDS)
	}

	if mode&SND_PCM_OPEN_DUPLEX == 0 {
		return nil, errInvalid("open mode %#x requests neither playback nor capture", uint32(mode))
	}

	o := newOptions(opts)

	ctl, err := o.openControl(o.sys, card)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ctl.Close(); err != nil {
			o.logger.Warn("sndpcm: failed to close control session", "card", card, "error", err)
		}
	}()

	fmode := unix.O_RDWR
	if mode&SND_PCM_OPEN_NONBLOCK != 0 {
		fmode |= unix.O_NONBLOCK
	}

	pcm := &PCM{
		sys:    o.sys,
		log:    o.logger,
		card:   card,
		device: device,
		mode:   mode,
	}
	for i := range pcm.chans {
		pcm.chans[i].fd = -1
	}

	var steps []step
	for _, ch := range channels {
		if mode&openFlag(ch) == 0 {
			continue
		}

		steps = append(steps, step{
			do: func() error {
				fd, version, err := openChannel(o.sys, ctl, card, device, ch, subdevice, fmode)
				if err != nil {
					return err
				}

				pcm.chans[ch].fd = fd
				pcm.version = version

				return nil
			},
			undo: func() {
				if err := pcm.closeChannel(ch); err != nil {
					o.logger.Warn("sndpcm: rollback close failed", "channel", ch.String(), "error", err)
				}
			},
		})
	}

	if err := acquire(steps...); err != nil {
		return nil, err
	}

	return pcm, nil
}

// openChannel opens the device node of one channel and returns its descriptor and protocol version.
func openChannel(sys system, ctl Control, card, device int, ch Channel, subdevice, fmode int) (int, int32, error) {
	var format string
	switch ch {
	case SND_PCM_CHANNEL_PLAYBACK:
		format = SND_FILE_PCM_PLAYBACK
	case SND_PCM_CHANNEL_CAPTURE:
		format = SND_FILE_PCM_CAPTURE
	default:
		return -1, 0, errInvalid("invalid channel %d", ch)
	}

	if err := ctl.PreferSubdevice(device, ch, subdevice); err != nil {
		return -1, 0, fmt.Errorf("failed to prefer subdevice %d for %s: %w", subdevice, ch, err)
	}

	path := fmt.Sprintf(format, card, device)

	for attempt := 0; attempt < maxOpenAttempts; attempt++ {
		fd, version, err := tryOpenChannel(sys, path, ch, subdevice, fmode)
		if err != nil {
			return -1, 0, err
		}

		if fd >= 0 {
			return fd, version, nil
		}
	}

	return -1, 0, fmt.Errorf("subdevice %d of %s not granted after %d attempts: %w",
		subdevice, path, maxOpenAttempts, syscall.EBUSY)
}

// tryOpenChannel makes one attempt at opening path. It returns fd -1 without an error
// when the driver granted a different subdevice than requested.
func tryOpenChannel(sys system, path string, ch Channel, subdevice, fmode int) (int, int32, error) {
	fd, err := sys.Open(path, fmode)
	if err != nil {
		return -1, 0, fmt.Errorf("failed to open PCM device %s: %w", path, err)
	}

	ver := &versionRequest{}
	if _, err := submit(sys, fd, ver); err != nil {
		_ = sys.Close(fd)

		return -1, 0, err
	}

	if ProtocolIncompatible(ver.version, SND_PCM_VERSION_MAX) {
		_ = sys.Close(fd)

		return -1, 0, &VersionError{Path: path, Device: ver.version, Library: SND_PCM_VERSION_MAX}
	}

	if subdevice < 0 {
		return fd, ver.version, nil
	}

	info := &channelInfoRequest{}
	info.info.Channel = int32(ch)
	if _, err := submit(sys, fd, info); err != nil {
		_ = sys.Close(fd)

		return -1, 0, err
	}

	if int(info.info.Subdevice) != subdevice {
		_ = sys.Close(fd)

		return -1, 0, nil
	}

	return fd, ver.version, nil
}
