package sndpcm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SND_CTL_VERSION_MAX is the newest control protocol this library speaks (2.0.0).
const SND_CTL_VERSION_MAX int32 = 2 << 16

// Control is the short-lived control session of a card used while channels are opened.
type Control interface {
	// PreferSubdevice asks the driver to hand out subdevice on the next open of the given
	// device and channel. A negative subdevice means no preference.
	PreferSubdevice(device int, channel Channel, subdevice int) error
	Close() error
}

// controlOpener opens the control session of a card.
type controlOpener func(sys system, card int) (Control, error)

// ctlDevice is a Control backed by /dev/snd/controlC<card>.
type ctlDevice struct {
	sys system
	fd  int
}

// openControl opens the control device of card and checks its protocol version.
func openControl(sys system, card int) (Control, error) {
	path := fmt.Sprintf(SND_FILE_CONTROL, card)

	fd, err := sys.Open(path, unix.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("failed to open control device %s: %w", path, err)
	}

	req := &ctlVersionRequest{}
	if _, err := submit(sys, fd, req); err != nil {
		_ = sys.Close(fd)

		return nil, err
	}

	if ProtocolIncompatible(req.version, SND_CTL_VERSION_MAX) {
		_ = sys.Close(fd)

		return nil, &VersionError{Path: path, Device: req.version, Library: SND_CTL_VERSION_MAX}
	}

	return &ctlDevice{sys: sys, fd: fd}, nil
}

// PreferSubdevice selects the PCM device and channel on the control session, then records
// the preferred subdevice for the next open of that channel.
func (c *ctlDevice) PreferSubdevice(device int, channel Channel, subdevice int) error {
	if c == nil || c.fd < 0 {
		return errInvalid("control session is not open")
	}

	if _, err := submit(c.sys, c.fd, &ctlPcmDeviceRequest{device: int32(device)}); err != nil {
		return err
	}

	if _, err := submit(c.sys, c.fd, &ctlPcmChannelRequest{channel: int32(channel)}); err != nil {
		return err
	}

	if _, err := submit(c.sys, c.fd, &ctlPreferSubdeviceRequest{subdevice: int32(subdevice)}); err != nil {
		return err
	}

	return nil
}

// Close closes the control device.
func (c *ctlDevice) Close() error {
	if c == nil || c.fd < 0 {
		return nil
	}

	err := c.sys.Close(c.fd)
	c.fd = -1

	return err
}
