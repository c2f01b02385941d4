package sndpcm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetParams submits params to the channel named by params.Channel.
// On success the cached setup of that channel is replaced by a fresh one. A failure to
// refresh it does not fail the call; the cache then stays empty until Setup is called.
func (p *PCM) SetParams(params *Params) error {
	if params == nil {
		return errInvalid("params is nil")
	}

	c, err := p.channel(params.Channel)
	if err != nil {
		return err
	}

	req := &paramsRequest{params: params.toWire()}
	if _, err := submit(p.sys, c.fd, req); err != nil {
		return err
	}

	c.setupValid = false

	if _, err := p.Setup(params.Channel); err != nil {
		p.log.Debug("sndpcm: setup refresh after params failed", "channel", params.Channel.String(), "error", err)
	}

	return nil
}

// Setup returns the geometry negotiated for channel ch.
// The result is cached until the next SetParams on that channel.
func (p *PCM) Setup(ch Channel) (Setup, error) {
	c, err := p.channel(ch)
	if err != nil {
		return Setup{}, err
	}

	if c.setupValid {
		return c.setup.toSetup(), nil
	}

	req := &setupRequest{}
	req.setup.Channel = int32(ch)
	if _, err := submit(p.sys, c.fd, req); err != nil {
		return Setup{}, err
	}

	c.setup = req.setup
	c.setupValid = true

	return c.setup.toSetup(), nil
}

// VoiceSetup returns the setup of one voice of channel ch. It is never cached.
func (p *PCM) VoiceSetup(ch Channel, voice int) (VoiceSetup, error) {
	c, err := p.channel(ch)
	if err != nil {
		return VoiceSetup{}, err
	}

	req := &voiceSetupRequest{}
	req.setup.Channel = int32(ch)
	req.setup.Voice = int32(voice)
	if _, err := submit(p.sys, c.fd, req); err != nil {
		return VoiceSetup{}, err
	}

	return req.setup.toVoiceSetup(), nil
}

// Status returns the runtime status of channel ch. It is never cached.
func (p *PCM) Status(ch Channel) (Status, error) {
	c, err := p.channel(ch)
	if err != nil {
		return Status{}, err
	}

	req := &statusRequest{}
	req.status.Channel = int32(ch)
	if _, err := submit(p.sys, c.fd, req); err != nil {
		return Status{}, err
	}

	return req.status.toStatus(), nil
}

// TransferSize returns the fragment size of a block mode channel from its cached setup.
// It never queries the driver: without a cached block mode setup it fails with EBADFD,
// which includes a channel that is not open.
func (p *PCM) TransferSize(ch Channel) (int, error) {
	if p == nil {
		return 0, errInvalid("PCM handle is nil")
	}

	if !ch.valid() {
		return 0, errInvalid("invalid channel %d", ch)
	}

	c := &p.chans[ch]

	if !c.setupValid {
		return 0, fmt.Errorf("%s channel has no cached setup: %w", ch, unix.EBADFD)
	}

	if TransferMode(c.setup.Mode) != SND_PCM_MODE_BLOCK {
		return 0, fmt.Errorf("%s channel is in %s mode: %w", ch, TransferMode(c.setup.Mode), unix.EBADFD)
	}

	return c.setup.fragSize(), nil
}
