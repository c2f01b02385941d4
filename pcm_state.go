package sndpcm

import (
	"fmt"
	"syscall"
)

// transition issues a parameterless state transition on ch.
// A channel outside the two legal directions is an I/O error, not an argument error.
func (p *PCM) transition(ch Channel, req request) error {
	if p != nil && !ch.valid() {
		return fmt.Errorf("%s on invalid channel %d: %w", req.name(), ch, syscall.EIO)
	}

	c, err := p.channel(ch)
	if err != nil {
		return err
	}

	_, err = submit(p.sys, c.fd, req)

	return err
}

// Prepare prepares channel ch for a transfer.
func (p *PCM) Prepare(ch Channel) error {
	return p.transition(ch, prepareRequest{})
}

// Go starts the transfer on channel ch.
func (p *PCM) Go(ch Channel) error {
	return p.transition(ch, goRequest{})
}

// Flush stops channel ch and discards any data still queued.
func (p *PCM) Flush(ch Channel) error {
	return p.transition(ch, flushRequest{})
}

// Drain stops the playback channel after the queued data was played.
func (p *PCM) Drain() error {
	return p.transition(SND_PCM_CHANNEL_PLAYBACK, drainRequest{})
}

// Pause pauses or resumes the playback channel.
func (p *PCM) Pause(enable bool) error {
	req := &pauseRequest{}
	if enable {
		req.enable = 1
	}

	return p.transition(SND_PCM_CHANNEL_PLAYBACK, req)
}

// SyncGo starts every channel that shares the group id in one step.
// It is issued through the playback channel, which must be open.
func (p *PCM) SyncGo(id SyncID) error {
	c, err := p.channel(SND_PCM_CHANNEL_PLAYBACK)
	if err != nil {
		return err
	}

	_, err = submit(p.sys, c.fd, &syncGoRequest{sync: sndPcmSync{Id: id}})

	return err
}
