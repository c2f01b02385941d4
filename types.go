package sndpcm

import (
	"bytes"
	"time"

	"golang.org/x/sys/unix"
)

// sndPcmSync is the opaque group identifier used for a synchronized start.
type sndPcmSync struct {
	Id [16]byte
}

// sndPcmInfo contains general information about a PCM device.
type sndPcmInfo struct {
	Type     uint32
	Flags    uint32
	Id       [64]byte
	Name     [80]byte
	Playback int32 // Number of playback subdevices minus one.
	Capture  int32 // Number of capture subdevices minus one.
	Reserved [64]byte
}

// sndPcmChannelInfo contains information about one channel of a PCM device.
type sndPcmChannelInfo struct {
	Subdevice         int32
	Subname           [36]byte
	Channel           int32
	Mode              int32 // Supported transfer modes, one bit per TransferMode.
	Sync              sndPcmSync
	Flags             uint32
	Formats           uint32
	Rates             uint32
	MinRate           int32
	MaxRate           int32
	MinVoices         int32
	MaxVoices         int32
	BufferSize        int32
	MinFragmentSize   int32
	MaxFragmentSize   int32
	FragmentAlign     int32
	FifoSize          int32
	TransferBlockSize int32
	MmapSize          int32
	MixerDevice       int32
	Reserved          [64]byte
}

// sndPcmFormat describes the sample layout of a channel.
type sndPcmFormat struct {
	Interleave uint32 // Only bit 0 is used.
	Format     int32
	Rate       int32
	Voices     int32
	Special    int32
	Reserved   [124]byte
}

// sndPcmChannelParams is the request submitted to change the geometry of a channel.
type sndPcmChannelParams struct {
	Channel   int32
	Mode      int32
	Sync      sndPcmSync
	Format    sndPcmFormat
	StartMode int32
	StopMode  int32
	Flags     uint32 // Bit 0: time, bit 1: ust_time.
	// Represents a C union.
	// Stream mode: queue_size, fill, max_fill. Block mode: frag_size, frags_min, frags_max.
	Buf      [4]int32
	Reserved [64]byte
}

// sndPcmChannelSetup is the geometry the driver finally negotiated for a channel.
type sndPcmChannelSetup struct {
	Channel int32
	Mode    int32
	Format  sndPcmFormat
	// Represents a C union.
	// Stream mode: queue_size. Block mode: frag_size, frags, frags_min, frags_max.
	Buf         [4]int32
	Msbits      int32
	MixerDevice int32
	Reserved    [64]byte
}

// sndPcmVoiceSetup describes one voice of a channel.
type sndPcmVoiceSetup struct {
	Voice       int32
	Channel     int32
	MixerDevice int32
	Reserved    [64]byte
}

// sndPcmChannelStatus contains the runtime status of a channel.
type sndPcmChannelStatus struct {
	Channel   int32
	Mode      int32
	Status    int32
	Scount    uint32
	Stime     unix.Timeval
	UstStime  uint64
	Frag      int32
	Count     int32
	Free      int32
	Underrun  int32
	Overrun   int32
	Overrange int32
	Reserved  [64]byte
}

// sndPcmMmapStatus is the driver-maintained head of the control region.
type sndPcmMmapStatus struct {
	Status   int32
	FragIO   int32 // Fragment currently being transferred by the hardware.
	Block    uint32
	ExpBlock uint32
	Voices   int32
	FragSize int32
	Frags    int32
	Reserved [124]byte
}

// sndPcmMmapFragment describes one fragment of the data region.
type sndPcmMmapFragment struct {
	Number   uint16
	Voice    int16
	Addr     uint32
	Flags    uint32 // Bit 0: data, bit 1: io.
	Reserved [4]byte
}

// sndPcmMmapControl is the layout of the control region.
type sndPcmMmapControl struct {
	Status    sndPcmMmapStatus
	Fragments [128]sndPcmMmapFragment
}

// sndVArgs is the argument of the vectored transfer IOCTLs.
type sndVArgs struct {
	Vector uintptr // *unix.Iovec
	Count  culong
}

// SyncID identifies a group of channels that are started together.
type SyncID [16]byte

// Info describes a PCM device.
type Info struct {
	Type     uint32
	Flags    uint32
	ID       string
	Name     string
	Playback int // Number of playback subdevices.
	Capture  int // Number of capture subdevices.
}

// ChannelInfo describes the capabilities of one channel of a PCM device.
type ChannelInfo struct {
	Channel           Channel
	Subdevice         int
	Subname           string
	Modes             uint32 // Bitmask of supported TransferMode values.
	Sync              SyncID
	Flags             uint32
	Formats           uint32 // Bitmask of supported SampleFormat values.
	Rates             uint32
	MinRate           int
	MaxRate           int
	MinVoices         int
	MaxVoices         int
	BufferSize        int
	MinFragmentSize   int
	MaxFragmentSize   int
	FragmentAlign     int
	FifoSize          int
	TransferBlockSize int
	MmapSize          int // Size in bytes of the data region exposed through Mmap.
	MixerDevice       int
}

// SupportsMode reports whether the channel can be set up in transfer mode m.
func (ci ChannelInfo) SupportsMode(m TransferMode) bool {
	return m > 0 && m < 32 && ci.Modes&(1<<uint(m)) != 0
}

// SupportsFormat reports whether the channel accepts sample format f.
func (ci ChannelInfo) SupportsFormat(f SampleFormat) bool {
	return f >= 0 && f < 32 && ci.Formats&(1<<uint(f)) != 0
}

// Format is the sample layout of a channel.
type Format struct {
	Interleave bool
	Format     SampleFormat
	Rate       int
	Voices     int
	Special    int
}

// FrameSize returns the size in bytes of one frame, or 0 for compressed formats.
func (f Format) FrameSize() int {
	return int(SampleFormatToBits(f.Format)/8) * f.Voices
}

// StreamParams are the stream mode geometry requested in Params.
type StreamParams struct {
	QueueSize int
	Fill      int
	MaxFill   int
}

// BlockParams are the block mode geometry requested in Params.
type BlockParams struct {
	FragSize int
	FragsMin int
	FragsMax int
}

// Params is a request to change the geometry of a channel.
// Only the geometry selected by Mode is submitted.
type Params struct {
	Channel   Channel
	Mode      TransferMode
	Sync      SyncID
	Format    Format
	StartMode StartMode
	StopMode  StopMode
	Time      bool
	UstTime   bool
	Stream    StreamParams
	Block     BlockParams
}

// StreamSetup is the negotiated stream mode geometry.
type StreamSetup struct {
	QueueSize int
}

// BlockSetup is the negotiated block mode geometry.
type BlockSetup struct {
	FragSize int
	Frags    int
	FragsMin int
	FragsMax int
}

// Setup is the geometry negotiated for a channel.
// Only the geometry selected by Mode is meaningful.
type Setup struct {
	Channel     Channel
	Mode        TransferMode
	Format      Format
	Stream      StreamSetup
	Block       BlockSetup
	Msbits      int
	MixerDevice int
}

// VoiceSetup describes one voice of a channel.
type VoiceSetup struct {
	Voice       int
	MixerDevice int
}

// Status is the runtime status of a channel.
type Status struct {
	Channel   Channel
	Mode      TransferMode
	State     ChannelState
	Scount    uint32 // Number of bytes transferred since the last prepare.
	Stime     time.Time
	UstStime  uint64
	Frag      int // Current fragment.
	Count     int // Bytes queued (playback) or available (capture).
	Free      int // Bytes free in the queue.
	Underrun  int
	Overrun   int
	Overrange int
}

func (i *sndPcmInfo) toInfo() Info {
	return Info{
		Type:     i.Type,
		Flags:    i.Flags,
		ID:       cString(i.Id[:]),
		Name:     cString(i.Name[:]),
		Playback: int(i.Playback) + 1,
		Capture:  int(i.Capture) + 1,
	}
}

func (i *sndPcmChannelInfo) toChannelInfo() ChannelInfo {
	return ChannelInfo{
		Channel:           Channel(i.Channel),
		Subdevice:         int(i.Subdevice),
		Subname:           cString(i.Subname[:]),
		Modes:             uint32(i.Mode),
		Sync:              SyncID(i.Sync.Id),
		Flags:             i.Flags,
		Formats:           i.Formats,
		Rates:             i.Rates,
		MinRate:           int(i.MinRate),
		MaxRate:           int(i.MaxRate),
		MinVoices:         int(i.MinVoices),
		MaxVoices:         int(i.MaxVoices),
		BufferSize:        int(i.BufferSize),
		MinFragmentSize:   int(i.MinFragmentSize),
		MaxFragmentSize:   int(i.MaxFragmentSize),
		FragmentAlign:     int(i.FragmentAlign),
		FifoSize:          int(i.FifoSize),
		TransferBlockSize: int(i.TransferBlockSize),
		MmapSize:          int(i.MmapSize),
		MixerDevice:       int(i.MixerDevice),
	}
}

func (f Format) toWire() sndPcmFormat {
	w := sndPcmFormat{
		Format:  int32(f.Format),
		Rate:    int32(f.Rate),
		Voices:  int32(f.Voices),
		Special: int32(f.Special),
	}
	if f.Interleave {
		w.Interleave = 1
	}

	return w
}

func (w *sndPcmFormat) toFormat() Format {
	return Format{
		Interleave: w.Interleave&1 != 0,
		Format:     SampleFormat(w.Format),
		Rate:       int(w.Rate),
		Voices:     int(w.Voices),
		Special:    int(w.Special),
	}
}

func (p *Params) toWire() sndPcmChannelParams {
	w := sndPcmChannelParams{
		Channel:   int32(p.Channel),
		Mode:      int32(p.Mode),
		Sync:      sndPcmSync{Id: p.Sync},
		Format:    p.Format.toWire(),
		StartMode: int32(p.StartMode),
		StopMode:  int32(p.StopMode),
	}
	if p.Time {
		w.Flags |= 1 << 0
	}
	if p.UstTime {
		w.Flags |= 1 << 1
	}

	switch p.Mode {
	case SND_PCM_MODE_STREAM:
		w.Buf = [4]int32{int32(p.Stream.QueueSize), int32(p.Stream.Fill), int32(p.Stream.MaxFill)}
	case SND_PCM_MODE_BLOCK:
		w.Buf = [4]int32{int32(p.Block.FragSize), int32(p.Block.FragsMin), int32(p.Block.FragsMax)}
	}

	return w
}

func (s *sndPcmChannelSetup) toSetup() Setup {
	setup := Setup{
		Channel:     Channel(s.Channel),
		Mode:        TransferMode(s.Mode),
		Format:      s.Format.toFormat(),
		Msbits:      int(s.Msbits),
		MixerDevice: int(s.MixerDevice),
	}

	switch setup.Mode {
	case SND_PCM_MODE_STREAM:
		setup.Stream.QueueSize = int(s.Buf[0])
	case SND_PCM_MODE_BLOCK:
		setup.Block = BlockSetup{
			FragSize: int(s.Buf[0]),
			Frags:    int(s.Buf[1]),
			FragsMin: int(s.Buf[2]),
			FragsMax: int(s.Buf[3]),
		}
	}

	return setup
}

// fragSize returns the block mode fragment size from the union.
func (s *sndPcmChannelSetup) fragSize() int {
	return int(s.Buf[0])
}

func (v *sndPcmVoiceSetup) toVoiceSetup() VoiceSetup {
	return VoiceSetup{
		Voice:       int(v.Voice),
		MixerDevice: int(v.MixerDevice),
	}
}

func (s *sndPcmChannelStatus) toStatus() Status {
	return Status{
		Channel:   Channel(s.Channel),
		Mode:      TransferMode(s.Mode),
		State:     ChannelState(s.Status),
		Scount:    s.Scount,
		Stime:     time.Unix(int64(s.Stime.Sec), int64(s.Stime.Usec)*int64(time.Microsecond)),
		UstStime:  s.UstStime,
		Frag:      int(s.Frag),
		Count:     int(s.Count),
		Free:      int(s.Free),
		Underrun:  int(s.Underrun),
		Overrun:   int(s.Overrun),
		Overrange: int(s.Overrange),
	}
}

// cString converts a C-style null-terminated byte array to a Go string.
func cString(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		return string(b)
	}

	return string(b[:i])
}
