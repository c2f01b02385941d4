// Package sndpcm provides a Go interface to the ALSA PCM channel interface, where a single handle owns
// both the playback and the capture channel of a sound card device.
//
// A PCM handle is not safe for concurrent use. Calls on the two channels may be interleaved freely
// by one goroutine, but concurrent calls on the same handle must be serialized by the caller.
package sndpcm

// Channel identifies one direction of a PCM device.
type Channel int32

const (
	SND_PCM_CHANNEL_PLAYBACK Channel = 0
	SND_PCM_CHANNEL_CAPTURE  Channel = 1
)

// channels lists both directions in teardown order.
var channels = [...]Channel{SND_PCM_CHANNEL_PLAYBACK, SND_PCM_CHANNEL_CAPTURE}

// valid reports whether c is one of the two legal directions.
func (c Channel) valid() bool {
	return c == SND_PCM_CHANNEL_PLAYBACK || c == SND_PCM_CHANNEL_CAPTURE
}

// String returns the lowercase name of the channel.
func (c Channel) String() string {
	switch c {
	case SND_PCM_CHANNEL_PLAYBACK:
		return "playback"
	case SND_PCM_CHANNEL_CAPTURE:
		return "capture"
	default:
		return "invalid"
	}
}

// OpenMode selects which channels to open and whether I/O blocks.
type OpenMode uint32

const (
	// SND_PCM_OPEN_PLAYBACK opens the playback channel.
	SND_PCM_OPEN_PLAYBACK OpenMode = 0x0001
	// SND_PCM_OPEN_CAPTURE opens the capture channel.
	SND_PCM_OPEN_CAPTURE OpenMode = 0x0002
	// SND_PCM_OPEN_DUPLEX opens both channels.
	SND_PCM_OPEN_DUPLEX = SND_PCM_OPEN_PLAYBACK | SND_PCM_OPEN_CAPTURE
	// SND_PCM_OPEN_NONBLOCK opens the channel descriptors in non-blocking mode.
	SND_PCM_OPEN_NONBLOCK OpenMode = 0x1000
)

// openFlag returns the open mode bit that requests channel c.
func openFlag(c Channel) OpenMode {
	if c == SND_PCM_CHANNEL_CAPTURE {
		return SND_PCM_OPEN_CAPTURE
	}

	return SND_PCM_OPEN_PLAYBACK
}

// TransferMode is the transfer category negotiated for a channel.
type TransferMode int32

const (
	SND_PCM_MODE_UNKNOWN TransferMode = 0
	// SND_PCM_MODE_STREAM transfers an arbitrary byte stream through a queue.
	SND_PCM_MODE_STREAM TransferMode = 1
	// SND_PCM_MODE_BLOCK transfers whole fragments.
	SND_PCM_MODE_BLOCK TransferMode = 2
)

// String returns the name of the transfer mode.
func (m TransferMode) String() string {
	switch m {
	case SND_PCM_MODE_STREAM:
		return "stream"
	case SND_PCM_MODE_BLOCK:
		return "block"
	default:
		return "unknown"
	}
}

// ChannelState is the hardware state of a channel as reported by the driver.
// The library never tracks it locally.
type ChannelState int32

const (
	SND_PCM_STATUS_NOTREADY ChannelState = 0
	SND_PCM_STATUS_READY    ChannelState = 1
	SND_PCM_STATUS_PREPARED ChannelState = 2
	SND_PCM_STATUS_RUNNING  ChannelState = 3
	SND_PCM_STATUS_UNDERRUN ChannelState = 4
	SND_PCM_STATUS_OVERRUN  ChannelState = 5
	SND_PCM_STATUS_PAUSED   ChannelState = 10
	SND_PCM_STATUS_ERROR    ChannelState = 10000
)

var channelStateNames = map[ChannelState]string{
	SND_PCM_STATUS_NOTREADY: "NOTREADY",
	SND_PCM_STATUS_READY:    "READY",
	SND_PCM_STATUS_PREPARED: "PREPARED",
	SND_PCM_STATUS_RUNNING:  "RUNNING",
	SND_PCM_STATUS_UNDERRUN: "UNDERRUN",
	SND_PCM_STATUS_OVERRUN:  "OVERRUN",
	SND_PCM_STATUS_PAUSED:   "PAUSED",
	SND_PCM_STATUS_ERROR:    "ERROR",
}

// String returns the name of the state.
func (s ChannelState) String() string {
	if name, ok := channelStateNames[s]; ok {
		return name
	}

	return "UNKNOWN"
}

// StartMode controls when a prepared channel starts running.
type StartMode int32

const (
	SND_PCM_START_DATA StartMode = 0 // Start when some data is written or requested.
	SND_PCM_START_FULL StartMode = 1 // Start when the whole queue is filled.
	SND_PCM_START_GO   StartMode = 2 // Start only on an explicit Go.
)

// StopMode controls what the driver does on an underrun or overrun.
type StopMode int32

const (
	SND_PCM_STOP_STOP     StopMode = 1 // Stop the channel.
	SND_PCM_STOP_ROLLOVER StopMode = 2 // Keep running and roll over.
)

// SampleFormat is the sample format of a channel.
type SampleFormat int32

const (
	SND_PCM_SFMT_U8         SampleFormat = 0
	SND_PCM_SFMT_S8         SampleFormat = 1
	SND_PCM_SFMT_U16_LE     SampleFormat = 2
	SND_PCM_SFMT_U16_BE     SampleFormat = 3
	SND_PCM_SFMT_S16_LE     SampleFormat = 4
	SND_PCM_SFMT_S16_BE     SampleFormat = 5
	SND_PCM_SFMT_U24_LE     SampleFormat = 6
	SND_PCM_SFMT_U24_BE     SampleFormat = 7
	SND_PCM_SFMT_S24_LE     SampleFormat = 8
	SND_PCM_SFMT_S24_BE     SampleFormat = 9
	SND_PCM_SFMT_U32_LE     SampleFormat = 10
	SND_PCM_SFMT_U32_BE     SampleFormat = 11
	SND_PCM_SFMT_S32_LE     SampleFormat = 12
	SND_PCM_SFMT_S32_BE     SampleFormat = 13
	SND_PCM_SFMT_FLOAT_LE   SampleFormat = 14
	SND_PCM_SFMT_FLOAT_BE   SampleFormat = 15
	SND_PCM_SFMT_FLOAT64_LE SampleFormat = 16
	SND_PCM_SFMT_FLOAT64_BE SampleFormat = 17
	SND_PCM_SFMT_MU_LAW     SampleFormat = 20
	SND_PCM_SFMT_A_LAW      SampleFormat = 21
	SND_PCM_SFMT_IMA_ADPCM  SampleFormat = 22
	SND_PCM_SFMT_MPEG       SampleFormat = 23
	SND_PCM_SFMT_GSM        SampleFormat = 24
	SND_PCM_SFMT_SPECIAL    SampleFormat = 31
)

// SampleFormatNames provides human-readable names for sample formats.
var SampleFormatNames = map[SampleFormat]string{
	SND_PCM_SFMT_U8:         "U8",
	SND_PCM_SFMT_S8:         "S8",
	SND_PCM_SFMT_U16_LE:     "U16_LE",
	SND_PCM_SFMT_U16_BE:     "U16_BE",
	SND_PCM_SFMT_S16_LE:     "S16_LE",
	SND_PCM_SFMT_S16_BE:     "S16_BE",
	SND_PCM_SFMT_U24_LE:     "U24_LE",
	SND_PCM_SFMT_U24_BE:     "U24_BE",
	SND_PCM_SFMT_S24_LE:     "S24_LE",
	SND_PCM_SFMT_S24_BE:     "S24_BE",
	SND_PCM_SFMT_U32_LE:     "U32_LE",
	SND_PCM_SFMT_U32_BE:     "U32_BE",
	SND_PCM_SFMT_S32_LE:     "S32_LE",
	SND_PCM_SFMT_S32_BE:     "S32_BE",
	SND_PCM_SFMT_FLOAT_LE:   "FLOAT_LE",
	SND_PCM_SFMT_FLOAT_BE:   "FLOAT_BE",
	SND_PCM_SFMT_FLOAT64_LE: "FLOAT64_LE",
	SND_PCM_SFMT_FLOAT64_BE: "FLOAT64_BE",
	SND_PCM_SFMT_MU_LAW:     "MU_LAW",
	SND_PCM_SFMT_A_LAW:      "A_LAW",
	SND_PCM_SFMT_IMA_ADPCM:  "IMA_ADPCM",
	SND_PCM_SFMT_MPEG:       "MPEG",
	SND_PCM_SFMT_GSM:        "GSM",
	SND_PCM_SFMT_SPECIAL:    "SPECIAL",
}

// SampleFormatToBits returns the number of bits one sample occupies in memory.
// 24-bit formats are stored in 32-bit containers and return 32. Compressed formats return 0.
func SampleFormatToBits(f SampleFormat) uint32 {
	switch f {
	case SND_PCM_SFMT_FLOAT64_LE, SND_PCM_SFMT_FLOAT64_BE:
		return 64
	case SND_PCM_SFMT_U24_LE, SND_PCM_SFMT_U24_BE, SND_PCM_SFMT_S24_LE, SND_PCM_SFMT_S24_BE,
		SND_PCM_SFMT_U32_LE, SND_PCM_SFMT_U32_BE, SND_PCM_SFMT_S32_LE, SND_PCM_SFMT_S32_BE,
		SND_PCM_SFMT_FLOAT_LE, SND_PCM_SFMT_FLOAT_BE:
		return 32
	case SND_PCM_SFMT_U16_LE, SND_PCM_SFMT_U16_BE, SND_PCM_SFMT_S16_LE, SND_PCM_SFMT_S16_BE:
		return 16
	case SND_PCM_SFMT_U8, SND_PCM_SFMT_S8, SND_PCM_SFMT_MU_LAW, SND_PCM_SFMT_A_LAW:
		return 8
	default:
		return 0
	}
}

// Protocol versions are packed as major<<16 | minor<<8 | subminor.

// ProtocolVersion packs a protocol version number.
func ProtocolVersion(major, minor, subminor int32) int32 {
	return major<<16 | minor<<8 | subminor
}

// ProtocolMajor returns the major part of a packed protocol version.
func ProtocolMajor(v int32) int32 { return (v >> 16) & 0xffff }

// ProtocolMinor returns the minor part of a packed protocol version.
func ProtocolMinor(v int32) int32 { return (v >> 8) & 0xff }

// ProtocolSubminor returns the subminor part of a packed protocol version.
func ProtocolSubminor(v int32) int32 { return v & 0xff }

// ProtocolIncompatible reports whether a driver speaking device cannot serve a library built for library.
// Major and minor must match; the subminor may differ.
func ProtocolIncompatible(device, library int32) bool {
	return ProtocolMajor(device) != ProtocolMajor(library) || ProtocolMinor(device) != ProtocolMinor(library)
}

const (
	// SND_CARDS is the maximum number of sound cards.
	SND_CARDS = 8

	// maxOpenAttempts bounds how many times a channel device is reopened while
	// waiting for the driver to grant the requested subdevice.
	maxOpenAttempts = 4
)

// SND_PCM_VERSION_MAX is the newest PCM protocol this library speaks (1.1.0).
const SND_PCM_VERSION_MAX int32 = 1<<16 | 1<<8

// Device node templates, parameterized by card and device.
const (
	SND_FILE_CONTROL      = "/dev/snd/controlC%d"
	SND_FILE_PCM_PLAYBACK = "/dev/snd/pcmC%dD%dp"
	SND_FILE_PCM_CAPTURE  = "/dev/snd/pcmC%dD%dc"
)

// Offsets passed to mmap that select the shared region of a channel.
const (
	SND_PCM_MMAP_OFFSET_CONTROL = 0x00000000
	SND_PCM_MMAP_OFFSET_DATA    = 0x80000000
)
