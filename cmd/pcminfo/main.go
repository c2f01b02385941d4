package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/sndpcm"
)

func main() {
	var (
		card   int
		device int
		stream string
		list   bool
	)

	flag.IntVar(&card, "card", 0, "The sound card number.")
	flag.IntVar(&device, "device", 0, "The device number.")
	flag.StringVar(&stream, "stream", "playback", "The stream direction ('playback', 'capture' or 'duplex').")
	flag.BoolVar(&list, "list", false, "List the sound cards and their PCM devices.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Displays information about a PCM device.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if list {
		cards, err := sndpcm.EnumerateCards()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error enumerating sound cards: %v\n", err)
			os.Exit(1)
		}

		for _, c := range cards {
			fmt.Print(c)
		}

		return
	}

	var mode sndpcm.OpenMode
	switch strings.ToLower(stream) {
	case "playback":
		mode = sndpcm.SND_PCM_OPEN_PLAYBACK
	case "capture":
		mode = sndpcm.SND_PCM_OPEN_CAPTURE
	case "duplex":
		mode = sndpcm.SND_PCM_OPEN_DUPLEX
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid stream direction '%s'. Must be 'playback', 'capture' or 'duplex'.\n", stream)
		os.Exit(1)
	}

	pcm, err := sndpcm.Open(card, device, mode|sndpcm.SND_PCM_OPEN_NONBLOCK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PCM device: %v (code %d)\n", err, sndpcm.ErrorCode(err))
		os.Exit(1)
	}
	defer pcm.Close()

	v := pcm.Version()
	fmt.Printf("PCM card %d, device %d (protocol %d.%d.%d):\n", card, device,
		sndpcm.ProtocolMajor(v), sndpcm.ProtocolMinor(v), sndpcm.ProtocolSubminor(v))

	info, err := pcm.Info()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting PCM info: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  ID: %s\n  Name: %s\n  Subdevices: %d playback, %d capture\n", info.ID, info.Name, info.Playback, info.Capture)

	for _, ch := range []sndpcm.Channel{sndpcm.SND_PCM_CHANNEL_PLAYBACK, sndpcm.SND_PCM_CHANNEL_CAPTURE} {
		if _, err := pcm.Fd(ch); err != nil {
			continue
		}

		ci, err := pcm.ChannelInfo(ch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting %s channel info: %v\n", ch, err)
			continue
		}

		fmt.Print(formatChannelInfo(ci))

		if status, err := pcm.Status(ch); err == nil {
			fmt.Printf("    State: %s\n", status.State)
		}
	}
}

// formatChannelInfo renders the capabilities of one channel.
func formatChannelInfo(ci sndpcm.ChannelInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "  %s channel, subdevice %d (%s):\n", ci.Channel, ci.Subdevice, ci.Subname)

	var modes []string
	for _, m := range []sndpcm.TransferMode{sndpcm.SND_PCM_MODE_STREAM, sndpcm.SND_PCM_MODE_BLOCK} {
		if ci.SupportsMode(m) {
			modes = append(modes, m.String())
		}
	}
	fmt.Fprintf(&sb, "    Modes: %s\n", strings.Join(modes, ", "))

	var formats []string
	for f := sndpcm.SampleFormat(0); f <= sndpcm.SND_PCM_SFMT_SPECIAL; f++ {
		if name, ok := sndpcm.SampleFormatNames[f]; ok && ci.SupportsFormat(f) {
			formats = append(formats, name)
		}
	}
	fmt.Fprintf(&sb, "    Formats: %s\n", strings.Join(formats, " "))

	fmt.Fprintf(&sb, "    Rate: %d - %d Hz\n", ci.MinRate, ci.MaxRate)
	fmt.Fprintf(&sb, "    Voices: %d - %d\n", ci.MinVoices, ci.MaxVoices)
	fmt.Fprintf(&sb, "    Buffer size: %d bytes\n", ci.BufferSize)
	fmt.Fprintf(&sb, "    Fragment size: %d - %d bytes (align %d)\n", ci.MinFragmentSize, ci.MaxFragmentSize, ci.FragmentAlign)
	fmt.Fprintf(&sb, "    FIFO size: %d bytes\n", ci.FifoSize)
	fmt.Fprintf(&sb, "    Mmap size: %d bytes\n", ci.MmapSize)

	return sb.String()
}
