package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"syscall"
	"time"

	"github.com/go-audio/audio"

	"github.com/gen2brain/sndpcm"
)

func main() {
	var (
		card      int
		device    int
		subdevice int
		fragSize  int
		frags     int
		formatStr string
		writev    bool
		mmap      bool
		verbose   bool
	)

	flag.IntVar(&card, "card", 0, "The card to receive the audio")
	flag.IntVar(&device, "device", 0, "The device to receive the audio")
	flag.IntVar(&subdevice, "subdevice", -1, "The preferred subdevice (-1 = any)")
	flag.IntVar(&fragSize, "frag-size", 4096, "The size of a fragment in bytes")
	flag.IntVar(&frags, "frags", 4, "The maximum number of fragments")
	flag.StringVar(&formatStr, "format", "", "The sample format (s8, s16, s24, s32, float, float64)")
	flag.BoolVar(&writev, "writev", false, "Write all fragments of a chunk in one vectored transfer")
	flag.BoolVar(&mmap, "mmap", false, "Use memory-mapped (MMAP) I/O")
	flag.BoolVar(&verbose, "verbose", false, "Log library diagnostics to stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <wav-or-mp3-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	path := flag.Arg(0)
	src, closer, err := openSource(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio file: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	format, err := determineFormat(formatStr, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error determining format: %v\n", err)
		os.Exit(1)
	}

	var opts []sndpcm.Option
	if verbose {
		opts = append(opts, sndpcm.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	pcm, err := sndpcm.OpenSubdevice(card, device, subdevice, sndpcm.SND_PCM_OPEN_PLAYBACK, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PCM device: %v (code %d)\n", err, sndpcm.ErrorCode(err))
		os.Exit(1)
	}
	defer pcm.Close()

	startMode := sndpcm.SND_PCM_START_FULL
	if mmap {
		startMode = sndpcm.SND_PCM_START_GO
	}

	params := &sndpcm.Params{
		Channel: sndpcm.SND_PCM_CHANNEL_PLAYBACK,
		Mode:    sndpcm.SND_PCM_MODE_BLOCK,
		Format: sndpcm.Format{
			Interleave: true,
			Format:     format,
			Rate:       src.SampleRate(),
			Voices:     src.NumChans(),
		},
		StartMode: startMode,
		StopMode:  sndpcm.SND_PCM_STOP_STOP,
		Block: sndpcm.BlockParams{
			FragSize: fragSize,
			FragsMin: 1,
			FragsMax: frags,
		},
	}

	if err := pcm.SetParams(params); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting PCM parameters: %v\n", err)
		os.Exit(1)
	}

	setup, err := pcm.Setup(sndpcm.SND_PCM_CHANNEL_PLAYBACK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading PCM setup: %v\n", err)
		os.Exit(1)
	}

	size, err := pcm.TransferSize(sndpcm.SND_PCM_CHANNEL_PLAYBACK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading transfer size: %v\n", err)
		os.Exit(1)
	}

	if err := pcm.Prepare(sndpcm.SND_PCM_CHANNEL_PLAYBACK); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing playback channel: %v\n", err)
		os.Exit(1)
	}

	duration, _ := src.Duration()

	fmt.Printf("Playing audio file: %s (%v)\n", path, duration)
	fmt.Printf("PCM device: hw:%d,%d\n", card, device)
	fmt.Printf("Configuration: %d voices, %d Hz, %s\n", setup.Format.Voices, setup.Format.Rate, sndpcm.SampleFormatNames[setup.Format.Format])
	fmt.Printf("Fragment size: %d, Fragments: %d\n", size, setup.Block.Frags)
	fmt.Printf("Mode: %s\n", map[bool]string{false: "Standard I/O", true: "MMAP"}[mmap])

	frameSize := setup.Format.FrameSize()
	if frameSize == 0 || size < frameSize {
		fmt.Fprintf(os.Stderr, "Unusable geometry: fragment of %d bytes, frame of %d bytes\n", size, frameSize)
		os.Exit(1)
	}

	// One chunk is as many fragments as the driver may queue.
	fragsPerChunk := max(setup.Block.Frags, 1)
	samplesPerFrag := size / frameSize * src.NumChans()

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: src.NumChans(), SampleRate: src.SampleRate()},
		Data:   make([]int, samplesPerFrag),
	}

	var (
		player func([][]byte) (int, error)
		mp     *mmapPlayer
	)
	switch {
	case mmap:
		mp, err = newMmapPlayer(pcm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error mapping playback channel: %v\n", err)
			os.Exit(1)
		}
		player = mp.play
	case writev:
		player = pcm.Writev
	default:
		player = func(chunk [][]byte) (int, error) {
			total := 0
			for _, b := range chunk {
				n, err := pcm.Write(b)
				total += n
				if err != nil {
					return total, err
				}
			}

			return total, nil
		}
	}

	fmt.Println("Starting playback...")
	startTime := time.Now()

	var written int
	for done := false; !done; {
		chunk := make([][]byte, 0, fragsPerChunk)
		for len(chunk) < fragsPerChunk {
			n, err := src.PCMBuffer(buf)
			if err != nil && !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "Error decoding audio: %v\n", err)
				os.Exit(1)
			}

			if n == 0 {
				done = true

				break
			}

			chunk = append(chunk, encodeSamples(buf.Data[:n], format, src.BitDepth()))
		}

		if len(chunk) == 0 {
			break
		}

		n, err := player(chunk)
		written += n
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to PCM device: %v\n", err)
			if errors.Is(err, syscall.EPIPE) {
				fmt.Fprintln(os.Stderr, "Got EPIPE (underrun).")
			}

			break
		}
	}

	// A stream shorter than the ring never wrapped, so it is still waiting for GO.
	if mp != nil {
		if err := mp.start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting playback channel: %v\n", err)
		}
	}

	if err := pcm.Drain(); err != nil {
		fmt.Fprintf(os.Stderr, "Error draining playback channel: %v\n", err)
	}

	if status, err := pcm.Status(sndpcm.SND_PCM_CHANNEL_PLAYBACK); err == nil {
		fmt.Printf("Channel state: %s, underruns: %d\n", status.State, status.Underrun)
	}

	fmt.Printf("Playback finished in %v. (%d bytes played)\n", time.Since(startTime), written)
}

// fragmentRing is the part of the mapped control region the player drives.
type fragmentRing interface {
	State() sndpcm.ChannelState
	Frags() int
	FragSize() int
	Fragment(i int) (sndpcm.MmapFragment, bool)
	SetFragmentData(i int, data bool) bool
}

type starter interface {
	Go(ch sndpcm.Channel) error
}

// mmapPlayer fills the fragments of the mapped data region in ring order.
type mmapPlayer struct {
	pcm     starter
	ctl     fragmentRing
	data    []byte
	next    int
	started bool
}

func newMmapPlayer(pcm *sndpcm.PCM) (*mmapPlayer, error) {
	ctl, data, err := pcm.Mmap(sndpcm.SND_PCM_CHANNEL_PLAYBACK)
	if err != nil {
		return nil, err
	}

	return &mmapPlayer{pcm: pcm, ctl: ctl, data: data}, nil
}

func (m *mmapPlayer) play(chunk [][]byte) (int, error) {
	frags := m.ctl.Frags()
	fragSize := m.ctl.FragSize()
	if frags <= 0 || fragSize <= 0 {
		return 0, errors.New("driver reports no fragments")
	}

	total := 0
	for _, b := range chunk {
		frag, ok := m.ctl.Fragment(m.next)
		if !ok {
			return total, fmt.Errorf("fragment %d out of range", m.next)
		}

		// Wait for the hardware to consume the fragment.
		for frag.Data {
			if m.ctl.State() != sndpcm.SND_PCM_STATUS_RUNNING && m.started {
				return total, fmt.Errorf("channel stopped in state %s: %w", m.ctl.State(), syscall.EPIPE)
			}

			time.Sleep(time.Millisecond)
			frag, _ = m.ctl.Fragment(m.next)
		}

		region := m.data[frag.Addr : int(frag.Addr)+fragSize]
		n := copy(region, b)
		clear(region[n:])
		m.ctl.SetFragmentData(m.next, true)
		total += n

		m.next = (m.next + 1) % frags

		if m.next == 0 {
			if err := m.start(); err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

// start triggers the playback channel once.
func (m *mmapPlayer) start() error {
	if m.started {
		return nil
	}

	if err := m.pcm.Go(sndpcm.SND_PCM_CHANNEL_PLAYBACK); err != nil {
		return err
	}
	m.started = true

	return nil
}

// encodeSamples converts decoded integer samples to the little-endian layout of format.
func encodeSamples(samples []int, format sndpcm.SampleFormat, bitDepth int) []byte {
	out := make([]byte, 0, len(samples)*int(sndpcm.SampleFormatToBits(format)/8))
	scale := float64(int(1) << (bitDepth - 1))

	for _, s := range samples {
		switch format {
		case sndpcm.SND_PCM_SFMT_S8:
			out = append(out, byte(int8(s>>(bitDepth-8))))
		case sndpcm.SND_PCM_SFMT_S16_LE:
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(max(min(s, math.MaxInt16), math.MinInt16))))
		case sndpcm.SND_PCM_SFMT_S24_LE, sndpcm.SND_PCM_SFMT_S32_LE:
			out = binary.LittleEndian.AppendUint32(out, uint32(int32(s)))
		case sndpcm.SND_PCM_SFMT_FLOAT_LE:
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(float64(s)/scale)))
		case sndpcm.SND_PCM_SFMT_FLOAT64_LE:
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(float64(s)/scale))
		}
	}

	return out
}

// determineFormat selects the sample format from the flag or the decoded stream.
func determineFormat(formatStr string, src source) (sndpcm.SampleFormat, error) {
	if formatStr != "" {
		switch formatStr {
		case "s8":
			return sndpcm.SND_PCM_SFMT_S8, nil
		case "s16":
			return sndpcm.SND_PCM_SFMT_S16_LE, nil
		case "s24":
			return sndpcm.SND_PCM_SFMT_S24_LE, nil
		case "s32":
			return sndpcm.SND_PCM_SFMT_S32_LE, nil
		case "float":
			return sndpcm.SND_PCM_SFMT_FLOAT_LE, nil
		case "float64":
			return sndpcm.SND_PCM_SFMT_FLOAT64_LE, nil
		default:
			return 0, fmt.Errorf("unsupported format string: %s", formatStr)
		}
	}

	if src.IsFloat() {
		switch src.BitDepth() {
		case 32:
			return sndpcm.SND_PCM_SFMT_FLOAT_LE, nil
		case 64:
			return sndpcm.SND_PCM_SFMT_FLOAT64_LE, nil
		default:
			return 0, fmt.Errorf("unsupported float bit depth: %d", src.BitDepth())
		}
	}

	switch src.BitDepth() {
	case 8:
		return sndpcm.SND_PCM_SFMT_S8, nil
	case 16:
		return sndpcm.SND_PCM_SFMT_S16_LE, nil
	case 24:
		return sndpcm.SND_PCM_SFMT_S24_LE, nil
	case 32:
		return sndpcm.SND_PCM_SFMT_S32_LE, nil
	default:
		return 0, fmt.Errorf("unsupported integer bit depth: %d", src.BitDepth())
	}
}
