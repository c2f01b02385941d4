package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/gen2brain/sndpcm"
)

func main() {
	var (
		card      int
		device    int
		subdevice int
		fragSize  int
		frags     int
		voices    int
		rate      int
		formatStr string
		duration  int
		readv     bool
		nonblock  bool
		verbose   bool
	)

	flag.IntVar(&card, "card", 0, "The card to capture from")
	flag.IntVar(&device, "device", 0, "The device to capture from")
	flag.IntVar(&subdevice, "subdevice", -1, "The preferred subdevice (-1 = any)")
	flag.IntVar(&fragSize, "frag-size", 4096, "The size of a fragment in bytes")
	flag.IntVar(&frags, "frags", 4, "The maximum number of fragments")
	flag.IntVar(&voices, "channels", 2, "The number of voices")
	flag.IntVar(&rate, "rate", 48000, "The sample rate in Hz")
	flag.StringVar(&formatStr, "format", "s16", "The sample format (s16, s24, s32)")
	flag.IntVar(&duration, "duration", 5, "The duration of the capture in seconds")
	flag.BoolVar(&readv, "readv", false, "Read two fragments per vectored transfer")
	flag.BoolVar(&nonblock, "nonblock", false, "Poll the channel in non-blocking mode")
	flag.BoolVar(&verbose, "verbose", false, "Log library diagnostics to stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <output-wav-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	outputPath := flag.Arg(0)

	format, err := determineFormat(formatStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error determining format: %v\n", err)
		os.Exit(1)
	}

	var opts []sndpcm.Option
	if verbose {
		opts = append(opts, sndpcm.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	pcm, err := sndpcm.OpenSubdevice(card, device, subdevice, sndpcm.SND_PCM_OPEN_CAPTURE, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PCM device: %v (code %d)\n", err, sndpcm.ErrorCode(err))
		os.Exit(1)
	}
	defer pcm.Close()

	if nonblock {
		if err := pcm.SetNonblock(true); err != nil {
			fmt.Fprintf(os.Stderr, "Error switching to non-blocking mode: %v\n", err)
			os.Exit(1)
		}
	}

	params := &sndpcm.Params{
		Channel: sndpcm.SND_PCM_CHANNEL_CAPTURE,
		Mode:    sndpcm.SND_PCM_MODE_BLOCK,
		Format: sndpcm.Format{
			Interleave: true,
			Format:     format,
			Rate:       rate,
			Voices:     voices,
		},
		StartMode: sndpcm.SND_PCM_START_DATA,
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

	setup, err := pcm.Setup(sndpcm.SND_PCM_CHANNEL_CAPTURE)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading PCM setup: %v\n", err)
		os.Exit(1)
	}

	size, err := pcm.TransferSize(sndpcm.SND_PCM_CHANNEL_CAPTURE)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading transfer size: %v\n", err)
		os.Exit(1)
	}

	// A channel must be prepared before it can be read from.
	if err := pcm.Prepare(sndpcm.SND_PCM_CHANNEL_CAPTURE); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing capture channel: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Capturing from PCM device: hw:%d,%d\n", card, device)
	fmt.Printf("Configuration: %d voices, %d Hz, %s\n", setup.Format.Voices, setup.Format.Rate, sndpcm.SampleFormatNames[setup.Format.Format])
	fmt.Printf("Fragment size: %d, Fragments: %d\n", size, setup.Block.Frags)
	fmt.Printf("Capture duration: %d seconds\n", duration)

	frameSize := setup.Format.FrameSize()
	if frameSize == 0 {
		fmt.Fprintf(os.Stderr, "Unsupported negotiated format %s\n", sndpcm.SampleFormatNames[setup.Format.Format])
		os.Exit(1)
	}

	// The driver may settle on a different format than requested.
	bitDepth, err := wavBitDepth(setup.Format.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error selecting WAV bit depth: %v\n", err)
		os.Exit(1)
	}

	wavFile, err := os.Create(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating WAV file: %v\n", err)
		os.Exit(1)
	}
	defer wavFile.Close()

	encoder := wav.NewEncoder(wavFile,
		setup.Format.Rate,
		bitDepth,
		setup.Format.Voices,
		1, // Audio format 1 is PCM
	)
	defer encoder.Close()

	totalBytes := duration * setup.Format.Rate * frameSize
	var captured int

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Starting capture... Press Ctrl+C to stop early.")

	first, second := make([]byte, size), make([]byte, size)

	keepRunning := true
	for keepRunning && captured < totalBytes {
		select {
		case <-sigChan:
			fmt.Println("\nCapture interrupted by user.")
			keepRunning = false

			continue
		default:
		}

		var data []byte
		if readv {
			n, err := pcm.Readv([][]byte{first, second})
			if err != nil {
				if retry(err) {
					continue
				}

				fmt.Fprintf(os.Stderr, "Error reading from PCM device: %v\n", err)

				break
			}

			data = append(first[:min(n, size):min(n, size)], second[:max(n-size, 0)]...)
		} else {
			n, err := pcm.Read(first)
			if err != nil {
				if retry(err) {
					continue
				}

				fmt.Fprintf(os.Stderr, "Error reading from PCM device: %v\n", err)

				break
			}

			data = first[:n]
		}

		// Keep whole frames only.
		data = data[:len(data)/frameSize*frameSize]
		if len(data) == 0 {
			continue
		}

		intBuffer, err := bytesToIntBuffer(data, setup.Format.Format, setup.Format.Voices)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error converting buffer: %v\n", err)

			break
		}

		if err := encoder.Write(intBuffer); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to WAV file: %v\n", err)

			break
		}

		captured += len(data)
	}

	if err := pcm.Flush(sndpcm.SND_PCM_CHANNEL_CAPTURE); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing capture channel: %v\n", err)
	}

	if status, err := pcm.Status(sndpcm.SND_PCM_CHANNEL_CAPTURE); err == nil && status.Overrun > 0 {
		fmt.Fprintf(os.Stderr, "%d overruns occurred.\n", status.Overrun)
	}

	frames := captured / frameSize
	seconds := time.Duration(frames) * time.Second / time.Duration(setup.Format.Rate)
	fmt.Printf("Capture finished. Wrote %d frames (%.2f seconds) to %s\n", frames, seconds.Seconds(), outputPath)
}

// retry reports whether a read would block and should be retried after a short pause.
func retry(err error) bool {
	if !errors.Is(err, syscall.EAGAIN) {
		return false
	}

	time.Sleep(5 * time.Millisecond)

	return true
}

// determineFormat maps a string identifier to a sample format.
func determineFormat(formatStr string) (sndpcm.SampleFormat, error) {
	switch formatStr {
	case "s16":
		return sndpcm.SND_PCM_SFMT_S16_LE, nil
	case "s24":
		return sndpcm.SND_PCM_SFMT_S24_LE, nil
	case "s32":
		return sndpcm.SND_PCM_SFMT_S32_LE, nil
	default:
		return 0, fmt.Errorf("unsupported format: '%s'. Supported formats are s16, s24, s32", formatStr)
	}
}

// wavBitDepth returns the WAV bit depth that holds samples of format.
func wavBitDepth(format sndpcm.SampleFormat) (int, error) {
	switch format {
	case sndpcm.SND_PCM_SFMT_S16_LE:
		return 16, nil
	case sndpcm.SND_PCM_SFMT_S24_LE:
		// S24_LE is 24 bits of data in a 32-bit container.
		return 24, nil
	case sndpcm.SND_PCM_SFMT_S32_LE:
		return 32, nil
	default:
		return 0, fmt.Errorf("no WAV encoding for format %s", sndpcm.SampleFormatNames[format])
	}
}

// bytesToIntBuffer converts captured little-endian samples into an audio.IntBuffer
// that the go-audio/wav encoder can understand.
func bytesToIntBuffer(data []byte, format sndpcm.SampleFormat, voices int) (*audio.IntBuffer, error) {
	bytesPerSample := int(sndpcm.SampleFormatToBits(format) / 8)
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("unsupported format for conversion: %s", sndpcm.SampleFormatNames[format])
	}

	numSamples := len(data) / bytesPerSample
	intData := make([]int, numSamples)

	bitDepth := 0
	for i := range numSamples {
		offset := i * bytesPerSample

		switch format {
		case sndpcm.SND_PCM_SFMT_S16_LE:
			intData[i] = int(int16(binary.LittleEndian.Uint16(data[offset:])))
			bitDepth = 16
		case sndpcm.SND_PCM_SFMT_S24_LE:
			// Sign-extend the low 24 bits of the container.
			val := binary.LittleEndian.Uint32(data[offset:]) & 0xffffff
			if val&0x800000 != 0 {
				val |= 0xff000000
			}
			intData[i] = int(int32(val))
			bitDepth = 24
		case sndpcm.SND_PCM_SFMT_S32_LE:
			intData[i] = int(int32(binary.LittleEndian.Uint32(data[offset:])))
			bitDepth = 32
		default:
			return nil, fmt.Errorf("unhandled format in conversion: %s", sndpcm.SampleFormatNames[format])
		}
	}

	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: voices},
		Data:           intData,
		SourceBitDepth: bitDepth,
	}, nil
}
