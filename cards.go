package sndpcm

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Files of the procfs sound interface read by EnumerateCards.
const (
	procCards = "/proc/asound/cards"
	procPcm   = "/proc/asound/pcm"
)

var (
	cardRegex = regexp.MustCompile(`^\s*(\d+)\s+\[\s*([^]]*?)\s*\]:\s*(.*)`)
	// Matches lines like "00-01: ALC892 Digital : ALC892 Digital : playback 1 : capture 1".
	pcmRegex    = regexp.MustCompile(`^(\d+)-(\d+): (.*?) :`)
	streamRegex = regexp.MustCompile(`(playback|capture) (\d+)`)
)

// SoundCardDevice represents a single PCM device on a sound card.
type SoundCardDevice struct {
	ID          int
	Description string
	Playback    int // Number of playback subdevices, 0 if the device cannot play.
	Capture     int // Number of capture subdevices, 0 if the device cannot record.
}

// Mode returns the open mode requesting every channel the device provides.
func (d SoundCardDevice) Mode() OpenMode {
	var mode OpenMode
	if d.Playback > 0 {
		mode |= SND_PCM_OPEN_PLAYBACK
	}
	if d.Capture > 0 {
		mode |= SND_PCM_OPEN_CAPTURE
	}

	return mode
}

// String returns a human-readable representation of the SoundCardDevice.
func (d SoundCardDevice) String() string {
	return fmt.Sprintf("  Device %d: %s [playback %d, capture %d]", d.ID, d.Description, d.Playback, d.Capture)
}

// SoundCard represents an enumerated sound card with its devices.
type SoundCard struct {
	ID          int
	Name        string
	Description string
	Devices     []SoundCardDevice
}

// String returns a human-readable representation of the SoundCard.
func (c SoundCard) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Card %d: %s (%s)\n", c.ID, c.Name, c.Description))
	for _, dev := range c.Devices {
		sb.WriteString(dev.String() + "\n")
	}

	return sb.String()
}

// EnumerateCards scans /proc/asound to find all available sound cards and their PCM devices.
func EnumerateCards() ([]SoundCard, error) {
	cards, err := os.ReadFile(procCards)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", procCards, err)
	}

	pcms, err := os.ReadFile(procPcm)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", procPcm, err)
	}

	return parseCards(string(cards), string(pcms)), nil
}

// parseCards builds the card list from the contents of the cards and pcm procfs files.
// Cards beyond SND_CARDS cannot be opened and are skipped.
func parseCards(cards, pcms string) []SoundCard {
	cardMap := make(map[int]*SoundCard)

	for _, line := range strings.Split(cards, "\n") {
		matches := cardRegex.FindStringSubmatch(line)
		if len(matches) != 4 {
			continue
		}

		id, err := strconv.Atoi(matches[1])
		if err != nil || id >= SND_CARDS {
			continue
		}

		cardMap[id] = &SoundCard{
			ID:          id,
			Name:        strings.TrimSpace(matches[2]),
			Description: strings.TrimSpace(matches[3]),
		}
	}

	for _, line := range strings.Split(pcms, "\n") {
		matches := pcmRegex.FindStringSubmatch(line)
		if len(matches) < 4 {
			continue
		}

		cardID, _ := strconv.Atoi(matches[1])
		devID, _ := strconv.Atoi(matches[2])

		card, ok := cardMap[cardID]
		if !ok {
			continue
		}

		device := SoundCardDevice{
			ID:          devID,
			Description: strings.TrimSpace(matches[3]),
		}

		for _, stream := range streamRegex.FindAllStringSubmatch(line, -1) {
			n, _ := strconv.Atoi(stream[2])
			if stream[1] == "playback" {
				device.Playback = n
			} else {
				device.Capture = n
			}
		}

		card.Devices = append(card.Devices, device)
	}

	ids := make([]int, 0, len(cardMap))
	for id := range cardMap {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	result := make([]SoundCard, 0, len(ids))
	for _, id := range ids {
		card := cardMap[id]
		sort.Slice(card.Devices, func(i, j int) bool { return card.Devices[i].ID < card.Devices[j].ID })
		result = append(result, *card)
	}

	return result
}
