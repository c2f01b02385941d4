package sndpcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProcCards = ` 0 [PCH            ]: HDA-Intel - HDA Intel PCH
                      HDA Intel PCH at 0xf7f10000 irq 32
 2 [Loopback       ]: Loopback - Loopback
                      Loopback 1
 9 [Extra          ]: USB-Audio - Extra
`

const testProcPcm = `00-01: ALC892 Digital : ALC892 Digital : playback 1
00-00: ALC892 Analog : ALC892 Analog : playback 1 : capture 1
02-00: Loopback PCM : Loopback PCM : playback 8 : capture 8
02-01: Loopback PCM : Loopback PCM : playback 8 : capture 8
05-00: Orphan : Orphan : capture 1
09-00: Extra : Extra : playback 1
`

func TestParseCards(t *testing.T) {
	cards := parseCards(testProcCards, testProcPcm)
	require.Len(t, cards, 2, "cards beyond the limit are skipped")

	pch := cards[0]
	assert.Equal(t, 0, pch.ID)
	assert.Equal(t, "PCH", pch.Name)
	assert.Equal(t, "HDA-Intel - HDA Intel PCH", pch.Description)
	require.Len(t, pch.Devices, 2)
	assert.Equal(t, SoundCardDevice{ID: 0, Description: "ALC892 Analog", Playback: 1, Capture: 1}, pch.Devices[0])
	assert.Equal(t, SoundCardDevice{ID: 1, Description: "ALC892 Digital", Playback: 1}, pch.Devices[1])
	assert.Equal(t, SND_PCM_OPEN_DUPLEX, pch.Devices[0].Mode())
	assert.Equal(t, SND_PCM_OPEN_PLAYBACK, pch.Devices[1].Mode())

	loop := cards[1]
	assert.Equal(t, 2, loop.ID)
	assert.Equal(t, "Loopback", loop.Name)
	require.Len(t, loop.Devices, 2)
	assert.Equal(t, 8, loop.Devices[1].Capture)

	assert.Contains(t, loop.String(), "Card 2: Loopback (Loopback - Loopback)")
	assert.Contains(t, loop.String(), "Device 1: Loopback PCM [playback 8, capture 8]")
}

func TestParseCardsEmpty(t *testing.T) {
	assert.Empty(t, parseCards("--- no soundcards ---\n", ""))
}
