package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowRates(t *testing.T) {
	rates := WindowRates(testTimeline(33), 4)
	require.Len(t, rates, 4)

	for i, r := range rates {
		require.NotNil(t, r, "window %d", i)
		assert.InDelta(t, 8.0, r.CS, 1e-9)
		assert.InDelta(t, 400.0, r.Gold, 1e-9)
	}
}

func TestWindowRates_ShortGame(t *testing.T) {
	rates := WindowRates(testTimeline(20), 4)

	assert.NotNil(t, rates[0])
	assert.NotNil(t, rates[1], "10 to 20 runs to the last frame")
	assert.Nil(t, rates[2])
	assert.Nil(t, rates[3])
}

func TestWindowRates_EdgesFollowTimestamps(t *testing.T) {
	// participant 4 farms 10 a minute until 10:00, then stops, and is absent
	// from the 3 to 5 minute frames
	tl := testTimeline(25)
	for i := range tl.Info.Frames {
		f := &tl.Info.Frames[i]
		f.Timestamp += 250
		pf := f.ParticipantFrames["4"]
		pf.MinionsKilled = 10 * min(i, 10)
		f.ParticipantFrames["4"] = pf
		if i >= 3 && i <= 5 {
			delete(f.ParticipantFrames, "4")
		}
	}

	rates := WindowRates(tl, 4)

	require.NotNil(t, rates[0])
	assert.InDelta(t, 10.0, rates[0].CS, 1e-9)
	require.NotNil(t, rates[1])
	assert.InDelta(t, 0.0, rates[1].CS, 1e-9)
	require.NotNil(t, rates[2])
	assert.InDelta(t, 0.0, rates[2].CS, 1e-9)
	assert.Nil(t, rates[3])
}

func TestWindowRates_UnknownParticipant(t *testing.T) {
	rates := WindowRates(testTimeline(33), 42)
	for _, r := range rates {
		assert.Nil(t, r)
	}
}

func TestXPSeries(t *testing.T) {
	xp := XPSeries(testTimeline(3))

	assert.Len(t, xp, 10)
	assert.Equal(t, []int{0, 400, 800}, xp[1])
	assert.Equal(t, []int{0, 50, 100}, xp[7])
}

func TestDetectAFK(t *testing.T) {
	teamOf := TeamOf(testMatch())

	assert.Equal(t, []int{7}, DetectAFK(XPSeries(testTimeline(33)), teamOf, 0.35))
	assert.Empty(t, DetectAFK(XPSeries(testTimeline(33)), teamOf, 0.1))
}

func TestDetectAFK_TooFewFrames(t *testing.T) {
	xp := map[int][]int{1: {0}, 2: {0}}
	assert.Empty(t, DetectAFK(xp, map[int]int{1: 100, 2: 100}, 0.35))
}
