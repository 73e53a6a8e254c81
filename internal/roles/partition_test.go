package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sig(id int, champion string, role Role, cs int) Signal {
	return Signal{ParticipantID: id, TeamID: 100, Champion: champion, Role: role, CreepScore: cs}
}

func TestTieBreak(t *testing.T) {
	aff := DefaultAffinity()

	tests := []struct {
		name       string
		role       Role
		incumbent  Signal
		challenger Signal
		wantWinner int
	}{
		{"mid prefers mid champion", Mid, sig(1, "Garen", Mid, 250), sig(2, "Ahri", Mid, 150), 2},
		{"mid falls back to farm", Mid, sig(1, "Garen", Mid, 150), sig(2, "Darius", Mid, 250), 2},
		{"mid ignores top champion", Mid, sig(1, "Garen", Mid, 100), sig(2, "Jinx", Mid, 200), 2},
		{"top prefers top champion", Top, sig(1, "Jinx", Top, 250), sig(2, "Darius", Top, 100), 2},
		{"top keeps listed incumbent", Top, sig(1, "Darius", Top, 100), sig(2, "Jinx", Top, 250), 1},
		{"jungle prefers lower farm", Jungle, sig(1, "Lee Sin", Jungle, 120), sig(2, "Elise", Jungle, 95), 2},
		{"support prefers lower farm", Support, sig(1, "Thresh", Support, 20), sig(2, "Sona", Support, 60), 1},
		{"adc prefers adc champion", ADC, sig(1, "Sona", ADC, 150), sig(2, "Jinx", ADC, 140), 2},
		{"adc falls back to farm", ADC, sig(1, "Sona", ADC, 150), sig(2, "Lulu", ADC, 160), 2},
		{"full tie keeps incumbent", Jungle, sig(1, "Lee Sin", Jungle, 100), sig(2, "Elise", Jungle, 100), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, loser := tieBreak(tt.role, tt.incumbent, tt.challenger, aff)
			assert.Equal(t, tt.wantWinner, winner.ParticipantID)
			assert.NotEqual(t, winner.ParticipantID, loser.ParticipantID)
		})
	}
}

func TestPartition(t *testing.T) {
	aff := DefaultAffinity()
	signals := []Signal{
		sig(1, "Garen", Top, 200),
		sig(2, "Lee Sin", Jungle, 120),
		sig(3, "Elise", Jungle, 95),
		sig(4, "Sona", ADC, 150),
		sig(5, "Jinx", ADC, 140),
	}

	st := partition(signals, aff)

	assert.Len(t, st.valid, 3)
	assert.Len(t, st.conflict, 2)
	assert.Equal(t, 3, st.valid[st.validIndex(Jungle)].ParticipantID)
	assert.Equal(t, 5, st.valid[st.validIndex(ADC)].ParticipantID)

	assert.Equal(t, 2, st.conflict[0].ParticipantID)
	assert.Equal(t, Unknown, st.conflict[0].Role)
	assert.Equal(t, 4, st.conflict[1].ParticipantID)
	assert.Equal(t, Bot, st.conflict[1].Role)

	assert.Equal(t, []Role{Mid, Support}, st.missing())
}

func TestPromoteDoesNotMutate(t *testing.T) {
	st := teamState{conflict: []Signal{sig(1, "Garen", Unknown, 200), sig(2, "Ahri", Unknown, 220)}}

	next := st.promote(placement{1, Mid})

	assert.Len(t, st.conflict, 2)
	assert.Empty(t, st.valid)
	assert.Len(t, next.conflict, 1)
	assert.Equal(t, Mid, next.valid[0].Role)
	assert.Equal(t, 1, next.conflict[0].ParticipantID)
}

func TestCloseFirstGap(t *testing.T) {
	st := teamState{
		valid:    []Signal{sig(1, "Thresh", Support, 20)},
		conflict: []Signal{sig(2, "Alpha", Unknown, 100), sig(3, "Bravo", Unknown, 100)},
	}

	next := closeFirstGap(st)

	assert.Equal(t, 2, next.valid[next.validIndex(Top)].ParticipantID)
	assert.Len(t, next.conflict, 1)
}
