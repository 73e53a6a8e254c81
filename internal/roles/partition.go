package roles

import "slices"

// teamState is the working set for one team. valid holds signals whose role
// is final and unique; conflict holds everything still to be placed.
// len(valid)+len(conflict) stays equal to the team size throughout.
type teamState struct {
	valid    []Signal
	conflict []Signal
}

func (s teamState) clone() teamState {
	return teamState{
		valid:    slices.Clone(s.valid),
		conflict: slices.Clone(s.conflict),
	}
}

// holds reports whether some valid signal already has role r
func (s teamState) holds(r Role) bool {
	return s.validIndex(r) >= 0
}

func (s teamState) validIndex(r Role) int {
	for i, v := range s.valid {
		if v.Role == r {
			return i
		}
	}
	return -1
}

func (s teamState) isMissing(r Role) bool {
	return !s.holds(r)
}

// missing returns the unfilled canonical roles in canonical order
func (s teamState) missing() []Role {
	var out []Role
	for _, r := range CanonicalRoles {
		if !s.holds(r) {
			out = append(out, r)
		}
	}
	return out
}

// conflictTagged returns the positions in conflict of entries tagged r, in order
func (s teamState) conflictTagged(r Role) []int {
	var out []int
	for i, c := range s.conflict {
		if c.Role == r {
			out = append(out, i)
		}
	}
	return out
}

// placement assigns the conflict entry at index to role
type placement struct {
	index int
	role  Role
}

// promote moves the given conflict entries into valid, in argument order.
// Entries are addressed by position so duplicate participant IDs cannot
// pull the wrong signal out of conflict.
func (s teamState) promote(moves ...placement) teamState {
	out := s.clone()
	for _, m := range moves {
		c := s.conflict[m.index]
		c.Role = m.role
		out.valid = append(out.valid, c)
	}

	drop := make([]bool, len(s.conflict))
	for _, m := range moves {
		drop[m.index] = true
	}
	out.conflict = out.conflict[:0]
	for i, c := range s.conflict {
		if !drop[i] {
			out.conflict = append(out.conflict, c)
		}
	}
	return out
}

// partition buckets a team's signals. Collisions on a final role are settled
// on the spot by tieBreak; the loser goes back to conflict as a placeholder.
func partition(signals []Signal, aff *Affinity) teamState {
	var st teamState

	for _, sig := range signals {
		if sig.Role.IsPlaceholder() {
			st.conflict = append(st.conflict, sig)
			continue
		}

		i := st.validIndex(sig.Role)
		if i < 0 {
			st.valid = append(st.valid, sig)
			continue
		}

		winner, loser := tieBreak(sig.Role, st.valid[i], sig, aff)
		st.valid[i] = winner
		st.conflict = append(st.conflict, demote(loser))
	}

	return st
}

// demote resets a collision loser. Bottom lane losers stay in the bottom
// lane pool; everyone else has no usable signal left.
func demote(s Signal) Signal {
	switch s.Role {
	case ADC, Support:
		s.Role = Bot
	default:
		s.Role = Unknown
	}
	return s
}

// tieBreak picks which of two same-team signals keeps a contested role.
// incumbent is the one already holding it and wins every full tie.
func tieBreak(role Role, incumbent, challenger Signal, aff *Affinity) (winner, loser Signal) {
	switch {
	case role == Mid:
		return preferAffinity(aff.forRole(Mid), incumbent, challenger)
	case role == Top || role == Mid:
		// Mid is taken by the case above, so only Top ever lands here
		return preferAffinity(aff.forRole(Top), incumbent, challenger)
	case role == Jungle || role == Support:
		// junglers and supports farm less than the carry they are confused with
		return preferLowerCS(incumbent, challenger)
	default:
		return preferAffinity(aff.forRole(ADC), incumbent, challenger)
	}
}

func preferAffinity(set ChampionSet, a, b Signal) (Signal, Signal) {
	aIn, bIn := set.Has(a.Champion), set.Has(b.Champion)
	if aIn != bIn {
		if bIn {
			return b, a
		}
		return a, b
	}
	return preferHigherCS(a, b)
}

func preferHigherCS(a, b Signal) (Signal, Signal) {
	if b.CreepScore > a.CreepScore {
		return b, a
	}
	return a, b
}

func preferLowerCS(a, b Signal) (Signal, Signal) {
	if b.CreepScore < a.CreepScore {
		return b, a
	}
	return a, b
}
