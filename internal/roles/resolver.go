package roles

// heuristic is one repair step. It never mutates its input.
type heuristic func(teamState, *Affinity) teamState

// passOrder is the fixed order heuristics run in during every pass
var passOrder = []heuristic{
	fixDuoBot,
	fixJungler,
	fixSoloBot,
	fixSupport,
}

// fixDuoBot splits an untagged bottom lane pair into ADC and Support.
// An ADC-list champion takes ADC; otherwise the bigger farmer does.
func fixDuoBot(st teamState, aff *Affinity) teamState {
	bots := st.conflictTagged(Bot)
	if len(bots) != 2 || !st.isMissing(ADC) || !st.isMissing(Support) {
		return st
	}

	carry, support := bots[0], bots[1]
	carryIsADC := aff.IsADC(st.conflict[carry].Champion)
	supportIsADC := aff.IsADC(st.conflict[support].Champion)
	switch {
	case carryIsADC != supportIsADC:
		if supportIsADC {
			carry, support = support, carry
		}
	case st.conflict[support].CreepScore > st.conflict[carry].CreepScore:
		carry, support = support, carry
	}

	return st.promote(placement{carry, ADC}, placement{support, Support})
}

// fixJungler hands Jungle to a Smite holder. With several holders only farm
// decides: the lowest creep score is the jungler, the rest stay unresolved.
func fixJungler(st teamState, _ *Affinity) teamState {
	if !st.isMissing(Jungle) {
		return st
	}

	best := -1
	for i, c := range st.conflict {
		if !c.HasJungleClear {
			continue
		}
		if best < 0 || c.CreepScore < st.conflict[best].CreepScore {
			best = i
		}
	}
	if best < 0 {
		return st
	}

	return st.promote(placement{best, Jungle})
}

// fixSoloBot places a lone bottom laner using whichever bottom role is free
func fixSoloBot(st teamState, aff *Affinity) teamState {
	bots := st.conflictTagged(Bot)
	if len(bots) != 1 {
		return st
	}
	bot := bots[0]
	champion := st.conflict[bot].Champion

	needADC, needSupport := st.isMissing(ADC), st.isMissing(Support)
	switch {
	case needADC && needSupport:
		if aff.IsAnyADC(champion) {
			return st.promote(placement{bot, ADC})
		}
		return st.promote(placement{bot, Support})
	case needADC:
		return st.promote(placement{bot, ADC})
	case needSupport:
		return st.promote(placement{bot, Support})
	}
	return st
}

// fixSupport gives an open Support slot to the lowest farmer left
func fixSupport(st teamState, _ *Affinity) teamState {
	if !st.isMissing(Support) || len(st.conflict) == 0 {
		return st
	}

	best := 0
	for i, c := range st.conflict[1:] {
		if c.CreepScore < st.conflict[best].CreepScore {
			best = i + 1
		}
	}

	return st.promote(placement{best, Support})
}
