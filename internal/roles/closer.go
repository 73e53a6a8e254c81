package roles

// closeSingleGap fills the last open role with the last unresolved signal.
// A missing Jungle goes to whoever on the team carries Smite, even if that
// player was already placed elsewhere; with no Smite anywhere the leftover
// signal becomes the jungler by default.
func closeSingleGap(st teamState) teamState {
	gaps := st.missing()
	if len(gaps) != 1 || len(st.conflict) != 1 {
		return st
	}
	gap, last := gaps[0], st.conflict[0]

	if gap == Jungle && !last.HasJungleClear {
		for i, v := range st.valid {
			if !v.HasJungleClear {
				continue
			}
			out := st.clone()
			last.Role = v.Role
			out.valid[i].Role = Jungle
			out.valid = append(out.valid, last)
			out.conflict = out.conflict[:0]
			return out
		}
	}

	return st.promote(placement{0, gap})
}

// closeFirstGap forces progress: the first unresolved signal takes the first
// open role in canonical order.
func closeFirstGap(st teamState) teamState {
	gaps := st.missing()
	if len(gaps) == 0 || len(st.conflict) == 0 {
		return st
	}
	return st.promote(placement{0, gaps[0]})
}
