package draft

// Apply validates a pick against the current state and, when legal,
// returns the resulting events plus the next state. Validation is
// ordered and short-circuits on the first failure:
//
//	complete -> stale version -> turn -> cell -> budget
//
// The returned state is a fresh copy; the input is never mutated.
func Apply(s State, p Pick) ([]Event, State, error) {
	if s.Status == StatusComplete {
		return nil, s, ErrDraftAlreadyComplete
	}
	if p.ClientVersion < s.Version {
		return nil, s, ErrStaleState
	}
	if s.CurrentParticipant() != p.Participant {
		return nil, s, ErrNotYourTurn
	}
	cell, ok := s.cellAt(p.Row, p.Col)
	if !ok {
		return nil, s, ErrInvalidCell
	}
	if cell.Drafted {
		return nil, s, ErrPlayerAlreadyDrafted
	}
	if cell.Player.Price > s.Remaining(p.Participant) {
		return nil, s, ErrInsufficientBudget
	}

	next := claim(s, p.Participant, p.Row, p.Col)
	events := []Event{{
		Type:        EvtPick,
		Participant: p.Participant,
		Row:         p.Row,
		Col:         p.Col,
		PlayerID:    cell.Player.ID,
		Price:       cell.Player.Price,
		Version:     next.Version,
	}}
	return finish(next, events)
}

// TimeoutAdvance is the system-initiated path taken when the turn clock
// expires with no submission. It bypasses the version and turn checks
// (there is no client), picks via the configured policy, or records a
// skip when the participant can afford nothing.
func TimeoutAdvance(s State, policy AutoPickPolicy) ([]Event, State, error) {
	if s.Status == StatusComplete {
		return nil, s, ErrDraftAlreadyComplete
	}
	if policy == nil {
		policy = CheapestAffordable
	}

	participant := s.CurrentParticipant()
	row, col, ok := policy(s, participant)
	if !ok {
		next := s.Clone()
		next.Version++
		next.Turn = (next.Turn + 1) % len(next.Order)
		next.SkipStreak++
		events := []Event{{
			Type:        EvtSkip,
			Participant: participant,
			Version:     next.Version,
		}}
		return finish(next, events)
	}

	cell, _ := s.cellAt(row, col)
	next := claim(s, participant, row, col)
	events := []Event{{
		Type:        EvtAutoPick,
		Participant: participant,
		Row:         row,
		Col:         col,
		PlayerID:    cell.Player.ID,
		Price:       cell.Player.Price,
		Version:     next.Version,
	}}
	return finish(next, events)
}

// claim marks the cell, charges the roster, advances the turn and
// bumps the version by exactly one.
func claim(s State, participant, row, col int) State {
	next := s.Clone()
	cell := &next.Board[row][col]
	cell.Drafted = true
	cell.DraftedBy = participant

	roster := next.Rosters[participant]
	roster.Picks = append(roster.Picks, RosterEntry{
		Row:      row,
		Col:      col,
		PlayerID: cell.Player.ID,
		Price:    cell.Player.Price,
	})
	roster.Spent += cell.Player.Price
	next.Rosters[participant] = roster

	next.Version++
	next.Turn = (next.Turn + 1) % len(next.Order)
	next.SkipStreak = 0
	return next
}

// finish appends the terminal transition when the draft is over: the
// board is exhausted, or a full cycle of participants was skipped.
func finish(next State, events []Event) ([]Event, State, error) {
	if next.allDrafted() || next.SkipStreak >= len(next.Order) {
		next.Status = StatusComplete
		events = append(events, Event{Type: EvtDraftComplete, Version: next.Version})
	}
	return events, next, nil
}
