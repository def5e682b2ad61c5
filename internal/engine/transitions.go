package engine

import (
	"fmt"

	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/scoring"
)

// handleStart fires the host's START_GAME: the room rolls the opening 2d6
// for every player and the always-transitions carry it through INITIAL_ROLL
// into PREDICTION.
func (r *Room) handleStart(c startCmd) error {
	if r.state.Phase != game.PhaseLobby {
		return game.ErrInvalidPhase
	}
	if c.playerID != r.state.HostID {
		return game.ErrNotHost
	}
	if !r.state.CanStart() {
		return game.ErrCannotStart
	}

	r.state.Phase = game.PhaseInitialRoll
	r.state.CurrentRound = 1
	r.state.CurrentSet = 1
	r.state.InitialRolls = make([]scoring.InitialRoll, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		r.state.InitialRolls = append(r.state.InitialRolls, scoring.InitialRoll{
			PlayerID: p.ID,
			Dice:     game.Roll2d6(r.rng),
		})
	}
	r.broadcastState(EvtPhaseChange)
	r.runAlways()
	return nil
}

func (r *Room) handlePrediction(c predictionCmd) error {
	if r.state.Phase != game.PhasePrediction {
		return game.ErrInvalidPhase
	}
	player := r.state.PlayerByID(c.playerID)
	if player == nil {
		return game.ErrPlayerNotFound
	}
	if player.Prediction != scoring.PredictionNone {
		return game.ErrPredictionSubmitted
	}
	if !predictionAvailable(len(r.state.Players), c.prediction) {
		return game.ErrInvalidPrediction
	}
	player.Prediction = c.prediction
	r.sink.Broadcast(r.code, EvtPredictionMade, PlayerIDPayload{PlayerID: player.ID})
	r.runAlways()
	return nil
}

func (r *Room) handleSelect(c selectCmd) error {
	if r.state.Phase != game.PhaseSetSelection {
		return game.ErrInvalidPhase
	}
	player := r.state.PlayerByID(c.playerID)
	if player == nil {
		return game.ErrPlayerNotFound
	}
	if c.playerID != r.state.CurrentTurnPlayerID() {
		return game.ErrNotYourTurn
	}
	if len(c.dieIDs) != 3 || hasDuplicates(c.dieIDs) {
		return game.ErrInvalidSelection
	}
	for _, id := range c.dieIDs {
		die := player.DieByID(id)
		if die == nil {
			return game.ErrInvalidDie
		}
		if die.Spent {
			return game.ErrDieAlreadySpent
		}
	}

	r.state.Selections[c.playerID] = &game.Selection{DieIDs: append([]string(nil), c.dieIDs...)}
	r.broadcastSelection(player, c.dieIDs)
	return nil
}

func (r *Room) handleConfirm(c confirmCmd) error {
	if r.state.Phase != game.PhaseSetSelection {
		return game.ErrInvalidPhase
	}
	if r.state.PlayerByID(c.playerID) == nil {
		return game.ErrPlayerNotFound
	}
	sel := r.state.Selections[c.playerID]
	if sel == nil {
		return game.ErrNoSelection
	}
	if sel.Confirmed {
		return game.ErrAlreadyConfirmed
	}
	sel.Confirmed = true
	r.sink.Broadcast(r.code, EvtDiceConfirmed, PlayerIDPayload{PlayerID: c.playerID})
	// Only the turn-holder's confirmation moves the pointer; out-of-turn
	// confirmations must never advance it.
	if c.playerID == r.state.CurrentTurnPlayerID() {
		r.advanceTurn()
	}
	r.runAlways()
	return nil
}

func (r *Room) handleAck(c ackCmd) error {
	if r.state.Phase != game.PhaseSetReveal && r.state.Phase != game.PhaseRoundSummary {
		return game.ErrInvalidPhase
	}
	if r.state.PlayerByID(c.playerID) == nil {
		return game.ErrPlayerNotFound
	}
	if r.acks.has(c.playerID) {
		return nil
	}
	if r.acks.empty() {
		r.timers.start(timerAck, ackTimeoutSeconds)
	}
	r.acks.add(c.playerID)

	connected := r.state.ConnectedPlayerIDs()
	r.sink.Broadcast(r.code, EvtAcknowledged, AcknowledgedPayload{
		PlayerID:          c.playerID,
		AcknowledgedCount: r.acks.count(connected),
		TotalCount:        len(connected),
	})
	r.sink.Broadcast(r.code, EvtWaitingFor, WaitingForPayload{
		WaitingForPlayerIDs: r.acks.outstanding(connected),
	})
	r.checkAckCompletion()
	return nil
}

// checkAckCompletion advances past a results screen once every connected
// player has acknowledged it.
func (r *Room) checkAckCompletion() {
	if r.state.Phase != game.PhaseSetReveal && r.state.Phase != game.PhaseRoundSummary {
		return
	}
	if r.acks.empty() || !r.acks.complete(r.state.ConnectedPlayerIDs()) {
		return
	}
	r.timers.stop(timerAck)
	r.advanceResults()
}

func (r *Room) handleTimer(ev timerEvent) {
	if !r.timers.live(ev) {
		return
	}
	switch ev.kind {
	case timerTurn:
		if !ev.expired {
			r.sink.Broadcast(r.code, EvtTimerTick, TimerTickPayload{TimeRemaining: ev.remaining})
			return
		}
		r.applyTurnTimeout()
	case timerPrediction:
		if !ev.expired {
			r.sink.Broadcast(r.code, EvtTimerTick, TimerTickPayload{TimeRemaining: ev.remaining})
			return
		}
		// Countdown hit zero: warn clients, then auto-submit after the
		// grace window.
		r.sink.Broadcast(r.code, EvtAutoSubmitting, AutoSubmittingPayload{Countdown: predictionGraceSeconds})
		r.timers.start(timerGrace, predictionGraceSeconds)
	case timerGrace:
		if ev.expired {
			r.applyPredictionTimeout()
		}
	case timerAck:
		if ev.expired {
			r.advanceResults()
		}
	}
	if ev.expired {
		r.persist()
	}
}

// applyTurnTimeout auto-selects the first 3 unspent dice for the current
// turn-holder, confirms them and advances the turn.
func (r *Room) applyTurnTimeout() {
	if r.state.Phase != game.PhaseSetSelection {
		return
	}
	holderID := r.state.CurrentTurnPlayerID()
	if holderID == "" {
		return
	}
	player := r.state.PlayerByID(holderID)
	unspent := player.UnspentDieIDs()
	if len(unspent) < 3 {
		r.failRoom("turn timeout", fmt.Errorf("player %s has %d unspent dice", holderID, len(unspent)))
		return
	}
	dieIDs := unspent[:3]
	r.state.Selections[holderID] = &game.Selection{DieIDs: append([]string(nil), dieIDs...), Confirmed: true}
	r.broadcastSelection(player, dieIDs)
	r.sink.Broadcast(r.code, EvtDiceConfirmed, PlayerIDPayload{PlayerID: holderID})
	r.advanceTurn()
	r.runAlways()
}

// applyPredictionTimeout assigns a random available prediction to every
// player still without one.
func (r *Room) applyPredictionTimeout() {
	if r.state.Phase != game.PhasePrediction {
		return
	}
	available := scoring.AvailablePredictions(len(r.state.Players))
	if len(available) == 0 {
		r.failRoom("prediction timeout", fmt.Errorf("no predictions for %d players", len(r.state.Players)))
		return
	}
	for _, p := range r.state.Players {
		if p.Prediction == scoring.PredictionNone {
			p.Prediction = available[r.rng.Intn(len(available))]
			r.sink.Broadcast(r.code, EvtPredictionMade, PlayerIDPayload{PlayerID: p.ID})
		}
	}
	r.runAlways()
}

// runAlways applies the guarded "always" transitions until none fire, so a
// room is never left resting in a transient configuration.
func (r *Room) runAlways() {
	for {
		switch r.state.Phase {
		case game.PhaseInitialRoll:
			if len(r.state.InitialRolls) == len(r.state.Players) {
				r.finishInitialRoll()
				continue
			}
		case game.PhasePrediction:
			if r.allPredicted() {
				r.sink.Broadcast(r.code, EvtPredictionsDone, struct{}{})
				r.enterSetSelection()
				continue
			}
		case game.PhaseSetSelection:
			if r.allConfirmed() {
				r.scoreCurrentSet()
				continue
			}
		}
		return
	}
}

func (r *Room) allPredicted() bool {
	for _, p := range r.state.Players {
		if p.Prediction == scoring.PredictionNone {
			return false
		}
	}
	return len(r.state.Players) > 0
}

func (r *Room) allConfirmed() bool {
	if len(r.state.Players) == 0 {
		return false
	}
	for _, p := range r.state.Players {
		sel := r.state.Selections[p.ID]
		if sel == nil || !sel.Confirmed {
			return false
		}
	}
	return true
}

func (r *Room) finishInitialRoll() {
	order := scoring.InitialTurnOrder(r.state.InitialRolls)
	r.state.TurnOrder = order
	r.state.InitialOrder = append([]string(nil), order...)
	for _, p := range r.state.Players {
		p.Dice = game.RollRoundDice(r.rng)
	}
	r.sink.Broadcast(r.code, EvtInitialRoll, InitialRollPayload{
		Results:   append([]scoring.InitialRoll(nil), r.state.InitialRolls...),
		TurnOrder: order,
	})
	r.enterPrediction()
}

func (r *Room) enterPrediction() {
	r.state.Phase = game.PhasePrediction
	r.broadcastState(EvtPhaseChange)
	r.timers.start(timerPrediction, r.state.Config.TurnTimerSeconds)
}

func (r *Room) enterSetSelection() {
	r.timers.stop(timerPrediction)
	r.timers.stop(timerGrace)
	r.state.Phase = game.PhaseSetSelection
	r.state.CurrentTurnIndex = 0
	r.state.Selections = make(map[string]*game.Selection)
	r.broadcastState(EvtPhaseChange)
	r.startTurn()
}

// startTurn arms the turn timer for the current holder, if any.
func (r *Room) startTurn() {
	holderID := r.state.CurrentTurnPlayerID()
	if holderID == "" {
		return
	}
	r.timers.start(timerTurn, r.state.Config.TurnTimerSeconds)
	r.sink.Broadcast(r.code, EvtTurnStart, TurnStartPayload{
		PlayerID:      holderID,
		TimeRemaining: r.state.Config.TurnTimerSeconds,
	})
}

func (r *Room) advanceTurn() {
	r.timers.stop(timerTurn)
	r.state.CurrentTurnIndex++
	r.startTurn()
}

// scoreCurrentSet evaluates every confirmed hand, assigns placements and
// points, spends and reveals the committed dice, and moves to SET_REVEAL.
func (r *Room) scoreCurrentSet() {
	r.timers.stop(timerTurn)

	entries := make([]scoring.SetEntry, 0, len(r.state.Players))
	meta := make(map[string]*game.SetResult, len(r.state.Players))
	for _, p := range r.state.Players {
		sel := r.state.Selections[p.ID]
		values := make([]int, 0, 3)
		for _, id := range sel.DieIDs {
			die := p.DieByID(id)
			die.Spent = true
			die.Revealed = true
			values = append(values, die.Value)
		}
		hand, err := scoring.Evaluate(values)
		if err != nil {
			r.failRoom("set scoring", err)
			return
		}
		entries = append(entries, scoring.SetEntry{PlayerID: p.ID, Hand: hand})
		meta[p.ID] = &game.SetResult{
			PlayerID: p.ID,
			Hand:     hand,
			DieIDs:   append([]string(nil), sel.DieIDs...),
			Values:   values,
		}
	}

	results := make([]game.SetResult, 0, len(entries))
	for _, placed := range scoring.ScoreSet(entries) {
		res := meta[placed.PlayerID]
		res.Placement = placed.Placement
		res.Points = placed.Points
		results = append(results, *res)

		p := r.state.PlayerByID(placed.PlayerID)
		if r.state.CurrentSet == 1 {
			p.Set1Score += placed.Points
		} else {
			p.Set2Score += placed.Points
		}
		p.RoundScore = p.Set1Score + p.Set2Score
	}
	r.state.SetResults = results

	r.state.Phase = game.PhaseSetReveal
	r.acks.reset()
	r.broadcastEach(EvtSetReveal, func(viewerID string) any {
		return SetRevealPayload{Results: results, GameState: r.state.Redacted(viewerID)}
	})
	r.broadcastState(EvtPhaseChange)
}

// advanceResults is NEXT_SET / NEXT_ROUND, driven by the ack quorum or the
// results timeout.
func (r *Room) advanceResults() {
	switch r.state.Phase {
	case game.PhaseSetReveal:
		if r.state.CurrentSet == 1 {
			r.state.CompletedSet1 = r.state.SetResults
			r.state.SetResults = nil
			r.state.CurrentSet = 2
			r.acks.reset()
			r.enterSetSelection()
		} else {
			r.enterRoundSummary()
		}
	case game.PhaseRoundSummary:
		r.nextRound()
	}
}

// enterRoundSummary resolves predictions and banks the round into the
// cumulative scores and history.
func (r *Room) enterRoundSummary() {
	playerCount := len(r.state.Players)
	outcomes := make([]game.PredictionOutcome, 0, playerCount)
	for _, p := range r.state.Players {
		total := p.RoundScore
		bonus := scoring.PredictionBonus(playerCount, p.Prediction, total)
		outcomes = append(outcomes, game.PredictionOutcome{
			PlayerID:   p.ID,
			Prediction: p.Prediction,
			RoundTotal: total,
			Bonus:      bonus,
			Hit:        bonus > 0,
		})
		p.Score += total + bonus
	}

	result := game.RoundResult{
		Round:       r.state.CurrentRound,
		Set1:        r.state.CompletedSet1,
		Set2:        r.state.SetResults,
		Predictions: outcomes,
	}
	r.state.RoundHistory = append(r.state.RoundHistory, result)

	r.state.Phase = game.PhaseRoundSummary
	r.acks.reset()
	r.broadcastEach(EvtRoundComplete, func(viewerID string) any {
		return RoundCompletePayload{Result: result, GameState: r.state.Redacted(viewerID)}
	})
	r.broadcastState(EvtPhaseChange)
}

func (r *Room) nextRound() {
	if r.state.CurrentRound >= r.state.Config.TotalRounds {
		r.enterGameOver()
		return
	}
	r.state.CurrentRound++
	r.state.CurrentSet = 1
	r.state.CurrentTurnIndex = 0
	r.state.Selections = make(map[string]*game.Selection)
	r.state.SetResults = nil
	r.state.CompletedSet1 = nil
	r.acks.reset()

	standings := make([]scoring.Standing, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		p.ResetForRound(game.RollRoundDice(r.rng))
		standings = append(standings, scoring.Standing{PlayerID: p.ID, Score: p.Score})
	}
	r.state.TurnOrder = scoring.NextTurnOrder(standings, r.state.InitialOrder)
	r.enterPrediction()
}

func (r *Room) enterGameOver() {
	r.state.Phase = game.PhaseGameOver
	r.timers.stopAll()
	r.sink.Broadcast(r.code, EvtGameOver, GameOverPayload{FinalStandings: r.state.FinalStandings()})
	r.broadcastState(EvtPhaseChange)
}

// broadcastSelection announces a selection while honoring the visibility
// policy: only already-revealed dice are shown, hidden picks are a count.
func (r *Room) broadcastSelection(player *game.Player, dieIDs []string) {
	visible := make([]game.Die, 0, len(dieIDs))
	hidden := 0
	for _, id := range dieIDs {
		die := player.DieByID(id)
		if die.Revealed {
			visible = append(visible, *die)
		} else {
			hidden++
		}
	}
	r.sink.Broadcast(r.code, EvtDiceSelected, DiceSelectedPayload{
		PlayerID:    player.ID,
		VisibleDice: visible,
		HiddenCount: hidden,
	})
}

func predictionAvailable(playerCount int, p scoring.Prediction) bool {
	for _, candidate := range scoring.AvailablePredictions(playerCount) {
		if candidate == p {
			return true
		}
	}
	return false
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
