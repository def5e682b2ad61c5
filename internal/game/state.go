package game

import (
	"sort"
	"strings"
	"time"

	"github.com/r3xsean/devilsdice/internal/scoring"
)

type Phase string

const (
	PhaseLobby        Phase = "LOBBY"
	PhaseInitialRoll  Phase = "INITIAL_ROLL"
	PhasePrediction   Phase = "PREDICTION"
	PhaseSetSelection Phase = "SET_SELECTION"
	PhaseSetReveal    Phase = "SET_REVEAL"
	PhaseRoundSummary Phase = "ROUND_SUMMARY"
	PhaseGameOver     Phase = "GAME_OVER"
)

// Selection is a player's tentative 3-die pick for the current set.
type Selection struct {
	DieIDs    []string `json:"dieIds"`
	Confirmed bool     `json:"confirmed"`
}

// SetResult is one player's outcome for a single set.
type SetResult struct {
	PlayerID  string                `json:"playerId"`
	Hand      scoring.EvaluatedHand `json:"hand"`
	DieIDs    []string              `json:"dieIds"`
	Values    []int                 `json:"values"`
	Placement int                   `json:"placement"`
	Points    float64               `json:"points"`
}

// PredictionOutcome records how a player's round bet resolved.
type PredictionOutcome struct {
	PlayerID   string             `json:"playerId"`
	Prediction scoring.Prediction `json:"prediction"`
	RoundTotal float64            `json:"roundTotal"`
	Bonus      float64            `json:"bonus"`
	Hit        bool               `json:"hit"`
}

// RoundResult is the completed record of one round: both sets plus the
// prediction resolutions.
type RoundResult struct {
	Round       int                 `json:"round"`
	Set1        []SetResult         `json:"set1"`
	Set2        []SetResult         `json:"set2"`
	Predictions []PredictionOutcome `json:"predictions"`
}

// Standing is a final-scoreboard row.
type Standing struct {
	PlayerID  string  `json:"playerId"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Placement int     `json:"placement"`
}

// State is the full per-room game state. It is owned by a single room
// actor; nothing outside the actor mutates it.
type State struct {
	RoomCode         string                `json:"roomCode"`
	Phase            Phase                 `json:"phase"`
	Players          []*Player             `json:"players"`
	Config           Config                `json:"config"`
	CurrentRound     int                   `json:"currentRound"`
	CurrentSet       int                   `json:"currentSet"`
	TurnOrder        []string              `json:"turnOrder"`
	InitialOrder     []string              `json:"initialOrder"`
	CurrentTurnIndex int                   `json:"currentTurnIndex"`
	Selections       map[string]*Selection `json:"pendingSelections"`
	SetResults       []SetResult           `json:"setResults"`
	CompletedSet1    []SetResult           `json:"set1Results,omitempty"`
	InitialRolls     []scoring.InitialRoll `json:"initialRolls,omitempty"`
	RoundHistory     []RoundResult         `json:"roundHistory"`
	HostID           string                `json:"hostId"`
	CreatedAt        time.Time             `json:"createdAt"`
}

func NewState(roomCode string, cfg Config) *State {
	return &State{
		RoomCode:   roomCode,
		Phase:      PhaseLobby,
		Config:     cfg,
		Selections: make(map[string]*Selection),
		CreatedAt:  time.Now().UTC(),
	}
}

func (s *State) PlayerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *State) PlayerBySession(sessionID string) *Player {
	for _, p := range s.Players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

func (s *State) nameTaken(name string) bool {
	for _, p := range s.Players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// AddPlayer admits a new player, enforcing the lobby rules atomically with
// respect to the owning actor. The first player in becomes host.
func (s *State) AddPlayer(name, sessionID string) (*Player, error) {
	if s.Phase != PhaseLobby {
		return nil, ErrGameInProgress
	}
	if len(s.Players) >= s.Config.MaxPlayers {
		return nil, ErrRoomFull
	}
	if s.nameTaken(name) {
		return nil, ErrNameTaken
	}
	p := NewPlayer(name, sessionID)
	if len(s.Players) == 0 {
		p.Host = true
		s.HostID = p.ID
	}
	s.Players = append(s.Players, p)
	return p, nil
}

// RemovePlayer drops a player, repairs the turn order and reassigns the
// host when needed. It reports the new host id (empty when unchanged) and
// whether the room is now empty.
func (s *State) RemovePlayer(id string) (newHostID string, empty bool, err error) {
	idx := -1
	for i, p := range s.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", false, ErrPlayerNotFound
	}
	wasHost := s.Players[idx].Host
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	delete(s.Selections, id)
	s.removeFromTurnOrder(id)

	if len(s.Players) == 0 {
		return "", true, nil
	}
	if wasHost {
		s.Players[0].Host = true
		s.HostID = s.Players[0].ID
		newHostID = s.HostID
	}
	return newHostID, false, nil
}

func (s *State) removeFromTurnOrder(id string) {
	for i, pid := range s.TurnOrder {
		if pid == id {
			s.TurnOrder = append(s.TurnOrder[:i], s.TurnOrder[i+1:]...)
			if s.CurrentTurnIndex > i {
				s.CurrentTurnIndex--
			}
			return
		}
	}
}

// CurrentTurnPlayerID returns the id of the player whose turn it is, or
// empty when all players have acted.
func (s *State) CurrentTurnPlayerID() string {
	if s.CurrentTurnIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.CurrentTurnIndex]
}

func (s *State) ConnectedPlayerIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Connected {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// CanStart reports whether the host may start the game: lobby phase, at
// least 2 players, everyone ready.
func (s *State) CanStart() bool {
	if s.Phase != PhaseLobby || len(s.Players) < 2 {
		return false
	}
	for _, p := range s.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// FinalStandings sorts players by cumulative score descending; equal scores
// share a placement.
func (s *State) FinalStandings() []Standing {
	sorted := make([]*Player, len(s.Players))
	copy(sorted, s.Players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	standings := make([]Standing, len(sorted))
	for i, p := range sorted {
		placement := i + 1
		if i > 0 && p.Score == sorted[i-1].Score {
			placement = standings[i-1].Placement
		}
		standings[i] = Standing{PlayerID: p.ID, Name: p.Name, Score: p.Score, Placement: placement}
	}
	return standings
}

// Clone deep-copies the state. Actors hand clones to anything outside their
// goroutine.
func (s *State) Clone() *State {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.clone()
	}
	cp.TurnOrder = append([]string(nil), s.TurnOrder...)
	cp.InitialOrder = append([]string(nil), s.InitialOrder...)
	cp.Selections = make(map[string]*Selection, len(s.Selections))
	for id, sel := range s.Selections {
		cp.Selections[id] = &Selection{DieIDs: append([]string(nil), sel.DieIDs...), Confirmed: sel.Confirmed}
	}
	cp.SetResults = append([]SetResult(nil), s.SetResults...)
	cp.CompletedSet1 = append([]SetResult(nil), s.CompletedSet1...)
	cp.InitialRolls = append([]scoring.InitialRoll(nil), s.InitialRolls...)
	cp.RoundHistory = append([]RoundResult(nil), s.RoundHistory...)
	return &cp
}

// Redacted clones the state and blanks the values of hidden dice belonging
// to players other than the viewer. Opponents learn a red or blue die's
// value only once it has been revealed.
func (s *State) Redacted(viewerID string) *State {
	cp := s.Clone()
	for _, p := range cp.Players {
		if p.ID == viewerID {
			continue
		}
		for i := range p.Dice {
			if !p.Dice[i].Revealed {
				p.Dice[i].Value = 0
			}
		}
	}
	return cp
}
