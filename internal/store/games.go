package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/r3xsean/devilsdice/internal/game"
)

// TTL applies to every game-state and reconnect-token write; each write
// resets the clock.
const TTL = 24 * time.Hour

// ReconnectToken lets a fresh session re-associate with its prior player
// identity in a specific room.
type ReconnectToken struct {
	Token     string    `json:"token"`
	PlayerID  string    `json:"playerId"`
	RoomCode  string    `json:"roomCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Games is the typed layer over the blob store: game:<code> holds the full
// state, reconnect:<token> holds a token record.
type Games struct {
	kv Store
}

func NewGames(kv Store) *Games {
	return &Games{kv: kv}
}

func gameKey(roomCode string) string { return "game:" + roomCode }
func tokenKey(token string) string   { return "reconnect:" + token }

func (g *Games) SaveState(ctx context.Context, st *game.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling game state: %w", err)
	}
	return g.kv.Set(ctx, gameKey(st.RoomCode), blob, TTL)
}

func (g *Games) LoadState(ctx context.Context, roomCode string) (*game.State, error) {
	blob, err := g.kv.Get(ctx, gameKey(roomCode))
	if err != nil {
		return nil, err
	}
	var st game.State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("unmarshaling game state: %w", err)
	}
	return &st, nil
}

func (g *Games) DeleteState(ctx context.Context, roomCode string) error {
	return g.kv.Delete(ctx, gameKey(roomCode))
}

// IssueToken mints and persists a reconnect token for a player in a room.
func (g *Games) IssueToken(ctx context.Context, playerID, roomCode string) (string, error) {
	token := ReconnectToken{
		Token:     uuid.NewString(),
		PlayerID:  playerID,
		RoomCode:  roomCode,
		ExpiresAt: time.Now().UTC().Add(TTL),
	}
	blob, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("marshaling reconnect token: %w", err)
	}
	if err := g.kv.Set(ctx, tokenKey(token.Token), blob, TTL); err != nil {
		return "", err
	}
	return token.Token, nil
}

// LookupToken resolves a token, enforcing its stored expiry on top of the
// store TTL.
func (g *Games) LookupToken(ctx context.Context, token string) (*ReconnectToken, error) {
	blob, err := g.kv.Get(ctx, tokenKey(token))
	if err != nil {
		return nil, err
	}
	var rec ReconnectToken
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling reconnect token: %w", err)
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (g *Games) DeleteToken(ctx context.Context, token string) error {
	return g.kv.Delete(ctx, tokenKey(token))
}
