package game

type Config struct {
	MaxPlayers       int `json:"maxPlayers"`
	TotalRounds      int `json:"totalRounds"`
	TurnTimerSeconds int `json:"turnTimerSeconds"`
}

// ConfigOverrides carries the optional lobby config changes; nil fields are
// left untouched.
type ConfigOverrides struct {
	MaxPlayers       *int `json:"maxPlayers,omitempty"`
	TotalRounds      *int `json:"totalRounds,omitempty"`
	TurnTimerSeconds *int `json:"turnTimerSeconds,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:       4,
		TotalRounds:      5,
		TurnTimerSeconds: 30,
	}
}

func (c Config) Valid() bool {
	return c.MaxPlayers >= 2 && c.MaxPlayers <= 6 &&
		c.TotalRounds >= 3 && c.TotalRounds <= 10 &&
		c.TurnTimerSeconds >= 15 && c.TurnTimerSeconds <= 60
}

// Apply merges the overrides into a copy of c. The result is not
// guaranteed valid; callers check Valid afterwards.
func (c Config) Apply(o ConfigOverrides) Config {
	if o.MaxPlayers != nil {
		c.MaxPlayers = *o.MaxPlayers
	}
	if o.TotalRounds != nil {
		c.TotalRounds = *o.TotalRounds
	}
	if o.TurnTimerSeconds != nil {
		c.TurnTimerSeconds = *o.TurnTimerSeconds
	}
	return c
}
