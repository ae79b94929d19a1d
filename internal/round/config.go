package round

import "time"

type Config struct {
	MinRoundTime     time.Duration `envconfig:"WR_MIN_ROUND_TIME" default:"5s"`
	MaxRoundTime     time.Duration `envconfig:"WR_MAX_ROUND_TIME" default:"5m"`
	DefaultRoundTime time.Duration `envconfig:"WR_DEFAULT_ROUND_TIME" default:"60s"`

	MinRounds     int `envconfig:"WR_MIN_ROUNDS" default:"1"`
	MaxRounds     int `envconfig:"WR_MAX_ROUNDS" default:"20"`
	DefaultRounds int `envconfig:"WR_DEFAULT_ROUNDS" default:"5"`

	// Pause between round results and the next round
	BreakTime time.Duration `envconfig:"WR_BREAK_TIME" default:"10s"`

	// Late submissions are still accepted this long after the deadline
	SubmitGrace time.Duration `envconfig:"WR_SUBMIT_GRACE" default:"1500ms"`

	// Trailing submissions window after a player stopped the round
	StopWindow time.Duration `envconfig:"WR_STOP_WINDOW" default:"1500ms"`

	// Idle room runtimes are evicted after this time
	RuntimeIdleTTL  time.Duration `envconfig:"WR_RUNTIME_IDLE_TTL" default:"6h"`
	JanitorInterval time.Duration `envconfig:"WR_JANITOR_INTERVAL" default:"10m"`
}

// ClampRounds bounds n to the configured range; zero selects the default.
func (c Config) ClampRounds(n int) int {
	if n == 0 {
		n = c.DefaultRounds
	}

	if n < c.MinRounds {
		return c.MinRounds
	}

	if c.MaxRounds > 0 && n > c.MaxRounds {
		return c.MaxRounds
	}

	return n
}

// ClampRoundTime bounds d to the configured range; zero selects the default.
func (c Config) ClampRoundTime(d time.Duration) time.Duration {
	if d == 0 {
		d = c.DefaultRoundTime
	}

	if d < c.MinRoundTime {
		return c.MinRoundTime
	}

	if c.MaxRoundTime > 0 && d > c.MaxRoundTime {
		return c.MaxRoundTime
	}

	return d
}
