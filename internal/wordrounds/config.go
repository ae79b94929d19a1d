package wordrounds

import (
	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/gateway"
	"github.com/bloops-games/wordrounds/internal/round"
)

type Config struct {
	// Debug level logging
	Debug bool `envconfig:"WR_DEBUG" default:"false"`

	// Number of items in each cache
	CacheSize int `envconfig:"WR_CACHE_SIZE" default:"1024"`

	// Port of the health check, REST API and websocket endpoints
	Port string `envconfig:"WR_PORT" default:"1234"`

	// profile port
	ProfPort string `envconfig:"WR_PROF_PORT" default:"8888"`

	DB      database.Config
	Round   round.Config
	Gateway gateway.Config
}
