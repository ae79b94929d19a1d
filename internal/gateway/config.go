package gateway

import "time"

type Config struct {
	WriteTimeout   time.Duration `envconfig:"WR_WS_WRITE_TIMEOUT" default:"10s"`
	PongTimeout    time.Duration `envconfig:"WR_WS_PONG_TIMEOUT" default:"60s"`
	PingInterval   time.Duration `envconfig:"WR_WS_PING_INTERVAL" default:"50s"`
	MaxMessageSize int64         `envconfig:"WR_WS_MAX_MESSAGE_SIZE" default:"8192"`
	SendBuffer     int           `envconfig:"WR_WS_SEND_BUFFER" default:"64"`

	// Inbound messages per second and burst per connection
	RateLimit float64 `envconfig:"WR_WS_RATE_LIMIT" default:"5"`
	RateBurst int     `envconfig:"WR_WS_RATE_BURST" default:"10"`

	// Empty allows any origin
	AllowedOrigins []string `envconfig:"WR_WS_ALLOWED_ORIGINS"`
}
