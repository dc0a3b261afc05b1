package config

// ServerConfig contains the HTTP projection server configuration.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// FeedConfig contains the upstream bus connection parameters.
type FeedConfig struct {
	Host             string `yaml:"host" validate:"required"`
	Port             int    `yaml:"port" validate:"gt=0"`
	Username         string `yaml:"username" validate:"required"`
	Password         string `yaml:"password" validate:"required"`
	SubscriptionName string `yaml:"subscriptionName" validate:"required"`
	// ReconnectBaseSeconds is the initial reconnect wait; it doubles on
	// each consecutive failure. 0 means the built-in default.
	ReconnectBaseSeconds int `yaml:"reconnectBaseSeconds" validate:"gte=0"`
}

// TrackerConfig scopes and tunes the step-event processor.
type TrackerConfig struct {
	// Areas are the describer areas to track; events from any other
	// area are discarded.
	Areas []string `yaml:"areas" validate:"min=1,dive,len=2"`
	// Takeover selects the occupancy conflict policy: "displace"
	// (default) cancels a stale occupant, "defer" keeps it and discards
	// the conflicting advance.
	Takeover string `yaml:"takeover" validate:"omitempty,oneof=displace defer"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Store   StoreConfig   `yaml:"store" validate:"required"`
	Feed    FeedConfig    `yaml:"feed" validate:"required"`
	Tracker TrackerConfig `yaml:"tracker" validate:"required"`
}
