package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Notifier NotifierConfig `mapstructure:"notifier"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"omitempty,gte=4,lte=31"`
}

// PolicyConfig holds the named access-policy switches. Deployments disagree
// on both rules, so each is an explicit flag rather than a hardcoded choice.
type PolicyConfig struct {
	// UnrestrictedObjectRead allows any authenticated principal to read any
	// single task by ID. When false, object reads follow the same
	// owner-or-admin rule as writes.
	UnrestrictedObjectRead bool `mapstructure:"unrestricted_object_read"`

	// LockOverdueEdits forbids updating a task that is already OVERDUE.
	LockOverdueEdits bool `mapstructure:"lock_overdue_edits"`
}

// NotifierConfig holds settings for the realtime mutation broadcast.
type NotifierConfig struct {
	// EventBufferSize is the capacity of the hub's inbound event channel.
	// Publishing never blocks; events beyond this buffer are dropped.
	EventBufferSize int `mapstructure:"event_buffer_size" validate:"omitempty,gt=0"`

	// ClientBufferSize is the per-connection outbound message buffer.
	// A connection whose buffer is full is closed.
	ClientBufferSize int `mapstructure:"client_buffer_size" validate:"omitempty,gt=0"`
}
