package driven

// ConfigStore provides persistent key-value configuration for operational
// thresholds (chunk sizes, stuck threshold, sweep interval).
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, empty when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, zero when absent.
	GetInt(key string) int

	// GetFloat retrieves a float value, zero when absent.
	GetFloat(key string) float64

	// Set stores a configuration value.
	Set(key string, value any) error

	// Save persists the configuration.
	Save() error
}
