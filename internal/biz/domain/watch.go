package domain

// Scope is the namespace a setting is stored under: GlobalScope or a guild id
type Scope string

// GlobalScope is the scope shared by every guild
const GlobalScope Scope = "global"

// Setting keys read by the mention watcher
const (
	KeyWatchToggle     = "webhooktoggle"
	KeyWatchKeywords   = "webhookkeywords"
	KeyWatchExclusions = "webhookexclusions"
)

// NoExclusions is the sentinel exclusion list entry used when nothing is excluded
const NoExclusions = "none"

// DefaultWatchKeywords returns the built-in aliases watched when none are configured
func DefaultWatchKeywords() []string {
	return []string{"username", "nickname"}
}

// DefaultWatchExclusions returns the default exclusion list
func DefaultWatchExclusions() []string {
	return []string{NoExclusions}
}

// WatchConfig represents the mention watcher settings (value object).
// It is read fresh for every message and never mutated.
type WatchConfig struct {
	Enabled    bool
	Keywords   []string
	Exclusions []string
}

// DefaultWatchConfig returns the configuration used when no settings are stored
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Enabled:    false,
		Keywords:   DefaultWatchKeywords(),
		Exclusions: DefaultWatchExclusions(),
	}
}
