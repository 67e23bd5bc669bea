package model

// Settings is the application's persisted configuration document.
type Settings struct {
	DefaultSavePath        string                            `json:"default_save_path"`
	DefaultQuality         Quality                           `json:"default_quality"`
	DefaultFormat          Container                         `json:"default_format"`
	MaxConcurrentDownloads int                                `json:"max_concurrent_downloads"`
	AutoRetryOnFailure     bool                               `json:"auto_retry_on_failure"`
	MaxRetryAttempts       int                                `json:"max_retry_attempts"`
	PlatformSettings       map[string]map[string]interface{} `json:"platform_settings"`
	EnabledPlatforms       []string                           `json:"enabled_platforms"`
	FirstLaunchCompleted   bool                               `json:"first_launch_completed"`
}

// MinConcurrent and MaxConcurrent bound the clamped max_concurrent setting.
const (
	MinConcurrent = 1
	MaxConcurrent = 5
)

// DefaultSettings returns the document written the first time the
// application runs, before a user has changed anything.
func DefaultSettings(defaultSavePath string) Settings {
	return Settings{
		DefaultSavePath:        defaultSavePath,
		DefaultQuality:         QualityBest,
		DefaultFormat:          ContainerMP4,
		MaxConcurrentDownloads: 3,
		AutoRetryOnFailure:     true,
		MaxRetryAttempts:       3,
		PlatformSettings:       map[string]map[string]interface{}{},
		EnabledPlatforms:       []string{"YouTube"},
		FirstLaunchCompleted:   false,
	}
}

// ClampConcurrency forces n into [MinConcurrent, MaxConcurrent].
func ClampConcurrency(n int) int {
	if n < MinConcurrent {
		return MinConcurrent
	}
	if n > MaxConcurrent {
		return MaxConcurrent
	}
	return n
}
