// Package config loads and validates perimeter service settings.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/LdDl/perimeter-go/mot"
)

// EnvAPIURL overrides APIURL when set
const EnvAPIURL = "PERIMETER_API_URL"

// Config represents the root configuration. Fields omitted from the JSON file keep their defaults.
type Config struct {
	// Tracking
	MaxDisappeared      int     `json:"max_disappeared"`
	MaxTrackingDistance float64 `json:"max_tracking_distance"`
	MatchingAlgorithm   string  `json:"matching_algorithm"` // "greedy" or "hungarian"

	// Perimeter as x1, y1, x2, y2
	Perimeter        [4]float64 `json:"perimeter_line"`
	PerimeterBounded bool       `json:"perimeter_bounded"`
	// Check crossings only for objects matched in the current frame
	CrossingMatchedOnly bool `json:"crossing_matched_only"`

	// Event cooldown per object
	EventCooldownSeconds float64 `json:"event_cooldown_seconds"`

	// Event delivery
	APIURL             string  `json:"api_url"`
	APIListen          string  `json:"api_listen"`
	SinkTimeoutSeconds float64 `json:"sink_timeout_seconds"`
	DispatchQueueSize  int     `json:"dispatch_queue_size"`

	// Storage
	DBPath string `json:"db_path"`

	LogLevel string `json:"log_level"`
}

// Default returns configuration matching the reference deployment
func Default() *Config {
	return &Config{
		MaxDisappeared:       30,
		MaxTrackingDistance:  80,
		MatchingAlgorithm:    "greedy",
		Perimeter:            [4]float64{40, 430, 600, 430},
		PerimeterBounded:     false,
		EventCooldownSeconds: 3.0,
		APIURL:               "http://localhost:5000/api/events",
		APIListen:            ":5000",
		SinkTimeoutSeconds:   2.0,
		DispatchQueueSize:    64,
		DBPath:               "data/events.db",
		LogLevel:             "info",
	}
}

// Load reads configuration from a JSON file on top of defaults.
// The file must have .json extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides
func (c *Config) ApplyEnv() {
	if url := os.Getenv(EnvAPIURL); url != "" {
		c.APIURL = url
	}
}

// Validate checks values. Every error wraps mot.ErrConfiguration
func (c *Config) Validate() error {
	if c.MaxDisappeared < 0 {
		return fmt.Errorf("%w: max_disappeared must be non-negative, got %d", mot.ErrConfiguration, c.MaxDisappeared)
	}
	if !positiveFinite(c.MaxTrackingDistance) {
		return fmt.Errorf("%w: max_tracking_distance must be positive, got %v", mot.ErrConfiguration, c.MaxTrackingDistance)
	}
	if _, err := c.Matching(); err != nil {
		return err
	}
	for i, v := range c.Perimeter {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: perimeter_line[%d] is not finite", mot.ErrConfiguration, i)
		}
	}
	if c.PerimeterLine().Length() == 0 {
		return fmt.Errorf("%w: perimeter_line has zero length", mot.ErrConfiguration)
	}
	if !positiveFinite(c.EventCooldownSeconds) {
		return fmt.Errorf("%w: event_cooldown_seconds must be positive, got %v", mot.ErrConfiguration, c.EventCooldownSeconds)
	}
	if !positiveFinite(c.SinkTimeoutSeconds) {
		return fmt.Errorf("%w: sink_timeout_seconds must be positive, got %v", mot.ErrConfiguration, c.SinkTimeoutSeconds)
	}
	if c.DispatchQueueSize < 1 {
		return fmt.Errorf("%w: dispatch_queue_size must be at least 1, got %d", mot.ErrConfiguration, c.DispatchQueueSize)
	}
	return nil
}

// Matching converts matching_algorithm into mot.MatchingAlgorithm
func (c *Config) Matching() (mot.MatchingAlgorithm, error) {
	switch c.MatchingAlgorithm {
	case "", "greedy":
		return mot.MatchingAlgorithmGreedy, nil
	case "hungarian":
		return mot.MatchingAlgorithmHungarian, nil
	default:
		return 0, fmt.Errorf("%w: unknown matching_algorithm %q", mot.ErrConfiguration, c.MatchingAlgorithm)
	}
}

// PerimeterLine returns configured line
func (c *Config) PerimeterLine() mot.PerimeterLine {
	line := mot.NewPerimeterLine(c.Perimeter[0], c.Perimeter[1], c.Perimeter[2], c.Perimeter[3])
	line.Bounded = c.PerimeterBounded
	return line
}

// Cooldown returns event cooldown as duration
func (c *Config) Cooldown() time.Duration {
	return secondsToDuration(c.EventCooldownSeconds)
}

// SinkTimeout returns event submission timeout as duration
func (c *Config) SinkTimeout() time.Duration {
	return secondsToDuration(c.SinkTimeoutSeconds)
}

// NewDetector builds tracker and intrusion detector from configuration
func (c *Config) NewDetector(options ...mot.DetectorOption) (*mot.IntrusionDetector, error) {
	algorithm, err := c.Matching()
	if err != nil {
		return nil, err
	}
	tracker, err := mot.NewCentroidTracker(c.MaxDisappeared, c.MaxTrackingDistance, mot.WithMatchingAlgorithm(algorithm))
	if err != nil {
		return nil, err
	}
	if c.CrossingMatchedOnly {
		options = append([]mot.DetectorOption{mot.WithMatchedOnly()}, options...)
	}
	return mot.NewIntrusionDetector(tracker, c.PerimeterLine(), c.Cooldown(), options...)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
