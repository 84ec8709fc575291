// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// DefaultUserAgent is a desktop browser string; several venue sites serve
// block pages to obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// HTTPConfig holds shared HTTP settings used by every outbound request.
type HTTPConfig struct {
	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Timeout bounds listing and detail page fetches.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Retries is the number of additional attempts after a transient
	// failure (transport error, 429, 5xx).
	Retries int `json:"retries" yaml:"retries" mapstructure:"retries"`

	// RetryBackoff is the fixed wait between attempts.
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// Proxy is an optional proxy URL for all requests.
	Proxy string `json:"proxy,omitempty" yaml:"proxy,omitempty" mapstructure:"proxy"`
}

// SearchConfig configures the bibliographic search fallback.
type SearchConfig struct {
	// Enabled turns the search fallback on or off.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is the Atom query API URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Interval is the minimum gap between two search requests.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// JitterMin and JitterMax bound the random delay added after waiting.
	JitterMin time.Duration `json:"jitter_min" yaml:"jitter_min" mapstructure:"jitter_min"`
	JitterMax time.Duration `json:"jitter_max" yaml:"jitter_max" mapstructure:"jitter_max"`

	// MaxResults is the page size requested per query.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Timeout bounds one search request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// MatchConfig holds the similarity weights and acceptance threshold.
// The defaults are hand-tuned and may be adjusted per venue.
type MatchConfig struct {
	TitleWeight    float64 `json:"title_weight" yaml:"title_weight" mapstructure:"title_weight"`
	AuthorWeight   float64 `json:"author_weight" yaml:"author_weight" mapstructure:"author_weight"`
	Threshold      float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	JaccardWeight  float64 `json:"jaccard_weight" yaml:"jaccard_weight" mapstructure:"jaccard_weight"`
	SequenceWeight float64 `json:"sequence_weight" yaml:"sequence_weight" mapstructure:"sequence_weight"`
}

// DownloadConfig configures PDF verification and storage.
type DownloadConfig struct {
	// Timeout bounds one PDF download.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MinSize is the smallest byte count accepted as a real PDF.
	MinSize int64 `json:"min_size" yaml:"min_size" mapstructure:"min_size"`

	// ExistingMinSize is the size above which a file already on disk
	// counts as downloaded.
	ExistingMinSize int64 `json:"existing_min_size" yaml:"existing_min_size" mapstructure:"existing_min_size"`
}

// ReferenceConfig configures the direct reference transform.
type ReferenceConfig struct {
	// PDFTemplate receives the reference identifier via %s.
	PDFTemplate string `json:"pdf_template" yaml:"pdf_template" mapstructure:"pdf_template"`
}

// HarvestConfig configures a batch run.
type HarvestConfig struct {
	// Workers is the number of papers resolved concurrently.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// OutputDir overrides the derived <venue>_<year>_papers directory.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" mapstructure:"output_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Job is one venue/year entry of the pipeline command.
type Job struct {
	Venue      string   `json:"venue" yaml:"venue" mapstructure:"venue"`
	Year       int      `json:"year" yaml:"year" mapstructure:"year"`
	EventTypes []string `json:"event_types" yaml:"event_types" mapstructure:"event_types"`
}

// PipelineConfig lists the jobs run by the pipeline command.
type PipelineConfig struct {
	Jobs []Job `json:"jobs" yaml:"jobs" mapstructure:"jobs"`
}

// Config is the complete configuration tree.
type Config struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http" mapstructure:"http"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Match     MatchConfig     `json:"match" yaml:"match" mapstructure:"match"`
	Download  DownloadConfig  `json:"download" yaml:"download" mapstructure:"download"`
	Reference ReferenceConfig `json:"reference" yaml:"reference" mapstructure:"reference"`
	Harvest   HarvestConfig   `json:"harvest" yaml:"harvest" mapstructure:"harvest"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			UserAgent:    DefaultUserAgent,
			Timeout:      30 * time.Second,
			Retries:      3,
			RetryBackoff: 2 * time.Second,
		},
		Search: SearchConfig{
			Enabled:    true,
			Endpoint:   "http://export.arxiv.org/api/query",
			Interval:   5 * time.Second,
			JitterMin:  1 * time.Second,
			JitterMax:  3 * time.Second,
			MaxResults: 5,
			Timeout:    30 * time.Second,
		},
		Match: MatchConfig{
			TitleWeight:    0.7,
			AuthorWeight:   0.3,
			Threshold:      0.4,
			JaccardWeight:  0.6,
			SequenceWeight: 0.4,
		},
		Download: DownloadConfig{
			Timeout:         60 * time.Second,
			MinSize:         1024,
			ExistingMinSize: 1024,
		},
		Reference: ReferenceConfig{
			PDFTemplate: "https://openreview.net/pdf?id=%s",
		},
		Harvest: HarvestConfig{Workers: 2},
		Log:     LogConfig{Level: "info"},
		Pipeline: PipelineConfig{Jobs: []Job{
			{Venue: "cvpr", Year: 2024, EventTypes: []string{"oral"}},
			{Venue: "cvpr", Year: 2025, EventTypes: []string{"oral"}},
			{Venue: "iclr", Year: 2024, EventTypes: []string{"oral"}},
			{Venue: "icml", Year: 2025, EventTypes: []string{"oral"}},
			{Venue: "neurips", Year: 2023, EventTypes: []string{"oral"}},
			{Venue: "neurips", Year: 2024, EventTypes: []string{"oral"}},
		}},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.HTTP.Retries < 0 {
		return errors.New("http.retries must not be negative")
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Match.Validate(); err != nil {
		return err
	}
	if c.Download.Timeout <= 0 {
		return errors.New("download.timeout must be positive")
	}
	if c.Download.MinSize < 0 || c.Download.ExistingMinSize < 0 {
		return errors.New("download sizes must not be negative")
	}
	if c.Harvest.Workers < 1 {
		return fmt.Errorf("harvest.workers must be at least 1, got %d", c.Harvest.Workers)
	}
	return nil
}

// Validate checks search settings.
func (c SearchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("search.endpoint is required when search is enabled")
	}
	if c.Interval < 0 {
		return errors.New("search.interval must not be negative")
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		return fmt.Errorf("search jitter range [%s, %s] is invalid", c.JitterMin, c.JitterMax)
	}
	if c.MaxResults < 1 {
		return errors.New("search.max_results must be at least 1")
	}
	if c.Timeout <= 0 {
		return errors.New("search.timeout must be positive")
	}
	return nil
}

// Validate checks that weights and threshold lie in [0,1] and that each
// pair of blend weights sums to at most 1, so combined scores stay in
// [0,1]. Fields are checked in declaration order.
func (c MatchConfig) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"title_weight", c.TitleWeight},
		{"author_weight", c.AuthorWeight},
		{"threshold", c.Threshold},
		{"jaccard_weight", c.JaccardWeight},
		{"sequence_weight", c.SequenceWeight},
	}
	for _, f := range fields {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("match.%s must be within [0,1], got %g", f.name, f.v)
		}
	}
	if sum := c.TitleWeight + c.AuthorWeight; sum > 1+weightEpsilon {
		return fmt.Errorf("match.title_weight + match.author_weight must not exceed 1, got %g", sum)
	}
	if sum := c.JaccardWeight + c.SequenceWeight; sum > 1+weightEpsilon {
		return fmt.Errorf("match.jaccard_weight + match.sequence_weight must not exceed 1, got %g", sum)
	}
	return nil
}

// weightEpsilon absorbs float rounding in weight sums such as 0.7 + 0.3.
const weightEpsilon = 1e-9
