// Package config implements the ambient YAML configuration surface: cache
// sizes, blob tier thresholds, service idle-session timeout, and the
// default ignore syntax, loaded via encoding.LoadAndUnmarshalYAML.
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vfscore/vfscore/pkg/encoding"
)

// IgnoreSyntax names which ignore-file syntax the sparse view's
// .gitignore ingestion helper should assume by default. Only "gitignore"
// is implemented by pkg/sparse today; the field exists so a future
// "docker" syntax slots in without a config-shape change.
type IgnoreSyntax string

const (
	IgnoreSyntaxGitignore IgnoreSyntax = "gitignore"
	IgnoreSyntaxDocker    IgnoreSyntax = "docker"
)

// PatternConfiguration configures the glob pattern engine (component B).
type PatternConfiguration struct {
	// CacheSize bounds the shouldInclude/shouldTraverse LRU memoization
	// cache. Zero selects pattern.DefaultCacheSize.
	CacheSize int `yaml:"cacheSize"`
	// DefaultIgnoreSyntax is the ignore-file syntax pkg/sparse assumes when
	// a caller doesn't specify one explicitly.
	DefaultIgnoreSyntax IgnoreSyntax `yaml:"defaultIgnoreSyntax"`
}

// BlobConfiguration configures the content-addressable blob store
// (component C).
type BlobConfiguration struct {
	// HotThreshold is the size below which an untiered put defaults to the
	// hot tier; at or above it, warm.
	HotThreshold ByteSize `yaml:"hotThreshold"`
	// DurablePath, if set, enables the bbolt-backed durable tier at this
	// file path for blobs placed in the cold tier.
	DurablePath string `yaml:"durablePath"`
}

// ServiceConfiguration configures the JSON/HTTP service adapter
// (component H).
type ServiceConfiguration struct {
	// IdleSessionTimeout is loaded and validated, but cmd/vfsd does not pass
	// it to pkg/service, whose session sweep uses a fixed 5-minute idle
	// timeout.
	IdleSessionTimeout Duration `yaml:"idleSessionTimeout"`
	// DefaultChunkSize is loaded and validated, but cmd/vfsd does not pass
	// it to pkg/service; streamReadStart/streamWriteStart fall back to a
	// fixed 64 KiB chunk size when the caller doesn't specify one.
	DefaultChunkSize ByteSize `yaml:"defaultChunkSize"`
	// ListenAddress is the address cmd/vfsd's serve subcommand binds the
	// POST /rpc endpoint to.
	ListenAddress string `yaml:"listenAddress"`
}

// Configuration is the top-level YAML configuration object.
type Configuration struct {
	Pattern  PatternConfiguration `yaml:"pattern"`
	Blob     BlobConfiguration    `yaml:"blob"`
	Service  ServiceConfiguration `yaml:"service"`
}

// defaults mirrors the in-code defaults of the packages a Configuration
// feeds, so a caller who loads nothing still gets a usable configuration.
func defaults() Configuration {
	return Configuration{
		Pattern: PatternConfiguration{
			CacheSize:           10000,
			DefaultIgnoreSyntax: IgnoreSyntaxGitignore,
		},
		Blob: BlobConfiguration{
			HotThreshold: 64 * 1024,
		},
		Service: ServiceConfiguration{
			IdleSessionTimeout: Duration(5 * time.Minute),
			DefaultChunkSize:   64 * 1024,
			ListenAddress:      "127.0.0.1:9876",
		},
	}
}

// Load reads and validates a YAML configuration file at path, starting
// from Defaults and overlaying whatever the file specifies.
func Load(path string) (Configuration, error) {
	result := defaults()
	if err := encoding.LoadAndUnmarshalYAML(path, &result); err != nil {
		return Configuration{}, errors.Wrap(err, "unable to load configuration")
	}
	if err := result.validate(); err != nil {
		return Configuration{}, errors.Wrap(err, "invalid configuration")
	}
	return result, nil
}

// Defaults returns the configuration that applies when no file is loaded.
func Defaults() Configuration {
	return defaults()
}

func (c Configuration) validate() error {
	if c.Pattern.CacheSize < 0 {
		return errors.New("pattern.cacheSize must be non-negative")
	}
	switch c.Pattern.DefaultIgnoreSyntax {
	case IgnoreSyntaxGitignore, IgnoreSyntaxDocker:
	default:
		return errors.Errorf("unknown pattern.defaultIgnoreSyntax %q", c.Pattern.DefaultIgnoreSyntax)
	}
	if c.Blob.HotThreshold == 0 {
		return errors.New("blob.hotThreshold must be positive")
	}
	if c.Service.IdleSessionTimeout <= 0 {
		return errors.New("service.idleSessionTimeout must be positive")
	}
	if c.Service.DefaultChunkSize == 0 {
		return errors.New("service.defaultChunkSize must be positive")
	}
	return nil
}
