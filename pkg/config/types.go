package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent memoire configuration stored as
// config.toml in the configured directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version      int                `toml:"version"`
	Storage      StorageConfig      `toml:"storage"`
	API          APIConfig          `toml:"api"`
	VectorStore  VectorStoreConfig  `toml:"vector_store"`
	Embedding    EmbeddingConfig    `toml:"embedding"`
	Chunking     ChunkingConfig     `toml:"chunking"`
	Search       SearchConfig       `toml:"search"`
	Intelligence IntelligenceConfig `toml:"intelligence"`
	Events       EventsConfig       `toml:"events"`
}

// StorageConfig holds relational store settings.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider     string `toml:"provider,omitempty"`
	Target       string `toml:"target,omitempty"`
	Model        string `toml:"model,omitempty"`
	Dimensions   uint   `toml:"dimensions,omitempty"`
	CacheTTLHrs  uint   `toml:"cache_ttl_hours,omitempty"`
	BatchSize    int    `toml:"batch_size,omitempty"`
	BatchDelayMs int    `toml:"batch_delay_ms,omitempty"`
}

// ChunkingConfig holds semantic chunking bounds.
type ChunkingConfig struct {
	MinChunkWords int `toml:"min_chunk_words,omitempty"`
	MaxChunkWords int `toml:"max_chunk_words,omitempty"`
}

// SearchConfig holds recall search settings.
type SearchConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold,omitempty"`
	MaxResults          int     `toml:"max_results,omitempty"`
}

// IntelligenceConfig holds generative provider settings for the
// curation, chunking, and synthesis pipelines.
type IntelligenceConfig struct {
	Provider           string  `toml:"provider,omitempty"`
	Target             string  `toml:"target,omitempty"`
	Model              string  `toml:"model,omitempty"`
	LightModel         string  `toml:"light_model,omitempty"`
	Temperature        float64 `toml:"temperature,omitempty"`
	CurationThreshold  float64 `toml:"curation_threshold,omitempty"`
	CurationMaxResults int     `toml:"curation_max_results,omitempty"`
}

// EventsConfig holds mutation event stream settings.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"embedding.cache_ttl_hours": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Embedding.CacheTTLHrs), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.cache_ttl_hours: %w", err)
			}
			c.Embedding.CacheTTLHrs = uint(n)
			return nil
		},
	},
	"embedding.batch_size": {
		get: func(c *Config) string { return strconv.Itoa(c.Embedding.BatchSize) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.batch_size: %w", err)
			}
			c.Embedding.BatchSize = n
			return nil
		},
	},
	"embedding.batch_delay_ms": {
		get: func(c *Config) string { return strconv.Itoa(c.Embedding.BatchDelayMs) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.batch_delay_ms: %w", err)
			}
			c.Embedding.BatchDelayMs = n
			return nil
		},
	},
	"chunking.min_chunk_words": {
		get: func(c *Config) string { return strconv.Itoa(c.Chunking.MinChunkWords) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for chunking.min_chunk_words: %w", err)
			}
			c.Chunking.MinChunkWords = n
			return nil
		},
	},
	"chunking.max_chunk_words": {
		get: func(c *Config) string { return strconv.Itoa(c.Chunking.MaxChunkWords) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for chunking.max_chunk_words: %w", err)
			}
			c.Chunking.MaxChunkWords = n
			return nil
		},
	},
	"search.similarity_threshold": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Search.SimilarityThreshold, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.similarity_threshold: %w", err)
			}
			c.Search.SimilarityThreshold = f
			return nil
		},
	},
	"search.max_results": {
		get: func(c *Config) string { return strconv.Itoa(c.Search.MaxResults) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.max_results: %w", err)
			}
			c.Search.MaxResults = n
			return nil
		},
	},
	"intelligence.provider": {
		get: func(c *Config) string { return c.Intelligence.Provider },
		set: func(c *Config, v string) error { c.Intelligence.Provider = v; return nil },
	},
	"intelligence.target": {
		get: func(c *Config) string { return c.Intelligence.Target },
		set: func(c *Config, v string) error { c.Intelligence.Target = v; return nil },
	},
	"intelligence.model": {
		get: func(c *Config) string { return c.Intelligence.Model },
		set: func(c *Config, v string) error { c.Intelligence.Model = v; return nil },
	},
	"intelligence.light_model": {
		get: func(c *Config) string { return c.Intelligence.LightModel },
		set: func(c *Config, v string) error { c.Intelligence.LightModel = v; return nil },
	},
	"intelligence.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Intelligence.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for intelligence.temperature: %w", err)
			}
			c.Intelligence.Temperature = f
			return nil
		},
	},
	"intelligence.curation_threshold": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Intelligence.CurationThreshold, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for intelligence.curation_threshold: %w", err)
			}
			c.Intelligence.CurationThreshold = f
			return nil
		},
	},
	"intelligence.curation_max_results": {
		get: func(c *Config) string { return strconv.Itoa(c.Intelligence.CurationMaxResults) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for intelligence.curation_max_results: %w", err)
			}
			c.Intelligence.CurationMaxResults = n
			return nil
		},
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			if v == "" {
				c.Events.Brokers = nil
				return nil
			}
			c.Events.Brokers = strings.Split(v, ",")
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
