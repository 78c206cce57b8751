package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fahd-noodleseed/memoire/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MEMOIRE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via viper's flag binding)
//  2. Environment variables (MEMOIRE_API_LISTEN, MEMOIRE_EMBEDDING_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MEMOIRE_API_LISTEN, MEMOIRE_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("MEMOIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.cache_ttl_hours", d.Embedding.CacheTTLHrs)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)
	v.SetDefault("embedding.batch_delay_ms", d.Embedding.BatchDelayMs)

	// Chunking
	v.SetDefault("chunking.min_chunk_words", d.Chunking.MinChunkWords)
	v.SetDefault("chunking.max_chunk_words", d.Chunking.MaxChunkWords)

	// Search
	v.SetDefault("search.similarity_threshold", d.Search.SimilarityThreshold)
	v.SetDefault("search.max_results", d.Search.MaxResults)

	// Intelligence
	v.SetDefault("intelligence.provider", d.Intelligence.Provider)
	v.SetDefault("intelligence.target", d.Intelligence.Target)
	v.SetDefault("intelligence.model", d.Intelligence.Model)
	v.SetDefault("intelligence.light_model", d.Intelligence.LightModel)
	v.SetDefault("intelligence.temperature", d.Intelligence.Temperature)
	v.SetDefault("intelligence.curation_threshold", d.Intelligence.CurationThreshold)
	v.SetDefault("intelligence.curation_max_results", d.Intelligence.CurationMaxResults)

	// Events
	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
