package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --sqlite
// on both "memoire serve" and "memoire recall").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen         = "listen"
	FlagSQLite            = "sqlite"
	FlagVectorStoreProv   = "vector-store-provider"
	FlagVectorStoreTgt    = "vector-store-target"
	FlagEmbeddingProv     = "embedding-provider"
	FlagEmbeddingTgt      = "embedding-target"
	FlagEmbeddingModel    = "embedding-model"
	FlagEmbeddingDims     = "embedding-dimensions"
	FlagIntelligenceProv  = "intelligence-provider"
	FlagIntelligenceTgt   = "intelligence-target"
	FlagIntelligenceModel = "intelligence-model"
)

// DefaultFlags returns the registry of all memoire CLI flags.
func DefaultFlags() FlagSet {
	return FlagSet{
		FlagAPIListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "api.listen",
			Description: "Address for the API server to listen on",
		},
		FlagSQLite: {
			Name:        "sqlite",
			Shorthand:   "s",
			ViperKey:    "storage.sqlite_path",
			Description: "Path to SQLite database (default: <config dir>/memoire.db)",
		},
		FlagVectorStoreProv: {
			Name:        "vector-store-provider",
			ViperKey:    "vector_store.provider",
			Description: "Vector store provider (sqlite, qdrant)",
		},
		FlagVectorStoreTgt: {
			Name:        "vector-store-target",
			ViperKey:    "vector_store.target",
			Description: "Vector store target (qdrant host:port, or sqlite file path)",
		},
		FlagEmbeddingProv: {
			Name:        "embedding-provider",
			ViperKey:    "embedding.provider",
			Description: "Embedding provider (ollama, openai)",
		},
		FlagEmbeddingTgt: {
			Name:        "embedding-target",
			ViperKey:    "embedding.target",
			Description: "Embedding provider base URL",
		},
		FlagEmbeddingModel: {
			Name:        "embedding-model",
			ViperKey:    "embedding.model",
			Description: "Embedding model name",
		},
		FlagEmbeddingDims: {
			Name:        "embedding-dimensions",
			ViperKey:    "embedding.dimensions",
			Description: "Embedding vector dimensions",
		},
		FlagIntelligenceProv: {
			Name:        "intelligence-provider",
			ViperKey:    "intelligence.provider",
			Description: "Generative provider for curation and synthesis (ollama, openai, anthropic)",
		},
		FlagIntelligenceTgt: {
			Name:        "intelligence-target",
			ViperKey:    "intelligence.target",
			Description: "Generative provider base URL",
		},
		FlagIntelligenceModel: {
			Name:        "intelligence-model",
			ViperKey:    "intelligence.model",
			Description: "Generative model name",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
