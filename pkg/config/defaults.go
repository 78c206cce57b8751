package config

const (
	defaultAPIListen = ":8642"

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768
	defaultCacheTTLHours       = 24
	defaultBatchSize           = 10
	defaultBatchDelayMs        = 100

	defaultMinChunkWords = 20
	defaultMaxChunkWords = 150

	defaultSimilarityThreshold = 0.6
	defaultMaxResults          = 10

	defaultIntelligenceProvider = "ollama"
	defaultIntelligenceTarget   = "http://localhost:11434"
	defaultIntelligenceModel    = "llama3.2"
	defaultLightModel           = "llama3.2:1b"
	defaultTemperature          = 0.2

	defaultCurationThreshold  = 0.4
	defaultCurationMaxResults = 50

	defaultEventsTopic = "memoire.mutations"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:     defaultEmbeddingProvider,
			Target:       defaultEmbeddingTarget,
			Model:        defaultEmbeddingModel,
			Dimensions:   defaultEmbeddingDimensions,
			CacheTTLHrs:  defaultCacheTTLHours,
			BatchSize:    defaultBatchSize,
			BatchDelayMs: defaultBatchDelayMs,
		},
		Chunking: ChunkingConfig{
			MinChunkWords: defaultMinChunkWords,
			MaxChunkWords: defaultMaxChunkWords,
		},
		Search: SearchConfig{
			SimilarityThreshold: defaultSimilarityThreshold,
			MaxResults:          defaultMaxResults,
		},
		Intelligence: IntelligenceConfig{
			Provider:           defaultIntelligenceProvider,
			Target:             defaultIntelligenceTarget,
			Model:              defaultIntelligenceModel,
			LightModel:         defaultLightModel,
			Temperature:        defaultTemperature,
			CurationThreshold:  defaultCurationThreshold,
			CurationMaxResults: defaultCurationMaxResults,
		},
		Events: EventsConfig{
			Enabled: false,
			Topic:   defaultEventsTopic,
		},
	}
}
