package config

const (
	defaultAPIListen = ":8000"

	defaultCorpusRoot   = "./data"
	defaultMaxWords     = 400
	defaultOverlapWords = 50
	defaultMinWords     = 10
	defaultMinRowWords  = 5

	defaultVectorProvider   = "qdrant"
	defaultVectorHost       = "localhost"
	defaultVectorPort       = 6334
	defaultVectorCollection = "rolechat_docs"
	defaultVectorSQLitePath = "vectors.db"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMProvider = "ollama"
	defaultLLMTarget   = "http://localhost:11434"
	defaultLLMModel    = "llama3.1"

	defaultTopK     = 5
	defaultMinScore = 0.3

	defaultUsersSQLitePath = "rolechat.db"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "rolechat.indexing"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Corpus: CorpusConfig{
			Root:         defaultCorpusRoot,
			MaxWords:     defaultMaxWords,
			OverlapWords: defaultOverlapWords,
			MinWords:     defaultMinWords,
			MinRowWords:  defaultMinRowWords,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Host:       defaultVectorHost,
			Port:       defaultVectorPort,
			Collection: defaultVectorCollection,
			SQLitePath: defaultVectorSQLitePath,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Target:   defaultLLMTarget,
			Model:    defaultLLMModel,
		},
		Retrieval: RetrievalConfig{
			TopK:     defaultTopK,
			MinScore: defaultMinScore,
		},
		Users: UsersConfig{
			SQLitePath: defaultUsersSQLitePath,
			Seed:       true,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
