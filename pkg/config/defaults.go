package config

const (
	defaultSQLitePath    = "vectors.db"
	defaultCorpusDir     = "corpus"
	defaultPlaybookDir   = "playbooks"
	defaultTelemetryPath = "metrics/curation_log.jsonl"
	defaultMaxRawFiles   = 120

	defaultAPIListen = ":8081"

	defaultVectorProvider = "sqlite-vec"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultCurationTopK = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
// LLM.Provider defaults empty: without a configured generator the curator
// stores text verbatim instead of summarizing.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			SQLitePath:    defaultSQLitePath,
			CorpusDir:     defaultCorpusDir,
			PlaybookDir:   defaultPlaybookDir,
			TelemetryPath: defaultTelemetryPath,
			MaxRawFiles:   defaultMaxRawFiles,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Curation: CurationConfig{
			TopK: defaultCurationTopK,
		},
	}
}
