package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent dossier configuration stored as
// config.toml in the .dossier/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Curation    CurationConfig    `toml:"curation"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
}

// StorageConfig holds the three on-disk trees plus retention settings.
// Relative paths are resolved under the .dossier/ directory at startup.
type StorageConfig struct {
	SQLitePath    string `toml:"sqlite_path,omitempty"`
	CorpusDir     string `toml:"corpus_dir,omitempty"`
	PlaybookDir   string `toml:"playbook_dir,omitempty"`
	TelemetryPath string `toml:"telemetry_path,omitempty"`
	MaxRawFiles   int    `toml:"max_raw_files,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Host     string `toml:"host,omitempty"`
	Port     int    `toml:"port,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds the generative curation model settings. An empty provider
// disables generation; curation then falls back to verbatim storage.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// CurationConfig holds knowledge-cache tuning.
type CurationConfig struct {
	LocationHint string `toml:"location_hint,omitempty"`
	TopK         int    `toml:"top_k,omitempty"`
}

// TelemetryConfig holds optional event streaming settings. Empty brokers
// keep telemetry local-only.
type TelemetryConfig struct {
	KafkaBrokers []string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `toml:"kafka_topic,omitempty"`
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
	"storage.corpus_dir": {
		get: func(c *Config) string { return c.Storage.CorpusDir },
		set: func(c *Config, v string) error { c.Storage.CorpusDir = v; return nil },
	},
	"storage.playbook_dir": {
		get: func(c *Config) string { return c.Storage.PlaybookDir },
		set: func(c *Config, v string) error { c.Storage.PlaybookDir = v; return nil },
	},
	"storage.telemetry_path": {
		get: func(c *Config) string { return c.Storage.TelemetryPath },
		set: func(c *Config, v string) error { c.Storage.TelemetryPath = v; return nil },
	},
	"storage.max_raw_files": {
		get: func(c *Config) string {
			if c.Storage.MaxRawFiles == 0 {
				return ""
			}
			return strconv.Itoa(c.Storage.MaxRawFiles)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for storage.max_raw_files: %w", err)
			}
			c.Storage.MaxRawFiles = n
			return nil
		},
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
	"vector_store.host": {
		get: func(c *Config) string { return c.VectorStore.Host },
		set: func(c *Config, v string) error { c.VectorStore.Host = v; return nil },
	},
	"vector_store.port": {
		get: func(c *Config) string {
			if c.VectorStore.Port == 0 {
				return ""
			}
			return strconv.Itoa(c.VectorStore.Port)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for vector_store.port: %w", err)
			}
			c.VectorStore.Port = n
			return nil
		},
	},
	"vector_store.api_key": {
		get: func(c *Config) string { return c.VectorStore.APIKey },
		set: func(c *Config, v string) error { c.VectorStore.APIKey = v; return nil },
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
	"embedding.api_key": {
		get: func(c *Config) string { return c.Embedding.APIKey },
		set: func(c *Config, v string) error { c.Embedding.APIKey = v; return nil },
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
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.api_key": {
		get: func(c *Config) string { return c.LLM.APIKey },
		set: func(c *Config, v string) error { c.LLM.APIKey = v; return nil },
	},
	"curation.location_hint": {
		get: func(c *Config) string { return c.Curation.LocationHint },
		set: func(c *Config, v string) error { c.Curation.LocationHint = v; return nil },
	},
	"curation.top_k": {
		get: func(c *Config) string {
			if c.Curation.TopK == 0 {
				return ""
			}
			return strconv.Itoa(c.Curation.TopK)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for curation.top_k: %w", err)
			}
			c.Curation.TopK = n
			return nil
		},
	},
	"telemetry.kafka_brokers": {
		get: func(c *Config) string { return strings.Join(c.Telemetry.KafkaBrokers, ",") },
		set: func(c *Config, v string) error {
			if v == "" {
				c.Telemetry.KafkaBrokers = nil
				return nil
			}
			brokers := strings.Split(v, ",")
			for i := range brokers {
				brokers[i] = strings.TrimSpace(brokers[i])
			}
			c.Telemetry.KafkaBrokers = brokers
			return nil
		},
	},
	"telemetry.kafka_topic": {
		get: func(c *Config) string { return c.Telemetry.KafkaTopic },
		set: func(c *Config, v string) error { c.Telemetry.KafkaTopic = v; return nil },
	},
}
