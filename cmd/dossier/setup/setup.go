// Package setup resolves configured storage paths and wires the knowledge
// cache from viper configuration. It is shared by the serve, playbook, and
// stats commands so they all open the same stores the same way.
package setup

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/corpus"
	"github.com/quarryhq/dossier/pkg/curator"
	"github.com/quarryhq/dossier/pkg/dotdir"
	embeddingutils "github.com/quarryhq/dossier/pkg/embeddings/utils"
	"github.com/quarryhq/dossier/pkg/knowledge"
	"github.com/quarryhq/dossier/pkg/llm"
	llmutils "github.com/quarryhq/dossier/pkg/llm/utils"
	"github.com/quarryhq/dossier/pkg/playbook"
	"github.com/quarryhq/dossier/pkg/telemetry"
	vectorutils "github.com/quarryhq/dossier/pkg/vector/utils"
)

// Paths holds the resolved on-disk locations for the cache's stores.
type Paths struct {
	SQLite    string
	Corpus    string
	Playbooks string
	Telemetry string
}

// ResolvePaths turns the configured storage paths into absolute ones.
// Relative paths are anchored at the .dossier/ directory so the cache
// travels with its config.
func ResolvePaths(v *viper.Viper, configDir string) (*Paths, error) {
	ddm := dotdir.NewManager()
	base, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving dossier directory: %w", err)
	}

	anchor := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(base, path)
	}

	return &Paths{
		SQLite:    anchor(v.GetString("storage.sqlite_path")),
		Corpus:    anchor(v.GetString("storage.corpus_dir")),
		Playbooks: anchor(v.GetString("storage.playbook_dir")),
		Telemetry: anchor(v.GetString("storage.telemetry_path")),
	}, nil
}

// OpenPlaybooks opens just the playbook store. Used by the playbook
// subcommands, which do not need the full cache.
func OpenPlaybooks(v *viper.Viper, configDir string, logger *zap.Logger) (*playbook.Store, error) {
	paths, err := ResolvePaths(v, configDir)
	if err != nil {
		return nil, err
	}
	return playbook.NewStore(paths.Playbooks, logger)
}

// BuildCache wires the full knowledge cache from viper configuration:
// stores, vector driver, embedder, optional generator, and telemetry.
// The returned closer releases the vector driver and provider clients.
func BuildCache(v *viper.Viper, configDir string, logger *zap.Logger) (*knowledge.Cache, func(), error) {
	paths, err := ResolvePaths(v, configDir)
	if err != nil {
		return nil, nil, err
	}

	corpusStore, err := corpus.NewStore(paths.Corpus, v.GetInt("storage.max_raw_files"), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening corpus store: %w", err)
	}

	playbookStore, err := playbook.NewStore(paths.Playbooks, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening playbook store: %w", err)
	}

	driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		TargetURL:    v.GetString("vector_store.target"),
		Host:         v.GetString("vector_store.host"),
		Port:         v.GetInt("vector_store.port"),
		APIKey:       v.GetString("vector_store.api_key"),
		DBPath:       paths.SQLite,
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating vector driver: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		APIKey:       v.GetString("embedding.api_key"),
	})
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	// The generator is optional. Without one the curator stores text
	// verbatim instead of distilling it.
	var generator llm.Generator
	if provider := v.GetString("llm.provider"); provider != "" {
		generator, err = llmutils.NewGenerator(&llmutils.NewGeneratorOpts{
			ProviderType: provider,
			TargetURL:    v.GetString("llm.target"),
			Model:        v.GetString("llm.model"),
			APIKey:       v.GetString("llm.api_key"),
		})
		if err != nil {
			driver.Close()
			embedder.Close()
			return nil, nil, fmt.Errorf("creating generator: %w", err)
		}
	}

	telemetryOpts := []telemetry.Option{}
	var kafkaPub *telemetry.KafkaPublisher
	if brokers := v.GetStringSlice("telemetry.kafka_brokers"); len(brokers) > 0 {
		kafkaPub, err = telemetry.NewKafkaPublisher(telemetry.KafkaConfig{
			Brokers: brokers,
			Topic:   v.GetString("telemetry.kafka_topic"),
		}, logger)
		if err != nil {
			driver.Close()
			embedder.Close()
			if generator != nil {
				generator.Close()
			}
			return nil, nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		telemetryOpts = append(telemetryOpts, telemetry.WithPublisher(kafkaPub))
	}

	telemetryLog, err := telemetry.NewLog(paths.Telemetry, logger, telemetryOpts...)
	if err != nil {
		driver.Close()
		embedder.Close()
		if generator != nil {
			generator.Close()
		}
		if kafkaPub != nil {
			kafkaPub.Close()
		}
		return nil, nil, fmt.Errorf("opening telemetry log: %w", err)
	}

	cache, err := knowledge.NewCache(knowledge.Options{
		Corpus:       corpusStore,
		Playbooks:    playbookStore,
		Driver:       driver,
		Embedder:     embedder,
		Curator:      curator.New(generator, logger),
		Telemetry:    telemetryLog,
		Logger:       logger,
		LocationHint: v.GetString("curation.location_hint"),
	})
	if err != nil {
		driver.Close()
		embedder.Close()
		if generator != nil {
			generator.Close()
		}
		if kafkaPub != nil {
			kafkaPub.Close()
		}
		return nil, nil, err
	}

	closer := func() {
		if err := driver.Close(); err != nil {
			logger.Warn("closing vector driver", zap.Error(err))
		}
		if err := embedder.Close(); err != nil {
			logger.Warn("closing embedder", zap.Error(err))
		}
		if generator != nil {
			if err := generator.Close(); err != nil {
				logger.Warn("closing generator", zap.Error(err))
			}
		}
		if kafkaPub != nil {
			if err := kafkaPub.Close(); err != nil {
				logger.Warn("closing kafka publisher", zap.Error(err))
			}
		}
	}

	return cache, closer, nil
}
