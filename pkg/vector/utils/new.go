// Package vectorutils constructs vector drivers from provider configuration.
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/vector"
	"github.com/quarryhq/dossier/pkg/vector/chroma"
	"github.com/quarryhq/dossier/pkg/vector/qdrant"
	"github.com/quarryhq/dossier/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	// ProviderType selects the backend: "sqlite-vec", "chroma" or "qdrant".
	ProviderType string

	// TargetURL is the server URL for chroma, or host:port base for qdrant.
	TargetURL string

	// Host and Port locate a qdrant server.
	Host string
	Port int

	// APIKey authenticates against hosted providers. Optional.
	APIKey string

	// DBPath is the database file path for sqlite-vec.
	DBPath string

	// Dimensions is the embedding width for backends that need it declared.
	Dimensions uint

	Logger *zap.Logger
}

// NewDriver builds the vector driver named by ProviderType.
func NewDriver(o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite-vec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Host:       o.Host,
			Port:       o.Port,
			APIKey:     o.APIKey,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
