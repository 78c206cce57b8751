package vectorutils

import (
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/vector"
	"github.com/fahd-noodleseed/memoire/pkg/vector/qdrant"
	"github.com/fahd-noodleseed/memoire/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	// ProviderType selects the driver implementation ("sqlite" or "qdrant").
	ProviderType string

	// Target is the provider location: a database file path for sqlite,
	// or a host:port pair for qdrant.
	Target string

	// Dimensions is the embedding vector size.
	Dimensions uint

	Logger *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)

	case "qdrant":
		host, port, err := splitHostPort(o.Target)
		if err != nil {
			return nil, fmt.Errorf("parsing qdrant target %q: %w", o.Target, err)
		}
		return qdrant.NewQdrantDriver(qdrant.Config{
			Host:       host,
			Port:       port,
			Dimensions: o.Dimensions,
		}, o.Logger)

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitHostPort parses "host:port", tolerating a bare host (default port 0
// lets the driver pick its own default).
func splitHostPort(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	return host, port, nil
}
