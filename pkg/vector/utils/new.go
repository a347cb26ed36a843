// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/vector"
	"github.com/canopyhq/rolechat/pkg/vector/inmemory"
	"github.com/canopyhq/rolechat/pkg/vector/qdrant"
	"github.com/canopyhq/rolechat/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Host         string
	Port         int
	APIKey       string
	UseTLS       bool
	Collection   string
	SQLitePath   string
	Logger       *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Host:           o.Host,
			Port:           o.Port,
			APIKey:         o.APIKey,
			UseTLS:         o.UseTLS,
			CollectionName: o.Collection,
		}, o.Logger)
	case "sqlite-vec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath: o.SQLitePath,
		}, o.Logger)
	case "inmemory":
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
