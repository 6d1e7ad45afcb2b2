//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/cavefish/internal/app"
	"github.com/zeusync/cavefish/internal/config"
)

func InitializeApp(f *config.File, opts Options) (*app.App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
