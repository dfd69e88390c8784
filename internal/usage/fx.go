package usage

import (
	"github.com/woofdesk/woofdesk/internal/usage/repository"
	"github.com/woofdesk/woofdesk/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
