package subscription

import (
	"github.com/woofdesk/woofdesk/internal/subscription/repository"
	"github.com/woofdesk/woofdesk/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
