package commission

import (
	"github.com/woofdesk/woofdesk/internal/commission/repository"
	"github.com/woofdesk/woofdesk/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
