package credit

import (
	"github.com/woofdesk/woofdesk/internal/credit/repository"
	"github.com/woofdesk/woofdesk/internal/credit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
