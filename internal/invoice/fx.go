package invoice

import (
	"github.com/woofdesk/woofdesk/internal/invoice/render"
	"github.com/woofdesk/woofdesk/internal/invoice/repository"
	"github.com/woofdesk/woofdesk/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewPDF),
	fx.Provide(service.NewService),
)
