package appointment

import (
	"github.com/woofdesk/woofdesk/internal/appointment/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("appointment",
	fx.Provide(repository.Provide),
)
