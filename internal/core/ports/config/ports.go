package configports

import (
	"context"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
)

type Loader interface {
	Load(ctx context.Context) (configdomain.Snapshot, error)
	Name() string
}

type Storage interface {
	LoadSaved(ctx context.Context) (configdomain.Snapshot, error)
	Save(ctx context.Context, snap configdomain.Snapshot) error
}

type Validator interface {
	Validate(snap configdomain.Snapshot) error
}
