package contract

import (
	"context"

	"thoughtstream/internal/entity"

	"github.com/google/uuid"
)

type UserContextRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserContext, error)
	Upsert(ctx context.Context, ctxEntity *entity.UserContext) error
}
