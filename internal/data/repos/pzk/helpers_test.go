package pzk

import (
	"context"

	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
)

func dbcCtx(ctx context.Context, tx *gorm.DB) dbctx.Context {
	return dbctx.WithTx(ctx, tx)
}
