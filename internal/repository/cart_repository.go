package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)

	// クーポンスナップショットと4つの合計列を保存
	SaveTotals(ctx context.Context, cart model.Cart) error

	// 注文確定後のリセット：明細全削除＋クーポン解除＋合計0
	Reset(ctx context.Context, cartID int64) error
}
