package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品はプラス（単価スナップショットは最新の価格で上書き）
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot float64) error
	UpdateQuantity(ctx context.Context, cartID int64, productID int64, qty int64, unitPriceSnapshot float64) error
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error
}
