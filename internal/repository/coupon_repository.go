package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type CouponListFilter struct {
	// trueならis_active=true かつ 期限内のみ
	ActiveOnly bool
}

type CouponRepository interface {
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	Update(ctx context.Context, c model.Coupon) error
	FindByID(ctx context.Context, id int64) (model.Coupon, error)
	// codeは大文字化して検索
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	List(ctx context.Context, f CouponListFilter) ([]model.Coupon, error)

	// ハードデリートはしない（過去注文から参照されるため）
	Deactivate(ctx context.Context, id int64) error

	// このユーザーがすでに使っているか（usedBy相当）
	HasRedemption(ctx context.Context, couponID int64, userID int64) (bool, error)

	// 使用記録＋used_count+1を1回で行う。
	// 同一ユーザーの2回目や上限到達はfalse（ユニーク制約と条件付きUPDATEで守る）。
	Redeem(ctx context.Context, couponID int64, userID int64, usedAt time.Time) (bool, error)
}
