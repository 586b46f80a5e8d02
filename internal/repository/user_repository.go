package repository

import (
	"app/internal/domain/model"
	"context"
	"time"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最後のログイン更新など
	Update(ctx context.Context, user *model.User) error

	// 注文履歴の追記（orders_count+1とlast_order_at）。reconcile用
	RecordOrder(ctx context.Context, userID int64, orderedAt time.Time) error
}
