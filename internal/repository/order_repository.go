package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	// order_numberの衝突はErrConflictで返す（呼び出し側が番号を振り直す）
	Create(ctx context.Context, order model.Order) (int64, error)

	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdateTracking(ctx context.Context, orderID int64, t model.TrackingInfo) error

	// ゲートウェイ発行の注文IDを保存（intent作成後）
	SetGatewayOrderID(ctx context.Context, orderID int64, gatewayOrderID string) error

	// 決済のpending/failed→completedを1つの条件付きUPDATEで行う。
	// failedも対象（署名不一致後に正しい署名で再検証できる）。
	// すでにcompletedならfalse（確定処理の二重実行ガード）。
	CompletePaymentIfOpen(ctx context.Context, orderID int64, gatewayPaymentID string, signature string, paidAt time.Time) (bool, error)

	// 署名不一致。pendingのときだけfailedにする
	MarkPaymentFailed(ctx context.Context, orderID int64) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
