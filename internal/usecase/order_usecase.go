package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// OrderDetail は注文＋明細＋ステータス履歴。
type OrderDetail struct {
	Order   model.Order                `json:"order"`
	Items   []model.OrderItem          `json:"items"`
	History []model.OrderStatusHistory `json:"status_history"`
}

type OrderPage struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

type UpdateOrderStatusInput struct {
	Status  string `json:"status"`
	Message string `json:"message"`

	Carrier           string     `json:"carrier"`
	TrackingNumber    string     `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

type OrderUsecase struct {
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	orderHistory repo.OrderHistoryRepository
	inventory    repo.InventoryRepository

	logger *zap.Logger
}

func NewOrderUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	orderHistory repo.OrderHistoryRepository,
	inventory repo.InventoryRepository,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		orders:       orders,
		orderItems:   orderItems,
		orderHistory: orderHistory,
		inventory:    inventory,
		logger:       logger,
	}
}

// ListMyOrders は自分の注文一覧（新しい順）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderPage, error) {
	page, limit = normalizePage(page, limit)

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// GetOrderDetail は注文の詳細。本人か管理者だけが見られる。
func (u *OrderUsecase) GetOrderDetail(ctx context.Context, orderID int64, requesterID int64, isAdmin bool) (OrderDetail, error) {
	order, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderDetail{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Order not found")
	}
	if err != nil {
		return OrderDetail{}, err
	}

	if order.UserID != requesterID && !isAdmin {
		return OrderDetail{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Order not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	history, err := u.orderHistory.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}

	return OrderDetail{Order: order, Items: items, History: history}, nil
}

// ListAdmin は管理者用の全注文一覧（ステータス・ユーザー・期間で絞り込み）。
func (u *OrderUsecase) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) (OrderPage, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)

	if f.Status != "" && !model.IsValidOrderStatus(model.OrderStatus(f.Status)) {
		return OrderPage{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status filter")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: orders, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// UpdateStatus は管理者によるステータス変更。
// 許可された遷移だけ通し、履歴を残す。同じステータスへの変更は何もしない。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, in UpdateOrderStatusInput) (model.Order, error) {
	next := model.OrderStatus(in.Status)
	if !model.IsValidOrderStatus(next) {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid order status")
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Order not found")
	}
	if err != nil {
		return model.Order{}, err
	}

	if order.Status == next {
		return order, nil
	}

	if !model.CanTransition(order.Status, next) {
		return model.Order{}, NewHTTPError(http.StatusConflict, CodeInvalidTransition,
			fmt.Sprintf("Cannot transition from %s to %s", order.Status, next))
	}

	if err := u.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return model.Order{}, err
	}

	message := in.Message
	if message == "" {
		message = fmt.Sprintf("Status updated to %s", next)
	}
	if err := u.orderHistory.Append(ctx, model.OrderStatusHistory{
		OrderID: orderID,
		Status:  next,
		Message: message,
	}); err != nil {
		u.logger.Error("failed to append order history",
			zap.Int64("order_id", orderID), zap.Error(err))
	}

	if in.Carrier != "" || in.TrackingNumber != "" || in.EstimatedDelivery != nil {
		t := model.TrackingInfo{
			Carrier:           in.Carrier,
			TrackingNumber:    in.TrackingNumber,
			EstimatedDelivery: in.EstimatedDelivery,
		}
		if err := u.orders.UpdateTracking(ctx, orderID, t); err != nil {
			u.logger.Error("failed to update tracking info",
				zap.Int64("order_id", orderID), zap.Error(err))
		} else {
			order.Tracking = t
		}
	}

	//決済確定後のキャンセルは引き当て済みの在庫を戻す。
	//pendingのキャンセルはまだ減っていないので何もしない。
	if next == model.OrderStatusCancelled && order.Payment.Status == model.PaymentStatusCompleted {
		u.restock(ctx, orderID)
	}

	order.Status = next
	return order, nil
}

func (u *OrderUsecase) restock(ctx context.Context, orderID int64) {
	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		u.logger.Error("failed to load items for restock",
			zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	for _, it := range items {
		if err := u.inventory.IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			u.logger.Error("restock failed",
				zap.Int64("order_id", orderID),
				zap.Int64("product_id", it.ProductID),
				zap.Error(err))
		}
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
