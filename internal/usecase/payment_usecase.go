package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type VerifyPaymentInput struct {
	OrderID          int64  `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type PaymentUsecase struct {
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	orderHistory repo.OrderHistoryRepository
	inventory    repo.InventoryRepository
	coupons      repo.CouponRepository
	carts        repo.CartRepository
	users        repo.UserRepository

	keySecret string
	trialMode bool

	logger *zap.Logger
	now    func() time.Time
}

func NewPaymentUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	orderHistory repo.OrderHistoryRepository,
	inventory repo.InventoryRepository,
	coupons repo.CouponRepository,
	carts repo.CartRepository,
	users repo.UserRepository,
	keySecret string,
	trialMode bool,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		orders:       orders,
		orderItems:   orderItems,
		orderHistory: orderHistory,
		inventory:    inventory,
		coupons:      coupons,
		carts:        carts,
		users:        users,
		keySecret:    keySecret,
		trialMode:    trialMode,
		logger:       logger,
		now:          time.Now,
	}
}

// VerifyPayment は決済の検証と確定を行う。
// 確定（pending/failed→completed）は条件付きUPDATE1回なので、
// 同じ注文に同時に来ても後段の処理はちょうど1回しか走らない。
// 署名不一致でfailedになった注文も、正しい署名なら再検証で確定できる。
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, userID int64, in VerifyPaymentInput) (model.Order, error) {
	order, err := u.orders.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Order not found")
	}
	if err != nil {
		return model.Order{}, err
	}

	//他人の注文は存在自体を見せない
	if order.UserID != userID {
		return model.Order{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Order not found")
	}

	//すでに確定済みなら何もしないで返す（再送に対して冪等）
	if order.Payment.Status == model.PaymentStatusCompleted && order.Status != model.OrderStatusPending {
		return order, nil
	}

	//trialモード・trial/cod決済は署名チェックなしで成功扱い。
	//それ以外はゲートウェイ署名を検証する。
	skipSignature := u.trialMode ||
		order.Payment.Method == model.PaymentMethodTrial ||
		order.Payment.Method == model.PaymentMethodCOD

	if !skipSignature {
		if order.Payment.GatewayOrderID != "" && in.GatewayOrderID != order.Payment.GatewayOrderID {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, CodePaymentVerification, "Payment verification failed")
		}
		if !gateway.VerifySignature(u.keySecret, in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
			if err := u.orders.MarkPaymentFailed(ctx, order.ID); err != nil {
				u.logger.Error("failed to mark payment failed",
					zap.Int64("order_id", order.ID), zap.Error(err))
			}
			return model.Order{}, NewHTTPError(http.StatusBadRequest, CodePaymentVerification, "Payment verification failed")
		}
	}

	paidAt := u.now()
	won, err := u.orders.CompletePaymentIfOpen(ctx, order.ID, in.GatewayPaymentID, in.Signature, paidAt)
	if err != nil {
		return model.Order{}, err
	}

	if !won {
		//別リクエストが先に確定させた。現状をそのまま返す
		current, err := u.orders.FindByID(ctx, order.ID)
		if err != nil {
			return model.Order{}, err
		}
		if current.Payment.Status == model.PaymentStatusCompleted {
			return current, nil
		}
		return model.Order{}, NewHTTPError(http.StatusConflict, CodeConflict, "Payment is not verifiable")
	}

	if err := u.orders.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed); err != nil {
		u.logger.Error("failed to confirm order after payment",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
	if err := u.orderHistory.Append(ctx, model.OrderStatusHistory{
		OrderID: order.ID,
		Status:  model.OrderStatusConfirmed,
		Message: "Payment verified",
	}); err != nil {
		u.logger.Error("failed to append order history",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	order.Status = model.OrderStatusConfirmed
	order.Payment.Status = model.PaymentStatusCompleted
	order.Payment.GatewayPaymentID = in.GatewayPaymentID
	order.Payment.GatewaySignature = in.Signature
	order.Payment.PaidAt = &paidAt

	items, err := u.orderItems.ListByOrderID(ctx, order.ID)
	if err != nil {
		u.logger.Error("failed to load order items for settlement",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return order, nil
	}

	u.settleOrder(ctx, order, items)

	return order, nil
}

// settleOrder は決済確定後の後始末。
// 各ステップは独立していて、1つ失敗しても残りは続ける。
// 決済は取れているので、ここの失敗でユーザーを止めない（ログで拾う）。
func (u *PaymentUsecase) settleOrder(ctx context.Context, order model.Order, items []model.OrderItem) {
	//1. 在庫の減算。足りない行は減らさずログだけ残す
	for _, it := range items {
		ok, err := u.inventory.DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
		if err != nil {
			u.logger.Error("stock decrement failed",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", it.ProductID),
				zap.Error(err))
			continue
		}
		if !ok {
			u.logger.Warn("stock not decremented: insufficient stock at settlement",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", it.ProductID),
				zap.Int64("quantity", it.Quantity))
		}
	}

	//2. クーポンの使用記録
	if order.CouponCode != "" {
		cp, err := u.coupons.FindByCode(ctx, order.CouponCode)
		if err != nil {
			u.logger.Error("coupon lookup failed at settlement",
				zap.Int64("order_id", order.ID),
				zap.String("coupon_code", order.CouponCode),
				zap.Error(err))
		} else {
			redeemed, err := u.coupons.Redeem(ctx, cp.ID, order.UserID, u.now())
			if err != nil {
				u.logger.Error("coupon redemption failed",
					zap.Int64("order_id", order.ID),
					zap.String("coupon_code", order.CouponCode),
					zap.Error(err))
			} else if !redeemed {
				u.logger.Warn("coupon not redeemed: already used or limit reached",
					zap.Int64("order_id", order.ID),
					zap.String("coupon_code", order.CouponCode))
			}
		}
	}

	//3. ユーザーの注文履歴
	if err := u.users.RecordOrder(ctx, order.UserID, order.CreatedAt); err != nil {
		u.logger.Error("failed to record order on user",
			zap.Int64("order_id", order.ID),
			zap.Int64("user_id", order.UserID),
			zap.Error(err))
	}

	//4. カートのリセット（削除はしない）
	cart, err := u.carts.FindActiveByUserID(ctx, order.UserID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			u.logger.Error("failed to load cart for reset",
				zap.Int64("order_id", order.ID),
				zap.Int64("user_id", order.UserID),
				zap.Error(err))
		}
		return
	}
	if err := u.carts.Reset(ctx, cart.ID); err != nil {
		u.logger.Error("cart reset failed",
			zap.Int64("order_id", order.ID),
			zap.Int64("cart_id", cart.ID),
			zap.Error(err))
	}
}
