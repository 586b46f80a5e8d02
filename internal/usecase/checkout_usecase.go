package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 送料無料になる注文額と、各種手数料。
const (
	FreeShippingThreshold = 1000.0
	ShippingFee           = 50.0
	CODHandlingFee        = 50.0
)

// 注文番号の衝突時に振り直す最大回数
const orderNumberMaxRetries = 5

type CreateOrderInput struct {
	Shipping      model.ShippingAddress `json:"shipping_address"`
	PaymentMethod string                `json:"payment_method"`
}

type CreateOrderResult struct {
	Order     model.Order       `json:"order"`
	Items     []model.OrderItem `json:"items"`
	Intent    *gateway.Intent   `json:"payment_intent,omitempty"`
	TrialMode bool              `json:"trial_mode"`
	KeyID     string            `json:"key_id,omitempty"`
}

type CheckoutUsecase struct {
	txm     repo.TransactionManager
	gateway gateway.Client
	settler *PaymentUsecase

	trialMode bool
	keyID     string
	currency  string

	logger *zap.Logger
	now    func() time.Time
}

func NewCheckoutUsecase(
	txm repo.TransactionManager,
	gw gateway.Client,
	settler *PaymentUsecase,
	trialMode bool,
	keyID string,
	logger *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		txm:       txm,
		gateway:   gw,
		settler:   settler,
		trialMode: trialMode,
		keyID:     keyID,
		currency:  "INR",
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder はカートから注文を起こす。
// カート読み取り〜注文確定までは1トランザクション。
// ゲートウェイ呼び出しはcommit後（タイムアウトしても注文はpendingで残る）。
func (u *CheckoutUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (CreateOrderResult, error) {
	method, err := u.resolveMethod(in.PaymentMethod)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if err := validateShipping(in.Shipping); err != nil {
		return CreateOrderResult{}, err
	}

	now := u.now()

	var order model.Order
	var orderItems []model.OrderItem

	err = u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "Cart is empty")
		}
		if err != nil {
			return err
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "Cart is empty")
		}

		//在庫の事前チェックと明細スナップショット。
		//実際の減算は決済確定後の条件付きUPDATEが最終防衛線。
		orderItems = orderItems[:0]
		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, CodeValidation, "Product no longer available")
			}
			if err != nil {
				return err
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, CodeValidation, fmt.Sprintf("%s is no longer available", p.Name))
			}
			if p.Stock < it.Quantity {
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock, fmt.Sprintf("Insufficient stock for %s", p.Name))
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				ImageURLSnapshot:    p.ImageURL,
				UnitPriceSnapshot:   it.UnitPriceSnapshot,
				Quantity:            it.Quantity,
			})
		}

		//合計は必ず最新の明細から出し直す
		cart.RecalculateTotals(items)

		shipping := ShippingFee
		if cart.Total >= FreeShippingThreshold {
			shipping = 0
		}
		handlingFee := 0.0
		if method == model.PaymentMethodCOD {
			handlingFee = CODHandlingFee
		}
		//カート側ですでに税込みの額に、注文時の税をもう一度かける（現行仕様）
		tax := math.Round(model.TaxRate * (cart.Total + shipping + handlingFee))
		total := cart.Total + shipping + handlingFee + tax

		order = model.Order{
			UserID:   userID,
			Shipping: in.Shipping,
			Pricing: model.Pricing{
				Subtotal:    cart.Subtotal,
				Discount:    cart.Discount,
				Shipping:    shipping,
				HandlingFee: handlingFee,
				Tax:         tax,
				Total:       total,
			},
			CouponCode:     cart.CouponCode,
			CouponDiscount: cart.Discount,
			Payment: model.Payment{
				Method: method,
				Status: model.PaymentStatusPending,
			},
			Status: model.OrderStatusPending,
			//DB任せにしない：commit後の確定処理がこの値をそのまま使う
			CreatedAt: now,
		}

		//trialは即時完了扱い
		if method == model.PaymentMethodTrial {
			paidAt := now
			order.Payment.Status = model.PaymentStatusCompleted
			order.Payment.PaidAt = &paidAt
			order.Status = model.OrderStatusConfirmed
		}

		//番号はユニーク制約で守る。衝突したら振り直し。
		var orderID int64
		for attempt := 0; ; attempt++ {
			order.OrderNumber = model.NewOrderNumber(u.now())
			orderID, err = r.Orders().Create(ctx, order)
			if err == nil {
				break
			}
			if !errors.Is(err, repo.ErrConflict) {
				return err
			}
			if attempt+1 >= orderNumberMaxRetries {
				return NewHTTPError(http.StatusConflict, CodeOrderNumberConflict, "Could not allocate an order number")
			}
		}
		order.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
			OrderID: orderID,
			Status:  model.OrderStatusPending,
			Message: "Order created",
		}); err != nil {
			return err
		}
		if method == model.PaymentMethodTrial {
			if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
				OrderID: orderID,
				Status:  model.OrderStatusConfirmed,
				Message: "Payment completed (trial)",
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	result := CreateOrderResult{
		Order:     order,
		Items:     orderItems,
		TrialMode: u.trialMode,
	}

	switch method {
	case model.PaymentMethodTrial:
		//trialはここで確定処理まで済ませる
		u.settler.settleOrder(ctx, order, orderItems)

	case model.PaymentMethodCOD:
		//codは配達時決済。verify-paymentで確定する

	default:
		//ゲートウェイへのintent作成はcommit後。
		//失敗しても注文はpendingのまま残り、クライアントが再試行できる。
		amountPaise := int64(math.Round(order.Pricing.Total * 100))
		intent, err := u.gateway.CreateIntent(ctx, amountPaise, u.currency, order.OrderNumber)
		if err != nil {
			u.logger.Error("payment intent creation failed",
				zap.Int64("order_id", order.ID),
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
			return CreateOrderResult{}, NewHTTPError(http.StatusBadGateway, CodePaymentGateway, "Failed to initialize payment")
		}

		if err := u.settler.orders.SetGatewayOrderID(ctx, order.ID, intent.ID); err != nil {
			u.logger.Error("failed to store gateway order id",
				zap.Int64("order_id", order.ID),
				zap.String("gateway_order_id", intent.ID),
				zap.Error(err))
			return CreateOrderResult{}, err
		}
		order.Payment.GatewayOrderID = intent.ID

		result.Order = order
		result.Intent = &intent
		result.KeyID = u.keyID
	}

	return result, nil
}

// trialモード中はオンライン決済をtrialに読み替える。
func (u *CheckoutUsecase) resolveMethod(raw string) (model.PaymentMethod, error) {
	m := model.PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case model.PaymentMethodRazorpay, model.PaymentMethodTrial, model.PaymentMethodCOD:
	default:
		return "", NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid payment method")
	}

	if u.trialMode && m == model.PaymentMethodRazorpay {
		return model.PaymentMethodTrial, nil
	}
	return m, nil
}

func validateShipping(s model.ShippingAddress) error {
	missing := ""
	switch {
	case strings.TrimSpace(s.FullName) == "":
		missing = "full_name"
	case strings.TrimSpace(s.Phone) == "":
		missing = "phone"
	case strings.TrimSpace(s.AddressLine1) == "":
		missing = "address_line1"
	case strings.TrimSpace(s.City) == "":
		missing = "city"
	case strings.TrimSpace(s.State) == "":
		missing = "state"
	case strings.TrimSpace(s.Pincode) == "":
		missing = "pincode"
	}
	if missing != "" {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, fmt.Sprintf("shipping address: %s is required", missing))
	}
	return nil
}
