package model

import (
	"fmt"
	"math/rand"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodTrial    PaymentMethod = "trial"
	PaymentMethodCOD      PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// 注文時にスナップショットする配送先。
type ShippingAddress struct {
	FullName     string `gorm:"type:varchar(255)" json:"full_name"`
	Phone        string `gorm:"type:varchar(30)" json:"phone"`
	AddressLine1 string `gorm:"type:varchar(255)" json:"address_line1"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"address_line2,omitempty"`
	City         string `gorm:"type:varchar(255)" json:"city"`
	State        string `gorm:"type:varchar(255)" json:"state"`
	Pincode      string `gorm:"type:varchar(20)" json:"pincode"`
	Country      string `gorm:"type:varchar(100)" json:"country"`
}

// 決済サブレコード。ステータス遷移はpending→completed/failedのみ。
type Payment struct {
	Method           PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	GatewayOrderID   string        `gorm:"type:varchar(100)" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string        `gorm:"type:varchar(100)" json:"gateway_payment_id,omitempty"`
	GatewaySignature string        `gorm:"type:varchar(255)" json:"-"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
}

// 金額の内訳スナップショット。
// taxはカート側の税に加えて注文時にもう一度かかる（現行仕様）。
type Pricing struct {
	Subtotal    float64 `gorm:"not null" json:"subtotal"`
	Discount    float64 `gorm:"not null;default:0" json:"discount"`
	Shipping    float64 `gorm:"not null;default:0" json:"shipping"`
	HandlingFee float64 `gorm:"not null;default:0" json:"handling_fee"`
	Tax         float64 `gorm:"not null;default:0" json:"tax"`
	Total       float64 `gorm:"not null" json:"total"`
}

type TrackingInfo struct {
	Carrier           string     `gorm:"type:varchar(100)" json:"carrier,omitempty"`
	TrackingNumber    string     `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// 注文。作成後はstatus/payment/tracking以外は書き換えない。
// 削除もしない。
type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	UserID      int64  `gorm:"not null;index" json:"user_id"`

	Shipping ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Pricing  Pricing         `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`

	//適用クーポンのスナップショット（コードと確定割引額）
	CouponCode     string  `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	CouponDiscount float64 `gorm:"not null;default:0" json:"coupon_discount,omitempty"`

	Payment Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Status   OrderStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	Tracking TrackingInfo `gorm:"embedded;embeddedPrefix:tracking_" json:"tracking_info"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 許可される遷移。前に戻る・終端から出る遷移は不可。
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// fromからtoへ進めるかどうか。
func CanTransition(from OrderStatus, to OrderStatus) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsValidOrderStatus(s OrderStatus) bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// NewOrderNumber は "ORD" + epochミリ秒の下8桁 + 4桁乱数。
// それ自体は一意保証がないので、DBのユニーク制約＋リトライで守る。
func NewOrderNumber(now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return fmt.Sprintf("ORD%s%04d", millis, rand.Intn(10000))
}
