package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// CartView はカート本体＋明細のレスポンス形。
type CartView struct {
	Cart  model.Cart       `json:"cart"`
	Items []model.CartItem `json:"items"`
}

type CartUsecase struct {
	carts    repo.CartRepository
	items    repo.CartItemRepository
	products repo.ProductRepository
	coupons  repo.CouponRepository

	//テストで時間を固定するため
	now func() time.Time
}

func NewCartUsecase(
	carts repo.CartRepository,
	items repo.CartItemRepository,
	products repo.ProductRepository,
	coupons repo.CouponRepository,
) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		items:    items,
		products: products,
		coupons:  coupons,
		now:      time.Now,
	}
}

// GetCart はACTIVEなカートを返す（なければ空のカートを作る）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartView, error) {
	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartView{}, err
	}

	return CartView{Cart: cart, Items: items}, nil
}

// AddToCart は商品をカートに入れる。同じ商品なら数量を加算。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, productID int64, qty int64) (CartView, error) {
	if qty < 1 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "quantity must be at least 1")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	if err != nil {
		return CartView{}, err
	}
	if !p.IsActive {
		return CartView{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}

	//ここでの在庫チェックは早期エラー用。確定時にもう一度条件付きで減算する。
	if p.Stock < qty {
		return CartView{}, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock, fmt.Sprintf("Insufficient stock for %s", p.Name))
	}

	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	if err := u.items.UpsertByCartAndProduct(ctx, cart.ID, productID, qty, p.Price); err != nil {
		return CartView{}, err
	}

	return u.recalculate(ctx, cart)
}

// UpdateItem は明細の数量を上書きする。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, productID int64, qty int64) (CartView, error) {
	if qty < 1 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "quantity must be at least 1")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	if err != nil {
		return CartView{}, err
	}
	if p.Stock < qty {
		return CartView{}, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock, fmt.Sprintf("Insufficient stock for %s", p.Name))
	}

	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	err = u.items.UpdateQuantity(ctx, cart.ID, productID, qty, p.Price)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Item not in cart")
	}
	if err != nil {
		return CartView{}, err
	}

	return u.recalculate(ctx, cart)
}

// RemoveItem は明細を1つ取り除く。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (CartView, error) {
	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	err = u.items.DeleteByCartAndProduct(ctx, cart.ID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Item not in cart")
	}
	if err != nil {
		return CartView{}, err
	}

	return u.recalculate(ctx, cart)
}

// ClearCart は明細もクーポンも全部消す。
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartView, error) {
	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	if err := u.carts.Reset(ctx, cart.ID); err != nil {
		return CartView{}, err
	}

	cart.ResetTotals()
	return CartView{Cart: cart, Items: []model.CartItem{}}, nil
}

// ApplyCoupon はクーポンを検証してカートにスナップショットする。
func (u *CartUsecase) ApplyCoupon(ctx context.Context, userID int64, code string) (CartView, error) {
	cp, err := u.coupons.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, CodeInvalidCoupon, "Invalid coupon code")
	}
	if err != nil {
		return CartView{}, err
	}

	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartView{}, err
	}
	if len(items) == 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "Cart is empty")
	}

	//最低注文額の判定は割引前の小計
	var subtotal float64
	for _, it := range items {
		subtotal += it.UnitPriceSnapshot * float64(it.Quantity)
	}

	alreadyUsed, err := u.coupons.HasRedemption(ctx, cp.ID, userID)
	if err != nil {
		return CartView{}, err
	}

	if ok, reason := cp.Validate(u.now(), subtotal, alreadyUsed); !ok {
		return CartView{}, NewHTTPError(http.StatusBadRequest, CodeInvalidCoupon, couponReasonMessage(cp, reason))
	}

	//percentage＋上限ありは、上限適用後の実質値（%換算）をスナップショットする。
	//適用後にカートが増えると割引がMaxDiscountを超え得る。
	//TODO: チェックアウト時にクーポンを再検証してスナップショットを取り直す
	cart.CouponCode = cp.Code
	cart.CouponType = cp.DiscountType
	cart.CouponValue = cp.DiscountValue
	if cp.DiscountType == model.DiscountTypePercentage && cp.MaxDiscount != nil {
		discount := cp.CalculateDiscount(subtotal)
		if subtotal > 0 {
			cart.CouponValue = discount / subtotal * 100
		}
	}

	cart.RecalculateTotals(items)
	if err := u.carts.SaveTotals(ctx, cart); err != nil {
		return CartView{}, err
	}

	return CartView{Cart: cart, Items: items}, nil
}

// RemoveCoupon はスナップショットを外して再計算する。
func (u *CartUsecase) RemoveCoupon(ctx context.Context, userID int64) (CartView, error) {
	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	cart.ClearCoupon()
	return u.recalculate(ctx, cart)
}

// 明細を読み直して合計4列を再計算・保存する。
func (u *CartUsecase) recalculate(ctx context.Context, cart model.Cart) (CartView, error) {
	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartView{}, err
	}

	cart.RecalculateTotals(items)
	if err := u.carts.SaveTotals(ctx, cart); err != nil {
		return CartView{}, err
	}

	return CartView{Cart: cart, Items: items}, nil
}

// 理由コード→ユーザー向けメッセージ。
func couponReasonMessage(cp model.Coupon, reason string) string {
	switch reason {
	case model.CouponReasonNotActive:
		return "Coupon is not active"
	case model.CouponReasonNotYetValid:
		return "Coupon is not valid yet"
	case model.CouponReasonExpired:
		return "Coupon has expired"
	case model.CouponReasonLimitReached:
		return "Coupon usage limit reached"
	case model.CouponReasonBelowMinOrder:
		return fmt.Sprintf("Minimum order amount of %.0f required", cp.MinOrderAmount)
	case model.CouponReasonAlreadyUsed:
		return "Coupon already used"
	default:
		return "Invalid coupon"
	}
}
