package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	carts     *fakeCartRepo
	cartItems *fakeCartItemRepo
	products  *fakeProductRepo
	coupons   *fakeCouponRepo

	uc *CartUsecase
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:     &fakeCartRepo{cart: model.Cart{ID: 5, UserID: 9, Status: model.CartStatusActive}},
		cartItems: &fakeCartItemRepo{},
		products:  newFakeProductRepo(model.Product{ID: 1, Name: "Widget", Price: 1000, Stock: 10, IsActive: true}),
		coupons:   newFakeCouponRepo(),
	}
	f.uc = NewCartUsecase(f.carts, f.cartItems, f.products, f.coupons)
	return f
}

func (f *cartFixture) addCoupon(c model.Coupon) {
	f.coupons.byCode[c.Code] = c
}

func TestAddToCart_RecalculatesTotals(t *testing.T) {
	f := newCartFixture()

	view, err := f.uc.AddToCart(context.Background(), 9, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, view.Cart.Subtotal)
	assert.Equal(t, 360.0, view.Cart.Tax)
	assert.Equal(t, 2360.0, view.Cart.Total)

	//合計は保存されている
	require.NotEmpty(t, f.carts.saved)
	assert.Equal(t, 2360.0, f.carts.saved[len(f.carts.saved)-1].Total)

	//単価は追加時点の価格でスナップショット
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1000.0, view.Items[0].UnitPriceSnapshot)
}

func TestAddToCart_SameProductAccumulates(t *testing.T) {
	f := newCartFixture()

	_, err := f.uc.AddToCart(context.Background(), 9, 1, 1)
	require.NoError(t, err)
	view, err := f.uc.AddToCart(context.Background(), 9, 1, 2)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(3), view.Items[0].Quantity)
	assert.Equal(t, 3000.0, view.Cart.Subtotal)
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	f := newCartFixture()

	_, err := f.uc.AddToCart(context.Background(), 9, 999, 1)
	requireHTTPError(t, err, http.StatusNotFound, CodeNotFound)
}

func TestAddToCart_InactiveProductHidden(t *testing.T) {
	f := newCartFixture()
	f.products.products[1] = model.Product{ID: 1, Name: "Widget", Price: 1000, Stock: 10, IsActive: false}

	_, err := f.uc.AddToCart(context.Background(), 9, 1, 1)
	requireHTTPError(t, err, http.StatusNotFound, CodeNotFound)
}

func TestAddToCart_InsufficientStock(t *testing.T) {
	f := newCartFixture()

	_, err := f.uc.AddToCart(context.Background(), 9, 1, 11)
	he := requireHTTPError(t, err, http.StatusBadRequest, CodeInsufficientStock)
	assert.Equal(t, "Insufficient stock for Widget", he.Message)
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	f := newCartFixture()

	_, err := f.uc.AddToCart(context.Background(), 9, 1, 0)
	requireHTTPError(t, err, http.StatusBadRequest, CodeValidation)
}

func TestUpdateItem_NotInCart(t *testing.T) {
	f := newCartFixture()
	f.cartItems.missing = true

	_, err := f.uc.UpdateItem(context.Background(), 9, 1, 2)
	requireHTTPError(t, err, http.StatusNotFound, CodeNotFound)
}

func TestRemoveItem_RecalculatesTotals(t *testing.T) {
	f := newCartFixture()
	f.cartItems.items = []model.CartItem{
		{CartID: 5, ProductID: 1, Quantity: 2, UnitPriceSnapshot: 1000},
		{CartID: 5, ProductID: 2, Quantity: 1, UnitPriceSnapshot: 500},
	}

	view, err := f.uc.RemoveItem(context.Background(), 9, 1)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 500.0, view.Cart.Subtotal)
	assert.Equal(t, 590.0, view.Cart.Total)
}

func TestClearCart(t *testing.T) {
	f := newCartFixture()
	f.carts.cart.CouponCode = "FLAT150"
	f.carts.cart.Total = 2210

	view, err := f.uc.ClearCart(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, []int64{5}, f.carts.resets)
	assert.Empty(t, view.Items)
	assert.False(t, view.Cart.HasCoupon())
	assert.Equal(t, 0.0, view.Cart.Total)
}

func activePercentageCoupon() model.Coupon {
	maxDiscount := 150.0
	return model.Coupon{
		ID: 7, Code: "SAVE10",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: 10,
		MaxDiscount:   &maxDiscount,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
}

func TestApplyCoupon_InvalidCode(t *testing.T) {
	f := newCartFixture()
	f.cartItems.items = []model.CartItem{{CartID: 5, ProductID: 1, Quantity: 1, UnitPriceSnapshot: 1000}}

	_, err := f.uc.ApplyCoupon(context.Background(), 9, "NOPE")
	he := requireHTTPError(t, err, http.StatusNotFound, CodeInvalidCoupon)
	assert.Equal(t, "Invalid coupon code", he.Message)
}

func TestApplyCoupon_EmptyCart(t *testing.T) {
	f := newCartFixture()
	f.addCoupon(activePercentageCoupon())

	_, err := f.uc.ApplyCoupon(context.Background(), 9, "SAVE10")
	requireHTTPError(t, err, http.StatusBadRequest, CodeEmptyCart)
}

func TestApplyCoupon_BelowMinOrder(t *testing.T) {
	f := newCartFixture()
	cp := activePercentageCoupon()
	cp.MinOrderAmount = 5000
	f.addCoupon(cp)
	f.cartItems.items = []model.CartItem{{CartID: 5, ProductID: 1, Quantity: 2, UnitPriceSnapshot: 1000}}

	_, err := f.uc.ApplyCoupon(context.Background(), 9, "SAVE10")
	he := requireHTTPError(t, err, http.StatusBadRequest, CodeInvalidCoupon)
	assert.Equal(t, "Minimum order amount of 5000 required", he.Message)
}

func TestApplyCoupon_AlreadyUsed(t *testing.T) {
	f := newCartFixture()
	f.addCoupon(activePercentageCoupon())
	f.coupons.hasRedemption = true
	f.cartItems.items = []model.CartItem{{CartID: 5, ProductID: 1, Quantity: 2, UnitPriceSnapshot: 1000}}

	_, err := f.uc.ApplyCoupon(context.Background(), 9, "SAVE10")
	he := requireHTTPError(t, err, http.StatusBadRequest, CodeInvalidCoupon)
	assert.Equal(t, "Coupon already used", he.Message)
}

// 10%・上限150円のクーポンを2000円のカートへ：割引は150円で止まる
func TestApplyCoupon_PercentageCappedByMaxDiscount(t *testing.T) {
	f := newCartFixture()
	f.addCoupon(activePercentageCoupon())
	f.cartItems.items = []model.CartItem{{CartID: 5, ProductID: 1, Quantity: 2, UnitPriceSnapshot: 1000}}

	view, err := f.uc.ApplyCoupon(context.Background(), 9, "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", view.Cart.CouponCode)
	assert.Equal(t, 2000.0, view.Cart.Subtotal)
	assert.Equal(t, 150.0, view.Cart.Discount)
	assert.Equal(t, 360.0, view.Cart.Tax)
	assert.Equal(t, 2210.0, view.Cart.Total)
}

func TestApplyCoupon_PercentageUnderCap(t *testing.T) {
	f := newCartFixture()
	f.addCoupon(activePercentageCoupon())
	f.cartItems.items = []model.CartItem{{CartID: 5, ProductID: 1, Quantity: 1, UnitPriceSnapshot: 1000}}

	view, err := f.uc.ApplyCoupon(context.Background(), 9, "SAVE10")
	require.NoError(t, err)

	//10% of 1000 = 100、上限未満なのでそのまま
	assert.Equal(t, 100.0, view.Cart.Discount)
}

func TestRemoveCoupon(t *testing.T) {
	f := newCartFixture()
	f.carts.cart.CouponCode = "SAVE10"
	f.carts.cart.CouponType = model.DiscountTypePercentage
	f.carts.cart.CouponValue = 10
	f.cartItems.items = []model.CartItem{{CartID: 5, ProductID: 1, Quantity: 2, UnitPriceSnapshot: 1000}}

	view, err := f.uc.RemoveCoupon(context.Background(), 9)
	require.NoError(t, err)

	assert.False(t, view.Cart.HasCoupon())
	assert.Equal(t, 0.0, view.Cart.Discount)
	assert.Equal(t, 2360.0, view.Cart.Total)
}
