package usecase

import (
	"context"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
)

// ---- products ----

type fakeProductRepo struct {
	products map[int64]model.Product
}

func newFakeProductRepo(ps ...model.Product) *fakeProductRepo {
	m := map[int64]model.Product{}
	for _, p := range ps {
		m[p.ID] = p
	}
	return &fakeProductRepo{products: m}
}

func (f *fakeProductRepo) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p model.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

// ---- inventory ----

type fakeInventoryRepo struct {
	stock       map[int64]int64
	decreases   []int64
	increases   []int64
	decreaseErr map[int64]error
}

func newFakeInventoryRepo(stock map[int64]int64) *fakeInventoryRepo {
	if stock == nil {
		stock = map[int64]int64{}
	}
	return &fakeInventoryRepo{stock: stock, decreaseErr: map[int64]error{}}
}

func (f *fakeInventoryRepo) SetStock(ctx context.Context, productID int64, newStock int64) error {
	f.stock[productID] = newStock
	return nil
}

func (f *fakeInventoryRepo) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if err := f.decreaseErr[productID]; err != nil {
		return false, err
	}
	if f.stock[productID] < qty {
		return false, nil
	}
	f.stock[productID] -= qty
	f.decreases = append(f.decreases, productID)
	return true, nil
}

func (f *fakeInventoryRepo) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	f.stock[productID] += qty
	f.increases = append(f.increases, productID)
	return nil
}

// ---- carts ----

type fakeCartRepo struct {
	cart     model.Cart
	noActive bool
	saved    []model.Cart
	resets   []int64
}

func (f *fakeCartRepo) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartRepo) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	if f.noActive {
		return model.Cart{}, repo.ErrNotFound
	}
	return f.cart, nil
}

func (f *fakeCartRepo) SaveTotals(ctx context.Context, cart model.Cart) error {
	f.saved = append(f.saved, cart)
	f.cart = cart
	return nil
}

func (f *fakeCartRepo) Reset(ctx context.Context, cartID int64) error {
	f.resets = append(f.resets, cartID)
	return nil
}

// ---- cart items ----

type fakeCartItemRepo struct {
	items   []model.CartItem
	missing bool
}

func (f *fakeCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	return f.items, nil
}

func (f *fakeCartItemRepo) UpsertByCartAndProduct(ctx context.Context, cartID, productID, addQty int64, unitPriceSnapshot float64) error {
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items[i].Quantity += addQty
			f.items[i].UnitPriceSnapshot = unitPriceSnapshot
			return nil
		}
	}
	f.items = append(f.items, model.CartItem{
		CartID:            cartID,
		ProductID:         productID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPriceSnapshot,
	})
	return nil
}

func (f *fakeCartItemRepo) UpdateQuantity(ctx context.Context, cartID, productID, qty int64, unitPriceSnapshot float64) error {
	if f.missing {
		return repo.ErrNotFound
	}
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items[i].Quantity = qty
			f.items[i].UnitPriceSnapshot = unitPriceSnapshot
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeCartItemRepo) DeleteByCartAndProduct(ctx context.Context, cartID, productID int64) error {
	if f.missing {
		return repo.ErrNotFound
	}
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

// ---- coupons ----

type redemptionCall struct {
	couponID int64
	userID   int64
}

type fakeCouponRepo struct {
	byCode        map[string]model.Coupon
	hasRedemption bool
	redeemResult  bool
	redeemErr     error
	redeemCalls   []redemptionCall
}

func newFakeCouponRepo(cs ...model.Coupon) *fakeCouponRepo {
	m := map[string]model.Coupon{}
	for _, c := range cs {
		m[strings.ToUpper(c.Code)] = c
	}
	return &fakeCouponRepo{byCode: m, redeemResult: true}
}

func (f *fakeCouponRepo) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	code := strings.ToUpper(c.Code)
	if _, ok := f.byCode[code]; ok {
		return model.Coupon{}, repo.ErrConflict
	}
	f.byCode[code] = c
	return c, nil
}

func (f *fakeCouponRepo) Update(ctx context.Context, c model.Coupon) error {
	f.byCode[strings.ToUpper(c.Code)] = c
	return nil
}

func (f *fakeCouponRepo) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	for _, c := range f.byCode {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Coupon{}, repo.ErrNotFound
}

func (f *fakeCouponRepo) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	c, ok := f.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return model.Coupon{}, repo.ErrNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) List(ctx context.Context, fl repo.CouponListFilter) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range f.byCode {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCouponRepo) Deactivate(ctx context.Context, id int64) error {
	c, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	c.IsActive = false
	f.byCode[strings.ToUpper(c.Code)] = c
	return nil
}

func (f *fakeCouponRepo) HasRedemption(ctx context.Context, couponID, userID int64) (bool, error) {
	return f.hasRedemption, nil
}

func (f *fakeCouponRepo) Redeem(ctx context.Context, couponID, userID int64, usedAt time.Time) (bool, error) {
	f.redeemCalls = append(f.redeemCalls, redemptionCall{couponID: couponID, userID: userID})
	return f.redeemResult, f.redeemErr
}

// ---- orders ----

type fakeOrderRepo struct {
	orders          map[int64]model.Order
	nextID          int64
	createCalls     int
	createConflicts int
	createdNumbers  []string

	completeCalls  int
	forceComplete  *bool
	markFailed     []int64
	statusUpdates  []model.OrderStatus
	trackingSet    []model.TrackingInfo
	gatewayOrderID map[int64]string
}

func newFakeOrderRepo(orders ...model.Order) *fakeOrderRepo {
	m := map[int64]model.Order{}
	var max int64
	for _, o := range orders {
		m[o.ID] = o
		if o.ID > max {
			max = o.ID
		}
	}
	return &fakeOrderRepo{orders: m, nextID: max, gatewayOrderID: map[int64]string{}}
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID int64, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	f.createCalls++
	f.createdNumbers = append(f.createdNumbers, order.OrderNumber)
	if f.createConflicts > 0 {
		f.createConflicts--
		return 0, repo.ErrConflict
	}
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	f.orders[id] = o
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeOrderRepo) UpdateTracking(ctx context.Context, id int64, t model.TrackingInfo) error {
	o, ok := f.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	o.Tracking = t
	f.orders[id] = o
	f.trackingSet = append(f.trackingSet, t)
	return nil
}

func (f *fakeOrderRepo) SetGatewayOrderID(ctx context.Context, id int64, gatewayOrderID string) error {
	o, ok := f.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	o.Payment.GatewayOrderID = gatewayOrderID
	f.orders[id] = o
	f.gatewayOrderID[id] = gatewayOrderID
	return nil
}

func (f *fakeOrderRepo) CompletePaymentIfOpen(ctx context.Context, id int64, gatewayPaymentID, signature string, paidAt time.Time) (bool, error) {
	f.completeCalls++
	if f.forceComplete != nil {
		return *f.forceComplete, nil
	}
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	//pendingとfailedだけcompletedにできる
	if o.Payment.Status == model.PaymentStatusCompleted {
		return false, nil
	}
	o.Payment.Status = model.PaymentStatusCompleted
	o.Payment.GatewayPaymentID = gatewayPaymentID
	o.Payment.GatewaySignature = signature
	o.Payment.PaidAt = &paidAt
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrderRepo) MarkPaymentFailed(ctx context.Context, id int64) error {
	f.markFailed = append(f.markFailed, id)
	o, ok := f.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	if o.Payment.Status == model.PaymentStatusPending {
		o.Payment.Status = model.PaymentStatusFailed
		f.orders[id] = o
	}
	return nil
}

func (f *fakeOrderRepo) ListAdmin(ctx context.Context, fl repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.orders {
		if fl.Status != "" && string(o.Status) != fl.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

// ---- order items / history ----

type fakeOrderItemRepo struct {
	byOrder map[int64][]model.OrderItem
}

func newFakeOrderItemRepo() *fakeOrderItemRepo {
	return &fakeOrderItemRepo{byOrder: map[int64][]model.OrderItem{}}
}

func (f *fakeOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
	}
	f.byOrder[orderID] = append(f.byOrder[orderID], items...)
	return nil
}

func (f *fakeOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return f.byOrder[orderID], nil
}

type fakeOrderHistoryRepo struct {
	entries []model.OrderStatusHistory
}

func (f *fakeOrderHistoryRepo) Append(ctx context.Context, h model.OrderStatusHistory) error {
	f.entries = append(f.entries, h)
	return nil
}

func (f *fakeOrderHistoryRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	var out []model.OrderStatusHistory
	for _, h := range f.entries {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ---- users ----

type fakeUserRepo struct {
	byEmail      map[string]*model.User
	recordOrders []int64
	recordTimes  []time.Time
}

func newFakeUserRepo(us ...*model.User) *fakeUserRepo {
	m := map[string]*model.User{}
	for _, u := range us {
		m[u.Email] = u
	}
	return &fakeUserRepo{byEmail: m}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repo.ErrConflict
	}
	user.ID = int64(len(f.byEmail) + 1)
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) RecordOrder(ctx context.Context, userID int64, orderedAt time.Time) error {
	f.recordOrders = append(f.recordOrders, userID)
	f.recordTimes = append(f.recordTimes, orderedAt)
	return nil
}

// ---- transaction manager ----

type fakeTxRepos struct {
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	orderHistory repo.OrderHistoryRepository
	carts        repo.CartRepository
	cartItems    repo.CartItemRepository
	inventory    repo.InventoryRepository
	products     repo.ProductRepository
	coupons      repo.CouponRepository
	users        repo.UserRepository
}

func (f *fakeTxRepos) Orders() repo.OrderRepository              { return f.orders }
func (f *fakeTxRepos) OrderItems() repo.OrderItemRepository      { return f.orderItems }
func (f *fakeTxRepos) OrderHistory() repo.OrderHistoryRepository { return f.orderHistory }
func (f *fakeTxRepos) Carts() repo.CartRepository                { return f.carts }
func (f *fakeTxRepos) CartItems() repo.CartItemRepository        { return f.cartItems }
func (f *fakeTxRepos) Inventory() repo.InventoryRepository       { return f.inventory }
func (f *fakeTxRepos) Products() repo.ProductRepository          { return f.products }
func (f *fakeTxRepos) Coupons() repo.CouponRepository            { return f.coupons }
func (f *fakeTxRepos) Users() repo.UserRepository                { return f.users }

type fakeTxManager struct {
	repos repo.TxRepos
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// ---- payment gateway ----

type fakeGateway struct {
	intent     gateway.Intent
	err        error
	calls      int
	lastAmount int64
}

func (f *fakeGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (gateway.Intent, error) {
	f.calls++
	f.lastAmount = amount
	if f.err != nil {
		return gateway.Intent{}, f.err
	}
	if f.intent.ID == "" {
		f.intent = gateway.Intent{ID: "order_ext_1", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}
	}
	return f.intent, nil
}
