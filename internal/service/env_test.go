package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/harvest-market-backend/internal/db"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/lock"
	"github.com/shinyyama/harvest-market-backend/internal/logger"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, ns []model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, ns...)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// failingNotifications breaks every insert so callers must roll back.
type failingNotifications struct {
	repository.NotificationRepository
}

func (f failingNotifications) CreateIfAbsent(context.Context, *model.Notification) (bool, error) {
	return false, errors.New("disk full")
}

func (f failingNotifications) WithTx(tx *gorm.DB) repository.NotificationRepository {
	return failingNotifications{f.NotificationRepository.WithTx(tx)}
}

type testEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	farms         repository.FarmRepository
	products      repository.ProductRepository
	preOrderRepo  repository.PreOrderRepository
	details       repository.OrderDetailRepository
	crops         repository.CropRepository
	supplies      repository.MarketSupplyRepository
	notifications repository.NotificationRepository
	supply        SupplyService
	notifier      NotificationService
	offers        OfferService
	preOrders     PreOrderService
	publisher     *recordingPublisher
}

type envOption func(*testEnv, *Deps)

func withFailingNotifications() envOption {
	return func(e *testEnv, d *Deps) {
		d.Notifier = NewNotificationService(failingNotifications{e.notifications}, e.farms, e.preOrderRepo)
	}
}

func withoutLocker() envOption {
	return func(_ *testEnv, d *Deps) {
		d.Locker = nil
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	e := &testEnv{
		db:            gdb,
		users:         repository.NewUserRepository(gdb),
		farms:         repository.NewFarmRepository(gdb),
		products:      repository.NewProductRepository(gdb),
		preOrderRepo:  repository.NewPreOrderRepository(gdb),
		details:       repository.NewOrderDetailRepository(gdb),
		crops:         repository.NewCropRepository(gdb),
		supplies:      repository.NewMarketSupplyRepository(gdb),
		notifications: repository.NewNotificationRepository(gdb),
		publisher:     &recordingPublisher{},
	}
	e.supply = NewSupplyService(e.crops, e.supplies)
	e.notifier = NewNotificationService(e.notifications, e.farms, e.preOrderRepo)
	deps := Deps{
		Tx:        repository.NewTxManager(gdb),
		PreOrders: e.preOrderRepo,
		Details:   e.details,
		Products:  e.products,
		Supply:    e.supply,
		Notifier:  e.notifier,
		Status:    NewStatusAggregator(e.preOrderRepo, e.details),
		Locker:    lock.NewLocalLocker(),
		Publisher: e.publisher,
		Logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(e, &deps)
	}
	offers := &offerService{Deps: deps, now: func() time.Time { return fixedNow }}
	preOrders := &preOrderService{Deps: deps, now: func() time.Time { return fixedNow }}
	e.offers = offers
	e.preOrders = preOrders
	return e
}

func (e *testEnv) user(t *testing.T, uid string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{FirebaseUID: uid, FirstName: uid, Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) vendor(t *testing.T, uid string) identity.Vendor {
	t.Helper()
	u := e.user(t, uid, model.RoleVendor)
	return identity.Vendor{ID: u.ID}
}

func (e *testEnv) farmer(t *testing.T, uid, farmName string) identity.Farmer {
	t.Helper()
	u := e.user(t, uid, model.RoleFarmer)
	f := &model.Farm{OwnerID: u.ID, Name: farmName}
	require.NoError(t, e.farms.Create(context.Background(), f))
	return identity.Farmer{ID: u.ID, FarmIDs: []uint64{f.ID}}
}

func (e *testEnv) product(t *testing.T, ownerID uint64, name string) *model.Product {
	t.Helper()
	p := &model.Product{OwnerID: ownerID, Name: name, Unit: "kg"}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

// preOrder inserts a pending pre-order directly, without fan-out.
func (e *testEnv) preOrder(t *testing.T, v identity.Vendor, productID uint64, qty string) *model.PreOrder {
	t.Helper()
	p := &model.PreOrder{UserID: v.ID, ProductID: productID, Qty: qty2(qty), Status: model.PreOrderStatusPending}
	require.NoError(t, e.preOrderRepo.Create(context.Background(), p))
	return p
}

func (e *testEnv) offer(t *testing.T, f identity.Farmer, preOrderID uint64, qty string) *model.OrderDetail {
	t.Helper()
	d, err := e.offers.SubmitOffer(context.Background(), f, SubmitOfferInput{
		PreOrderID:   preOrderID,
		FulfilledQty: qty2(qty),
		Status:       model.OfferStatusAccepted,
	})
	require.NoError(t, err)
	return d
}

func (e *testEnv) reloadPreOrder(t *testing.T, id uint64) *model.PreOrder {
	t.Helper()
	p, err := e.preOrderRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) reloadDetail(t *testing.T, id uint64) *model.OrderDetail {
	t.Helper()
	d, err := e.details.FindByID(context.Background(), id)
	require.NoError(t, err)
	return d
}

func (e *testEnv) countRows(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func qty2(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, qty2(want).Equal(got), "want %s got %s", want, got)
}
