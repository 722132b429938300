package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(
		&model.PreOrder{}, &model.OrderDetail{}, &model.MarketSupply{}, &model.Notification{},
	))
	return gdb
}

func seedPreOrder(t *testing.T, gdb *gorm.DB, productID uint64, status model.PreOrderStatus) *model.PreOrder {
	t.Helper()
	p := &model.PreOrder{UserID: 1, ProductID: productID, Qty: decimal.NewFromInt(10), Status: status}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func TestListOpenForFarm(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := NewPreOrderRepository(gdb)
	details := NewOrderDetailRepository(gdb)

	open := seedPreOrder(t, gdb, 1, model.PreOrderStatusPending)
	partial := seedPreOrder(t, gdb, 1, model.PreOrderStatusPartiallyFulfilled)
	answered := seedPreOrder(t, gdb, 1, model.PreOrderStatusPending)
	seedPreOrder(t, gdb, 1, model.PreOrderStatusFulfilled)
	seedPreOrder(t, gdb, 1, model.PreOrderStatusCancelled)

	require.NoError(t, details.Create(ctx, &model.OrderDetail{
		PreOrderID: answered.ID, FarmID: 5, FulfilledQty: decimal.NewFromInt(3), OfferStatus: model.OfferStatusAccepted,
	}))

	list, total, err := repo.ListOpenForFarm(ctx, 5, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	ids := []uint64{list[0].ID, list[1].ID}
	require.ElementsMatch(t, []uint64{open.ID, partial.ID}, ids)

	_, total, err = repo.ListOpenForFarm(ctx, 6, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
}

func TestOrderDetailUniquePerFarm(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	details := NewOrderDetailRepository(gdb)
	p := seedPreOrder(t, gdb, 1, model.PreOrderStatusPending)

	require.NoError(t, details.Create(ctx, &model.OrderDetail{PreOrderID: p.ID, FarmID: 2, OfferStatus: model.OfferStatusAccepted}))
	err := details.Create(ctx, &model.OrderDetail{PreOrderID: p.ID, FarmID: 2, OfferStatus: model.OfferStatusAccepted})
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey), err)
}

func TestDeductGuard(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := NewMarketSupplyRepository(gdb)
	s := &model.MarketSupply{FarmID: 1, CropID: 1, ProductID: 1, AvailableQty: decimal.NewFromInt(20), Unit: "kg", Availability: time.Now()}
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, repo.Deduct(ctx, s.ID, decimal.NewFromInt(15)))
	require.ErrorIs(t, repo.Deduct(ctx, s.ID, decimal.NewFromInt(6)), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Deduct(ctx, s.ID, decimal.NewFromInt(5)))

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, got.AvailableQty.IsZero(), got.AvailableQty.String())

	_, total, err := repo.ListAvailable(ctx, 0, 0)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestTrendingCounts(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPreOrderRepository(gdb)
	for i := 0; i < 3; i++ {
		seedPreOrder(t, gdb, 7, model.PreOrderStatusPending)
	}
	seedPreOrder(t, gdb, 8, model.PreOrderStatusPending)

	rows, total, err := repo.Trending(context.Background(), 0)
	require.NoError(t, err)
	require.EqualValues(t, 4, total)
	require.Equal(t, []TrendingProduct{{ProductID: 7, PreOrderCount: 3}, {ProductID: 8, PreOrderCount: 1}}, rows)
}

func TestNotificationCreateIfAbsent(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(gdb)
	n := func() *model.Notification {
		return &model.Notification{RecipientID: 4, PreOrderID: 9, Type: model.NotificationTypePreOrder, Message: "new"}
	}

	created, err := repo.CreateIfAbsent(ctx, n())
	require.NoError(t, err)
	require.True(t, created)
	created, err = repo.CreateIfAbsent(ctx, n())
	require.NoError(t, err)
	require.False(t, created)

	cnt, err := repo.CountUnread(ctx, 4)
	require.NoError(t, err)
	require.EqualValues(t, 1, cnt)
	require.NoError(t, repo.MarkAllRead(ctx, 4))
	cnt, err = repo.CountUnread(ctx, 4)
	require.NoError(t, err)
	require.Zero(t, cnt)
}

func TestRepositoriesWithoutDB(t *testing.T) {
	ctx := context.Background()
	_, err := NewPreOrderRepository(nil).FindByID(ctx, 1)
	require.ErrorIs(t, err, ErrDBNotReady)
	require.ErrorIs(t, NewTxManager(nil).Do(ctx, func(*gorm.DB) error { return nil }), ErrDBNotReady)
}
