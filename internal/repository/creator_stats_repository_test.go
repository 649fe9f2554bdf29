package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:affiliate_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func mustMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	m, err := models.ParseMoney(raw)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", raw, err)
	}
	return m
}

func TestCreatorStatsApplyDeltaUpsertsAndAccumulates(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewCreatorStatsRepository(db)

	first := CreatorStatsDelta{
		LifetimeRevenue:    mustMoney(t, "1000"),
		LifetimeCommission: mustMoney(t, "70"),
		PlatformProfit:     mustMoney(t, "30"),
		LifetimeOrders:     1,
		Buckets:            map[string]models.Money{BucketPendingCommission: mustMoney(t, "70")},
	}
	if err := repo.ApplyDelta("creator-1", first); err != nil {
		t.Fatalf("apply first delta failed: %v", err)
	}
	move := CreatorStatsDelta{Buckets: map[string]models.Money{
		BucketPendingCommission:  mustMoney(t, "-70"),
		BucketApprovedCommission: mustMoney(t, "70"),
	}}
	if err := repo.ApplyDelta("creator-1", move); err != nil {
		t.Fatalf("apply move delta failed: %v", err)
	}
	if err := repo.ApplyDelta("creator-1", CreatorStatsDelta{TotalClicks: 1}); err != nil {
		t.Fatalf("apply click delta failed: %v", err)
	}

	stats, err := repo.GetByCreatorID("creator-1")
	if err != nil || stats == nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.LifetimeCommission.String() != "70.00" {
		t.Fatalf("unexpected lifetime commission: %s", stats.LifetimeCommission.String())
	}
	if stats.PendingCommission.String() != "0.00" || stats.ApprovedCommission.String() != "70.00" {
		t.Fatalf("unexpected buckets: pending=%s approved=%s", stats.PendingCommission.String(), stats.ApprovedCommission.String())
	}
	if stats.LifetimeOrders != 1 || stats.TotalClicks != 1 {
		t.Fatalf("unexpected counters: orders=%d clicks=%d", stats.LifetimeOrders, stats.TotalClicks)
	}

	var rows int64
	db.Model(&models.CreatorStats{}).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected single stats row, got %d", rows)
	}
}

func TestCreatorStatsApplyDeltaRejectsUnknownBucket(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewCreatorStatsRepository(db)
	err := repo.ApplyDelta("creator-1", CreatorStatsDelta{Buckets: map[string]models.Money{"lifetime_revenue; --": mustMoney(t, "1")}})
	if err == nil {
		t.Fatalf("expected error for unknown bucket")
	}
}

func TestOrderSwapAggregatedStatusIsCompareAndSwap(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	order := &models.Order{
		OrderID:   "ORD-1",
		CreatorID: "creator-1",
		Platform:  constants.PlatformFlipkart,
		Category:  "fashion",
		Status:    constants.OrderStatusPending,
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	ok, err := repo.SwapAggregatedStatus(order.ID, "", constants.OrderStatusPending)
	if err != nil || !ok {
		t.Fatalf("first swap should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.SwapAggregatedStatus(order.ID, "", constants.OrderStatusPending)
	if err != nil || ok {
		t.Fatalf("stale swap should miss: ok=%v err=%v", ok, err)
	}

	pending, err := repo.ListUnaggregated(10)
	if err != nil {
		t.Fatalf("list unaggregated failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no unaggregated orders, got %d", len(pending))
	}
	if err := repo.UpdateStatus(order.ID, constants.OrderStatusApproved, time.Now().UTC()); err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	pending, _ = repo.ListUnaggregated(10)
	if len(pending) != 1 {
		t.Fatalf("expected one unaggregated order, got %d", len(pending))
	}
}

func TestOrderSumSettleableRespectsWindowAndStatus(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.Order{
		{OrderID: "A", CreatorID: "c1", Platform: "flipkart", Category: "fashion", Status: constants.OrderStatusApproved, OrderValue: mustMoney(t, "100"), CreatorCommissionAmount: mustMoney(t, "7"), CreatedAt: start.Add(time.Hour)},
		{OrderID: "B", CreatorID: "c1", Platform: "flipkart", Category: "fashion", Status: constants.OrderStatusApproved, OrderValue: mustMoney(t, "200"), CreatorCommissionAmount: mustMoney(t, "14"), CreatedAt: end.Add(-time.Hour)},
		{OrderID: "C", CreatorID: "c1", Platform: "flipkart", Category: "fashion", Status: constants.OrderStatusPending, OrderValue: mustMoney(t, "300"), CreatorCommissionAmount: mustMoney(t, "21"), CreatedAt: start.Add(time.Hour)},
		{OrderID: "D", CreatorID: "c1", Platform: "flipkart", Category: "fashion", Status: constants.OrderStatusApproved, OrderValue: mustMoney(t, "400"), CreatorCommissionAmount: mustMoney(t, "28"), CreatedAt: end},
		{OrderID: "E", CreatorID: "c2", Platform: "flipkart", Category: "fashion", Status: constants.OrderStatusApproved, OrderValue: mustMoney(t, "500"), CreatorCommissionAmount: mustMoney(t, "35"), CreatedAt: start.Add(time.Hour)},
	}
	for i := range seed {
		if err := repo.Create(&seed[i]); err != nil {
			t.Fatalf("seed order failed: %v", err)
		}
	}

	totals, err := repo.SumSettleable("c1", []string{constants.OrderStatusApproved}, start, end)
	if err != nil {
		t.Fatalf("sum settleable failed: %v", err)
	}
	if totals.TotalOrders != 2 {
		t.Fatalf("expected 2 orders, got %d", totals.TotalOrders)
	}
	if totals.TotalRevenue.String() != "300.00" || totals.TotalCommission.String() != "21.00" {
		t.Fatalf("unexpected totals: revenue=%s commission=%s", totals.TotalRevenue.String(), totals.TotalCommission.String())
	}
}

func TestLinkListKeywordMatchesTitleAndCode(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewAffiliateLinkRepository(db)
	for _, link := range []models.AffiliateLink{
		{ShortCode: "KURTA1", CreatorID: "c-1", OriginalURL: "https://www.myntra.com/p/1", AffiliateURL: "https://ad.admitad.com/g/a", ProductTitle: "Cotton Kurta", IsActive: true},
		{ShortCode: "SAREE1", CreatorID: "c-1", OriginalURL: "https://www.myntra.com/p/2", AffiliateURL: "https://ad.admitad.com/g/b", ProductTitle: "Silk Saree", IsActive: true},
	} {
		link := link
		if err := repo.Create(&link); err != nil {
			t.Fatalf("create link failed: %v", err)
		}
	}

	rows, total, err := repo.List(LinkListFilter{Keyword: "kurta"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ShortCode != "KURTA1" {
		t.Fatalf("unexpected keyword result: total=%d rows=%+v", total, rows)
	}

	rows, total, err = repo.List(LinkListFilter{Keyword: "SAREE"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || rows[0].ShortCode != "SAREE1" {
		t.Fatalf("short code keyword should match: total=%d", total)
	}
}
