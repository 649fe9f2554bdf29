package service

import (
	"errors"
	"testing"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/models"
)

func seedApprovedOrder(t *testing.T, env *serviceTestEnv, orderID, creatorID, value string) {
	t.Helper()
	ingestAndAggregate(t, env, IngestOrderInput{
		OrderID:    orderID,
		Platform:   "flipkart",
		Category:   "fashion",
		OrderValue: mustMoney(t, value),
		CreatorID:  creatorID,
		Status:     constants.OrderStatusApproved,
	})
}

func TestGeneratePayoutIsIdempotentPerPeriod(t *testing.T) {
	env := setupServiceTest(t)
	seedRule(t, env, "flipkart", "fashion", "10", "7")
	seedApprovedOrder(t, env, "P-1", "creator-p", "1000")
	seedApprovedOrder(t, env, "P-2", "creator-p", "500")
	ingestAndAggregate(t, env, IngestOrderInput{
		OrderID:    "P-3",
		Platform:   "flipkart",
		Category:   "fashion",
		OrderValue: mustMoney(t, "999"),
		CreatorID:  "creator-p",
	})

	period, err := ParsePayoutPeriod("2026-03-01", "2026-03-15")
	if err != nil {
		t.Fatalf("parse period failed: %v", err)
	}
	first, err := env.payouts.GeneratePayout(t.Context(), "creator-p", period)
	if err != nil {
		t.Fatalf("generate payout failed: %v", err)
	}
	if first.Skipped || first.Payout == nil {
		t.Fatalf("first generation should create payout: %+v", first)
	}
	if first.Payout.TotalOrders != 2 {
		t.Fatalf("only approved orders are settleable, got %d", first.Payout.TotalOrders)
	}
	assertMoney(t, "total_revenue", first.Payout.TotalRevenue, "1500")
	assertMoney(t, "total_commission", first.Payout.TotalCommission, "105")
	if first.Payout.Status != constants.PayoutStatusPending {
		t.Fatalf("unexpected payout status: %s", first.Payout.Status)
	}

	second, err := env.payouts.GeneratePayout(t.Context(), "creator-p", period)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if !second.Skipped {
		t.Fatalf("second generation should be skipped")
	}
	var total int64
	env.db.Model(&models.Payout{}).Count(&total)
	if total != 1 {
		t.Fatalf("expected one payout, got %d", total)
	}

	var order models.Order
	env.db.Where("order_id = ?", "P-1").First(&order)
	if order.Status != constants.OrderStatusApproved {
		t.Fatalf("payout must not touch order status, got %s", order.Status)
	}
}

func TestGeneratePayoutSkipsEmptyPeriod(t *testing.T) {
	env := setupServiceTest(t)
	period, _ := ParsePayoutPeriod("2026-01-01", "2026-01-31")
	result, err := env.payouts.GeneratePayout(t.Context(), "creator-none", period)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !result.Skipped || result.Payout != nil {
		t.Fatalf("expected skip without payout, got %+v", result)
	}
	var total int64
	env.db.Model(&models.Payout{}).Count(&total)
	if total != 0 {
		t.Fatalf("expected no payout rows, got %d", total)
	}
}

func TestParsePayoutPeriod(t *testing.T) {
	period, err := ParsePayoutPeriod("2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !period.windowEnd.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only end should include the whole day, got %s", period.windowEnd)
	}
	if _, err := ParsePayoutPeriod("2026-03-31", "2026-03-01"); !errors.Is(err, ErrPayoutPeriodInvalid) {
		t.Fatalf("expected ErrPayoutPeriodInvalid, got %v", err)
	}
	if _, err := ParsePayoutPeriod("yesterday", "2026-03-01"); !errors.Is(err, ErrPayoutPeriodInvalid) {
		t.Fatalf("expected ErrPayoutPeriodInvalid, got %v", err)
	}
}

func TestMarkPayoutPaid(t *testing.T) {
	env := setupServiceTest(t)
	seedRule(t, env, "flipkart", "fashion", "10", "7")
	seedApprovedOrder(t, env, "P-10", "creator-m", "100")
	period, _ := ParsePayoutPeriod("2026-03-01", "2026-03-31")
	result, err := env.payouts.GeneratePayout(t.Context(), "creator-m", period)
	if err != nil || result.Payout == nil {
		t.Fatalf("generate failed: %v %+v", err, result)
	}

	paid, err := env.payouts.MarkPaid(result.Payout.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.PayoutStatusPaid || paid.PaidAt == nil {
		t.Fatalf("unexpected payout after mark paid: %+v", paid)
	}
	if _, err := env.payouts.MarkPaid(result.Payout.ID); !errors.Is(err, ErrPayoutAlreadyPaid) {
		t.Fatalf("expected ErrPayoutAlreadyPaid, got %v", err)
	}
	if _, err := env.payouts.MarkPaid(9999); !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("expected ErrPayoutNotFound, got %v", err)
	}
}

func TestRequestPayoutEnqueues(t *testing.T) {
	env := setupServiceTest(t)
	if err := env.payouts.RequestPayout("creator-q", "2026-03-01", "2026-03-31"); err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if len(env.queue.payouts) != 1 || env.queue.payouts[0].CreatorID != "creator-q" {
		t.Fatalf("unexpected enqueued payouts: %+v", env.queue.payouts)
	}
	if err := env.payouts.RequestPayout("creator-q", "bad", "2026-03-31"); !errors.Is(err, ErrPayoutPeriodInvalid) {
		t.Fatalf("expected ErrPayoutPeriodInvalid, got %v", err)
	}
}
