package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var serviceTestNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type serviceTestEnv struct {
	db         *gorm.DB
	orderRepo  *repository.GormOrderRepository
	linkRepo   *repository.GormAffiliateLinkRepository
	ruleRepo   *repository.GormCommissionRuleRepository
	statsRepo  *repository.GormCreatorStatsRepository
	clickRepo  *repository.GormClickEventRepository
	payoutRepo *repository.GormPayoutRepository
	rules      *CommissionRuleService
	ingest     *OrderIngestService
	stats      *CreatorStatsService
	payouts    *PayoutService
	queue      *stubOrderQueue
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:affiliate_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &serviceTestEnv{
		db:         db,
		orderRepo:  repository.NewOrderRepository(db),
		linkRepo:   repository.NewAffiliateLinkRepository(db),
		ruleRepo:   repository.NewCommissionRuleRepository(db),
		statsRepo:  repository.NewCreatorStatsRepository(db),
		clickRepo:  repository.NewClickEventRepository(db),
		payoutRepo: repository.NewPayoutRepository(db),
		queue:      &stubOrderQueue{},
	}
	env.rules = NewCommissionRuleService(env.ruleRepo)
	env.ingest = NewOrderIngestService(env.orderRepo, env.linkRepo, env.rules)
	env.ingest.now = func() time.Time { return serviceTestNow }
	env.stats = NewCreatorStatsService(env.orderRepo, env.statsRepo)
	env.payouts = NewPayoutService(env.orderRepo, env.payoutRepo, env.queue)
	env.payouts.now = func() time.Time { return serviceTestNow }
	return env
}

func mustMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	m, err := models.ParseMoney(raw)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", raw, err)
	}
	return m
}

func moneyPtr(t *testing.T, raw string) *models.Money {
	t.Helper()
	m := mustMoney(t, raw)
	return &m
}

func assertMoney(t *testing.T, field string, got models.Money, want string) {
	t.Helper()
	if !got.Equal(mustMoney(t, want).Decimal) {
		t.Fatalf("%s: want %s, got %s", field, want, got.String())
	}
}

func seedRule(t *testing.T, env *serviceTestEnv, platform, category, brandRate, creatorRate string) *models.CommissionRule {
	t.Helper()
	rule, err := env.rules.Create(CommissionRuleInput{
		Platform:    platform,
		Category:    category,
		BrandRate:   mustMoney(t, brandRate),
		CreatorRate: mustMoney(t, creatorRate),
	})
	if err != nil {
		t.Fatalf("seed rule failed: %v", err)
	}
	return rule
}

func seedLink(t *testing.T, env *serviceTestEnv, shortCode, creatorID string) *models.AffiliateLink {
	t.Helper()
	link := &models.AffiliateLink{
		ShortCode:    shortCode,
		CreatorID:    creatorID,
		OriginalURL:  "https://www.myntra.com/p/1",
		AffiliateURL: "https://ad.admitad.com/g/abc?subid=" + shortCode,
		Platform:     "admitad",
		IsActive:     true,
		CreatedAt:    serviceTestNow,
		UpdatedAt:    serviceTestNow,
	}
	if err := env.linkRepo.Create(link); err != nil {
		t.Fatalf("seed link failed: %v", err)
	}
	return link
}

// ingestAndAggregate 模拟 worker：入库后折算汇总
func ingestAndAggregate(t *testing.T, env *serviceTestEnv, input IngestOrderInput) *IngestResult {
	t.Helper()
	result, err := env.ingest.IngestOrder(t.Context(), input)
	if err != nil {
		t.Fatalf("ingest order failed: %v", err)
	}
	if err := env.stats.ApplyIngestResult(t.Context(), result); err != nil {
		t.Fatalf("apply stats failed: %v", err)
	}
	return result
}

func countOrders(t *testing.T, env *serviceTestEnv) int64 {
	t.Helper()
	var total int64
	if err := env.db.Model(&models.Order{}).Count(&total).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return total
}

type stubOrderQueue struct {
	orders  []queue.CreateOrderPayload
	payouts []queue.GeneratePayoutPayload
	failAt  int
	err     error
}

func (q *stubOrderQueue) EnqueueCreateOrder(payload queue.CreateOrderPayload) error {
	if q.err != nil && len(q.orders) >= q.failAt {
		return q.err
	}
	q.orders = append(q.orders, payload)
	return nil
}

func (q *stubOrderQueue) EnqueueGeneratePayout(payload queue.GeneratePayoutPayload) error {
	if q.err != nil {
		return q.err
	}
	q.payouts = append(q.payouts, payload)
	return nil
}

func testFraudConfig() config.FraudConfig {
	return config.FraudConfig{WindowSeconds: 300, MaxPerIP: 20, MaxPerShortCode: 200}
}
