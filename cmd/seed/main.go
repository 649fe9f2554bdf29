package main

import (
	"errors"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"
	"github.com/oneinfo/affiliate-backend/internal/service"
)

type seedRule struct {
	platform    string
	category    string
	brandRate   float64
	creatorRate float64
}

// 默认佣金规则：admitad 上报的是佣金本身，creatorRate 为达人分成比例；
// flipkart / meesho 按订单金额计佣
var defaultRules = []seedRule{
	{platform: constants.PlatformAdmitad, category: "fashion", brandRate: 100, creatorRate: 70},
	{platform: constants.PlatformFlipkart, category: "fashion", brandRate: 8, creatorRate: 5},
	{platform: constants.PlatformMeesho, category: "fashion", brandRate: 12, creatorRate: 8},
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	rules := service.NewCommissionRuleService(repository.NewCommissionRuleRepository(models.DB))
	created := 0
	for _, item := range defaultRules {
		_, err := rules.Create(service.CommissionRuleInput{
			Platform:    item.platform,
			Category:    item.category,
			BrandRate:   models.NewMoneyFromFloat(item.brandRate),
			CreatorRate: models.NewMoneyFromFloat(item.creatorRate),
		})
		switch {
		case err == nil:
			created++
			logger.Infow("seed_rule_created", "platform", item.platform, "category", item.category)
		case errors.Is(err, service.ErrCommissionRuleExists):
			logger.Infow("seed_rule_exists", "platform", item.platform, "category", item.category)
		default:
			stdLog.Fatalf("Failed to seed commission rule %s/%s: %v", item.platform, item.category, err)
		}
	}
	logger.Infow("seed_done", "rules_created", created)
}
