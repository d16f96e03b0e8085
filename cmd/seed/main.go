package main

import (
	"fmt"

	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

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
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 结算方案
	plans := []models.PaymentPlan{
		{
			Name:              "standard",
			CommissionPercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(2.5)),
			IsActive:          true,
		},
		{
			Name:              "premium",
			CommissionPercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(4)),
			IsActive:          true,
		},
		{
			Name:              "legacy",
			CommissionPercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.5)),
			IsActive:          false,
		},
	}

	planIDs := map[string]uint{}
	for _, plan := range plans {
		var existing models.PaymentPlan
		if err := models.DB.Where("name = ?", plan.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&plan).Error; err != nil {
				stdLog.Printf("Failed to create payment plan %s: %v", plan.Name, err)
				continue
			}
			stdLog.Printf("Created payment plan: %s", plan.Name)
			planIDs[plan.Name] = plan.ID
			continue
		}
		stdLog.Printf("Payment plan already exists: %s", plan.Name)
		planIDs[plan.Name] = existing.ID
	}

	// 员工账号
	staff := []struct {
		Username string
		Password string
		Name     string
		Role     string
	}{
		{Username: "agent01", Password: "agent123", Name: "Demo Agent", Role: constants.StaffRoleAgent},
		{Username: "manager01", Password: "manager123", Name: "Demo Manager", Role: constants.StaffRoleManager},
	}

	for _, member := range staff {
		var existing models.User
		if err := models.DB.Where("username = ?", member.Username).First(&existing).Error; err == nil {
			stdLog.Printf("Staff already exists: %s", member.Username)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(member.Password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", member.Username, err)
			continue
		}
		user := models.User{
			Username:     member.Username,
			PasswordHash: string(hash),
			Name:         member.Name,
			Role:         member.Role,
			IsActive:     true,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create staff %s: %v", member.Username, err)
			continue
		}
		stdLog.Printf("Created staff: %s (%s)", member.Username, member.Role)
	}

	// 示例订单
	standardPlanID := planIDs["standard"]
	orders := []models.Order{
		{
			TrackingID:     "TRK-SEED0001",
			ClientID:       1,
			CustomerName:   "Amine B.",
			Mobile1:        "0550123456",
			Address:        "Cité 200 logements, Bt 4",
			WilayaID:       16,
			Commune:        "Bab Ezzouar",
			ProductDesc:    "Wireless earphones x1",
			DeliveryType:   constants.DeliveryTypeHome,
			OrderType:      constants.OrderTypeRegular,
			DeclaredAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(3500)),
			DeliveryFees:   models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
			Status:         constants.OrderStatusPending,
		},
		{
			TrackingID:     "TRK-SEED0002",
			ClientID:       1,
			CustomerName:   "Sara K.",
			Mobile1:        "0660789123",
			Address:        "Rue des frères Boulahia 12",
			WilayaID:       31,
			Commune:        "Oran",
			ProductDesc:    "Smart watch x1",
			DeliveryType:   constants.DeliveryTypeStopdesk,
			OrderType:      constants.OrderTypeRegular,
			DeclaredAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(7800)),
			DeliveryFees:   models.NewMoneyFromDecimal(decimal.NewFromInt(400)),
			Status:         constants.OrderStatusPending,
		},
	}
	for i := range orders {
		if standardPlanID != 0 {
			orders[i].PaymentPlanID = &standardPlanID
		}
		var existing models.Order
		if err := models.DB.Where("tracking_id = ?", orders[i].TrackingID).First(&existing).Error; err == nil {
			stdLog.Printf("Order already exists: %s", orders[i].TrackingID)
			continue
		}
		if err := models.DB.Create(&orders[i]).Error; err != nil {
			stdLog.Printf("Failed to create order %s: %v", orders[i].TrackingID, err)
			continue
		}
		log := models.OrderStatusLog{
			OrderID:    orders[i].ID,
			FromStatus: "",
			ToStatus:   constants.OrderStatusPending,
			ChangedBy:  0,
		}
		if err := models.DB.Create(&log).Error; err != nil {
			stdLog.Printf("Failed to create status log for %s: %v", orders[i].TrackingID, err)
		}
		stdLog.Printf("Created order: %s", orders[i].TrackingID)
	}

	fmt.Println("Seed completed")
}
