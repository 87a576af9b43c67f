// seed-admin creates or updates the console admin user (username: oilwatchAdmin)
// and makes sure a demo organization exists for local development.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/models"
	"github.com/tribodata/oilwatch_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "oilwatchAdmin"
	adminPassword = "O!lwatchAdmin"
	adminName     = "OilWatch Admin"

	demoOrgName  = "TRANSPORTES DEMO S.A.C."
	demoOrgPhone = "+51987654321"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := seedAdmin(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := seedDemoOrganization(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func seedAdmin(ctx context.Context, db *gorm.DB) error {
	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to lookup user: %w", err)
		}
		u := models.User{
			Username: adminUsername,
			Name:     adminName,
			Password: hashedStr,
			IsActive: utils.NewTrue(),
			Role:     models.RoleAdmin,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		fmt.Printf("Created admin user: username=%q (role=A)\n", adminUsername)
		return nil
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).Updates(map[string]any{
		"password":  hashedStr,
		"name":      adminName,
		"is_active": utils.NewTrue(),
		"role":      models.RoleAdmin,
	}).Error; err != nil {
		return fmt.Errorf("failed to update admin user: %w", err)
	}
	fmt.Printf("Updated admin user: username=%q (role=A)\n", adminUsername)
	return nil
}

func seedDemoOrganization(ctx context.Context, db *gorm.DB) error {
	if err := utils.ValidatePhoneNumber(demoOrgPhone, utils.CountryCode); err != nil {
		return fmt.Errorf("demo organization phone is invalid: %w", err)
	}

	var orgs []models.Organization
	if err := db.WithContext(ctx).Where("name = ?", demoOrgName).Limit(1).Find(&orgs).Error; err != nil {
		return fmt.Errorf("failed to lookup demo organization: %w", err)
	}
	if len(orgs) > 0 {
		fmt.Printf("Demo organization already exists: %q (id=%d)\n", demoOrgName, orgs[0].ID)
		return nil
	}

	org := models.Organization{
		Name:     demoOrgName,
		Phone:    demoOrgPhone,
		Country:  "PE",
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&org).Error; err != nil {
		return fmt.Errorf("failed to create demo organization: %w", err)
	}
	fmt.Printf("Created demo organization: %q (id=%d)\n", demoOrgName, org.ID)
	return nil
}
