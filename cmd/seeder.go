package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/frahmantamala/hospital-management/internal/accounts"
	accountsPostgres "github.com/frahmantamala/hospital-management/internal/accounts/postgres"
	"github.com/frahmantamala/hospital-management/internal/rbac"
	rbacPostgres "github.com/frahmantamala/hospital-management/internal/rbac/postgres"
	"github.com/frahmantamala/hospital-management/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with default roles and accounts",
	Long:  `Seed the role catalog and a bootstrap administrator account for development and first deployment.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		logger.Init(os.Getenv("APP_ENV"))
		appLogger := logger.LoggerWrapper()

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			fmt.Println("clearing existing data...")
			tables := []string{
				"emergency_access",
				"auth_tokens",
				"otp_tokens",
				"account_locks",
				"role_assignments",
				"roles",
				"patients",
				"personnel",
			}
			for _, table := range tables {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
		}

		accountsRepo := accountsPostgres.NewRepository(db)
		accountsService := accounts.NewService(accountsRepo, appLogger, cfg.Security.BCryptCost)
		rbacRepo := rbacPostgres.NewRepository(db)
		rbacService := rbac.NewService(rbacRepo, appLogger)

		if err := rbacService.SeedDefaultRoles(); err != nil {
			log.Fatalf("failed to seed roles: %v", err)
		}

		if err := seedAdmin(accountsRepo, accountsService, rbacService); err != nil {
			log.Fatalf("failed to seed admin account: %v", err)
		}

		fmt.Println("seeding complete")
	},
}

// seedAdmin provisions the bootstrap administrator. Re-running is a no-op
// when the account already exists.
func seedAdmin(repo accounts.RepositoryAPI, svc *accounts.Service, rbacService *rbac.Service) error {
	const adminUsername = "admin"

	if existing, _ := repo.GetPersonnelByUsername(adminUsername); existing != nil {
		fmt.Println("admin account already exists; skipping")
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123!"
		fmt.Println("SEED_ADMIN_PASSWORD not set, using default development password")
	}

	admin, err := svc.RegisterPersonnel(accounts.RegisterPersonnelDTO{
		Email:     "admin@hospital.local",
		Username:  adminUsername,
		Password:  password,
		FirstName: "System",
		LastName:  "Administrator",
	})
	if err != nil {
		return fmt.Errorf("register admin: %w", err)
	}

	if err := svc.MarkPersonnelVerified(admin.ID); err != nil {
		return fmt.Errorf("verify admin: %w", err)
	}

	roles, err := rbacService.ListRoles()
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, role := range roles {
		if role.Name != "Admin" {
			continue
		}
		if _, err := rbacService.GrantRole(admin.ID, role.ID, nil, nil); err != nil {
			return fmt.Errorf("grant admin role: %w", err)
		}
		return nil
	}
	return fmt.Errorf("default Admin role not found")
}
