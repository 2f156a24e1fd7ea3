package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/kitstore-backend/internal/seed"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

var (
	customers        int
	productsPerTeam  int
	adminEmail       string
	adminPassword    string
	customerPassword string
	randomSeed       uint64
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed KitStore development data",
	Long: `seed fills a development database with delivery zones, banners,
customers and team products, and creates admin accounts.`,
	SilenceUsage: true,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Seed every table (safe to re-run)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if customerPassword == "" {
			customerPassword = os.Getenv("KITSTORE_SEED_CUSTOMER_PASSWORD")
		}
		return withSeeder(cmd, func(s *seed.Seeder) error {
			report, err := s.Run(cmd.Context(), seed.Options{
				Customers:        customers,
				ProductsPerTeam:  productsPerTeam,
				AdminEmail:       adminEmail,
				AdminPassword:    resolveAdminPassword(),
				CustomerPassword: customerPassword,
				Seed:             randomSeed,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivery prices: %d\nbanners: %d\nadmins: %d\ncustomers: %d\nproducts: %d\n",
				report.DeliveryPrices, report.Banners, report.Admins, report.Customers, report.Products)
			return nil
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" {
			return fmt.Errorf("--admin-email is required")
		}
		return withSeeder(cmd, func(s *seed.Seeder) error {
			created, err := s.CreateAdmin(cmd.Context(), adminEmail, resolveAdminPassword())
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", adminEmail)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", adminEmail)
			return nil
		})
	},
}

func init() {
	allCmd.Flags().IntVar(&customers, "customers", 20, "number of customers to top up to")
	allCmd.Flags().IntVar(&productsPerTeam, "products-per-team", 3, "products created for each team without any")
	allCmd.Flags().StringVar(&customerPassword, "customer-password", "", "password shared by generated customers (defaults to KITSTORE_SEED_CUSTOMER_PASSWORD)")
	allCmd.Flags().Uint64Var(&randomSeed, "seed", 0, "faker seed for reproducible data (0 = random)")

	rootCmd.PersistentFlags().StringVar(&adminEmail, "admin-email", "", "admin account email")
	rootCmd.PersistentFlags().StringVar(&adminPassword, "admin-password", "", "admin account password (defaults to KITSTORE_SEED_ADMIN_PASSWORD)")

	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(adminCmd)
}

func resolveAdminPassword() string {
	if adminPassword != "" {
		return adminPassword
	}
	return os.Getenv("KITSTORE_SEED_ADMIN_PASSWORD")
}

func withSeeder(cmd *cobra.Command, fn func(*seed.Seeder) error) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.App.IsProd() {
		return fmt.Errorf("refusing to seed a %s environment", cfg.App.Env)
	}

	logg := logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Output:      cmd.ErrOrStderr(),
	})

	dbClient, err := db.New(cmd.Context(), cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	return fn(seed.NewSeeder(dbClient.DB(), logg, cfg.Password))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
