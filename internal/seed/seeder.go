package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/kitstore-backend/internal/delivery"
	"github.com/angelmondragon/kitstore-backend/internal/leagues"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/security"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// Options controls how much data a dev seed produces.
type Options struct {
	Customers       int
	ProductsPerTeam int
	AdminEmail      string
	AdminPassword   string
	// CustomerPassword is shared by every generated customer.
	CustomerPassword string
	// Seed makes the generated data reproducible; zero picks a random seed.
	Seed uint64
}

// Report counts rows created by a run.
type Report struct {
	DeliveryPrices int
	Banners        int
	Admins         int
	Customers      int
	Products       int
}

// Seeder fills a development database. Each step is idempotent so it can be
// re-run against a database that was already seeded.
type Seeder struct {
	db       *gorm.DB
	logg     *logger.Logger
	password config.PasswordConfig
}

func NewSeeder(db *gorm.DB, logg *logger.Logger, password config.PasswordConfig) *Seeder {
	return &Seeder{db: db, logg: logg, password: password}
}

var deliveryZones = []struct {
	Label string
	Price string
	Days  int
}{
	{"Greater Accra", "25.00", 1},
	{"Ashanti", "40.00", 2},
	{"Central", "40.00", 2},
	{"Eastern", "40.00", 2},
	{"Western", "50.00", 3},
	{"Volta", "50.00", 3},
	{"Northern", "70.00", 4},
	{"Upper East", "80.00", 5},
	{"Upper West", "80.00", 5},
}

var (
	kitSizes    = []string{"S", "M", "L", "XL", "XXL"}
	kitVariants = []string{"Home Jersey", "Away Jersey", "Third Jersey", "Training Top", "Retro Jersey"}
	kitColors   = []types.ProductColor{
		{ID: "home", Name: "Home", Hex: "#C8102E"},
		{ID: "away", Name: "Away", Hex: "#FFFFFF"},
		{ID: "third", Name: "Third", Hex: "#111111"},
	}
)

// Run seeds every table and reports what was created.
func (s *Seeder) Run(ctx context.Context, opts Options) (Report, error) {
	faker := gofakeit.New(opts.Seed)
	var report Report
	var err error

	if report.DeliveryPrices, err = s.seedDeliveryPrices(ctx); err != nil {
		return report, fmt.Errorf("seed delivery prices: %w", err)
	}
	if report.Banners, err = s.seedBanners(ctx, faker); err != nil {
		return report, fmt.Errorf("seed banners: %w", err)
	}
	if report.Admins, err = s.seedAdmin(ctx, opts); err != nil {
		return report, fmt.Errorf("seed admin: %w", err)
	}
	if report.Customers, err = s.seedCustomers(ctx, faker, opts); err != nil {
		return report, fmt.Errorf("seed customers: %w", err)
	}
	if report.Products, err = s.seedProducts(ctx, faker, opts.ProductsPerTeam); err != nil {
		return report, fmt.Errorf("seed products: %w", err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"delivery_prices": report.DeliveryPrices,
		"banners":         report.Banners,
		"admins":          report.Admins,
		"customers":       report.Customers,
		"products":        report.Products,
	}), "seed complete")
	return report, nil
}

// CreateAdmin adds one admin account. It reports false when the email is
// already registered.
func (s *Seeder) CreateAdmin(ctx context.Context, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, fmt.Errorf("admin email and password are required")
	}
	created, err := s.seedAdmin(ctx, Options{AdminEmail: email, AdminPassword: password})
	return created == 1, err
}

func (s *Seeder) seedDeliveryPrices(ctx context.Context) (int, error) {
	created := 0
	for _, zone := range deliveryZones {
		row := models.DeliveryPrice{
			Location:      delivery.NormalizeLocation(zone.Label),
			Label:         zone.Label,
			Price:         decimal.RequireFromString(zone.Price),
			EstimatedDays: zone.Days,
			IsActive:      true,
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return created, res.Error
		}
		created += int(res.RowsAffected)
	}
	return created, nil
}

func (s *Seeder) seedBanners(ctx context.Context, faker *gofakeit.Faker) (int, error) {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Banner{}).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}
	banners := []models.Banner{
		{Title: "New season kits", LinkURL: "/products?category=jerseys", Position: 1},
		{Title: "Support the Black Stars", LinkURL: "/teams/black-stars", Position: 2},
		{Title: "Free delivery in Accra", LinkURL: "/delivery", Position: 3},
	}
	for i := range banners {
		banners[i].Subtitle = faker.HipsterSentence()
		banners[i].ImageURL = fmt.Sprintf("/static/banners/banner-%d.jpg", banners[i].Position)
		banners[i].IsActive = true
	}
	return len(banners), s.db.WithContext(ctx).Create(&banners).Error
}

func (s *Seeder) seedAdmin(ctx context.Context, opts Options) (int, error) {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		return 0, nil
	}
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}
	hash, err := security.HashPassword(opts.AdminPassword, s.password)
	if err != nil {
		return 0, err
	}
	admin := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Store",
		LastName:     "Admin",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	return 1, s.db.WithContext(ctx).Create(&admin).Error
}

// seedCustomers tops the customer count up to opts.Customers.
func (s *Seeder) seedCustomers(ctx context.Context, faker *gofakeit.Faker, opts Options) (int, error) {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", enums.UserRoleCustomer).Count(&existing).Error; err != nil {
		return 0, err
	}
	missing := opts.Customers - int(existing)
	if missing <= 0 {
		return 0, nil
	}
	password := opts.CustomerPassword
	if password == "" {
		password = "password123"
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return 0, err
	}

	customers := make([]models.User, 0, missing)
	for i := 0; i < missing; i++ {
		first, last := faker.FirstName(), faker.LastName()
		phone := "02" + faker.Numerify("########")
		customers = append(customers, models.User{
			Email:        strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, int(existing)+i)),
			PasswordHash: hash,
			FirstName:    first,
			LastName:     last,
			Phone:        &phone,
			Role:         enums.UserRoleCustomer,
			IsActive:     true,
		})
	}
	return len(customers), s.db.WithContext(ctx).CreateInBatches(&customers, 100).Error
}

// seedProducts gives every built-in team without products a set of kits.
func (s *Seeder) seedProducts(ctx context.Context, faker *gofakeit.Faker, perTeam int) (int, error) {
	if perTeam <= 0 {
		return 0, nil
	}
	perTeam = min(perTeam, len(kitVariants))
	created := 0
	for _, team := range leagues.StaticTeams() {
		var existing int64
		if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("team_id = ?", team.ID).Count(&existing).Error; err != nil {
			return created, err
		}
		if existing > 0 {
			continue
		}
		products := make([]models.Product, 0, perTeam)
		for i := 0; i < perTeam; i++ {
			price := decimal.NewFromInt(int64(faker.IntRange(18, 45) * 10))
			products = append(products, models.Product{
				Name:        fmt.Sprintf("%s %s", team.Name, kitVariants[i]),
				Description: faker.HipsterSentence(),
				TeamID:      team.ID,
				Category:    "jerseys",
				Price:       price,
				Stock:       faker.IntRange(0, 60),
				Colors:      kitColors,
				Sizes:       kitSizes,
				Images:      []string{fmt.Sprintf("/static/products/%s-%d.jpg", team.ID, i+1)},
				IsActive:    true,
			})
		}
		if err := s.db.WithContext(ctx).Create(&products).Error; err != nil {
			return created, err
		}
		created += len(products)
	}
	return created, nil
}
