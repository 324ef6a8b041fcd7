package seed_customers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/pkg/service"
	"crm/repo"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "changeme123"
)

// SeedCustomers loads a small test data set into the customer store and
// makes sure an operator account exists.
type SeedCustomers struct {
	customerRepo repo.CustomerRepo
	userRepo     repo.UserRepo
}

func New(customerRepo repo.CustomerRepo, userRepo repo.UserRepo) service.Job {
	return &SeedCustomers{
		customerRepo: customerRepo,
		userRepo:     userRepo,
	}
}

func (j *SeedCustomers) Init(_ context.Context) error {
	return nil
}

func (j *SeedCustomers) Run(ctx context.Context) error {
	now := uint64(time.Now().Unix())

	customers := []*entity.Customer{
		newCustomer("Mohit Sharma", "mohit@example.com", "+91-9876543210", entity.CustomerSegmentActive, 15000, 5, now),
		newCustomer("Priya Patel", "priya@example.com", "+91-9876543211", entity.CustomerSegmentInactive, 5000, 2, now),
		newCustomer("Rahul Gupta", "rahul@example.com", "+91-9876543212", entity.CustomerSegmentActive, 25000, 8, now),
		newCustomer("Anita Singh", "anita@example.com", "+91-9876543213", entity.CustomerSegmentInactive, 8000, 3, now),
		newCustomer("Vikram Mehta", "vikram@example.com", "+91-9876543214", entity.CustomerSegmentActive, 30000, 10, now),
	}

	if err := j.customerRepo.BatchCreate(ctx, customers); err != nil {
		log.Ctx(ctx).Error().Msgf("seed customers failed, err: %v", err)
		return err
	}

	log.Ctx(ctx).Info().Msgf("seeded %d customers", len(customers))

	return j.ensureAdminUser(ctx)
}

func (j *SeedCustomers) ensureAdminUser(ctx context.Context) error {
	_, err := j.userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		log.Ctx(ctx).Info().Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, repo.ErrUserNotFound) {
		return err
	}

	admin, err := entity.NewUser(adminEmail, "admin", adminPassword, "Admin User")
	if err != nil {
		return err
	}

	if _, err := j.userRepo.Create(ctx, admin); err != nil {
		log.Ctx(ctx).Error().Msgf("create admin user failed, err: %v", err)
		return err
	}

	log.Ctx(ctx).Info().Msg("admin user created")

	return nil
}

func (j *SeedCustomers) CleanUp(_ context.Context) error {
	return nil
}

func newCustomer(name, email, phone, segment string, totalSpend float64, visitCount uint64, now uint64) *entity.Customer {
	return &entity.Customer{
		Name:       goutil.String(name),
		Email:      goutil.String(email),
		Phone:      goutil.String(phone),
		Segment:    goutil.String(segment),
		TotalSpend: goutil.Float64(totalSpend),
		VisitCount: goutil.Uint64(visitCount),
		LastVisit:  goutil.Uint64(now),
		CreateTime: goutil.Uint64(now),
		UpdateTime: goutil.Uint64(now),
	}
}
