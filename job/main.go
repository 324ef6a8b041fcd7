package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"crm/config"
	"crm/handler"
	"crm/job/recompute_stats"
	"crm/job/seed_customers"
	"crm/pkg/logutil"
	"crm/pkg/service"
	"crm/repo"
)

func main() {
	var (
		opt = config.NewOptions()
		ctx = logutil.InitZeroLog(context.Background(), "DEBUG")
	)

	cfg := config.NewConfig()
	if err := cfg.Load(ctx, opt.ConfigPath); err != nil {
		log.Ctx(ctx).Error().Msgf("load config failed: %v", err)
		os.Exit(1)
	}

	// base repo
	baseRepo, err := repo.NewBaseRepo(ctx, cfg.MetadataDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init base repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := baseRepo.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close base repo failed, err: %v", err)
		}
	}()

	// customer repo
	customerRepo, err := repo.NewCustomerRepo(ctx, cfg.CustomerDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init customer repo failed, err: %v", err)
		os.Exit(1)
	}

	// campaign repo
	campaignRepo := repo.NewCampaignRepo(ctx, baseRepo)

	// communication log repo
	communicationLogRepo := repo.NewCommunicationLogRepo(ctx, baseRepo)

	// user repo
	userRepo := repo.NewUserRepo(ctx, baseRepo)

	// stats handler
	statsHandler := handler.NewStatsHandler(campaignRepo, communicationLogRepo)

	jobs := map[string]service.Job{
		"recompute-stats": recompute_stats.New(campaignRepo, statsHandler),
		"seed-customers":  seed_customers.New(customerRepo, userRepo),
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <job_name>")
		os.Exit(1)
	}

	jobName := os.Args[1]
	job, exists := jobs[jobName]
	if !exists {
		log.Ctx(ctx).Error().Msgf("job %s not found", jobName)
		os.Exit(1)
	}

	if err := job.Init(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("init job err: %v", err)
		os.Exit(1)
	}

	if err := job.Run(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("run job err: %v", err)
		os.Exit(1)
	}

	if err := job.CleanUp(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("cleanup job err: %v", err)
		os.Exit(1)
	}

	log.Ctx(ctx).Info().Msg("job executed successfully")
}
