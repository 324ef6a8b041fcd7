package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"crm/config"
	"crm/dep"
	"crm/handler"
	"crm/middleware"
	"crm/pkg/logutil"
	"crm/pkg/mq"
	"crm/pkg/router"
	"crm/pkg/service"
	"crm/repo"
)

type server struct {
	ctx context.Context
	opt *config.Option
	cfg *config.Config

	baseRepo             repo.BaseRepo
	baseCache            repo.BaseCache
	campaignRepo         repo.CampaignRepo
	communicationLogRepo repo.CommunicationLogRepo
	customerRepo         repo.CustomerRepo
	notificationRepo     repo.NotificationRepo
	userRepo             repo.UserRepo
	sessionRepo          repo.SessionRepo

	vendorService  dep.VendorService
	textGenService dep.TextGenService

	notificationProducer *mq.Producer
	notificationConsumer *mq.Consumer

	// api handlers
	campaignHandler     handler.CampaignHandler
	deliveryHandler     handler.DeliveryHandler
	segmentHandler      handler.SegmentHandler
	customerHandler     handler.CustomerHandler
	notificationHandler handler.NotificationHandler
	dashboardHandler    handler.DashboardHandler
	aiHandler           handler.AIHandler
	userHandler         handler.UserHandler
}

func main() {
	s := new(server)
	if err := service.Run(s); err != nil {
		log.Fatal().Msg(err.Error())
	}
}

func (s *server) Init() error {
	opt := config.NewOptions()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		opt.LogLevel = logLevel
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		opt.ConfigPath = configPath
	}

	if serverPort := os.Getenv("PORT"); serverPort != "" {
		if port, err := strconv.Atoi(serverPort); err == nil {
			opt.Port = port
		}
	}

	s.opt = opt

	return nil
}

func (s *server) Start() error {
	var err error

	// ====== init logger ===== //

	s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel)

	// ===== init config ===== //

	s.cfg = config.NewConfig()
	if err = s.cfg.Load(s.ctx, s.opt.ConfigPath); err != nil {
		log.Ctx(s.ctx).Error().Msgf("load config failed, err: %v", err)
		return err
	}

	// ===== init repos ===== //

	// base repo
	s.baseRepo, err = repo.NewBaseRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init base repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.baseRepo != nil {
			if err := s.baseRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
				return
			}
		}
	}()

	// base cache
	s.baseCache = repo.NewBaseCache(s.ctx)

	// customer repo
	s.customerRepo, err = repo.NewCustomerRepo(s.ctx, s.cfg.CustomerDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init customer repo failed, err: %v", err)
		return err
	}

	// campaign repo
	s.campaignRepo = repo.NewCampaignRepo(s.ctx, s.baseRepo)

	// communication log repo
	s.communicationLogRepo = repo.NewCommunicationLogRepo(s.ctx, s.baseRepo)

	// notification repo
	s.notificationRepo = repo.NewNotificationRepo(s.ctx, s.baseRepo)

	// user repo
	s.userRepo = repo.NewUserRepo(s.ctx, s.baseRepo)

	// session repo
	s.sessionRepo = repo.NewSessionRepo(s.ctx, s.baseRepo)

	// ===== init deps ===== //

	// vendor
	s.vendorService = dep.NewVendorService(s.ctx, s.cfg.Vendor)

	// text generation
	s.textGenService = dep.NewTextGenService(s.ctx, s.cfg.TextGen)

	// ===== init notification mq ===== //

	var notifier handler.Notifier
	if s.cfg.NotificationMQ.Enabled() {
		s.notificationProducer, err = mq.NewProducer(s.ctx, s.cfg.NotificationMQ.Producer)
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init notification producer failed, err: %v", err)
			return err
		}
		defer func() {
			if err != nil && s.notificationProducer != nil {
				if err := s.notificationProducer.Close(); err != nil {
					log.Ctx(s.ctx).Error().Msgf("close notification producer failed, err: %v", err)
					return
				}
			}
		}()

		notifier = handler.NewMQNotifier(s.notificationProducer)
	} else {
		notifier = handler.NewDirectNotifier(s.notificationRepo)
	}

	// ===== init handlers ===== //

	statsHandler := handler.NewStatsHandler(s.campaignRepo, s.communicationLogRepo)
	s.deliveryHandler = handler.NewDeliveryHandler(s.cfg, s.campaignRepo, s.communicationLogRepo, s.customerRepo, s.vendorService, statsHandler)
	s.campaignHandler = handler.NewCampaignHandler(s.cfg, s.baseRepo, s.campaignRepo, s.communicationLogRepo, s.customerRepo, s.deliveryHandler, notifier)
	s.segmentHandler = handler.NewSegmentHandler(s.customerRepo, s.baseCache)
	s.customerHandler = handler.NewCustomerHandler(s.customerRepo)
	s.notificationHandler = handler.NewNotificationHandler(s.notificationRepo)
	s.dashboardHandler = handler.NewDashboardHandler(s.campaignRepo, s.communicationLogRepo, s.customerRepo)
	s.aiHandler = handler.NewAIHandler(s.textGenService, s.campaignRepo)
	s.userHandler = handler.NewUserHandler(s.userRepo, s.sessionRepo)

	// ===== start notification consumer ===== //

	if s.cfg.NotificationMQ.Enabled() {
		mq.RegisterHandler(mq.PayloadCreateNotification, func(ctx context.Context, msg *mq.Message) error {
			body := new(mq.CreateNotification)
			if err := msg.ParseBody(body); err != nil {
				return err
			}

			return s.notificationHandler.CreateNotification(ctx, &handler.CreateNotificationRequest{
				UserID:           body.UserID,
				NotificationType: body.NotificationType,
				Title:            body.Title,
				Message:          body.Message,
			}, new(handler.CreateNotificationResponse))
		})

		s.notificationConsumer, err = mq.NewConsumer(s.ctx, s.cfg.NotificationMQ.Consumer)
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init notification consumer failed, err: %v", err)
			return err
		}
	}

	// ===== start server ===== //

	go func() {
		addr := fmt.Sprintf(":%d", s.opt.Port)

		log.Info().Msgf("starting HTTP server at %s", addr)

		httpServer := &http.Server{
			BaseContext: func(_ net.Listener) context.Context {
				return s.ctx
			},
			Addr:    addr,
			Handler: middleware.Log(cors.AllowAll().Handler(s.registerRoutes())),
		}
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fail to start HTTP server, err: %v", err)
		}
	}()

	return nil
}

func (s *server) Stop() error {
	if s.notificationConsumer != nil {
		if err := s.notificationConsumer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close notification consumer failed, err: %v", err)
			return err
		}
	}

	if s.notificationProducer != nil {
		if err := s.notificationProducer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close notification producer failed, err: %v", err)
			return err
		}
	}

	if s.vendorService != nil {
		if err := s.vendorService.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close vendor service failed, err: %v", err)
			return err
		}
	}

	if s.textGenService != nil {
		if err := s.textGenService.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close text gen service failed, err: %v", err)
			return err
		}
	}

	if s.baseCache != nil {
		if err := s.baseCache.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base cache failed, err: %v", err)
			return err
		}
	}

	if s.baseRepo != nil {
		if err := s.baseRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
			return err
		}
	}

	return nil
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}

func (s *server) registerRoutes() http.Handler {
	r := &router.HttpRouter{
		Router: mux.NewRouter(),
	}

	sessionMiddleware := router.NewSessionMiddleware(s.userRepo, s.sessionRepo)
	authMiddlewares := []router.Middleware{sessionMiddleware}

	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathHealthCheck,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(HealthCheckRequest),
			Res: new(HealthCheckResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return nil
			},
		},
	})

	// login
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathLogin,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.LoginRequest),
			Res: new(handler.LoginResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.Login(ctx, req.(*handler.LoginRequest), res.(*handler.LoginResponse))
			},
		},
	})

	// logout
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathLogout,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.LogoutRequest),
			Res: new(handler.LogoutResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.Logout(ctx, req.(*handler.LogoutRequest), res.(*handler.LogoutResponse))
			},
		},
	})

	// me
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathMe,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.MeRequest),
			Res: new(handler.MeResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.Me(ctx, req.(*handler.MeRequest), res.(*handler.MeResponse))
			},
		},
	})

	// create_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathCreateCampaign,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.CreateCampaignRequest),
			Res: new(handler.CreateCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.CreateCampaign(ctx, req.(*handler.CreateCampaignRequest), res.(*handler.CreateCampaignResponse))
			},
		},
	})

	// get_campaigns
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaigns,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.GetCampaignsRequest),
			Res: new(handler.GetCampaignsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaigns(ctx, req.(*handler.GetCampaignsRequest), res.(*handler.GetCampaignsResponse))
			},
		},
	})

	// get_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaign,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.GetCampaignRequest),
			Res: new(handler.GetCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaign(ctx, req.(*handler.GetCampaignRequest), res.(*handler.GetCampaignResponse))
			},
		},
	})

	// update_campaign_status
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathUpdateCampaignStatus,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.UpdateCampaignStatusRequest),
			Res: new(handler.UpdateCampaignStatusResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.UpdateCampaignStatus(ctx, req.(*handler.UpdateCampaignStatusRequest), res.(*handler.UpdateCampaignStatusResponse))
			},
		},
	})

	// delete_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathDeleteCampaign,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.DeleteCampaignRequest),
			Res: new(handler.DeleteCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.DeleteCampaign(ctx, req.(*handler.DeleteCampaignRequest), res.(*handler.DeleteCampaignResponse))
			},
		},
	})

	// get_campaign_logs
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaignLogs,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.GetCampaignLogsRequest),
			Res: new(handler.GetCampaignLogsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaignLogs(ctx, req.(*handler.GetCampaignLogsRequest), res.(*handler.GetCampaignLogsResponse))
			},
		},
	})

	// preview_audience
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathPreviewAudience,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.PreviewAudienceRequest),
			Res: new(handler.PreviewAudienceResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.segmentHandler.PreviewAudience(ctx, req.(*handler.PreviewAudienceRequest), res.(*handler.PreviewAudienceResponse))
			},
		},
	})

	// delivery_receipt, called by the vendor
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathDeliveryReceipt,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.RecordDeliveryReceiptRequest),
			Res: new(handler.RecordDeliveryReceiptResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.deliveryHandler.RecordDeliveryReceipt(ctx, req.(*handler.RecordDeliveryReceiptRequest), res.(*handler.RecordDeliveryReceiptResponse))
			},
		},
	})

	// get_customers
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCustomers,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.GetCustomersRequest),
			Res: new(handler.GetCustomersResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.customerHandler.GetCustomers(ctx, req.(*handler.GetCustomersRequest), res.(*handler.GetCustomersResponse))
			},
		},
	})

	// count_customers
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathCountCustomers,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.CountCustomersRequest),
			Res: new(handler.CountCustomersResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.customerHandler.CountCustomers(ctx, req.(*handler.CountCustomersRequest), res.(*handler.CountCustomersResponse))
			},
		},
	})

	// get_notifications
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetNotifications,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.GetNotificationsRequest),
			Res: new(handler.GetNotificationsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.notificationHandler.GetNotifications(ctx, req.(*handler.GetNotificationsRequest), res.(*handler.GetNotificationsResponse))
			},
		},
	})

	// mark_notification_read
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathMarkNotificationRead,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.MarkNotificationReadRequest),
			Res: new(handler.MarkNotificationReadResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.notificationHandler.MarkNotificationRead(ctx, req.(*handler.MarkNotificationReadRequest), res.(*handler.MarkNotificationReadResponse))
			},
		},
	})

	// mark_all_notifications_read
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathMarkAllNotifsRead,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.MarkAllNotificationsReadRequest),
			Res: new(handler.MarkAllNotificationsReadResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.notificationHandler.MarkAllNotificationsRead(ctx, req.(*handler.MarkAllNotificationsReadRequest), res.(*handler.MarkAllNotificationsReadResponse))
			},
		},
	})

	// delete_notification
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathDeleteNotification,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.DeleteNotificationRequest),
			Res: new(handler.DeleteNotificationResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.notificationHandler.DeleteNotification(ctx, req.(*handler.DeleteNotificationRequest), res.(*handler.DeleteNotificationResponse))
			},
		},
	})

	// get_dashboard_stats
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetDashboardStats,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.GetDashboardStatsRequest),
			Res: new(handler.GetDashboardStatsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.dashboardHandler.GetDashboardStats(ctx, req.(*handler.GetDashboardStatsRequest), res.(*handler.GetDashboardStatsResponse))
			},
		},
	})

	// suggest_messages
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathSuggestMessages,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.SuggestMessagesRequest),
			Res: new(handler.SuggestMessagesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.aiHandler.SuggestMessages(ctx, req.(*handler.SuggestMessagesRequest), res.(*handler.SuggestMessagesResponse))
			},
		},
	})

	// convert_segment_prompt
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathConvertSegmentPrompt,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.ConvertSegmentPromptRequest),
			Res: new(handler.ConvertSegmentPromptResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.aiHandler.ConvertSegmentPrompt(ctx, req.(*handler.ConvertSegmentPromptRequest), res.(*handler.ConvertSegmentPromptResponse))
			},
		},
	})

	// lookalike_segment
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathLookalikeSegment,
		Method:      http.MethodPost,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.LookalikeSegmentRequest),
			Res: new(handler.LookalikeSegmentResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.aiHandler.LookalikeSegment(ctx, req.(*handler.LookalikeSegmentRequest), res.(*handler.LookalikeSegmentResponse))
			},
		},
	})

	// scheduling_suggestions
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathSchedulingSuggestions,
		Method:      http.MethodGet,
		Middlewares: authMiddlewares,
		Handler: router.Handler{
			Req: new(handler.SchedulingSuggestionsRequest),
			Res: new(handler.SchedulingSuggestionsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.aiHandler.SchedulingSuggestions(ctx, req.(*handler.SchedulingSuggestionsRequest), res.(*handler.SchedulingSuggestionsResponse))
			},
		},
	})

	return r
}
