package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trusthire/internal/config"
	"trusthire/internal/events"
	"trusthire/internal/handlers"
	"trusthire/internal/idempotency"
	"trusthire/internal/models"
	"trusthire/internal/project/pay"
	"trusthire/internal/push"
	"trusthire/internal/repositories"
	"trusthire/internal/services"
	"trusthire/internal/storage"
	"trusthire/utils"
)

// notificationBinding routes every project notice to the push consumer.
const notificationBinding = "project.#"

type application struct {
	cfg    config.Config
	logger *zap.Logger
	log    *zap.SugaredLogger
	db     *sql.DB

	tokens      *utils.Manager
	userService *services.UserService
	locker      *idempotency.Locker
	orderRepo   *repositories.PaymentOrderRepository
	hub         *Hub

	userHandler        *handlers.UserHandler
	jobHandler         *handlers.JobHandler
	applicationHandler *handlers.ApplicationHandler
	projectHandler     *handlers.ProjectHandler
	paymentHandler     *handlers.PaymentHandler
	messageHandler     *handlers.MessageHandler
	withdrawalHandler  *handlers.WithdrawalHandler

	closers []func()
}

func initializeApp(ctx context.Context, cfg config.Config, db *sql.DB, zl *zap.Logger) (*application, error) {
	sugar := zl.Sugar()
	app := &application{cfg: cfg, logger: zl, log: sugar, db: db}

	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	app.tokens = tokens

	// Repositories
	userRepo := &repositories.UserRepository{DB: db}
	jobRepo := &repositories.JobRepository{DB: db}
	appRepo := &repositories.ApplicationRepository{DB: db}
	projectRepo := &repositories.ProjectRepository{DB: db}
	messageRepo := &repositories.MessageRepository{DB: db}
	transactionRepo := &repositories.TransactionRepository{DB: db}
	withdrawalRepo := &repositories.WithdrawalRepository{DB: db}
	feedbackRepo := &repositories.FeedbackRepository{DB: db}
	orderRepo := &repositories.PaymentOrderRepository{DB: db}
	app.orderRepo = orderRepo

	// Idempotency locks
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		app.locker = idempotency.NewLocker(rdb, cfg.Payments.IdempotencyTTL)
		if err := app.locker.Ping(ctx); err != nil {
			sugar.Errorf("redis %s unreachable, capture locks fall back to row versions: %v", cfg.Redis.Addr, err)
		}
		app.closers = append(app.closers, func() { rdb.Close() })
	}

	// Push notifications
	notifier := &push.Notifier{Tokens: userRepo, Log: sugar}
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := push.NewFCM(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			sugar.Errorf("firebase disabled: %v", err)
		} else {
			notifier.Sender = fcm
		}
	}

	// Event bus
	var publisher events.Publisher = events.Direct{Handler: notifier.Handle}
	if cfg.AMQP.URL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			sugar.Errorf("amqp publisher disabled, delivering notifications in-process: %v", err)
		} else {
			publisher = pub
			app.closers = append(app.closers, pub.Close)

			consumer, err := events.NewAMQPConsumer(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, notificationBinding, zl)
			if err != nil {
				sugar.Errorf("amqp consumer disabled: %v", err)
			} else {
				app.closers = append(app.closers, consumer.Close)
				go func() {
					if err := consumer.Run(ctx, notifier.Handle); err != nil && ctx.Err() == nil {
						sugar.Errorf("notification consumer stopped: %v", err)
					}
				}()
			}
		}
	}

	app.hub = NewHub(sugar)
	dispatcher := &services.Dispatcher{Feed: app.hub, Events: publisher, Log: sugar}

	// Payment adapters
	capturers := map[string]pay.Capturer{
		models.PaymentMethodEscrow: pay.Simulated{Enabled: cfg.Payments.SimulatedEnabled},
	}
	if cfg.Wallet.RPCURL != "" {
		wei, err := cfg.WeiPerUnit()
		if err != nil {
			return nil, err
		}
		verifier := pay.NewWalletVerifier(nil, pay.WalletConfig{
			RPCURL:           cfg.Wallet.RPCURL,
			EscrowAddress:    cfg.Wallet.EscrowAddress,
			MinConfirmations: cfg.Wallet.MinConfirmations,
			WeiPerUnit:       wei,
		})
		capturers[models.PaymentMethodWallet] = pay.WalletCapturer{Verifier: verifier}
	}

	projectService := &services.ProjectService{
		ProjectRepo:     projectRepo,
		OrderRepo:       orderRepo,
		TransactionRepo: transactionRepo,
		FeedbackRepo:    feedbackRepo,
		Capturers:       capturers,
		Dispatcher:      dispatcher,
		AmountStrategy:  cfg.Escrow.AmountStrategy,
		Currency:        cfg.Payments.Currency,
		VideoAppID:      cfg.Video.AppID,
	}
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		projectService.Gateway = pay.NewRazorpayClient(nil, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
		capturers[models.PaymentMethodGateway] = pay.GatewayCapturer{Secret: cfg.Razorpay.KeySecret, Orders: orderRepo}
	}
	if app.locker != nil {
		projectService.Locker = app.locker
	}
	if cfg.S3.Bucket != "" {
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		projectService.Uploader = s3
	}

	// Services
	app.userService = &services.UserService{
		UserRepo:     userRepo,
		TokenManager: tokens,
		AccessTTL:    cfg.Auth.AccessTTL,
		RefreshTTL:   cfg.Auth.RefreshTTL,
	}
	jobService := &services.JobService{JobRepo: jobRepo}
	applicationService := &services.ApplicationService{
		AppRepo:    appRepo,
		JobRepo:    jobRepo,
		Stages:     cfg.Escrow.Stages,
		Dispatcher: dispatcher,
	}
	messageService := &services.MessageService{MessageRepo: messageRepo, ProjectRepo: projectRepo, Dispatcher: dispatcher}
	withdrawalService := &services.WithdrawalService{WithdrawalRepo: withdrawalRepo}

	// Handlers
	responder := handlers.Responder{Log: sugar}
	app.userHandler = &handlers.UserHandler{Responder: responder, Service: app.userService}
	app.jobHandler = &handlers.JobHandler{Responder: responder, Service: jobService}
	app.applicationHandler = &handlers.ApplicationHandler{Responder: responder, Service: applicationService}
	app.projectHandler = &handlers.ProjectHandler{Responder: responder, Service: projectService}
	app.paymentHandler = &handlers.PaymentHandler{
		ProjectHandler: handlers.ProjectHandler{Responder: responder, Service: projectService},
		RazorpaySecret: cfg.Razorpay.KeySecret,
	}
	app.messageHandler = &handlers.MessageHandler{Responder: responder, MessageService: messageService}
	app.withdrawalHandler = &handlers.WithdrawalHandler{Responder: responder, Service: withdrawalService}

	return app, nil
}

func (app *application) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
}
