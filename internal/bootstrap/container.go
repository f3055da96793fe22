package bootstrap

import (
	"log"
	"time"

	"ai-therapy-be/internal/config"
	"ai-therapy-be/internal/controller"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/internal/pkg/mailer"
	"ai-therapy-be/internal/repository/memory"
	"ai-therapy-be/internal/repository/unitofwork"
	"ai-therapy-be/internal/service"
	"ai-therapy-be/pkg/llm/factory"
	"ai-therapy-be/pkg/therapy/analysis"
	"ai-therapy-be/pkg/therapy/history"
	"ai-therapy-be/pkg/therapy/prompt"
	"ai-therapy-be/pkg/therapy/reply"

	pktNats "ai-therapy-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    *controller.AuthController
	TherapyController *controller.TherapyController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderEmail,
		)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// LLM Provider
	apiKey := cfg.Ai.OpenAIAPIKey
	baseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "openai" {
		baseURL = cfg.Ai.OpenAIBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, baseURL, apiKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Pipeline components
	pipelineLogger := logger.NewIsolatedLogger("logs/pipeline.log")
	promptBuilder := prompt.NewBuilder()
	analyzer := analysis.NewAnalyzer(llmProvider, promptBuilder, pipelineLogger)
	generator := reply.NewGenerator(llmProvider, promptBuilder, pipelineLogger)
	historyLoader := history.NewLoader(uowFactory)

	// In-memory session activity state
	stateRepo := memory.NewStateRepository()

	publisherService := service.NewPublisherService(pubSub, sysLogger)
	consumerService := service.NewActivityConsumerService(pubSub, stateRepo, sysLogger)

	// 4. Services
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	therapyService := service.NewTherapyService(
		uowFactory,
		analyzer,
		generator,
		historyLoader,
		eventPublisher,
		publisherService,
		sysLogger,
		cfg.Safety.RiskAlertThreshold,
	)
	authService := service.NewAuthService(
		uowFactory,
		cfg.Auth.JwtSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour,
		sysLogger,
	)

	// Risk alert worker
	if natsSub != nil {
		alertService := service.NewAlertService(natsSub, emailService, cfg.Safety.SupervisorEmail, sysLogger)
		if err := alertService.Start(); err != nil {
			log.Printf("[WARN] Failed to start alert worker: %v", err)
		}
	}

	// 5. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService, sysLogger),
		TherapyController: controller.NewTherapyController(therapyService, sysLogger),

		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
