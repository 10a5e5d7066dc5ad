package bootstrap

import (
	"context"
	"fmt"

	"symptom-checker-be/internal/config"
	"symptom-checker-be/internal/constant"
	"symptom-checker-be/internal/controller"
	"symptom-checker-be/internal/handler"
	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/internal/repository/contract"
	"symptom-checker-be/internal/repository/implementation"
	"symptom-checker-be/internal/repository/memory"
	"symptom-checker-be/internal/repository/snapshot"
	"symptom-checker-be/internal/service"
	"symptom-checker-be/internal/websocket"
	"symptom-checker-be/pkg/infermedica"
	"symptom-checker-be/pkg/interview"
	"symptom-checker-be/pkg/llm"
	"symptom-checker-be/pkg/llm/factory"

	pktNats "symptom-checker-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	InterviewController  controller.IInterviewController
	AssessmentController controller.IAssessmentController
	HealthController     controller.IHealthController

	// WebSockets
	StreamHandler *handler.InterviewStreamHandler
	WebSocketHub  *websocket.Hub

	// Background Services (started by Start)
	ConsumerService service.IConsumerService
	AuditService    *service.AuditService

	SysLogger logger.ILogger

	pubSub  *gochannel.GoChannel
	rdb     *redis.Client
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
}

// NewContainer builds every dependency. db may be nil, in which case
// assessments are kept in Redis for cfg.Interview.AssessmentTTL.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	streamLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)

	// 3. Infrastructure
	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err})
	}

	// NATS is optional; without it domain events are skipped.
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err})
	} else {
		eventPublisher = natsPub
	}
	auditLogger := logger.NewIsolatedLogger("logs/audit.log")
	var auditService *service.AuditService
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, auditLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err})
	} else {
		auditService = service.NewAuditService(natsSub, auditLogger)
	}

	// 4. Repositories
	sessionRepo := memory.NewSessionRepository(cfg.Interview.SessionTTL, sysLogger)
	var assessmentRepo contract.AssessmentRepository
	if db != nil {
		assessmentRepo = implementation.NewAssessmentRepository(db)
		sysLogger.Info("BOOTSTRAP", "Assessments stored in Postgres", nil)
	} else {
		assessmentRepo = snapshot.NewRedisAssessmentRepository(rdb, cfg.Interview.AssessmentTTL)
		sysLogger.Info("BOOTSTRAP", "Assessments stored in Redis", map[string]interface{}{"ttl": cfg.Interview.AssessmentTTL.String()})
	}

	// 5. Remote services
	gateway, err := infermedica.NewClient(infermedica.Config{
		BaseURL:     cfg.Infermedica.BaseURL,
		AppID:       cfg.Keys.InfermedicaID,
		AppKey:      cfg.Keys.InfermedicaKey,
		Model:       cfg.Infermedica.Model,
		Language:    cfg.Infermedica.Language,
		Timeout:     cfg.Infermedica.Timeout,
		CacheSize:   cfg.Infermedica.CacheSize,
		EnrichCount: cfg.Infermedica.EnrichCount,
	})
	if err != nil {
		return nil, fmt.Errorf("infermedica client: %w", err)
	}

	var llmProvider llm.LLMProvider
	llmProvider, err = factory.NewLLMProvider(ctx, cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Keys.GoogleGemini)
	if err != nil {
		// explanations are optional, the interview does not need them
		sysLogger.Warn("BOOTSTRAP", "LLM provider unavailable, explanations disabled", map[string]interface{}{"error": err})
		llmProvider = nil
	} else {
		sysLogger.Info("BOOTSTRAP", "Using LLM provider", map[string]interface{}{"provider": cfg.Ai.LLMProvider, "model": cfg.Ai.LLMModel})
	}

	// 6. Services
	wsHub := websocket.NewHub(rdb, streamLogger, uuid.NewString())
	publisherService := service.NewPublisherService(constant.StreamTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, constant.StreamTopic, wsHub, streamLogger)

	interviewController := interview.NewController(
		gateway,
		gateway,
		interview.NewStopPolicy(PolicyConfig(cfg.Interview)),
		interview.WithNotifier(service.NewStreamNotifier(publisherService, streamLogger)),
		interview.WithExtras(map[string]any{"disable_groups": cfg.Infermedica.DisableGroups}),
	)
	interviewService := service.NewInterviewService(
		interviewController,
		sessionRepo,
		assessmentRepo,
		publisherService,
		eventPublisher,
		llmProvider,
		sysLogger,
	)
	assessmentService := service.NewAssessmentService(assessmentRepo)

	// 7. Controllers
	return &Container{
		InterviewController:  controller.NewInterviewController(interviewService),
		AssessmentController: controller.NewAssessmentController(assessmentService),
		HealthController:     controller.NewHealthController(sessionRepo),
		StreamHandler:        handler.NewInterviewStreamHandler(interviewService, wsHub, cfg.App.JwtSecret, cfg.App.RequireAuth, streamLogger),
		WebSocketHub:         wsHub,
		ConsumerService:      consumerService,
		AuditService:         auditService,
		SysLogger:            sysLogger,
		pubSub:               pubSub,
		rdb:                  rdb,
		natsPub:              natsPub,
		natsSub:              natsSub,
	}, nil
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("stream consumer: %w", err)
	}
	if c.AuditService != nil {
		if err := c.AuditService.Start(ctx); err != nil {
			c.SysLogger.Warn("BOOTSTRAP", "Audit service not started", map[string]interface{}{"error": err})
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	_ = c.pubSub.Close()
	_ = c.rdb.Close()
	_ = c.SysLogger.Sync()
}

// PolicyConfig maps the environment onto the stop-rule thresholds. An empty
// keyword list keeps the built-in one.
func PolicyConfig(cfg config.InterviewConfig) interview.PolicyConfig {
	p := interview.DefaultPolicyConfig()
	p.MaxQuestions = cfg.MaxQuestions
	p.ExtensionFactor = cfg.ExtensionFactor
	p.HighConfidence = cfg.HighConfidence
	p.DominanceGap = cfg.DominanceGap
	p.ConfirmedConfidence = cfg.ConfirmedConfidence
	p.ConvergenceConfidence = cfg.ConvergenceConfidence
	p.MinQuestions = cfg.MinQuestions
	p.RemoteStopMinQuestions = cfg.RemoteStopMinQuestions
	p.ConvergenceMinQuestions = cfg.ConvergenceMinQuestions
	if len(cfg.EmergencyKeywords) > 0 {
		p.EmergencyKeywords = cfg.EmergencyKeywords
	}
	return p
}
