package bootstrap

import (
	stdlog "log"
	"os"
	"path/filepath"

	"ai-tutoring-be/internal/config"
	"ai-tutoring-be/internal/controller"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/memory"
	"ai-tutoring-be/internal/service"
	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/guidance"
	"ai-tutoring-be/pkg/knowledge"
	"ai-tutoring-be/pkg/llm/factory"
	"ai-tutoring-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	TutorController     controller.ITutorController
	KnowledgeController controller.IKnowledgeController
	SessionController   controller.ISessionController

	// Services exposed beyond HTTP routing
	TutorService    service.ITutorService
	ConsumerService service.IConsumerService

	SysLogger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := initRagLogger()

	// 2. Knowledge corpus (fatal on malformed top-level structure)
	store, err := knowledge.Load(os.DirFS("."), cfg.Knowledge.CorpusDir, func(file string, index int, reason string) {
		sysLogger.Warn("knowledge", "skipping malformed entry", map[string]interface{}{
			"file": file, "index": index, "reason": reason,
		})
	})
	if err != nil {
		stdlog.Panicf("Unable to load knowledge corpus: %v", err)
	}
	sysLogger.Info("knowledge", "corpus loaded", map[string]interface{}{
		"entries":    store.Len(),
		"categories": store.Categories(),
	})

	// 3. Embedding provider + cache
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbedTimeout)
		stdlog.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel, cfg.Ai.EmbedTimeout)
		stdlog.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	}
	vectorCache := embedding.NewCache(embeddingProvider)

	// 4. LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
		cfg.Ai.GenerateTimeout,
	)
	if err != nil {
		stdlog.Panicf("Unable to initialize LLM provider: %v", err)
	}
	stdlog.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// 6. Domain components
	index := retrieval.NewIndex(store, vectorCache, ragLogger)
	selector := guidance.NewSelector()
	sessionRepo := memory.NewSessionRepository()

	tutorService := service.NewTutorService(
		index,
		selector,
		llmProvider,
		sessionRepo,
		pubSub,
		sysLogger,
		service.TutorOptions{
			Temperature:     cfg.Ai.Temperature,
			MaxTokens:       cfg.Ai.MaxTokens,
			TopK:            cfg.Knowledge.TopK,
			EmbedTimeout:    cfg.Ai.EmbedTimeout,
			GenerateTimeout: cfg.Ai.GenerateTimeout,
		},
	)
	knowledgeService := service.NewKnowledgeService(store)
	consumerService := service.NewConsumerService(pubSub, sysLogger)

	return &Container{
		TutorController:     controller.NewTutorController(tutorService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService, tutorService),
		SessionController:   controller.NewSessionController(tutorService),
		TutorService:        tutorService,
		ConsumerService:     consumerService,
		SysLogger:           sysLogger,
	}
}

// initRagLogger writes retrieval internals to their own file so the main log
// stays readable.
func initRagLogger() *stdlog.Logger {
	logPath := filepath.Join(".", "logs", "retrieval.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		stdlog.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return stdlog.New(os.Stdout, "[RETRIEVAL] ", stdlog.LstdFlags)
	}
	return stdlog.New(file, "", stdlog.LstdFlags)
}
