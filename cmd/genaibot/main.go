// Command genaibot runs the conversational assistant as an interactive
// terminal chat with a health/metrics HTTP endpoint.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ashishjangde/gen-ai-bot/internal/chat"
	"github.com/ashishjangde/gen-ai-bot/internal/gateway"
	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/internal/router"
	"github.com/ashishjangde/gen-ai-bot/internal/tools"
	"github.com/ashishjangde/gen-ai-bot/pkg/config"
	"github.com/ashishjangde/gen-ai-bot/pkg/embeddings"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
	"github.com/ashishjangde/gen-ai-bot/pkg/vectorstore"
	_ "github.com/ashishjangde/gen-ai-bot/pkg/vectorstore/memory"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	configFile = flag.String("config", getEnv("CONFIG_FILE", ""), "Configuration file (YAML)")
	httpPort   = flag.Int("http-port", getEnvInt("PORT", 8080), "Health/metrics HTTP port")
	userID     = flag.String("user", getEnv("CHAT_USER", "local"), "User ID for this chat")
)

func main() {
	flag.Parse()

	log.Printf("Starting genaibot v%s", Version)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	observability.InitMetrics()
	if err := observability.InitTracingFromEnv(); err != nil {
		log.Printf("Tracing disabled: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	obsServer := observability.NewServer(*httpPort, app.health)
	errChan := make(chan error, 1)
	go func() {
		log.Printf("Health/metrics server on :%d", *httpPort)
		if err := obsServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go app.chatLoop(ctx)

	select {
	case err := <-errChan:
		log.Printf("Error: %v", err)
	case <-quit:
		log.Println("Shutting down...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	app.close(shutdownCtx)
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	_ = observability.ShutdownTracing(shutdownCtx)

	log.Println("Stopped")
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(*configFile)
}

// app holds the wired pipeline and its owned resources.
type app struct {
	cfg     *config.Config
	orch    *chat.Orchestrator
	repo    *chat.InMemoryRepository
	session *chat.Session
	stm     *memory.ShortTermStore
	docs    *gateway.DocumentGateway
	hybrid  *gateway.HybridSearcher
	jobs    *chat.InMemoryJobQueue
	store   chat.ObjectStore
	llm     llm.Client
	health  *observability.HealthChecker
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	groq, err := llm.NewGroqClient(llm.GroqOptions{
		APIKey:  cfg.GroqKey,
		BaseURL: cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	embedder, err := embeddings.New(embeddings.Config{
		Provider: "huggingface",
		HuggingFace: &embeddings.HuggingFaceConfig{
			APIKey:       cfg.HuggingFaceKey,
			Model:        cfg.EmbeddingModel,
			WaitForModel: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	stm, err := memory.NewShortTermStore(ctx, memory.ShortTermOptions{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxMessages: cfg.Memory.STMMaxMessages,
		TTL:         cfg.Memory.STMTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("short-term memory: %w", err)
	}

	memoryIndex, err := vectorstore.New(vectorstore.Config{
		Provider:            "memory",
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("memory index: %w", err)
	}
	documentIndex, err := vectorstore.New(vectorstore.Config{
		Provider:            "memory",
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("document index: %w", err)
	}

	ltm := memory.NewLongTermStore(memoryIndex, embedder)
	docs := gateway.NewDocumentGateway(documentIndex, embedder)

	repo := chat.NewInMemoryRepository()
	session := repo.CreateSession(*userID, "terminal session")

	dispatcher := tools.NewDispatcher(cfg.Runtime.ToolTimeout())
	var hybrid *gateway.HybridSearcher
	if cfg.TavilyKey != "" {
		web, err := gateway.NewWebSearcher(gateway.WebSearcherOptions{APIKey: cfg.TavilyKey})
		if err != nil {
			return nil, fmt.Errorf("web search: %w", err)
		}
		dispatcher.Register(router.IntentWebSearch, tools.NewWebHandler(web))
		hybrid = gateway.NewHybridSearcher(web, docs)
	} else {
		log.Println("TAVILY_API_KEY not set, web search disabled")
	}
	dispatcher.Register(router.IntentRAGSearch, tools.NewRAGHandler(docs))
	dispatcher.Register(router.IntentFinancialData,
		tools.NewFinanceHandler(groq, cfg.MainModel, gateway.NewYahooQuoteProvider()))
	dispatcher.Register(router.IntentMemoryRecall, tools.NewMemoryHandler(ltm))

	summarizer := chat.NewSummarizer(groq, cfg.RefinerModel, stm, cfg.Memory.SummaryThreshold)
	orch := chat.NewOrchestrator(
		repo,
		stm,
		router.New(groq, cfg.RouterModel),
		dispatcher,
		chat.NewRefiner(groq, cfg.RefinerModel),
		chat.NewGenerator(groq, chat.GeneratorOptions{
			Model:       cfg.MainModel,
			Temperature: float32(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
			Persona:     cfg.SystemPrompt,
		}),
		chat.NewCoordinator(stm, ltm, summarizer),
	)

	store := &fileObjectStore{docs: docs, repo: repo, session: session.ID, user: *userID}
	jobs := chat.NewInMemoryJobQueue(func(ctx context.Context, task string, payload []byte) error {
		if task != "ingest" {
			return fmt.Errorf("unknown task %q", task)
		}
		return store.IngestFile(ctx, string(payload))
	})

	health := observability.NewHealthChecker()
	health.RegisterCheck("redis", func(ctx context.Context) error {
		_, err := stm.Len(ctx, "healthcheck")
		return err
	})

	return &app{
		cfg:     cfg,
		orch:    orch,
		repo:    repo,
		session: session,
		stm:     stm,
		docs:    docs,
		hybrid:  hybrid,
		jobs:    jobs,
		store:   store,
		llm:     groq,
		health:  health,
	}, nil
}

func (a *app) close(ctx context.Context) {
	a.orch.Close()
	a.jobs.Close()
	if err := a.stm.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}
	_ = a.llm.Close()
}

// chatLoop reads messages from stdin and streams answers to stdout.
// Lines starting with "/upload " enqueue document ingestion.
func (a *app) chatLoop(ctx context.Context) {
	fmt.Printf("Session %s ready. Type a message, /upload <file>, /search <query>, or Ctrl-C to quit.\n", a.session.ID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if query, ok := strings.CutPrefix(line, "/search "); ok {
			a.runSearch(ctx, strings.TrimSpace(query))
			continue
		}
		if path, ok := strings.CutPrefix(line, "/upload "); ok {
			jobID, err := a.jobs.Enqueue(ctx, "ingest", []byte(strings.TrimSpace(path)), 1)
			if err != nil {
				fmt.Printf("upload failed: %v\n", err)
				continue
			}
			fmt.Printf("ingestion queued (job %s)\n", jobID)
			continue
		}

		a.streamTurn(ctx, line)
	}
}

// runSearch queries the web and this session's documents together,
// documents first.
func (a *app) runSearch(ctx context.Context, query string) {
	if a.hybrid == nil {
		fmt.Println("search unavailable: TAVILY_API_KEY not set")
		return
	}
	results, err := a.hybrid.Search(ctx, *userID, a.session.ID, query)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}
	for _, r := range results {
		fmt.Printf("[%s] %s\n    %s\n", r.Title, r.Source, r.Content)
	}
}

func (a *app) streamTurn(ctx context.Context, message string) {
	for ev := range a.orch.ChatStream(ctx, chat.Request{
		UserID:    *userID,
		SessionID: a.session.ID,
		Message:   message,
	}) {
		switch ev.Type {
		case chat.EventSource:
			for _, src := range ev.Sources {
				fmt.Printf("[%s] %s %s\n", ev.Category, src.Title, src.Source)
			}
		case chat.EventToken:
			fmt.Print(ev.Token)
		case chat.EventUsage:
			// Accounted in metrics; keep the terminal clean.
		case chat.EventDone:
			fmt.Println()
		case chat.EventError:
			fmt.Printf("error: %v\n", ev.Err)
		}
	}
}

// fileObjectStore ingests local files into the document index, splitting on
// blank lines.
type fileObjectStore struct {
	docs    *gateway.DocumentGateway
	repo    *chat.InMemoryRepository
	session string
	user    string
}

func (f *fileObjectStore) IngestFile(ctx context.Context, key string) error {
	data, err := os.ReadFile(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	var chunks []string
	for _, part := range strings.Split(string(data), "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			chunks = append(chunks, part)
		}
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no content in %s", key)
	}

	if err := f.docs.AddTexts(ctx, f.user, f.session, chunks); err != nil {
		return err
	}
	f.repo.MarkHasFiles(f.session)
	log.Printf("[Ingest] %s: %d chunks indexed", key, len(chunks))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
