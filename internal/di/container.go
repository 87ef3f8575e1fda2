package di

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shop-agent/internal/adapter/results"
	"shop-agent/internal/adapter/taskqueue"
	"shop-agent/internal/application/port/input"
	"shop-agent/internal/application/port/output"
	"shop-agent/internal/infrastructure/artifacts"
	"shop-agent/internal/infrastructure/browser/rod"
	"shop-agent/internal/infrastructure/llm/openrouter"
	"shop-agent/internal/infrastructure/logger"
	"shop-agent/internal/infrastructure/proxy"
	"shop-agent/internal/infrastructure/stealth"
	"shop-agent/internal/infrastructure/userinteraction"
	"shop-agent/internal/usecase/intent"
	"shop-agent/internal/usecase/workflow"
)

type Container struct {
	Logger    output.LoggerPort
	LLM       output.LLMPort
	Parser    input.IntentParser
	Runner    input.WorkflowRunner
	Queue     *taskqueue.Queue
	Results   *results.MemoryStore
	Artifacts *artifacts.Store
	ProxyPool *proxy.Pool
	Prober    *proxy.Prober
	Console   *userinteraction.ConsoleUserInteraction
}

type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string

	TargetBaseURL string
	ArtifactsDir  string
	StorageDir    string

	BrowserHeadless bool
	StealthMode     string

	ProxyList       []string
	ProxyFile       string
	ProxyStatusFile string

	BackendURL        string
	WorkerConcurrency int

	Debug bool
}

func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewZapAdapter(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "/tmp/worker-data"
	}
	store, err := artifacts.NewStore(cfg.ArtifactsDir, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	pool, err := buildProxyPool(cfg)
	if err != nil {
		log.Close()
		return nil, err
	}

	site := workflow.DefaultSite()
	if cfg.TargetBaseURL != "" {
		site.BaseURL = cfg.TargetBaseURL
	}

	prober := proxy.NewProber(pool, site.BaseURL, cfg.ProxyStatusFile, 10*time.Second, log)

	var llm output.LLMPort
	if cfg.OpenRouterAPIKey != "" {
		llm = openrouter.NewOpenRouterAdapter(openrouter.Config{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.OpenRouterModel,
			BaseURL: "https://openrouter.ai/api/v1",
			Logger:  log,
		})
	}
	parser := intent.NewParser(llm, log)

	storagePath, err := sessionStoragePath(cfg.StorageDir)
	if err != nil {
		log.Close()
		return nil, err
	}

	factory := rod.NewFactory(stealth.FromMode(cfg.StealthMode), store, log)
	runner := workflow.NewRunner(factory, pool, log, workflow.RunnerOptions{
		Site:        site,
		Headless:    cfg.BrowserHeadless,
		StoragePath: storagePath,
	})

	memory := results.NewMemoryStore()
	sink := results.Fanout{memory}
	if cfg.BackendURL != "" {
		sink = append(sink, results.NewHTTPSink(cfg.BackendURL, log))
	}

	queue := taskqueue.NewQueue(runner, sink, log, cfg.WorkerConcurrency)

	return &Container{
		Logger:    log,
		LLM:       llm,
		Parser:    parser,
		Runner:    runner,
		Queue:     queue,
		Results:   memory,
		Artifacts: store,
		ProxyPool: pool,
		Prober:    prober,
		Console:   userinteraction.NewConsoleUserInteraction(),
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

// buildProxyPool merges the env list with the file, letting NewPool dedupe.
func buildProxyPool(cfg Config) (*proxy.Pool, error) {
	entries := append([]string(nil), cfg.ProxyList...)
	if cfg.ProxyFile != "" {
		filePool, err := proxy.NewPoolFromFile(cfg.ProxyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy file: %w", err)
		}
		entries = append(entries, filePool.All()...)
	}
	return proxy.NewPool(entries), nil
}

func sessionStoragePath(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}
	return filepath.Join(dir, "session.json"), nil
}
