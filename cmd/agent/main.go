package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"shop-agent/internal/di"
	"shop-agent/internal/domain/entity"
	"shop-agent/internal/infrastructure/env"
)

func main() {
	isolated := flag.Bool("isolated", false, "run only the search phase, fresh browser per attempt")
	attempts := flag.Int("attempts", 3, "attempts for isolated search")
	flag.Parse()

	envService := env.NewEnvService()

	fmt.Println("\nWhat should the agent do?")
	reader := bufio.NewReader(os.Stdin)
	request, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("failed to read input: ", err)
	}
	request = strings.TrimSpace(request)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	container, err := di.NewContainer(di.Config{
		OpenRouterAPIKey: envService.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.Get("OPENROUTER_MODEL_NAME"),
		TargetBaseURL:    envService.Get("TARGET_BASE_URL"),
		ArtifactsDir:     envService.Get("ARTIFACTS_DIR"),
		StorageDir:       envService.Get("STORAGE_DIR"),
		BrowserHeadless:  envService.GetBool("BROWSER_HEADLESS", false),
		StealthMode:      envService.Get("STEALTH_MODE"),
		ProxyList:        envService.GetStrings("PROXY_LIST"),
		ProxyFile:        envService.Get("PROXY_FILE"),
		Debug:            envService.GetBool("DEBUG", true),
	})
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer container.Close()

	intent, err := container.Parser.Parse(ctx, request)
	if err != nil {
		container.Logger.Error("intent parsing failed", "error", err)
		fmt.Printf("\nCould not understand the request: %v\n", err)
		os.Exit(1)
	}
	container.Console.ShowIntent(ctx, intent)

	if intent.Safe {
		ok, err := container.Console.Confirm(ctx, "This run will place an order on the target site.")
		if err != nil || !ok {
			fmt.Println("Aborted.")
			return
		}
	}

	container.Logger.Info("workflow started", "action", string(intent.Action))

	var result *entity.WorkflowResult
	if *isolated {
		result, err = container.Runner.SearchIsolated(ctx, intent, *attempts)
	} else {
		result, err = container.Runner.Run(ctx, intent)
	}
	if err != nil {
		container.Logger.Error("workflow failed", "error", err)
	}

	for _, phase := range result.Phases {
		container.Console.ShowPhase(ctx, phase.Phase, phase.Substatus)
	}
	container.Console.ShowResult(ctx, result)

	if result.Status != entity.StatusOK {
		os.Exit(1)
	}
}
