package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chainchat/chainchat/internal/agent"
	"github.com/chainchat/chainchat/internal/api"
	"github.com/chainchat/chainchat/internal/cache"
	"github.com/chainchat/chainchat/internal/llm"
	"github.com/chainchat/chainchat/internal/mcp"
	"github.com/chainchat/chainchat/internal/models"
	"github.com/chainchat/chainchat/internal/oneinch"
)

// cacheKeyPrefix namespaces every cache key, so a shared Redis instance
// can host more than one service.
const cacheKeyPrefix = "chainchat"

// turnTimeout bounds one CLI chat turn. Local models on modest hardware
// can take minutes on long transcripts.
const turnTimeout = 5 * time.Minute

func main() {
	// Load .env if present; all settings also work as plain env vars.
	_ = godotenv.Load()

	var (
		httpAddr    = flag.String("http-addr", envOr("HTTP_ADDR", ":8080"), "HTTP API server address")
		mcpAddr     = flag.String("mcp-addr", envOr("MCP_ADDR", ":8081"), "MCP server address")
		modelTag    = flag.String("model", envOr("OLLAMA_MODEL", ""), "Ollama model tag (default: the profile's model, then "+llm.DefaultModel+")")
		ollamaURL   = flag.String("ollama-url", envOr("OLLAMA_BASE_URL", ""), "Ollama server URL (default "+llm.DefaultServerURL+")")
		profilePath = flag.String("profile", envOr("PROFILE_PATH", ""), "persona profile YAML (default: built-in persona)")
		redisAddr   = flag.String("redis", envOr("REDIS_ADDR", ""), "Redis address for the shared cache (default: in-process cache)")
		message     = flag.String("message", "", "answer a single message on stdout and exit")
		chatMode    = flag.Bool("chat", false, "interactive chat on the terminal")
		verbose     = flag.Bool("v", false, "debug logging")
		showVersion = flag.Bool("version", false, "show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("ChainChat v1.0.0")
		fmt.Println("Conversational agent grounded in live blockchain data")
		os.Exit(0)
	}

	interactive := *message != "" || *chatMode
	configureLogging(interactive, *verbose)

	profile := loadProfile(*profilePath)

	model := *modelTag
	if model == "" {
		model = profile.Model
	}
	chatModel, err := llm.New(*ollamaURL, model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Ollama")
	}

	store, locker, closeCache := buildCache(*redisAddr)
	defer closeCache()

	client := oneinch.NewClient(os.Getenv("ONEINCH_API_KEY"), store, locker)
	if !client.IsAvailable() {
		log.Warn().Msg("ONEINCH_API_KEY not set, data lookups are disabled")
	}

	chatAgent, err := agent.New(agent.Config{
		Profile: profile,
		Model:   chatModel,
		Fetcher: client,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create agent")
	}

	switch {
	case *message != "":
		runOnce(chatAgent, *message)
	case *chatMode:
		runREPL(chatAgent)
	default:
		runServers(*httpAddr, *mcpAddr, chatAgent, client)
	}
}

// configureLogging sets up the console logger. Interactive modes default
// to warnings so transcripts stay readable; LOG_LEVEL and -v override.
func configureLogging(interactive, verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	level := zerolog.InfoLevel
	if interactive {
		level = zerolog.WarnLevel
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func loadProfile(path string) *agent.Profile {
	if path == "" {
		return agent.DefaultProfile()
	}

	profile, err := agent.LoadProfile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to load persona profile")
	}
	log.Info().Str("persona", profile.Name).Msg("persona profile loaded")
	return profile
}

// buildCache picks the cache backend: Redis plus a distributed fetch lock
// when an address is configured, otherwise an in-process cache.
func buildCache(redisAddr string) (cache.Cache, *redsync.Redsync, func()) {
	if redisAddr == "" {
		memory, err := cache.NewMemoryCache(cacheKeyPrefix, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create memory cache")
		}
		return memory, nil, memory.Close
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", redisAddr).Msg("failed to connect to Redis")
	}

	log.Info().Str("addr", redisAddr).Msg("using Redis cache")
	locker := redsync.New(goredis.NewPool(client))
	return cache.NewRedisCache(client, cacheKeyPrefix, nil), locker, func() {
		if err := client.Close(); err != nil {
			log.Debug().Err(err).Msg("redis close failed")
		}
	}
}

// runOnce answers a single message and exits.
func runOnce(chatAgent *agent.Agent, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	response, err := chatAgent.Chat(ctx, models.ChatRequest{Message: message}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("chat turn failed")
	}

	fmt.Println(response.Reply)
}

// runREPL runs an interactive chat loop on the terminal, keeping one
// conversation alive across turns.
func runREPL(chatAgent *agent.Agent) {
	fmt.Printf("%s is ready. Type a message, or \"exit\" to quit.\n\n", chatAgent.Name())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	conversationID := ""
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		response, err := chatAgent.Chat(ctx, models.ChatRequest{
			ConversationID: conversationID,
			Message:        line,
		}, nil)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("chat turn failed")
			continue
		}

		conversationID = response.ConversationID
		fmt.Printf("%s> %s\n\n", chatAgent.Name(), response.Reply)
	}

	fmt.Println("bye")
}

// runServers starts the HTTP API and MCP servers side by side and blocks
// until a signal or a server failure, then shuts both down gracefully.
func runServers(httpAddr, mcpAddr string, chatAgent *agent.Agent, client *oneinch.Client) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	apiServer := api.NewServer(httpAddr, chatAgent, client)
	mcpServer := mcp.NewServer(mcpAddr, client)

	errChan := make(chan error, 2)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
	go func() {
		if err := mcpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	log.Info().
		Str("agent", chatAgent.Name()).
		Bool("lookups", client.IsAvailable()).
		Msg("chainchat started")
	log.Info().Msgf("chat:     POST http://localhost%s/api/v1/chat", httpAddr)
	log.Info().Msgf("detect:   POST http://localhost%s/api/v1/detect", httpAddr)
	log.Info().Msgf("networks: GET  http://localhost%s/api/v1/networks", httpAddr)
	log.Info().Msgf("mcp:      POST http://localhost%s/mcp", mcpAddr)

	select {
	case sig := <-signalChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errChan:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if err := mcpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MCP server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
