package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/edibez/cryptoagent/internal/agent"
	"github.com/edibez/cryptoagent/internal/config"
	"github.com/edibez/cryptoagent/internal/history"
	"github.com/edibez/cryptoagent/internal/llm"
	"github.com/edibez/cryptoagent/internal/price"
	"github.com/edibez/cryptoagent/internal/server"
	"github.com/edibez/cryptoagent/internal/tool"
	"github.com/edibez/cryptoagent/internal/usage"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "cryptoagent",
	Short: "HTTP question answering over live crypto market data",
	Long: `cryptoagent serves POST /ask. Each question is answered by an LLM agent that can
look up coin prices, list the top coins by market cap and search coins on CoinGecko.

Configuration is read from the environment (and a .env file when present).
Flags override the environment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error loading .env: %w", err)
		}

		cfg, err := config.FromEnv()
		if err != nil {
			return fmt.Errorf("error reading config: %w", err)
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		app, cleanup, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: server.NewRouter(app),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Printf("Starting crypto agent on :%s (provider %s)", cfg.Port, cfg.LLM.Provider)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			log.Printf("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// buildApp wires the market client, tools, provider chain and optional stores.
func buildApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	market := price.NewClient(cfg.Market.BaseURL,
		price.WithAPIKey(cfg.Market.APIKey),
		price.WithRetries(cfg.Market.Retries),
		price.WithTimeout(cfg.Market.Timeout),
	)

	provider, err := llm.NewProviderChain(ctx, cfg.LLM, cfg.FallbackLLM)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating LLM provider: %w", err)
	}

	app := &server.App{
		Runner:        agent.New(provider),
		Tools:         tool.NewCryptoRegistry(market),
		SystemPrompt:  cfg.SystemPrompt,
		MaxIterations: cfg.MaxIterations,
	}

	if cfg.DBPath != "" {
		store, err := history.NewStore(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize history store: %w", err)
		}
		closers = append(closers, store.Close)
		app.History = store
		log.Printf("Ask history enabled at %s", cfg.DBPath)
	}

	if cfg.RedisAddr != "" {
		counter, err := usage.NewCounter(cfg.RedisAddr)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize usage counter: %w", err)
		}
		closers = append(closers, counter.Close)
		app.Usage = counter
		log.Printf("Usage tracking enabled at %s", cfg.RedisAddr)
	}

	return app, cleanup, nil
}

var (
	port          string
	provider      string
	model         string
	maxIterations int
	dbPath        string
	redisAddr     string
	retries       int
	timeout       time.Duration

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("provider") {
		cfg.UseProvider(provider)
	}
	if flags.Changed("model") {
		cfg.LLM.Model = model
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = maxIterations
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("redis") {
		cfg.RedisAddr = redisAddr
	}
	if flags.Changed("retries") {
		cfg.Market.Retries = retries
	}
	if flags.Changed("timeout") {
		cfg.Market.Timeout = timeout
	}
}

func init() {
	rootCmd.Flags().StringVarP(&port, "port", "p", "80", "Port to listen on (env PORT)")
	rootCmd.Flags().StringVar(&provider, "provider", "gemini", "LLM provider: gemini, openai, anthropic, openrouter or local (env LLM_PROVIDER)")
	rootCmd.Flags().StringVar(&model, "model", "", "LLM model, empty for the provider default (env LLM_MODEL)")
	rootCmd.Flags().IntVar(&maxIterations, "max-iterations", 7, "Agent step budget per question (env MAX_ITERATIONS)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite path for ask history, empty disables it (env DB_PATH)")
	rootCmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for usage counters, empty disables them (env REDIS_ADDR)")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "Retries for failed CoinGecko requests (env MARKET_RETRIES)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", price.RequestTimeout, "CoinGecko request timeout")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
