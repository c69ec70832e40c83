package server

import (
	"context"
	"errors"
	"log"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edibez/cryptoagent/internal/agent"
	"github.com/edibez/cryptoagent/internal/llm"
	"github.com/edibez/cryptoagent/internal/tool"
	"github.com/edibez/cryptoagent/pkg/types"
)

// ErrInputRequired is returned for a question without text.
var ErrInputRequired = errors.New("input is required")

// Recorder stores answered questions.
type Recorder interface {
	Record(ctx context.Context, input, answer string, status int, duration time.Duration) (*types.AskRecord, error)
	Recent(ctx context.Context, limit int) ([]types.AskRecord, error)
	Count(ctx context.Context) (int64, error)
}

// UsageCounter tallies answered questions.
type UsageCounter interface {
	Record(ctx context.Context, ok bool) error
	Stats(ctx context.Context) (*types.UsageStats, error)
	Today(ctx context.Context) (int64, error)
}

// App is the application context shared by all handlers. It is built once at
// startup and is read-only afterwards.
type App struct {
	Runner        agent.Runner
	Tools         *tool.Registry
	SystemPrompt  string
	MaxIterations int

	// Optional, nil disables the matching routes.
	History Recorder
	Usage   UsageCounter
}

// NewRouter wires the HTTP routes.
func NewRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.Default())

	r.POST("/ask", app.handleAsk)
	r.GET("/health", handleHealth)

	v1 := r.Group("/v1")
	{
		v1.GET("/function-schema", app.handleFunctionSchema)
		v1.GET("/ws", app.handleWS)
		v1.GET("/asks", app.handleAsks)
		v1.GET("/usage", app.handleUsage)
	}

	return r
}

// Ask runs one question through the agent and returns the flattened answer.
func (a *App) Ask(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", ErrInputRequired
	}

	start := time.Now()
	log.Printf("[ask] received: %s", truncate(input, 200))

	msg, err := a.Runner.Run(ctx, a.SystemPrompt, []llm.Message{llm.UserMessage(input)}, a.Tools, a.MaxIterations)
	if err == nil && msg == nil {
		err = errors.New("agent returned no message")
	}
	if err != nil {
		log.Printf("[ask] error after %s: %v", time.Since(start).Round(time.Millisecond), err)
		a.record(ctx, input, err.Error(), 500, time.Since(start))
		return "", err
	}

	answer := llm.Normalize(msg.Content)
	log.Printf("[ask] response after %s: %s", time.Since(start).Round(time.Millisecond), truncate(answer, 200))
	a.record(ctx, input, answer, 200, time.Since(start))
	return answer, nil
}

func (a *App) record(ctx context.Context, input, answer string, status int, d time.Duration) {
	ctx = context.WithoutCancel(ctx)
	if a.History != nil {
		if _, err := a.History.Record(ctx, input, answer, status, d); err != nil {
			log.Printf("[ask] history: %v", err)
		}
	}
	if a.Usage != nil {
		if err := a.Usage.Record(ctx, status == 200); err != nil {
			log.Printf("[ask] usage: %v", err)
		}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
