package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edibez/cryptoagent/pkg/types"
)

const (
	defaultAsksLimit = 20
	maxAsksLimit     = 100
)

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ts": time.Now().Unix()})
}

func (a *App) handleAsk(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Input == "" {
		c.String(http.StatusBadRequest, ErrInputRequired.Error())
		return
	}

	answer, err := a.Ask(c.Request.Context(), req.Input)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.String(http.StatusOK, answer)
}

func (a *App) handleFunctionSchema(c *gin.Context) {
	defs := a.Tools.Definitions()
	schema := make([]types.FunctionCall, 0, len(defs))
	for _, d := range defs {
		var params map[string]interface{}
		if err := json.Unmarshal(d.Parameters, &params); err != nil {
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "bad tool schema", Details: d.Name})
			return
		}
		schema = append(schema, types.FunctionCall{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	c.JSON(http.StatusOK, schema)
}

func (a *App) handleAsks(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "history is disabled", Code: "history_disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAsksLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "limit must be an integer"})
		return
	}
	if limit > maxAsksLimit {
		limit = maxAsksLimit
	}

	records, err := a.History.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to read history", Details: err.Error()})
		return
	}
	total, err := a.History.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to read history", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asks": records, "total": total})
}

func (a *App) handleUsage(c *gin.Context) {
	if a.Usage == nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "usage tracking is disabled", Code: "usage_disabled"})
		return
	}

	stats, err := a.Usage.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to get usage stats", Details: err.Error()})
		return
	}
	today, err := a.Usage.Today(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to get usage stats", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  stats.Total,
		"ok":     stats.OK,
		"failed": stats.Failed,
		"today":  today,
	})
}
