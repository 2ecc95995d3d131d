package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusOk      = "ok"
	statusDown    = "down"
	healthTimeout = 2 * time.Second
)

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Time     time.Time         `json:"time"`
}

func (h *handlerImpl) HandlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	response := healthResponse{
		Status:   statusOk,
		Services: make(map[string]string, len(h.opts.HealthChecks)),
		Time:     time.Now().UTC(),
	}

	for name, ping := range h.opts.HealthChecks {
		ctx, cancel := context.WithTimeout(c, healthTimeout)
		err := ping(ctx)
		cancel()

		if err != nil {
			h.logger.Warn().
				Err(err).
				Str("service", name).
				Msg("health check failed")
			response.Services[name] = statusDown
			response.Status = statusDown
			continue
		}
		response.Services[name] = statusOk
	}

	code := http.StatusOK
	if response.Status != statusOk {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}
