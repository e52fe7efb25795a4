package server

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gatallahx/before-you-bet/internal/analysis"
)

func missingParam(name string) error {
	return fmt.Errorf("%w: %s query param required", analysis.ErrInvalidArgument, name)
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", analysis.ErrInvalidArgument, name)
	}
	return v, nil
}

// probabilityQuery reads the required true_prob parameter. Range checks are
// left to the service.
func probabilityQuery(c *gin.Context) (float64, error) {
	raw, ok := c.GetQuery("true_prob")
	if !ok || raw == "" {
		return 0, missingParam("true_prob")
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: true_prob must be a number", analysis.ErrInvalidArgument)
	}
	return p, nil
}
