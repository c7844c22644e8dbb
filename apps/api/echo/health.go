package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/license"
)

type healthApi struct {
	conf     *core.Config
	registry *license.Registry
}

type HealthResponse struct {
	Status             string `json:"status"`
	Build              string `json:"build"`
	CredentialsSet     bool   `json:"credentialsSet"`
	ConfigurationValid bool   `json:"configurationValid"`
	MissingIDs         []int  `json:"missingIds,omitempty"`
}

// health reports configuration readiness without calling upstream.
func (api *healthApi) health(ctx echo.Context) error {
	v := api.registry.Validate()
	res := HealthResponse{
		Status:             "ok",
		Build:              api.conf.Build,
		CredentialsSet:     api.conf.Zoom.CredentialsSet(),
		ConfigurationValid: v.Valid,
		MissingIDs:         v.MissingIDs,
	}
	if !res.CredentialsSet || !res.ConfigurationValid {
		res.Status = "degraded"
	}
	return ctx.JSON(http.StatusOK, res)
}
