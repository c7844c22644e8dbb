package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/license"
)

type licenseApi struct {
	checker *license.Checker
}

func registerLicenseAPI(g *echo.Group, jwt echo.MiddlewareFunc, checker *license.Checker) {
	api := licenseApi{checker: checker}

	lg := g.Group("/license-availability", jwt)
	lg.GET("", api.checkAll)
	lg.POST("/:id", api.checkOne)
}

// Handlers

func (api *licenseApi) checkAll(ctx echo.Context) error {
	report := api.checker.CheckAll(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, report)
}

func (api *licenseApi) checkOne(ctx echo.Context) error {
	// the id may come via the body or the path; an empty body is fine
	var data CheckLicenseRequest
	if err := ctx.Bind(&data); err != nil {
		data = CheckLicenseRequest{}
	}

	id, err := data.licenseID(ctx)
	if err != nil {
		return err
	}

	res, err := api.checker.CheckOne(ctx.Request().Context(), id)
	if err != nil {
		switch errors.Cause(err) {
		case license.ErrInvalidLicenseID:
			return core.NewValidationError(nil, core.FieldError{Field: "licenseId", Error: err.Error()})
		case license.ErrLicenseNotConfigured:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return errors.Wrap(err, "checking license")
	}
	return ctx.JSON(http.StatusOK, res)
}

type CheckLicenseRequest struct {
	LicenseID *int `json:"licenseId"`
}

// licenseID resolves the target license from the request body, falling back
// to the `id` path param.
func (cr *CheckLicenseRequest) licenseID(ctx echo.Context) (int, error) {
	if cr.LicenseID != nil {
		return *cr.LicenseID, nil
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "licenseId", Error: "a valid license id is required"})
	}
	return id, nil
}
