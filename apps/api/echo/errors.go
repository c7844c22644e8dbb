package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusUnauthorized, "account deactivated")
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errRefreshExpired       = echo.NewHTTPError(http.StatusUnauthorized, "refresh has expired")
	errTokenSigningFailed   = echo.NewHTTPError(http.StatusInternalServerError, "failed to sign token")
	errHTTPForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHTTPNotFound         = echo.NewHTTPError(http.StatusNotFound, "resource not found")
)

type httpErrorResponse struct {
	Error  string      `json:"error"`
	Fields interface{} `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo error handler that knows how to
// unwind wrapped service errors into the appropriate HTTP responses.
func newAppHTTPErrorHandler(log core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		res := httpErrorResponse{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				res.Error = origErr.Message.(string)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			res.Error = http.StatusText(code)
			if msg, ok := origErr.Message.(string); ok {
				res.Error = msg
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			res.Error = "invalid input data"
			fields := make(map[string]string, len(origErr))
			for _, fErr := range origErr {
				fields[fErr.Field()] = fErr.Translate(translator)
			}
			res.Fields = fields
		case *core.ValidationError:
			code = http.StatusBadRequest
			res.Error = origErr.Error()
			if fields := origErr.FieldMap(); fields != nil {
				res.Fields = fields
			}
		default:
			switch errors.Cause(err) {
			case user.ErrNotFound:
				code = http.StatusNotFound
				res.Error = errors.Cause(err).Error()
			default:
				code = http.StatusInternalServerError
				res.Error = http.StatusText(code)

				log.Error(errors.Wrapf(err, "%s %s", ctx.Request().Method, ctx.Request().RequestURI).Error(), err)
			}
		}

		if !ctx.Response().Committed {
			var rerr error
			if ctx.Request().Method == http.MethodHead {
				rerr = ctx.NoContent(code)
			} else {
				rerr = ctx.JSON(code, res)
			}
			if rerr != nil {
				log.Error("error handler: failed to send response", rerr)
			}
		}

		// shut the API down on unrecoverable errors
		if ok := core.IsShutdown(errors.Cause(err)); ok {
			log.Error("error handler: shutting down...", err)
			signalShutdown()
		}
	}
}
