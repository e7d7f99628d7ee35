package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dishdash-app/dishdash/account"
	"github.com/dishdash-app/dishdash/catalog"
	"github.com/dishdash-app/dishdash/identity"
	"github.com/dishdash-app/dishdash/orders"
)

var tracer = otel.Tracer("dishdash-api")

const claimsContextKey = "dishdash.claims"

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

type MainHandler struct {
	ids      *identity.Service
	feed     *catalog.Feed
	orders   *orders.Service
	accounts *account.Service
	health   *healthgo.Health
}

func NewMainHandler(
	e *echo.Echo,
	settings *Settings,
	ids *identity.Service,
	feed *catalog.Feed,
	ords *orders.Service,
	accounts *account.Service,
	health *healthgo.Health,
) *MainHandler {
	logger := slog.Default()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: settings.HTTP.CORS.Origins,
		AllowMethods: settings.HTTP.CORS.Methods,
		AllowHeaders: settings.HTTP.CORS.Headers,
	}))
	e.Use(otelecho.Middleware("dishdash-api",
		otelecho.WithMetricAttributeFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("client.ip", r.RemoteAddr),
				attribute.String("user.agent", r.UserAgent()),
			}
		}),
		otelecho.WithEchoMetricAttributeFn(func(c echo.Context) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("handler.path", c.Path()),
				attribute.String("handler.method", c.Request().Method),
			}
		}),
	))

	handler := &MainHandler{
		ids:      ids,
		feed:     feed,
		orders:   ords,
		accounts: accounts,
		health:   health,
	}

	e.GET("/healthz", handler.HealthCheck)
	v1 := e.Group("/v1")

	v1.POST("/auth/signup", handler.SignUp)
	v1.POST("/auth/signin", handler.SignIn)

	v1.GET("/home", handler.GetHome)
	v1.GET("/home/sse", handler.GetLiveHomeSSE)
	v1.GET("/categories", handler.GetCategories)
	v1.GET("/offers", handler.GetOffers)

	authed := v1.Group("", handler.requireAuth)
	authed.POST("/auth/signout", handler.SignOut)
	authed.DELETE("/auth/account", handler.DeleteAccount)

	authed.POST("/orders", handler.PlaceOrder)
	authed.GET("/orders", handler.ListOrders)
	authed.GET("/orders/sse", handler.GetLiveOrdersSSE)
	authed.DELETE("/orders/:id", handler.CancelOrder)

	authed.GET("/profile", handler.GetProfile)
	authed.PUT("/profile", handler.UpdateProfile)
	authed.PUT("/profile/photo", handler.UpdatePhoto)
	authed.DELETE("/profile/photo", handler.RemovePhoto)

	return handler
}

// requireAuth checks the bearer token and stashes the verified claims on the
// echo context for downstream handlers.
func (h *MainHandler) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token := bearerToken(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := h.ids.Verify(ctx, token)
		if err != nil {
			slog.InfoContext(ctx, "rejected token", slog.Any("err", err))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return token
}

// sendLatest delivers v into a 1-slot mailbox, displacing any value a slow
// reader has not taken yet. The reader always sees the newest full snapshot.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func currentClaims(c echo.Context) *identity.Claims {
	claims, _ := c.Get(claimsContextKey).(*identity.Claims)
	return claims
}

func httpStatusForError(err error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, account.ErrNoProfile):
		return http.StatusNotFound
	case errors.Is(err, account.ErrInvalidPhone),
		errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrEmptyPhoto),
		errors.Is(err, orders.ErrQuantityTooLow),
		errors.Is(err, orders.ErrQuantityTooHigh),
		errors.Is(err, orders.ErrMissingItem),
		errors.Is(err, orders.ErrInvalidOrderType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, orders.ErrSubmissionInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HealthCheck godoc
//
// @Summary Check the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} healthgo.Check
// @Failure 503 {object} healthgo.Check
// @Router /healthz [get]
func (h *MainHandler) HealthCheck(c echo.Context) error {
	check := h.health.Measure(c.Request().Context())

	statusCode := http.StatusOK
	if check.Status != healthgo.StatusOK {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, check)
}
