package donation

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"donate-and-notify/internal/auth"
	"donate-and-notify/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the donation flow.
type Handler struct {
	svc      ServiceInterface
	auth     *auth.Service
	validate *validator.Validate // For request body validation
}

// NewHandler creates a new donation handler.
func NewHandler(svc ServiceInterface, authSvc *auth.Service) *Handler {
	return &Handler{
		svc:      svc,
		auth:     authSvc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the donation routes. The admin group is expected to
// carry the JWT middleware already; login lives on the public group.
func (h *Handler) RegisterRoutes(public, admin *echo.Group) {
	public.POST("/donate/create-checkout-session", h.CreateCheckoutSession)
	public.GET("/donate/session/:id", h.GetSessionStatus)
	public.POST("/webhook/stripe", h.StripeWebhook)
	public.GET("/health", h.Health)
	public.POST("/admin/login", h.AdminLogin)

	admin.GET("/donations", h.ListDonations)
	admin.POST("/donations/:id/resend", h.ResendEmail)
}

// CreateCheckoutSession validates the donation form and opens a checkout
// session. Invalid input is rejected before any provider call is made.
func (h *Handler) CreateCheckoutSession(c echo.Context) error {
	var req models.CreateCheckoutSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	resp, err := h.svc.CreateCheckoutSession(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrAmountTooSmall) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Donation amount below minimum"})
		}
		c.Logger().Error("Handler.CreateCheckoutSession: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create checkout session"})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetSessionStatus(c echo.Context) error {
	sessionID := c.Param("id")

	status, err := h.svc.GetSessionStatus(c.Request().Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Session not found"})
		}
		c.Logger().Error("Handler.GetSessionStatus: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve session"})
	}
	return c.JSON(http.StatusOK, status)
}

// StripeWebhook receives provider-signed events. The raw body is required
// for signature verification, so it is read before any binding.
func (h *Handler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Failed to read request body"})
	}
	sigHeader := c.Request().Header.Get("Stripe-Signature")

	if err := h.svc.FinalizeCheckout(c.Request().Context(), payload, sigHeader); err != nil {
		if errors.Is(err, models.ErrBadSignature) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid signature"})
		}
		c.Logger().Error("Handler.StripeWebhook: ", err)
		// A 5xx makes the provider redeliver, which is the recovery path for
		// persistence failures.
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to process event"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req models.AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid credentials"})
		}
		c.Logger().Error("Handler.AdminLogin: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to log in"})
	}
	return c.JSON(http.StatusOK, models.AdminLoginResponse{Token: token})
}

func (h *Handler) ListDonations(c echo.Context) error {
	donations, err := h.svc.ListDonations(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.ListDonations: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list donations"})
	}
	if donations == nil {
		donations = []*models.Donation{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"donations": donations, "total": len(donations)})
}

func (h *Handler) ResendEmail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid donation id"})
	}

	d, err := h.svc.ResendEmail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Donation not found"})
		}
		c.Logger().Error("Handler.ResendEmail: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to resend email"})
	}
	return c.JSON(http.StatusOK, d)
}
