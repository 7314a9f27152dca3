package content

import (
	"net/http"

	"donate-and-notify/internal/models"

	"github.com/labstack/echo/v4"
)

// Handler proxies CMS content to the donation page.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the content routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/content", h.GetContent)
}

func (h *Handler) GetContent(c echo.Context) error {
	page, err := h.svc.FetchContent(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.GetContent: ", err)
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{Message: "Failed to fetch page content"})
	}
	return c.JSON(http.StatusOK, page)
}
