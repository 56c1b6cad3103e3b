package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/distrifresco/internal/application/dto"
)

// SessionManager contrato del handler sobre el store de sesión.
type SessionManager interface {
	SessionReader
	Login(ctx context.Context, identifier, secret string) error
	Logout(ctx context.Context)
}

// SessionHandler maneja login, logout y consulta de la sesión de la instancia.
type SessionHandler struct {
	sessions SessionManager
}

// NewSessionHandler construye el handler de sesión.
func NewSessionHandler(sessions SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Login godoc
// @Summary      Iniciar sesión contra el backend
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "identifier, secret"
// @Success      200   {object}  dto.SessionResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/session/login [post]
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Identifier == "" || in.Secret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "identifier y secret son requeridos"})
	}
	if err := h.sessions.Login(c.Context(), in.Identifier, in.Secret); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SessionFromEntity(h.sessions.Snapshot()))
}

// Logout godoc
// @Summary      Cerrar sesión (nunca falla para el caller)
// @Tags         session
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Router       /api/session/logout [post]
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Logout(c.Context())
	return c.JSON(dto.SessionFromEntity(h.sessions.Snapshot()))
}

// Current godoc
// @Summary      Estado actual de la sesión
// @Tags         session
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	return c.JSON(dto.SessionFromEntity(h.sessions.Snapshot()))
}
