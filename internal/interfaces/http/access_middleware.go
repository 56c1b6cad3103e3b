package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/distrifresco/internal/application/access"
	"github.com/tu-usuario/distrifresco/internal/application/dto"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// SessionReader contrato mínimo del middleware sobre el store de sesión.
type SessionReader interface {
	Snapshot() entity.Session
}

// Locals key para el principal autenticado.
const localPrincipal = "principal"

// RequireRole middleware que evalúa la sesión vigente contra el conjunto de
// roles permitidos con la misma función pura que usan los chequeos de acción.
// Sin roles basta cualquier sesión autenticada. La decisión se recalcula en
// cada petición sobre el snapshot actual; Validating deniega (decisión
// pendiente, nunca un permiso).
func RequireRole(sessions SessionReader, roles ...entity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := sessions.Snapshot()
		switch access.Authorize(snap, roles...) {
		case access.DenyUnauthenticated:
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHENTICATED",
				Message: "se requiere iniciar sesión",
			})
		case access.DenyForbidden:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "el rol de la sesión no permite esta acción",
			})
		}
		c.Locals(localPrincipal, *snap.Principal)
		return c.Next()
	}
}

// RequireSession chequeo grueso de ruta: cualquier sesión autenticada.
func RequireSession(sessions SessionReader) fiber.Handler {
	return RequireRole(sessions)
}

// GetPrincipal devuelve el principal del contexto (después de RequireRole).
func GetPrincipal(c *fiber.Ctx) entity.User {
	v := c.Locals(localPrincipal)
	if v == nil {
		return entity.User{}
	}
	u, _ := v.(entity.User)
	return u
}
