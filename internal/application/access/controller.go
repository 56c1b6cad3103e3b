// Package access decide si la sesión vigente puede ejecutar una acción.
// Sin estado propio: una función pura recalculada sobre cada snapshot de sesión,
// compartida por el chequeo grueso de ruta y el fino de acción.
package access

import "github.com/tu-usuario/distrifresco/internal/domain/entity"

// Decision resultado de la autorización.
type Decision int

const (
	// Allow la acción está permitida.
	Allow Decision = iota
	// DenyUnauthenticated no hay sesión autenticada (Validating cuenta como
	// "decisión pendiente", nunca como permiso).
	DenyUnauthenticated
	// DenyForbidden hay sesión pero el rol no está en el conjunto requerido.
	DenyForbidden
)

// Authorize evalúa la sesión contra el conjunto de roles requeridos.
// Sin roles requeridos basta cualquier principal autenticado.
func Authorize(s entity.Session, requiredRoles ...entity.Role) Decision {
	if !s.Authenticated() {
		return DenyUnauthenticated
	}
	if len(requiredRoles) == 0 {
		return Allow
	}
	for _, r := range requiredRoles {
		if s.Principal.Role == r {
			return Allow
		}
	}
	return DenyForbidden
}
