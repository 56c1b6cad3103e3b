package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrAuthenticationFailed = errors.New("credenciales de acceso rechazadas")
	ErrUnauthorized         = errors.New("credencial inválida o expirada")
	ErrForbidden            = errors.New("acceso denegado")
	ErrInvalidTransition    = errors.New("transición de estado inválida")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrBackendUnavailable   = errors.New("backend no disponible")
)
