package dto

import "github.com/tu-usuario/distrifresco/internal/domain/entity"

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// UserResponse principal autenticado.
type UserResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// SessionResponse estado de la sesión de la instancia. User solo presente
// cuando la sesión está autenticada.
type SessionResponse struct {
	Status string        `json:"status"`
	User   *UserResponse `json:"user,omitempty"`
}

// SessionFromEntity convierte la sesión de dominio a su representación HTTP.
// La credencial nunca se expone al boundary de vistas.
func SessionFromEntity(s entity.Session) SessionResponse {
	out := SessionResponse{Status: string(s.Status)}
	if s.Principal != nil {
		out.User = &UserResponse{
			ID:          s.Principal.ID,
			DisplayName: s.Principal.DisplayName,
			Role:        string(s.Principal.Role),
		}
	}
	return out
}
