package entity

// SessionStatus estado de la sesión de la aplicación.
type SessionStatus string

// Estados posibles de la sesión. Validating es transitorio (restauración o
// revalidación en curso) y NUNCA equivale a un permiso concedido.
const (
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionValidating      SessionStatus = "validating"
	SessionAuthenticated   SessionStatus = "authenticated"
)

// Session identidad autenticada y su credencial para la instancia en ejecución.
// Invariante: Status == SessionAuthenticated implica Principal y Credential
// presentes y consistentes entre sí (la credencial fue emitida para ese principal).
type Session struct {
	Status     SessionStatus
	Principal  *User
	Credential string // Token opaco emitido por el backend
}

// Authenticated indica si la sesión está plenamente autenticada.
func (s Session) Authenticated() bool {
	return s.Status == SessionAuthenticated && s.Principal != nil && s.Credential != ""
}
