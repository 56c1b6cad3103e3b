package entity

// Role rol de un usuario dentro de la distribuidora.
type Role string

// Roles válidos para User. Enumeración cerrada: toda acción protegida declara
// su conjunto de roles permitidos contra estas dos constantes.
const (
	RoleAdministrador Role = "administrador"
	RoleEmpleado      Role = "empleado"
)

// Valid indica si el rol pertenece a la enumeración.
func (r Role) Valid() bool {
	return r == RoleAdministrador || r == RoleEmpleado
}

// User representa la identidad emitida por el backend.
// Inmutable una vez obtenido; la revalidación lo reemplaza completo, nunca parcial.
type User struct {
	ID          string
	DisplayName string
	Role        Role
}
