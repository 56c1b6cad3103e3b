package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/distrifresco/internal/application/orders"
	"github.com/tu-usuario/distrifresco/internal/application/separation"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions   SessionManager
	OrderUC    *orders.UseCase
	Reconciler *separation.Reconciler
}

// Router registra las rutas del boundary de vistas. Cada grupo declara su
// conjunto de roles contra la enumeración cerrada {administrador, empleado}.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Sesión (login público; estado y logout siempre accesibles)
	sessionHandler := NewSessionHandler(deps.Sessions)
	sessionGroup := api.Group("/session")
	sessionGroup.Post("/login", sessionHandler.Login)
	sessionGroup.Post("/logout", sessionHandler.Logout)
	sessionGroup.Get("/", sessionHandler.Current)

	// Ventas (cualquier sesión autenticada)
	orderHandler := NewOrderHandler(deps.OrderUC)
	ordersGroup := api.Group("/orders", RequireSession(deps.Sessions))
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)

	// Pago: restringido a administrador
	ordersGroup.Post("/:id/payment",
		RequireRole(deps.Sessions, entity.RoleAdministrador),
		orderHandler.MarkPaid)

	// Separación: empleado o administrador; la autorización corre antes de Begin
	separationHandler := NewSeparationHandler(deps.Reconciler, deps.OrderUC)
	ordersGroup.Post("/:id/separation",
		RequireRole(deps.Sessions, entity.RoleEmpleado, entity.RoleAdministrador),
		separationHandler.Begin)
	ordersGroup.Delete("/:id/separation",
		RequireRole(deps.Sessions, entity.RoleEmpleado, entity.RoleAdministrador),
		separationHandler.CancelByOrder)

	separations := api.Group("/separations",
		RequireRole(deps.Sessions, entity.RoleEmpleado, entity.RoleAdministrador))
	separations.Get("/:handle", separationHandler.Get)
	separations.Put("/:handle/items/:productId", separationHandler.SetQuantity)
	separations.Post("/:handle/submit", separationHandler.Submit)
	separations.Delete("/:handle", separationHandler.Cancel)
}
