package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/distrifresco/internal/application/dto"
	"github.com/tu-usuario/distrifresco/internal/application/orders"
	"github.com/tu-usuario/distrifresco/internal/application/separation"
)

// SeparationHandler maneja el flujo de picking. Todas sus rutas exigen rol
// empleado o administrador: el chequeo corre en el middleware, antes de que
// Begin pueda ejecutarse.
type SeparationHandler struct {
	reconciler *separation.Reconciler
	orders     *orders.UseCase
}

// NewSeparationHandler construye el handler.
func NewSeparationHandler(reconciler *separation.Reconciler, orders *orders.UseCase) *SeparationHandler {
	return &SeparationHandler{reconciler: reconciler, orders: orders}
}

// Begin godoc
// @Summary      Abrir la separación de una venta
// @Tags         separation
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      201  {object}  dto.SeparationView
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/separation [post]
func (h *SeparationHandler) Begin(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	// Siempre se siembra desde un estado fresco del backend, nunca desde una
	// copia que la vista tenga en pantalla.
	order, err := h.orders.GetEntity(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	view, err := h.reconciler.Begin(*order)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// CancelByOrder godoc
// @Summary      Descartar la separación abierta de una venta (rescate sin handle)
// @Tags         separation
// @Security     Bearer
// @Param        id  path  string  true  "ID de la venta"
// @Success      204  "Sin contenido"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/separation [delete]
func (h *SeparationHandler) CancelByOrder(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	if err := h.reconciler.CancelOrder(id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get godoc
// @Summary      Copia de trabajo de una separación en curso
// @Tags         separation
// @Security     Bearer
// @Produce      json
// @Param        handle  path  string  true  "Handle de la separación"
// @Success      200  {object}  dto.SeparationView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/separations/{handle} [get]
func (h *SeparationHandler) Get(c *fiber.Ctx) error {
	view, err := h.reconciler.View(c.Params("handle"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// SetQuantity godoc
// @Summary      Registrar la cantidad pesada de una línea
// @Tags         separation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        handle     path  string  true  "Handle de la separación"
// @Param        productId  path  string  true  "ID del producto"
// @Param        body       body  dto.SetQuantityRequest  true  "Cantidad pesada"
// @Success      200  {object}  dto.SeparationView
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/separations/{handle}/items/{productId} [put]
func (h *SeparationHandler) SetQuantity(c *fiber.Ctx) error {
	var in dto.SetQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	handle := c.Params("handle")
	if err := h.reconciler.SetActualQuantity(handle, c.Params("productId"), in.Quantity); err != nil {
		return respondError(c, err)
	}
	view, err := h.reconciler.View(handle)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// Submit godoc
// @Summary      Confirmar la separación (petición atómica al backend)
// @Tags         separation
// @Security     Bearer
// @Produce      json
// @Param        handle  path  string  true  "Handle de la separación"
// @Success      200  {object}  dto.SubmitSeparationResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/separations/{handle}/submit [post]
func (h *SeparationHandler) Submit(c *fiber.Ctx) error {
	out, err := h.reconciler.Submit(c.Context(), c.Params("handle"), GetPrincipal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Descartar la copia de trabajo sin contactar al backend
// @Tags         separation
// @Security     Bearer
// @Param        handle  path  string  true  "Handle de la separación"
// @Success      204  "Sin contenido"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/separations/{handle} [delete]
func (h *SeparationHandler) Cancel(c *fiber.Ctx) error {
	if err := h.reconciler.Cancel(c.Params("handle")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
