// Package lifecycle contiene las transiciones puras del ciclo de vida de una venta
// (servicio de dominio). Las funciones transforman un valor Order sin tocar la red;
// persistir el resultado es responsabilidad del gateway.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// ValidateQuantities verifica que el mapa de cantidades reales cubra exactamente
// las líneas de la venta: una entrada positiva por producto, sin faltantes ni sobrantes.
func ValidateQuantities(o entity.Order, actual map[string]decimal.Decimal) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(o.Items))
	for _, it := range o.Items {
		q, ok := actual[it.ProductID]
		if !ok {
			return fmt.Errorf("%w: falta cantidad para el producto %s", domain.ErrInvalidInput, it.ProductID)
		}
		if q.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: cantidad no positiva para el producto %s", domain.ErrInvalidInput, it.ProductID)
		}
		seen[it.ProductID] = true
	}
	for pid := range actual {
		if !seen[pid] {
			return fmt.Errorf("%w: producto %s no pertenece a la venta", domain.ErrInvalidInput, pid)
		}
	}
	return nil
}

// Reconcile aplica la separación: fija ActualQuantity en cada línea y pasa la venta
// de POR_SEPARAR a SEPARADO con SeparatedAt/SeparatedBy. Legal solo desde POR_SEPARAR
// y con un mapa completo de cantidades positivas; una invocación ilegal devuelve
// error sin mutación parcial (la Order de entrada queda intacta).
// TotalValue no se recalcula: es un snapshot histórico fijado al crear la venta.
func Reconcile(o entity.Order, actual map[string]decimal.Decimal, actor entity.User, now time.Time) (entity.Order, error) {
	if o.Picking != entity.PickingPorSeparar {
		return entity.Order{}, fmt.Errorf("%w: la venta %s no está por separar (estado %s)",
			domain.ErrInvalidTransition, o.ID, o.Picking)
	}
	if err := ValidateQuantities(o, actual); err != nil {
		return entity.Order{}, err
	}
	out := o
	out.Items = o.CloneItems()
	for i := range out.Items {
		q := actual[out.Items[i].ProductID]
		out.Items[i].ActualQuantity = &q
	}
	out.Picking = entity.PickingSeparado
	out.SeparatedAt = &now
	actorCopy := actor
	out.SeparatedBy = &actorCopy
	return out, nil
}

// SettlePayment pasa la venta de PAGO_PENDIENTE a PAGADO. No hay transición inversa
// ni garantía de idempotencia: la respuesta del backend es la autoridad.
func SettlePayment(o entity.Order) (entity.Order, error) {
	if o.Payment != entity.PagoPendiente {
		return entity.Order{}, fmt.Errorf("%w: la venta %s no tiene pago pendiente (estado %s)",
			domain.ErrInvalidTransition, o.ID, o.Payment)
	}
	out := o
	out.Items = o.CloneItems()
	out.Payment = entity.Pagado
	return out, nil
}
