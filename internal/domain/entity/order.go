package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PickingState estado de separación (picking) de una venta.
type PickingState string

// PaymentState estado de pago de una venta. Ortogonal al picking.
type PaymentState string

// Estados del ciclo de vida de una venta.
const (
	PickingPorSeparar PickingState = "POR_SEPARAR" // Inicial al crear la venta
	PickingSeparado   PickingState = "SEPARADO"    // Terminal: cantidades reales registradas

	PagoPendiente PaymentState = "PAGO_PENDIENTE" // Inicial
	Pagado        PaymentState = "PAGADO"         // Terminal
)

// Order representa una venta (pedido de un cliente) con precios fijados al crearla.
// El backend remoto es el dueño del estado; esta capa nunca muta una Order en sitio,
// las transiciones producen un valor nuevo y la respuesta del backend es la verdad.
type Order struct {
	ID          string
	ClientID    string
	Items       []OrderLineItem
	TotalValue  decimal.Decimal // Fijado al crear; nunca se recalcula con precios actuales
	Picking     PickingState
	Payment     PaymentState
	CreatedAt   time.Time
	SeparatedAt *time.Time // Presente si y solo si Picking == PickingSeparado
	SeparatedBy *User      // Operario que separó; mismo invariante que SeparatedAt
}

// OrderLineItem línea de una venta. ActualQuantity se fija exactamente una vez,
// de forma atómica con la transición a SEPARADO, y es inmutable después.
type OrderLineItem struct {
	ProductID       string
	OrderedQuantity decimal.Decimal
	UnitMeasure     string
	UnitPrice       decimal.Decimal // Snapshot al crear la venta
	ActualQuantity  *decimal.Decimal
}

// NewOrderLine línea del carrito al crear una venta. El precio no viaja:
// el backend fija el snapshot de precios al persistir.
type NewOrderLine struct {
	ProductID   string
	Quantity    decimal.Decimal
	UnitMeasure string
}

// OrderFilter opciones reconocidas al listar ventas. Campos nil/vacíos no filtran.
type OrderFilter struct {
	Picking  *PickingState
	Payment  *PaymentState
	ClientID string
}

// CloneItems copia profunda de las líneas; evita aliasing del slice al transformar.
func (o Order) CloneItems() []OrderLineItem {
	if o.Items == nil {
		return nil
	}
	items := make([]OrderLineItem, len(o.Items))
	copy(items, o.Items)
	for i := range items {
		if o.Items[i].ActualQuantity != nil {
			q := *o.Items[i].ActualQuantity
			items[i].ActualQuantity = &q
		}
	}
	return items
}
