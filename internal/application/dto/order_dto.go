package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// CreateOrderLineRequest línea del carrito al crear una venta. El precio no
// viaja: el backend fija el snapshot de precios al persistir.
type CreateOrderLineRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitMeasure string          `json:"unit_measure"`
}

// CreateOrderRequest carrito enviado por el vendedor.
type CreateOrderRequest struct {
	ClientID string                   `json:"client_id"`
	Items    []CreateOrderLineRequest `json:"items"`
}

// OrderLineItemResponse línea de venta.
type OrderLineItemResponse struct {
	ProductID       string           `json:"product_id"`
	OrderedQuantity decimal.Decimal  `json:"ordered_quantity"`
	UnitMeasure     string           `json:"unit_measure"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	ActualQuantity  *decimal.Decimal `json:"actual_quantity,omitempty"`
}

// OrderResponse venta completa tal como la reporta el backend.
type OrderResponse struct {
	ID           string                  `json:"id"`
	ClientID     string                  `json:"client_id"`
	Items        []OrderLineItemResponse `json:"items"`
	TotalValue   decimal.Decimal         `json:"total_value"`
	PickingState string                  `json:"picking_state"`
	PaymentState string                  `json:"payment_state"`
	CreatedAt    time.Time               `json:"created_at"`
	SeparatedAt  *time.Time              `json:"separated_at,omitempty"`
	SeparatedBy  *UserResponse           `json:"separated_by,omitempty"`
}

// OrderFromEntity convierte la venta de dominio a su representación HTTP.
func OrderFromEntity(o entity.Order) OrderResponse {
	out := OrderResponse{
		ID:           o.ID,
		ClientID:     o.ClientID,
		Items:        make([]OrderLineItemResponse, 0, len(o.Items)),
		TotalValue:   o.TotalValue,
		PickingState: string(o.Picking),
		PaymentState: string(o.Payment),
		CreatedAt:    o.CreatedAt,
		SeparatedAt:  o.SeparatedAt,
	}
	for _, it := range o.Items {
		line := OrderLineItemResponse{
			ProductID:       it.ProductID,
			OrderedQuantity: it.OrderedQuantity,
			UnitMeasure:     it.UnitMeasure,
			UnitPrice:       it.UnitPrice,
		}
		if it.ActualQuantity != nil {
			q := *it.ActualQuantity
			line.ActualQuantity = &q
		}
		out.Items = append(out.Items, line)
	}
	if o.SeparatedBy != nil {
		out.SeparatedBy = &UserResponse{
			ID:          o.SeparatedBy.ID,
			DisplayName: o.SeparatedBy.DisplayName,
			Role:        string(o.SeparatedBy.Role),
		}
	}
	return out
}

// OrdersFromEntities convierte un listado.
func OrdersFromEntities(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderFromEntity(o))
	}
	return out
}
