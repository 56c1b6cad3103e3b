package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// ── Estructuras de cable del backend de ventas ────────────────────────────────

type orderLinePayload struct {
	ProductID       string           `json:"product_id"`
	OrderedQuantity decimal.Decimal  `json:"ordered_quantity"`
	UnitMeasure     string           `json:"unit_measure"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	ActualQuantity  *decimal.Decimal `json:"actual_quantity,omitempty"`
}

type orderPayload struct {
	ID           string             `json:"id"`
	ClientID     string             `json:"client_id"`
	Items        []orderLinePayload `json:"items"`
	TotalValue   decimal.Decimal    `json:"total_value"`
	PickingState string             `json:"picking_state"`
	PaymentState string             `json:"payment_state"`
	CreatedAt    time.Time          `json:"created_at"`
	SeparatedAt  *time.Time         `json:"separated_at,omitempty"`
	SeparatedBy  *userPayload       `json:"separated_by,omitempty"`
}

func (p orderPayload) toEntity() entity.Order {
	o := entity.Order{
		ID:          p.ID,
		ClientID:    p.ClientID,
		Items:       make([]entity.OrderLineItem, 0, len(p.Items)),
		TotalValue:  p.TotalValue,
		Picking:     entity.PickingState(p.PickingState),
		Payment:     entity.PaymentState(p.PaymentState),
		CreatedAt:   p.CreatedAt,
		SeparatedAt: p.SeparatedAt,
	}
	for _, it := range p.Items {
		line := entity.OrderLineItem{
			ProductID:       it.ProductID,
			OrderedQuantity: it.OrderedQuantity,
			UnitMeasure:     it.UnitMeasure,
			UnitPrice:       it.UnitPrice,
		}
		if it.ActualQuantity != nil {
			q := *it.ActualQuantity
			line.ActualQuantity = &q
		}
		o.Items = append(o.Items, line)
	}
	if p.SeparatedBy != nil {
		o.SeparatedBy = p.SeparatedBy.toEntity()
	}
	return o
}

type createOrderLine struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitMeasure string          `json:"unit_measure"`
}

type createOrderRequest struct {
	ClientID string            `json:"client_id"`
	Items    []createOrderLine `json:"items"`
}

type separationRequest struct {
	ActualQuantities map[string]decimal.Decimal `json:"actual_quantities"`
}

// ── Operaciones de ventas ─────────────────────────────────────────────────────

// Create persiste una venta nueva. El backend asigna el id y fija el snapshot
// de precios; un carrito vacío se rechaza localmente sin tocar la red.
func (c *Client) Create(ctx context.Context, clientID string, lines []entity.NewOrderLine) (*entity.Order, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id es requerido", domain.ErrInvalidInput)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidInput)
	}
	in := createOrderRequest{ClientID: clientID, Items: make([]createOrderLine, 0, len(lines))}
	for _, l := range lines {
		if l.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad no positiva para el producto %s", domain.ErrInvalidInput, l.ProductID)
		}
		in.Items = append(in.Items, createOrderLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitMeasure: l.UnitMeasure})
	}

	var out orderPayload
	if err := c.do(ctx, "POST", "/api/orders", nil, in, &out); err != nil {
		return nil, err
	}
	o := out.toEntity()
	return &o, nil
}

// List pide el listado de ventas con el filtro dado. Sin cache: cada llamada
// es una petición fresca y el orden lo decide el backend.
func (c *Client) List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error) {
	query := url.Values{}
	if filter.Picking != nil {
		query.Set("picking_state", string(*filter.Picking))
	}
	if filter.Payment != nil {
		query.Set("payment_state", string(*filter.Payment))
	}
	if filter.ClientID != "" {
		query.Set("client_id", filter.ClientID)
	}

	var out []orderPayload
	if err := c.do(ctx, "GET", "/api/orders", query, nil, &out); err != nil {
		return nil, err
	}
	orders := make([]entity.Order, 0, len(out))
	for _, p := range out {
		orders = append(orders, p.toEntity())
	}
	return orders, nil
}

// FetchOne trae una venta por id; domain.ErrNotFound si ya no existe.
func (c *Client) FetchOne(ctx context.Context, id string) (*entity.Order, error) {
	var out orderPayload
	if err := c.do(ctx, "GET", "/api/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	o := out.toEntity()
	return &o, nil
}

// SubmitSeparation envía las cantidades reales en una sola petición; el
// backend es la frontera de atomicidad (o aplica todas las líneas y separa la
// venta, o ninguna). Un 409 (estado obsoleto) llega como ErrInvalidTransition.
func (c *Client) SubmitSeparation(ctx context.Context, orderID string, actual map[string]decimal.Decimal) (*entity.Order, error) {
	var out orderPayload
	in := separationRequest{ActualQuantities: actual}
	if err := c.do(ctx, "POST", "/api/orders/"+url.PathEscape(orderID)+"/separation", nil, in, &out); err != nil {
		return nil, err
	}
	o := out.toEntity()
	return &o, nil
}

// MarkPaid registra el pago de la venta (solo el estado de pago cambia).
// Sin reintento automático: la respuesta del backend es la autoridad.
func (c *Client) MarkPaid(ctx context.Context, orderID string) (*entity.Order, error) {
	var out orderPayload
	if err := c.do(ctx, "POST", "/api/orders/"+url.PathEscape(orderID)+"/payment", nil, nil, &out); err != nil {
		return nil, err
	}
	o := out.toEntity()
	return &o, nil
}
