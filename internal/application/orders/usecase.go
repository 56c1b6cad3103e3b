// Package orders casos de uso de lectura y transiciones simples de ventas.
// Sin estado local: el backend es la verdad y cada lectura es una petición
// fresca; una mutación confirmada obliga a la vista a refrescar, nunca a
// renderizar el resultado optimista como cometido.
package orders

import (
	"context"

	"github.com/tu-usuario/distrifresco/internal/application/dto"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
	"github.com/tu-usuario/distrifresco/internal/domain/lifecycle"
	"github.com/tu-usuario/distrifresco/pkg/logger"
)

// Gateway puerto hacia el backend de ventas.
type Gateway interface {
	Create(ctx context.Context, clientID string, lines []entity.NewOrderLine) (*entity.Order, error)
	List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error)
	FetchOne(ctx context.Context, id string) (*entity.Order, error)
	MarkPaid(ctx context.Context, id string) (*entity.Order, error)
}

// UseCase operaciones de ventas expuestas al boundary de vistas.
type UseCase struct {
	gateway Gateway
	log     *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(gateway Gateway, log *logger.Logger) *UseCase {
	return &UseCase{gateway: gateway, log: log}
}

// Create registra la venta de un carrito. La validación de carrito vacío o
// cantidades no positivas la aplica el gateway antes de tocar la red.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateOrderRequest) (dto.OrderResponse, error) {
	lines := make([]entity.NewOrderLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, entity.NewOrderLine{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitMeasure: it.UnitMeasure,
		})
	}
	created, err := uc.gateway.Create(ctx, in.ClientID, lines)
	if err != nil {
		return dto.OrderResponse{}, err
	}
	uc.log.Info().Str("order", created.ID).Str("client", created.ClientID).Msg("venta creada")
	return dto.OrderFromEntity(*created), nil
}

// List lista ventas con el filtro dado.
func (uc *UseCase) List(ctx context.Context, filter entity.OrderFilter) ([]dto.OrderResponse, error) {
	found, err := uc.gateway.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.OrdersFromEntities(found), nil
}

// Get trae una venta por id.
func (uc *UseCase) Get(ctx context.Context, id string) (dto.OrderResponse, error) {
	o, err := uc.gateway.FetchOne(ctx, id)
	if err != nil {
		return dto.OrderResponse{}, err
	}
	return dto.OrderFromEntity(*o), nil
}

// GetEntity trae la venta de dominio (la usa el flujo de separación para
// sembrar su copia de trabajo desde un estado fresco del backend).
func (uc *UseCase) GetEntity(ctx context.Context, id string) (*entity.Order, error) {
	return uc.gateway.FetchOne(ctx, id)
}

// MarkPaid registra el pago. Restringido a administrador en el boundary HTTP.
// La transición pura corre primero sobre un estado fresco como precondición
// local (una venta ya pagada no genera petición de mutación); su resultado se
// descarta y la venta confirmada por el backend es la que se entrega.
func (uc *UseCase) MarkPaid(ctx context.Context, id string) (dto.OrderResponse, error) {
	current, err := uc.gateway.FetchOne(ctx, id)
	if err != nil {
		return dto.OrderResponse{}, err
	}
	if _, err := lifecycle.SettlePayment(*current); err != nil {
		return dto.OrderResponse{}, err
	}

	o, err := uc.gateway.MarkPaid(ctx, id)
	if err != nil {
		return dto.OrderResponse{}, err
	}
	uc.log.Info().Str("order", o.ID).Msg("venta marcada como pagada")
	return dto.OrderFromEntity(*o), nil
}
