// Package separation orquesta el flujo de picking: una copia de trabajo de
// cantidades por venta, editada por el operario y enviada al backend como una
// única petición atómica.
package separation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/distrifresco/internal/application/dto"
	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
	"github.com/tu-usuario/distrifresco/internal/domain/lifecycle"
	"github.com/tu-usuario/distrifresco/pkg/logger"
)

// Gateway puerto mínimo hacia el backend para confirmar la separación.
type Gateway interface {
	SubmitSeparation(ctx context.Context, orderID string, actual map[string]decimal.Decimal) (*entity.Order, error)
}

// workingCopy copia de trabajo de una separación en curso. Una línea entra a
// rejected cuando el operario registró un valor inválido: hasta corregirla,
// la copia no puede enviarse (el default sembrado dejó de representar su intención).
type workingCopy struct {
	handle   string
	order    entity.Order
	working  map[string]decimal.Decimal
	rejected map[string]bool
}

// Reconciler mantiene las copias de trabajo activas (una por venta) y negocia
// la transición POR_SEPARAR → SEPARADO a través del gateway.
type Reconciler struct {
	gateway Gateway
	log     *logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	byHandle map[string]*workingCopy
	byOrder  map[string]string // orderID → handle vigente
}

// NewReconciler construye el orquestador de separación.
func NewReconciler(gateway Gateway, log *logger.Logger) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		log:      log,
		now:      time.Now,
		byHandle: make(map[string]*workingCopy),
		byOrder:  make(map[string]string),
	}
}

// Begin abre la separación de una venta POR_SEPARAR: siembra la copia de
// trabajo con la cantidad pedida de cada línea como valor editable por defecto.
// Una venta con separación ya abierta devuelve domain.ErrConflict.
func (r *Reconciler) Begin(order entity.Order) (dto.SeparationView, error) {
	if order.Picking != entity.PickingPorSeparar {
		return dto.SeparationView{}, fmt.Errorf("%w: la venta %s no está por separar", domain.ErrInvalidTransition, order.ID)
	}
	if len(order.Items) == 0 {
		return dto.SeparationView{}, fmt.Errorf("%w: la venta %s no tiene líneas", domain.ErrInvalidInput, order.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, abierta := r.byOrder[order.ID]; abierta {
		return dto.SeparationView{}, fmt.Errorf("%w: la venta %s ya tiene una separación abierta", domain.ErrConflict, order.ID)
	}

	copia := &workingCopy{
		handle:   uuid.NewString(),
		order:    order,
		working:  make(map[string]decimal.Decimal, len(order.Items)),
		rejected: make(map[string]bool),
	}
	copia.order.Items = order.CloneItems()
	for _, it := range order.Items {
		copia.working[it.ProductID] = it.OrderedQuantity
	}
	r.byHandle[copia.handle] = copia
	r.byOrder[order.ID] = copia.handle
	r.log.Debug().Str("order", order.ID).Str("handle", copia.handle).Msg("separación abierta")
	return r.viewLocked(copia), nil
}

// SetActualQuantity registra la cantidad pesada de una línea. Un valor no
// positivo se rechaza sin mutar la cantidad, pero deja la línea marcada como
// pendiente de corrección: Submit queda bloqueado hasta que el operario
// registre un valor válido (el default sembrado ya no cuenta como su intención).
// Un producto ajeno a la venta se rechaza sin marcar nada.
func (r *Reconciler) SetActualQuantity(handle, productID string, qty decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia, ok := r.byHandle[handle]
	if !ok {
		return fmt.Errorf("%w: separación %s", domain.ErrNotFound, handle)
	}
	if _, conocido := copia.working[productID]; !conocido {
		return fmt.Errorf("%w: el producto %s no pertenece a la venta %s", domain.ErrInvalidInput, productID, copia.order.ID)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		copia.rejected[productID] = true
		return fmt.Errorf("%w: la cantidad pesada debe ser mayor que cero", domain.ErrInvalidInput)
	}
	copia.working[productID] = qty
	delete(copia.rejected, productID)
	return nil
}

// View devuelve la copia de trabajo para render.
func (r *Reconciler) View(handle string) (dto.SeparationView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia, ok := r.byHandle[handle]
	if !ok {
		return dto.SeparationView{}, fmt.Errorf("%w: separación %s", domain.ErrNotFound, handle)
	}
	return r.viewLocked(copia), nil
}

// Submit valida la copia completa localmente (un fallo local jamás llega al
// backend), aplica la transición pura como precondición y envía las cantidades
// al gateway en una sola petición atómica. Tras el acuse la copia se descarta
// y la vista debe refrescar desde el backend: su respuesta es la única verdad.
//
// Un rechazo por estado obsoleto (InvalidTransition/NotFound) descarta la copia;
// un fallo de red la conserva para que el operario reintente sin repesar.
func (r *Reconciler) Submit(ctx context.Context, handle string, actor entity.User) (dto.SubmitSeparationResponse, error) {
	r.mu.Lock()
	copia, ok := r.byHandle[handle]
	if !ok {
		r.mu.Unlock()
		return dto.SubmitSeparationResponse{}, fmt.Errorf("%w: separación %s", domain.ErrNotFound, handle)
	}
	if len(copia.rejected) > 0 {
		r.mu.Unlock()
		return dto.SubmitSeparationResponse{}, fmt.Errorf(
			"%w: hay líneas con cantidad rechazada pendientes de corrección", domain.ErrInvalidInput)
	}
	working := make(map[string]decimal.Decimal, len(copia.working))
	for k, v := range copia.working {
		working[k] = v
	}
	order := copia.order
	r.mu.Unlock()

	if err := lifecycle.ValidateQuantities(order, working); err != nil {
		return dto.SubmitSeparationResponse{}, err
	}
	// La transición pura es la precondición local; su resultado optimista se
	// descarta, la venta confirmada por el backend es la que se entrega.
	if _, err := lifecycle.Reconcile(order, working, actor, r.now()); err != nil {
		return dto.SubmitSeparationResponse{}, err
	}

	confirmada, err := r.gateway.SubmitSeparation(ctx, order.ID, working)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNotFound) {
			// Copia local obsoleta: descartarla y pedir refetch al caller.
			r.discard(handle)
			r.log.Warn().Str("order", order.ID).Err(err).Msg("separación rechazada por estado obsoleto")
		}
		return dto.SubmitSeparationResponse{}, err
	}

	r.discard(handle)
	r.log.Info().Str("order", confirmada.ID).Str("actor", actor.ID).Msg("venta separada")
	return dto.SubmitSeparationResponse{
		Order:           dto.OrderFromEntity(*confirmada),
		RefetchRequired: true,
	}, nil
}

// CancelOrder descarta por id de venta la copia de trabajo abierta, sin
// necesidad del handle. Es la vía de rescate cuando la vista perdió el handle
// (se cerró a mitad de la separación): sin esto la venta quedaría bloqueada
// con ErrConflict hasta reiniciar el proceso.
func (r *Reconciler) CancelOrder(orderID string) error {
	r.mu.Lock()
	handle, ok := r.byOrder[orderID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: la venta %s no tiene separación abierta", domain.ErrNotFound, orderID)
	}
	r.discard(handle)
	return nil
}

// Cancel descarta la copia de trabajo sin contactar al backend.
func (r *Reconciler) Cancel(handle string) error {
	r.mu.Lock()
	_, ok := r.byHandle[handle]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: separación %s", domain.ErrNotFound, handle)
	}
	r.discard(handle)
	return nil
}

func (r *Reconciler) discard(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if copia, ok := r.byHandle[handle]; ok {
		delete(r.byOrder, copia.order.ID)
		delete(r.byHandle, handle)
	}
}

func (r *Reconciler) viewLocked(copia *workingCopy) dto.SeparationView {
	view := dto.SeparationView{
		Handle:  copia.handle,
		OrderID: copia.order.ID,
		Lines:   make([]dto.SeparationLine, 0, len(copia.order.Items)),
	}
	for _, it := range copia.order.Items {
		view.Lines = append(view.Lines, dto.SeparationLine{
			ProductID:       it.ProductID,
			OrderedQuantity: it.OrderedQuantity,
			UnitMeasure:     it.UnitMeasure,
			WorkingQuantity: copia.working[it.ProductID],
			NeedsCorrection: copia.rejected[it.ProductID],
		})
	}
	return view
}
