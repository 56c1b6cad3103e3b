package dto

import "github.com/shopspring/decimal"

// SeparationLine línea de la copia de trabajo de separación. NeedsCorrection
// marca una línea cuyo último valor registrado fue rechazado: el envío queda
// bloqueado hasta que la vista la corrija.
type SeparationLine struct {
	ProductID       string          `json:"product_id"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	UnitMeasure     string          `json:"unit_measure"`
	WorkingQuantity decimal.Decimal `json:"working_quantity"`
	NeedsCorrection bool            `json:"needs_correction,omitempty"`
}

// SeparationView copia de trabajo editable de una separación en curso.
type SeparationView struct {
	Handle  string           `json:"handle"`
	OrderID string           `json:"order_id"`
	Lines   []SeparationLine `json:"lines"`
}

// SetQuantityRequest nueva cantidad pesada para una línea.
type SetQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// SubmitSeparationResponse resultado del envío. Order es la venta confirmada
// por el backend; RefetchRequired recuerda a la vista descartar su copia local
// y pedir el listado de nuevo (no hay merge optimista).
type SubmitSeparationResponse struct {
	Order           OrderResponse `json:"order"`
	RefetchRequired bool          `json:"refetch_required"`
}
