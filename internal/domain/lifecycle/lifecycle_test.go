package lifecycle_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
	"github.com/tu-usuario/distrifresco/internal/domain/lifecycle"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func ventaPorSeparar() entity.Order {
	return entity.Order{
		ID:       "venta-1",
		ClientID: "cliente-9",
		Items: []entity.OrderLineItem{
			{ProductID: "1", OrderedQuantity: decimal.NewFromInt(10), UnitMeasure: "kg", UnitPrice: decimal.RequireFromString("3.50")},
		},
		TotalValue: decimal.RequireFromString("35.00"),
		Picking:    entity.PickingPorSeparar,
		Payment:    entity.PagoPendiente,
		CreatedAt:  time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC),
	}
}

func operario() entity.User {
	return entity.User{ID: "u-7", DisplayName: "Marta", Role: entity.RoleEmpleado}
}

func cantidades(pares map[string]string) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(pares))
	for k, v := range pares {
		m[k] = decimal.RequireFromString(v)
	}
	return m
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Reconcile
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_SeparacionValida(t *testing.T) {
	venta := ventaPorSeparar()
	ahora := time.Date(2025, 5, 2, 10, 30, 0, 0, time.UTC)

	out, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "9.8"}), operario(), ahora)
	require.NoError(t, err)

	assert.Equal(t, entity.PickingSeparado, out.Picking)
	require.NotNil(t, out.Items[0].ActualQuantity)
	assert.True(t, out.Items[0].ActualQuantity.Equal(decimal.RequireFromString("9.8")),
		"la cantidad real debe ser la pesada por el operario")
	require.NotNil(t, out.SeparatedAt)
	assert.Equal(t, ahora, *out.SeparatedAt)
	require.NotNil(t, out.SeparatedBy)
	assert.Equal(t, "u-7", out.SeparatedBy.ID)
}

func TestReconcile_TotalValueInmutable(t *testing.T) {
	venta := ventaPorSeparar()
	out, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "9.8"}), operario(), time.Now())
	require.NoError(t, err)

	assert.True(t, out.TotalValue.Equal(decimal.RequireFromString("35.00")),
		"TotalValue es un snapshot histórico; separar no lo recalcula")
}

func TestReconcile_NoMutaLaVentaDeEntrada(t *testing.T) {
	venta := ventaPorSeparar()
	_, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "9.8"}), operario(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, entity.PickingPorSeparar, venta.Picking, "la Order de entrada no debe cambiar")
	assert.Nil(t, venta.Items[0].ActualQuantity)
	assert.Nil(t, venta.SeparatedAt)
}

func TestReconcile_RechazaEstadoYaSeparado(t *testing.T) {
	venta := ventaPorSeparar()
	venta.Picking = entity.PickingSeparado

	_, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "9.8"}), operario(), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReconcile_RechazaCantidadFaltante(t *testing.T) {
	venta := ventaPorSeparar()
	venta.Items = append(venta.Items, entity.OrderLineItem{
		ProductID:       "2",
		OrderedQuantity: decimal.NewFromInt(5),
		UnitMeasure:     "kg",
		UnitPrice:       decimal.NewFromInt(2),
	})

	_, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "9.8"}), operario(), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "falta la cantidad del producto 2")
}

func TestReconcile_RechazaCantidadCeroONegativa(t *testing.T) {
	for _, valor := range []string{"0", "-1.5"} {
		venta := ventaPorSeparar()
		_, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": valor}), operario(), time.Now())
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad %s debe ser rechazada", valor)
	}
}

func TestReconcile_RechazaProductoSobrante(t *testing.T) {
	venta := ventaPorSeparar()
	_, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "9.8", "99": "1"}), operario(), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el producto 99 no pertenece a la venta")
}

func TestReconcile_SinTopeSobreCantidadPedida(t *testing.T) {
	// El operario puede registrar más de lo pedido; no existe regla de tolerancia.
	venta := ventaPorSeparar()
	out, err := lifecycle.Reconcile(venta, cantidades(map[string]string{"1": "250"}), operario(), time.Now())
	require.NoError(t, err)
	assert.True(t, out.Items[0].ActualQuantity.Equal(decimal.NewFromInt(250)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests SettlePayment
// ──────────────────────────────────────────────────────────────────────────────

func TestSettlePayment_PendienteAPagado(t *testing.T) {
	venta := ventaPorSeparar()
	out, err := lifecycle.SettlePayment(venta)
	require.NoError(t, err)

	assert.Equal(t, entity.Pagado, out.Payment)
	assert.Equal(t, entity.PickingPorSeparar, out.Picking, "el pago no toca el estado de separación")
	assert.True(t, out.TotalValue.Equal(venta.TotalValue))
}

func TestSettlePayment_RechazaVentaYaPagada(t *testing.T) {
	venta := ventaPorSeparar()
	venta.Payment = entity.Pagado

	_, err := lifecycle.SettlePayment(venta)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
