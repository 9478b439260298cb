package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

var barber = models.Barber{
	ID:                "b1",
	Name:              "Jhon",
	CommissionPercent: 40,
	HourlyRateCents:   6000, // 60.00/h
}

func activeSub(included ...string) *models.Subscription {
	return &models.Subscription{
		ID:               "sub1",
		ClientID:         "c1",
		Status:           models.SubscriptionActive,
		IncludedServices: included,
	}
}

func TestPrice_NonSubscriber(t *testing.T) {
	q, err := Price(Input{
		Services: []models.ServiceLine{
			{ServiceID: "s1", Name: "Corte", PriceCents: 5000, DurationMin: 30},
			{ServiceID: "s2", Name: "Barba", PriceCents: 3000, DurationMin: 20},
		},
		Products: []models.ProductLine{
			{ProductID: "p1", Name: "Pomada", UnitPriceCents: 2500, Qty: 2},
		},
		Barber: barber,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(13000), q.TotalCents) // 8000 services + 5000 products
	assert.Equal(t, int64(8000), q.ServicesCents)
	assert.Equal(t, int64(5000), q.ProductsCents)
	assert.Equal(t, int64(3200), q.CommissionCents) // 40% of services gross
	assert.Equal(t, 50, q.WorkedMinNormal)
	assert.Equal(t, 0, q.WorkedMinSub)
	assert.False(t, q.SubscriptionBilling)
}

func TestPrice_SubscriberIncludedList(t *testing.T) {
	q, err := Price(Input{
		Services: []models.ServiceLine{
			{ServiceID: "s1", Name: "Corte", PriceCents: 5000, DurationMin: 30},
			{ServiceID: "s2", Name: "Barba", PriceCents: 3000, DurationMin: 20},
		},
		Barber:       barber,
		Subscription: activeSub("corte"),
	})
	require.NoError(t, err)

	// Only Barba is charged; time covers both services.
	assert.Equal(t, int64(3000), q.TotalCents)
	assert.Equal(t, int64(3000), q.ServicesCents)
	assert.Equal(t, 50, q.WorkedMinSub)
	assert.Equal(t, 0, q.WorkedMinNormal)
	assert.True(t, q.SubscriptionBilling)

	// Commission is time-based: 50min at 6000/h.
	assert.Equal(t, int64(5000), q.CommissionCents)
}

func TestPrice_SubscriberLegacyDefault(t *testing.T) {
	// Empty included-list: only names containing "corte" are covered.
	q, err := Price(Input{
		Services: []models.ServiceLine{
			{ServiceID: "s1", Name: "Corte Degradê", PriceCents: 5500, DurationMin: 40},
			{ServiceID: "s2", Name: "Sobrancelha", PriceCents: 1500, DurationMin: 10},
		},
		Barber:       barber,
		Subscription: activeSub(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), q.TotalCents)
	assert.Equal(t, 50, q.WorkedMinSub)
}

func TestPrice_SubscriberMatchByServiceID(t *testing.T) {
	q, err := Price(Input{
		Services: []models.ServiceLine{
			{ServiceID: "svc-123", Name: "Platinado", PriceCents: 12000, DurationMin: 90},
		},
		Barber:       barber,
		Subscription: activeSub("svc-123"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), q.TotalCents)
	assert.Equal(t, int64(9000), q.CommissionCents) // 90min * 6000/h
}

func TestPrice_EndedSubscriptionBillsNormally(t *testing.T) {
	sub := activeSub("corte")
	sub.Status = models.SubscriptionEnded

	q, err := Price(Input{
		Services:     []models.ServiceLine{{ServiceID: "s1", Name: "Corte", PriceCents: 5000, DurationMin: 30}},
		Barber:       barber,
		Subscription: sub,
	})
	require.NoError(t, err)

	assert.False(t, q.SubscriptionBilling)
	assert.Equal(t, int64(5000), q.TotalCents)
	assert.Equal(t, int64(2000), q.CommissionCents)
}

func TestPrice_ManualOverride(t *testing.T) {
	override := int64(4000)

	q, err := Price(Input{
		Services:    []models.ServiceLine{{ServiceID: "s1", Name: "Corte", PriceCents: 5000, DurationMin: 30}},
		Barber:      barber,
		ManualTotal: &override,
	})
	require.NoError(t, err)

	// Override replaces the total verbatim; commission still comes from
	// the underlying breakdown, not from the override.
	assert.Equal(t, int64(4000), q.TotalCents)
	assert.Equal(t, int64(2000), q.CommissionCents)
	assert.Equal(t, int64(5000), q.ServicesCents)
}

func TestPrice_CaseInsensitiveCoverage(t *testing.T) {
	q, err := Price(Input{
		Services:     []models.ServiceLine{{ServiceID: "s1", Name: "CORTE SOCIAL", PriceCents: 4500, DurationMin: 25}},
		Barber:       barber,
		Subscription: activeSub(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), q.TotalCents)
}

func TestPrice_Validation(t *testing.T) {
	_, err := Price(Input{
		Products: []models.ProductLine{{ProductID: "p1", Name: "Pomada", UnitPriceCents: 2500, Qty: 0}},
	})
	assert.ErrorIs(t, err, response.ErrValidation)

	_, err = Price(Input{
		Services: []models.ServiceLine{{ServiceID: "s1", Name: "Corte", PriceCents: -1}},
	})
	assert.ErrorIs(t, err, response.ErrValidation)

	neg := int64(-100)
	_, err = Price(Input{ManualTotal: &neg})
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestPrice_EmptyBookingIsZero(t *testing.T) {
	q, err := Price(Input{Barber: barber})
	require.NoError(t, err)
	assert.Equal(t, models.Charge{}, q)
}
