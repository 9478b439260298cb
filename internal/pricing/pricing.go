package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// Services whose name contains this are covered by legacy subscriptions
// that predate the explicit included-services list.
const legacyCoveredKeyword = "corte"

// Input is everything the money split depends on at time of service.
type Input struct {
	Services     []models.ServiceLine
	Products     []models.ProductLine
	Barber       models.Barber
	Subscription *models.Subscription // nil or ended = non-subscriber
	ManualTotal  *int64               // staff-typed final price, stored verbatim
}

// Price computes the charge for a booking. Subscribers pay only for
// uncovered services and products; their barber is compensated by time
// (hourly rate), not by revenue share, since covered work produces no
// revenue to share.
func Price(in Input) (models.Charge, error) {
	const op = "pricing.Price"

	if err := validate(in); err != nil {
		return models.Charge{}, fmt.Errorf("%s: %w", op, err)
	}

	var productsTotal int64
	for _, p := range in.Products {
		productsTotal += p.UnitPriceCents * int64(p.Qty)
	}

	var servicesGross int64
	totalMinutes := 0
	for _, s := range in.Services {
		servicesGross += s.PriceCents
		totalMinutes += s.DurationMin
	}

	var charge models.Charge
	charge.ProductsCents = productsTotal

	if subscriber(in.Subscription) {
		var extra int64
		for _, s := range in.Services {
			if !covered(in.Subscription, s) {
				extra += s.PriceCents
			}
		}

		charge.SubscriptionBilling = true
		charge.ServicesCents = extra
		charge.TotalCents = extra + productsTotal
		// Time-based: covered minutes still compensate the barber.
		charge.CommissionCents = int64(totalMinutes) * in.Barber.HourlyRateCents / 60
		charge.WorkedMinSub = totalMinutes
	} else {
		charge.ServicesCents = servicesGross
		charge.TotalCents = servicesGross + productsTotal
		charge.CommissionCents = int64(math.Round(float64(servicesGross) * in.Barber.CommissionPercent / 100))
		charge.WorkedMinNormal = totalMinutes
	}

	// The override replaces the computed total only; commission stays
	// derived from the underlying service/duration breakdown.
	if in.ManualTotal != nil {
		charge.TotalCents = *in.ManualTotal
	}

	return charge, nil
}

func validate(in Input) error {
	for _, s := range in.Services {
		if s.PriceCents < 0 {
			return fmt.Errorf("service %q has negative price: %w", s.Name, response.ErrValidation)
		}
		if s.DurationMin < 0 {
			return fmt.Errorf("service %q has negative duration: %w", s.Name, response.ErrValidation)
		}
	}
	for _, p := range in.Products {
		if p.Qty <= 0 {
			return fmt.Errorf("product %q has non-positive quantity: %w", p.Name, response.ErrValidation)
		}
		if p.UnitPriceCents < 0 {
			return fmt.Errorf("product %q has negative price: %w", p.Name, response.ErrValidation)
		}
	}
	if in.ManualTotal != nil && *in.ManualTotal < 0 {
		return fmt.Errorf("manual total is negative: %w", response.ErrValidation)
	}
	return nil
}

func subscriber(sub *models.Subscription) bool {
	return sub != nil && sub.Status == models.SubscriptionActive
}

// covered decides whether an active subscription absorbs the service.
// An empty included-list is the legacy default: only haircut services
// ("corte") are covered. Otherwise entries match by case-insensitive
// name substring or by service id.
func covered(sub *models.Subscription, svc models.ServiceLine) bool {
	name := strings.ToLower(svc.Name)

	if len(sub.IncludedServices) == 0 {
		return strings.Contains(name, legacyCoveredKeyword)
	}

	for _, inc := range sub.IncludedServices {
		if inc == svc.ServiceID {
			return true
		}
		if inc != "" && strings.Contains(name, strings.ToLower(inc)) {
			return true
		}
	}

	return false
}
