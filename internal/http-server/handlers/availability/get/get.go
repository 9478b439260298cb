package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/availability"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/sl"
)

type SlotsGetter interface {
	AvailableSlots(ctx context.Context, dateStr string, barberID *string) ([]availability.Slot, error)
}

type Response struct {
	response.Response
	Date  string              `json:"date"`
	Slots []availability.Slot `json:"slots"`
}

func New(log *slog.Logger, getter SlotsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		date := r.URL.Query().Get("date")
		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		var barberID *string
		if b := r.URL.Query().Get("barber_id"); b != "" {
			barberID = &b
		}

		slots, err := getter.AvailableSlots(r.Context(), date, barberID)

		if errors.Is(err, response.ErrDateOutOfRange) {
			log.Error("date out of bookable range", slog.String("date", date))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.DATE_OUT_OF_RANGE), "date is out of the bookable range"))
			return
		}

		if errors.Is(err, response.ErrValidation) || errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid date", slog.String("date", date))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability computed", slog.String("date", date), slog.Int("slots", len(slots)))

		render.JSON(w, r, Response{
			Date:  date,
			Slots: slots,
		})
	}
}
