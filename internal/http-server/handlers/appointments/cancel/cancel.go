package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/sl"
)

type AppointmentCanceller interface {
	CancelAppointment(ctx context.Context, id string) (*api.AppointmentResponse, error)
}

type Response struct {
	response.Response
	Appointment *api.AppointmentResponse `json:"appointment,omitempty"`
}

func New(log *slog.Logger, canceller AppointmentCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.cancel.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		appt, err := canceller.CancelAppointment(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("appointment not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "appointment not found"))
			return
		}

		if err != nil {
			log.Error("Failed to cancel appointment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel appointment"))
			return
		}

		log.Info("Appointment cancelled", slog.String("id", id))

		render.JSON(w, r, Response{
			Appointment: appt,
		})
	}
}
