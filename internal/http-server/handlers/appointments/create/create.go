package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/sl"
)

type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req *api.AppointmentCreateRequest) (*api.AppointmentResponse, error)
}

type Request struct {
	api.AppointmentCreateRequest
}

type Response struct {
	response.Response
	Appointment api.AppointmentResponse `json:"appointment,omitempty"`
}

func New(log *slog.Logger, creator AppointmentCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if req.BarberID == "" {
			log.Error("barber_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "barber_id is required"))
			return
		}

		if req.Date == "" || req.Time == "" {
			log.Error("date or time is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date and time are required"))
			return
		}

		appt, err := creator.CreateAppointment(r.Context(), &req.AppointmentCreateRequest)

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked by another request")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is locked, retry shortly"))
			return
		}

		if errors.Is(err, response.ErrSlotTaken) {
			log.Error("slot is taken", slog.String("source", response.TakenSource(err)))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_TAKEN), "slot is not available: "+response.TakenSource(err)))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrValidation) || errors.Is(err, response.ErrBadRequest) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "validation failed"))
			return
		}

		if err != nil {
			log.Error("Failed to create appointment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create appointment"))
			return
		}

		log.Info("Appointment created", slog.String("appointment_id", appt.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Appointment: *appt,
		})
	}
}
