package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/sl"
)

type WeekScheduleGetter interface {
	GetWeekSchedule(ctx context.Context) (*api.WeekScheduleResponse, error)
}

type Response struct {
	response.Response
	Schedule *api.WeekScheduleResponse `json:"schedule,omitempty"`
}

func New(log *slog.Logger, getter WeekScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedule.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sched, err := getter.GetWeekSchedule(r.Context())

		if err != nil {
			log.Error("Failed to get week schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get week schedule"))
			return
		}

		log.Info("Week schedule retrieved")

		render.JSON(w, r, Response{
			Schedule: sched,
		})
	}
}
