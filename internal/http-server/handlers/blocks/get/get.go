package get

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

type BlockGetter interface {
	GetBlock(ctx context.Context, id string) (*api.BlockResponse, error)
	ListBlocks(ctx context.Context, dateStr string, barberID *string) ([]*api.BlockResponse, error)
}

type Response struct {
	response.Response
	Block  *api.BlockResponse  `json:"block,omitempty"`
	Blocks []api.BlockResponse `json:"blocks,omitempty"`
}

func New(log *slog.Logger, getter BlockGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocks.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if id := chi.URLParam(r, "id"); id != "" {
			block, err := getter.GetBlock(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("block not found", slog.String("id", id))
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "block not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get block", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get block"))
				return
			}

			log.Info("Block retrieved", slog.String("id", id))

			render.JSON(w, r, Response{
				Block: block,
			})
			return
		}

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

		blocks, err := getter.ListBlocks(r.Context(), date, barberID)

		if errors.Is(err, response.ErrValidation) || errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid date", slog.String("date", date))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to list blocks", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list blocks"))
			return
		}

		log.Info("Blocks retrieved", slog.Int("count", len(blocks)))

		out := make([]api.BlockResponse, len(blocks))
		for i, b := range blocks {
			out[i] = *b
		}

		render.JSON(w, r, Response{
			Blocks: out,
		})
	}
}
