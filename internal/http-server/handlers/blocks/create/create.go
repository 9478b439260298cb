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

type BlockCreator interface {
	CreateBlock(ctx context.Context, req *api.BlockRequest) (*api.BlockResponse, error)
}

type Request struct {
	api.BlockRequest
}

type Response struct {
	response.Response
	Block api.BlockResponse `json:"block,omitempty"`
}

func New(log *slog.Logger, creator BlockCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocks.create.New"

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

		block, err := creator.CreateBlock(r.Context(), &req.BlockRequest)

		if errors.Is(err, response.ErrSlotTaken) {
			log.Error("block overlaps an appointment")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_TAKEN), "interval overlaps an existing appointment"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("barber not found", slog.String("barber_id", req.BarberID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "barber not found"))
			return
		}

		if errors.Is(err, response.ErrValidation) || errors.Is(err, response.ErrBadRequest) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "validation failed"))
			return
		}

		if err != nil {
			log.Error("Failed to create block", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create block"))
			return
		}

		log.Info("Block created", slog.String("block_id", block.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Block: *block,
		})
	}
}
