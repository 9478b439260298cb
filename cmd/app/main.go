package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/config"
	apptCancel "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/appointments/cancel"
	apptComplete "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/appointments/complete"
	apptCreate "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/appointments/create"
	apptGet "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/appointments/get"
	apptReschedule "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/appointments/reschedule"
	apptRevise "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/appointments/revise"
	availGet "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/availability/get"
	blockCreate "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/blocks/create"
	blockDelete "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/blocks/delete"
	blockGet "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/blocks/get"
	bookingCancel "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/bookings/cancel"
	bookingConfirm "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/bookings/confirm"
	bookingCreate "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/bookings/create"
	bookingGet "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/bookings/get"
	scheduleGet "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/schedule/get"
	scheduleUpdate "github.com/moacyfilho/jhonjhon-adm-sub001/internal/http-server/handlers/schedule/update"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/lock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/metrics"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/notify"
	svc "github.com/moacyfilho/jhonjhon-adm-sub001/internal/service"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/storage/postgres"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/handlers/slogpretty"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/middleware/mwlogger"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting scheduling engine", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	m := metrics.New("barbershop")

	sender := notify.NewWebhookSender(map[string]string{
		notify.RecipientClient:   cfg.Notify.ClientWebhook,
		notify.RecipientBusiness: cfg.Notify.BusinessWebhook,
		notify.RecipientBarber:   cfg.Notify.BarberWebhook,
	}, cfg.Notify.RatePerSecond, cfg.Notify.Burst)
	notifier := notify.New(sender, log, m)

	service := svc.NewService(storage, locker, clock.New(), notifier, m)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Availability
	router.Get("/availability", availGet.New(log, service))

	// Weekly schedule
	router.Get("/schedule", scheduleGet.New(log, service))
	router.Put("/schedule/{weekday}", scheduleUpdate.New(log, service))

	// Public bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Post("/bookings/{id}/confirm", bookingConfirm.New(log, service))
	router.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))

	// Staff appointments
	router.Post("/appointments", apptCreate.New(log, service))
	router.Get("/appointments/{id}", apptGet.New(log, service))
	router.Post("/appointments/{id}/complete", apptComplete.New(log, service))
	router.Put("/appointments/{id}/revise", apptRevise.New(log, service))
	router.Post("/appointments/{id}/reschedule", apptReschedule.New(log, service))
	router.Put("/appointments/{id}/cancel", apptCancel.New(log, service))

	// Schedule blocks
	router.Post("/blocks", blockCreate.New(log, service))
	router.Get("/blocks", blockGet.New(log, service))
	router.Get("/blocks/{id}", blockGet.New(log, service))
	router.Delete("/blocks/{id}", blockDelete.New(log, service))

	router.Handle("/metrics", promhttp.Handler())

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
