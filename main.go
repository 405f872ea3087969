package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"limitcore/src/audit"
	"limitcore/src/handlers"
	"limitcore/src/logger"
	"limitcore/src/publish"
	"limitcore/src/routes"
	"limitcore/src/runtime"
	"limitcore/src/stream"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()

	log.Info().Msg("Initializing order matching engine")

	var auditLog *audit.WAL
	if walDir := os.Getenv("WAL_DIR"); walDir != "" {
		var err error
		auditLog, err = audit.Open(walDir)
		if err != nil {
			log.Fatal().Err(err).Str("wal_dir", walDir).Msg("failed to open audit log")
		}
		defer auditLog.Close()
	}

	var publishers runtime.MultiPublisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := os.Getenv("KAFKA_TOPIC")
		if topic == "" {
			topic = "matching-engine-commands"
		}
		producer := publish.NewProducer(strings.Split(brokers, ","), topic)
		defer producer.Close()
		publishers = append(publishers, producer)
	}

	broadcaster := stream.NewBroadcaster(log)
	publishers = append(publishers, broadcaster)

	dispatcher := runtime.NewDispatcher(log, auditAdapter(auditLog), publishers)
	orderHandler := handlers.NewOrderHandler(dispatcher)

	wsPort := os.Getenv("WS_PORT")
	if wsPort == "" {
		wsPort = "8081"
	}
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/ws/")
		if symbol == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		broadcaster.ServeSymbol(w, r, symbol)
	})
	wsServer := &http.Server{Addr: ":" + wsPort, Handler: wsMux}
	go func() {
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("websocket server failed")
		}
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("request error")
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, orderHandler)

	port := ":8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = ":" + envPort
	}

	serverError := make(chan error, 1)
	go func() {
		if err := app.Listen(port); err != nil {
			if err.Error() != "server is shutting down" {
				serverError <- err
			}
		}
	}()

	select {
	case err := <-serverError:
		log.Fatal().Err(err).Str("port", port).Msg("server failed to start")
	default:
		log.Info().Str("port", port).Str("ws_port", wsPort).Msg("order matching engine started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info().Msg("received shutdown signal, shutting down...")

	shutdownTimeout := 10 * time.Second
	if envTimeout := os.Getenv("SHUTDOWN_TIMEOUT"); envTimeout != "" {
		if parsed, err := time.ParseDuration(envTimeout); err == nil && parsed > 0 {
			shutdownTimeout = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Dur("timeout", shutdownTimeout).Msg("timeout exceeded, shutting down...")
		} else {
			log.Error().Err(err).Msg("error during shutdown")
		}
	} else {
		log.Info().Msg("shutdown complete")
	}

	_ = wsServer.Shutdown(ctx)
	logger.CloseLogger()
}

// auditAdapter returns nil as a runtime.AuditLog when w is nil, since a
// typed nil *audit.WAL boxed into the interface would not compare equal
// to nil at the call site.
func auditAdapter(w *audit.WAL) runtime.AuditLog {
	if w == nil {
		return nil
	}
	return w
}
