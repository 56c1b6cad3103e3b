package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/distrifresco/internal/application/orders"
	"github.com/tu-usuario/distrifresco/internal/application/separation"
	"github.com/tu-usuario/distrifresco/internal/application/session"
	"github.com/tu-usuario/distrifresco/internal/infrastructure/backend"
	"github.com/tu-usuario/distrifresco/internal/infrastructure/sessionfile"
	httpRouter "github.com/tu-usuario/distrifresco/internal/interfaces/http"
	"github.com/tu-usuario/distrifresco/pkg/config"
	"github.com/tu-usuario/distrifresco/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("backend", cfg.Backend.BaseURL).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend remoto: único punto de I/O de red de la aplicación.
	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout(),
	}, log)

	credStore := sessionfile.NewStore(cfg.Session.FilePath)
	sessions := session.NewStore(client, credStore, log)

	// El cliente toma la credencial vigente del store y le notifica los
	// rechazos; ambos se construyen antes de enlazarse.
	client.BindSession(
		func() string { return sessions.Snapshot().Credential },
		sessions.HandleCredentialRejected,
	)

	// Restauración de la sesión persistida (si existe) y revalidación periódica.
	sessions.Initialize(ctx)
	go sessions.RunRevalidationLoop(ctx, cfg.Session.RevalidationInterval())

	orderUC := orders.NewUseCase(client, log)
	reconciler := separation.NewReconciler(client, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "DistriFresco Back Office",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:   sessions,
		OrderUC:    orderUC,
		Reconciler: reconciler,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
