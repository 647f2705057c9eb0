package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"certhub/certificate-portal/certificate-portal-backend/internal/batch"
	"certhub/certificate-portal/certificate-portal-backend/internal/catalog"
	"certhub/certificate-portal/certificate-portal-backend/internal/config"
	"certhub/certificate-portal/certificate-portal-backend/internal/history"
	"certhub/certificate-portal/certificate-portal-backend/internal/mailer"
	"certhub/certificate-portal/certificate-portal-backend/internal/render"
	"certhub/certificate-portal/certificate-portal-backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	store, err := storage.NewManager(cfg.Storage.Root, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	// ---------------- RENDERERS ----------------
	deck := render.NewDeckRenderer(logger)
	overlay := render.NewOverlayRenderer(logger)
	converter := render.NewConverter(cfg.Converter.Binary, cfg.Converter.Workers, logger)
	defer converter.Close()

	// ---------------- COLLABORATORS ----------------
	var mail mailer.Sender
	if cfg.Email.Enabled() {
		mail = mailer.NewSMTPSender(mailer.Config{
			Host:        cfg.Email.Host,
			Port:        cfg.Email.Port,
			Username:    cfg.Email.Username,
			Password:    cfg.Email.Password,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			SendDelay:   cfg.Email.SendDelay(),
		}, logger)
	}

	var cat catalog.Catalog
	if cfg.Catalog.BaseURL != "" {
		cat = catalog.NewHTTPCatalog(cfg.Catalog.BaseURL, store.TemplatesDir(), logger)
	} else {
		cat = catalog.NewStaticCatalog(store.TemplatesDir())
	}

	var repo history.Repository
	if cfg.Database.URL != "" {
		repo, err = history.Open(cfg.Database.URL)
		if err != nil {
			logger.Fatal("failed to open batch history store", zap.Error(err))
		}
	}

	// ---------------- SERVICE ----------------
	service := batch.NewService(deck, overlay, converter, store, mail, repo, logger)
	handler := batch.NewHandler(service, store, cat, mail, repo)

	r := gin.Default()
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)

	// ---------------- PING ----------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API alive!"})
	})

	// ---------------- RETENTION ----------------
	sweeper := cron.New()
	retention := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
	if _, err := sweeper.AddFunc("@daily", func() {
		if err := store.Sweep(retention); err != nil {
			logger.Warn("retention sweep failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("failed to schedule retention sweep", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	addr := cfg.Server.GetServerAddr()
	logger.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zapCfg.Level = lvl
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	return logger
}
