package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"media-pipeline/internal/cache"
	"media-pipeline/internal/config"
	"media-pipeline/internal/derivative"
	"media-pipeline/internal/events"
	"media-pipeline/internal/handlers"
	"media-pipeline/internal/ingest"
	"media-pipeline/internal/repository"
	service "media-pipeline/internal/services"
	"media-pipeline/internal/storage"
	utils "media-pipeline/internal/utis"
	"media-pipeline/internal/video"
)

func main() {
	// load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(err)
	}
	dev := cfg.App.Env == "development"

	// logger
	logger, err := utils.NewLogger(dev, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// Mongo
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatalf("mongo connect: %v", err)
	}
	col := mc.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	repo := repository.NewMongoItemRepo(col)

	// S3 store
	store, err := storage.NewS3Store(context.Background(), cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.Endpoint)
	if err != nil {
		logger.Fatalf("s3 init: %v", err)
	}

	// redis cache for signed urls, optional
	var signedCache service.Cache
	var redisCli *cache.Client
	if cfg.Redis.Addr != "" {
		redisCli, err = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatalf("redis init: %v", err)
		}
		signedCache = redisCli
	}

	// finalize bus
	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.FinalizeTopic)

	// client pipeline + service
	coord := ingest.NewCoordinator(ingest.Callbacks{}, logger)
	svc := service.NewPipelineService(repo, store, producer, coord, signedCache, cfg.PresignTTL, cfg.SignedTTL, logger)

	// one trigger + consumer per derivative kind; kinds are independent and
	// intentionally unordered
	frames := video.FFmpeg{Binary: cfg.FFmpeg.Binary}
	runCtx, stop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var consumers []*events.Consumer
	for _, kind := range derivative.Kinds {
		trig := derivative.NewTrigger(kind, store, repo, producer, frames, logger)
		consumer := events.NewConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.FinalizeTopic,
			cfg.Kafka.GroupPrefix+"-"+kind.Name,
			cfg.HandlerTimeout,
			logger,
		)
		consumers = append(consumers, consumer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(runCtx, trig.Handle)
		}()
	}

	// fiber app & routes
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    256 * 1024 * 1024,
	})
	h := handlers.NewHandler(svc)
	app.Post("/ingest", h.Ingest)
	app.Post("/upload-complete", h.UploadComplete)
	app.Get("/items/:uid", h.GetItem)
	app.Get("/items/:uid/url", h.GetSignedURL)
	app.Delete("/items/:uid", h.DeleteItem)
	app.Get("/progress", h.Progress)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	// start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Infof("starting media pipeline on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("listen failed: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown requested")
	timeoutCtx, cancel2 := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel2()

	stop()
	wg.Wait()
	for _, c := range consumers {
		_ = c.Close()
	}
	_ = producer.Close()
	_ = app.Shutdown()
	if redisCli != nil {
		_ = redisCli.Close()
	}
	_ = mc.Disconnect(timeoutCtx)
	logger.Info("shutdown completed")
}
