package main

import (
	"context"
	"flag"
	"log"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/yi-nology/cos_bridge/biz/dal/db"
	"github.com/yi-nology/cos_bridge/biz/handler"
	"github.com/yi-nology/cos_bridge/biz/handler/version"
	"github.com/yi-nology/cos_bridge/biz/middleware"
	"github.com/yi-nology/cos_bridge/biz/router"
	"github.com/yi-nology/cos_bridge/biz/service"
	"github.com/yi-nology/cos_bridge/pkg/config"
	"github.com/yi-nology/cos_bridge/pkg/database"
	"github.com/yi-nology/cos_bridge/pkg/lock"
	"github.com/yi-nology/cos_bridge/pkg/logging"
	"github.com/yi-nology/cos_bridge/pkg/redis"
	"github.com/yi-nology/cos_bridge/pkg/storage"
	"github.com/yi-nology/cos_bridge/pkg/validator"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	}); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Sync()
	logger := logging.L()

	gormDB, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("init storage", zap.Error(err))
	}

	var locker middleware.Locker
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.FromConfig(redisClient, cfg.Redis)
	}

	svc := service.NewService(gormDB, store, service.Options{
		StorePath:     cfg.Upload.StorePath,
		MaxDepth:      cfg.Tree.MaxDepth,
		PresignExpiry: cfg.Storage.S3.PresignExpiry,
		Upload:        validator.NewUploadConfig(cfg.Upload.MaxSize, cfg.Upload.ChunkMaxSize, cfg.Upload.AllowedTypes),
	})

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodySize),
	)
	h.Use(
		middleware.Recovery(),
		middleware.Logging(),
		middleware.CORS(cfg.CORS),
		middleware.Auth(),
	)
	router.Register(h, handler.New(svc), locker, cfg.Metrics)

	logger.Info("cos bridge starting",
		zap.String("address", cfg.Server.Address),
		zap.String("version", version.AppVersion),
		zap.String("storage", store.Type()),
		zap.String("bucket", store.Bucket()),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("write_lock", locker != nil),
	)
	h.Spin()
}
