package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/AhmadZaarour/store-manager-web-app/internal/cfg"
	v1Grpc "github.com/AhmadZaarour/store-manager-web-app/internal/delivery/v1/grpc"
	v1Http "github.com/AhmadZaarour/store-manager-web-app/internal/delivery/v1/http"
	"github.com/AhmadZaarour/store-manager-web-app/internal/infrastructure/kafka"
	minioInfra "github.com/AhmadZaarour/store-manager-web-app/internal/infrastructure/minio"
	s3Repo "github.com/AhmadZaarour/store-manager-web-app/internal/repository/minio"
	"github.com/AhmadZaarour/store-manager-web-app/internal/repository/pgdb"
	pgdbConv "github.com/AhmadZaarour/store-manager-web-app/internal/repository/pgdb/converter"
	"github.com/AhmadZaarour/store-manager-web-app/internal/repository/redis"
	redisConv "github.com/AhmadZaarour/store-manager-web-app/internal/repository/redis/converter"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/clients"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/closer"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/postgres"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout        = 10 * time.Second
	shutdownTimeout    = 15 * time.Second
	forcedCloseTimeout = 3 * time.Second
	kafkaTopicTimeout  = 10 * time.Second
)

// App собирает зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	// bgCtx отменяется при остановке и ограничивает фоновые задачи (очистка MinIO, outbox, health).
	bgCtx    context.Context
	bgCancel context.CancelFunc

	db           *postgres.PgDatabase
	imagesInfra  *minioInfra.MinioInfrastructure
	outboxWorker *kafka.OutboxWorker
	httpSrv      *v1Http.Server
	grpcSrv      *v1Grpc.GRPCServer
}

// NewApp подключается к Postgres, Redis, MinIO и Kafka и собирает слои сервиса.
// При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(forcedCloseTimeout, log),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		bgCancel()
		if closeErr := a.closer.Close(shutdownCtx); closeErr != nil {
			log.Errorf(closeErr, "failed to release resources after init error")
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	db, err := a.initPGDB(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.db = db
	a.closer.AddFunc("postgres", db.Close)

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{})
	saleRepo := pgdb.NewSaleRepo(db.Pool, pgdbConv.SaleConverter{}, a.logger)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})
	trManager := tr.NewManager(db.Pool)

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.ProductConverter{}, a.cfg.Redis, a.logger)

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsurePublicRead(ctx, minioClient, a.cfg.Minio.BucketName, minioInfra.ImagePrefix); err != nil {
		a.logger.Warnf("failed to set public read policy on %s, image URLs may be inaccessible: %v", a.cfg.Minio.BucketName, err)
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, a.cfg.Minio)
	a.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, a.cfg.Minio, a.logger, a.bgCtx)

	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })
	if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
		a.logger.Errorf(err, "failed to ensure kafka topic %s", a.cfg.Kafka.Topic)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// Закрытие идёт в обратном порядке: сначала дожидаемся очистки MinIO,
	// затем отменяем фоновые задачи и только после этого закрываем клиентов.
	a.closer.Add("background tasks", func(context.Context) error {
		a.bgCancel()
		return nil
	})
	a.closer.Add("minio cleanup", a.imagesInfra.WaitForCleanup)

	a.outboxWorker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, a.cfg.Outbox, db.Dsn)

	inventoryUC := usecase.NewInventoryUC(
		productRepo,
		saleRepo,
		outboxRepo,
		cacheRepo,
		a.imagesInfra,
		trManager,
		a.logger,
	)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(inventoryUC)
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.grpcSrv.RegisterServices()

	return nil
}

// Run запускает серверы и фоновые задачи и блокируется до сигнала остановки
// или падения одного из серверов. Затем выполняет graceful shutdown.
func (a *App) Run() error {
	a.outboxWorker.Start(a.bgCtx)
	a.closer.Add("outbox worker", a.outboxWorker.Stop)

	go a.grpcSrv.WatchHealth(a.bgCtx, a.cfg.Grpc.HealthInterval, a.db.Ping)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			grpcErrCh <- err
		}
	}()
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	httpErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- err
		}
	}()
	a.closer.Add("http server", a.httpSrv.Stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-httpErrCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func (a *App) initPGDB(ctx context.Context) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(a.logger); err != nil {
		db.Close()
		a.logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
