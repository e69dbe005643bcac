package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/config"
	"github.com/henriquelv/pharma-well-care/internal/handler"
	"github.com/henriquelv/pharma-well-care/internal/infra/cache"
	"github.com/henriquelv/pharma-well-care/internal/infra/db"
	"github.com/henriquelv/pharma-well-care/internal/infra/event"
	infraRepo "github.com/henriquelv/pharma-well-care/internal/infra/repository"
	"github.com/henriquelv/pharma-well-care/internal/infra/search"
	"github.com/henriquelv/pharma-well-care/internal/infra/telemetry"
	"github.com/henriquelv/pharma-well-care/internal/logging"
	"github.com/henriquelv/pharma-well-care/internal/repository"
	"github.com/henriquelv/pharma-well-care/internal/server"
	"github.com/henriquelv/pharma-well-care/internal/usecase"
	auth "github.com/henriquelv/pharma-well-care/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	bcryptCost     = 12
	janitorEvery   = time.Minute
	shutdownWithin = 10 * time.Second
)

// イベント送信先（Kafka or 何もしない）
type eventPublisher interface {
	usecase.OrderEventPublisher
	Close() error
}

func main() {
	//.envは無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	shutdownTracing, err := telemetry.Setup(cfg.OTelEnabled, "pharma-well-care", os.Stdout)
	if err != nil {
		return err
	}

	//DB接続
	gormDB, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	if seeded, err := db.Seed(ctx, gormDB); err != nil {
		return err
	} else if seeded {
		logger.Info("catalog seeded")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//カートの退避先
	var snapshots repository.CartSnapshotRepository = cache.NewCartSnapshotMemory(cfg.CartSnapshotTTL)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		snapshots = cache.NewCartSnapshotRedis(redisClient, cfg.CartSnapshotTTL)
		logger.Info("cart snapshots on redis", zap.String("addr", cfg.RedisAddr))
	}

	//注文イベント
	var events eventPublisher = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		events = event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		logger.Info("order events on kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	//商品検索（未設定ならnilのままでDBのLIKE）
	var searchIndex usecase.ProductSearchIndex
	if cfg.ElasticsearchURL != "" {
		es, err := search.NewClient(cfg.ElasticsearchURL, cfg.ElasticsearchUser, cfg.ElasticsearchPassword)
		if err != nil {
			return err
		}
		searchIndex = search.NewProductIndex(es, cfg.ElasticsearchIndex)
	}

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	authClock := auth.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(bcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(productRepo, snapshots, clock, cfg.CartSnapshotTTL)
	orderUC := usecase.NewOrderUsecase(txm, cartUC, snapshots, events, clock)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, events, clock)
	productUC := usecase.NewProductUsecase(productRepo, txm, searchIndex, clock)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	dashboardUC := usecase.NewDashboardUsecase(productRepo, orderRepo, clock, cfg.Location(), cfg.LowStockThreshold)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, authClock)
	registerUC := auth.NewRegisterStaffUsecase(userRepo, hasher, authClock)
	staffUC := auth.NewStaffAccountsUsecase(userRepo, auditRepo, authClock)
	forceLogoutUC := auth.NewForceLogoutUsecase(userRepo, auditRepo, authClock)

	//初回起動時の管理者
	if cfg.AdminEmail != "" {
		created, err := registerUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			logger.Info("admin user created", zap.String("email", cfg.AdminEmail))
		}
	}

	if searchIndex != nil {
		n, err := productUC.Reindex(ctx)
		if err != nil {
			logger.Warn("product reindex failed", zap.Error(err))
		} else {
			logger.Info("products indexed", zap.Int("count", n))
		}
	}

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(loginUC),
		AdminUser:    handler.NewAdminUserHandler(registerUC, staffUC, forceLogoutUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Product:      handler.NewProductHandler(productUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, cfg.Location()),
		AdminReport:  handler.NewAdminReportHandler(dashboardUC, auditUC),
	}

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	srv := server.New(addr, logger, server.RouteConfig{
		JWTSecret:        cfg.JWTSecret,
		UserRepo:         userRepo,
		CartCookieMaxAge: cfg.CartSnapshotTTL,
	}, handlers)

	//放置カートの退避
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go cartUC.RunJanitor(janitorCtx, janitorEvery, cfg.CartSessionIdle)

	//Server起動
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", addr))
		errCh <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWithin)
	defer cancel()
	shutdownCtx = logging.IntoContext(shutdownCtx, logger)

	//新しいリクエストを止めてからカートを退避する
	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	stopJanitor()
	if err := cartUC.FlushAll(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := events.Close(); err != nil {
		errs = append(errs, err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	return errors.Join(errs...)
}
