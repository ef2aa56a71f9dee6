package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/uni-finance-api/api/swagger"
	"github.com/noah-isme/uni-finance-api/internal/handler"
	"github.com/noah-isme/uni-finance-api/internal/middleware"
	"github.com/noah-isme/uni-finance-api/internal/repository"
	"github.com/noah-isme/uni-finance-api/internal/service"
	"github.com/noah-isme/uni-finance-api/pkg/cache"
	"github.com/noah-isme/uni-finance-api/pkg/config"
	"github.com/noah-isme/uni-finance-api/pkg/database"
	"github.com/noah-isme/uni-finance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-finance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-finance-api/pkg/middleware/requestid"
	"github.com/noah-isme/uni-finance-api/pkg/storage"
)

// @title University Finance API
// @version 0.1.0
// @description Fee catalog, student fee ledger and reconciliation engine
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Fees.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cfg.Fees.CacheEnabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	categoryRepo := repository.NewFeeCategoryRepository(db)
	structureRepo := repository.NewFeeStructureRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	balanceRepo := repository.NewFeeBalanceRepository(db)
	additionalFeeRepo := repository.NewAdditionalFeeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	legacyRepo := repository.NewLegacyBalanceRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Fees.SummaryCacheTTL, logr, cfg.Fees.CacheEnabled)
	catalogSvc := service.NewCatalogService(categoryRepo, structureRepo, validate, logr)
	balanceSvc := service.NewBalanceService(balanceRepo, structureRepo, additionalFeeRepo, cacheSvc,
		cfg.Fees.DefaultDueWindow, cfg.Fees.SummaryCacheTTL, validate, logr)
	reconciliationSvc := service.NewReconciliationService(balanceRepo, paymentRepo, cacheSvc, metricsSvc, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, structureRepo, studentRepo, balanceSvc,
		balanceRepo, reconciliationSvc, cacheSvc, metricsSvc, cfg.Fees.DefaultDueWindow, validate, logr)
	additionalFeeSvc := service.NewAdditionalFeeService(additionalFeeRepo, studentRepo, cacheSvc, metricsSvc,
		cfg.Fees.DefaultDueWindow, validate, logr)
	migrationSvc := service.NewMigrationService(legacyRepo, categoryRepo, structureRepo, balanceRepo,
		cacheSvc, cfg.Fees.DefaultDueWindow, logr)

	var statementSvc *service.StatementService
	if cfg.Statements.Enabled {
		archive, err := storage.NewLocalStorage(cfg.Statements.ArchiveDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init statement archive", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Statements.DownloadSecret, cfg.Statements.DownloadTTL)
		statementSvc = service.NewStatementService(balanceRepo, studentRepo, additionalFeeRepo,
			archive, signer, cfg.Statements.Institution, logr)
	}

	categoryHandler := handler.NewFeeCategoryHandler(catalogSvc)
	structureHandler := handler.NewFeeStructureHandler(catalogSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	balanceHandler := handler.NewBalanceHandler(balanceSvc, statementSvc)
	additionalFeeHandler := handler.NewAdditionalFeeHandler(additionalFeeSvc)
	adminHandler := handler.NewAdminHandler(reconciliationSvc, migrationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/fee-categories", categoryHandler.List)
		api.POST("/fee-categories", categoryHandler.Create)
		api.GET("/fee-categories/:id", categoryHandler.Get)
		api.PUT("/fee-categories/:id", categoryHandler.Update)
		api.DELETE("/fee-categories/:id", categoryHandler.Delete)

		api.GET("/fee-structures", structureHandler.List)
		api.POST("/fee-structures", structureHandler.Create)
		api.GET("/fee-structures/:id", structureHandler.Get)
		api.PUT("/fee-structures/:id", structureHandler.Update)
		api.POST("/fee-structures/:id/deactivate", structureHandler.Deactivate)
		api.POST("/fee-structures/:id/reactivate", structureHandler.Reactivate)
		api.POST("/fee-structures/:id/assign-all", assignmentHandler.AssignToAll)

		api.POST("/assignments", assignmentHandler.Assign)
		api.POST("/assignments/bulk", assignmentHandler.BulkAssign)
		api.DELETE("/assignments/:id", assignmentHandler.Remove)

		api.GET("/balances", balanceHandler.List)
		api.POST("/balances/:id/payments", balanceHandler.ApplyPayment)

		api.GET("/students/:studentNumber/balances", balanceHandler.ListByStudent)
		api.GET("/students/:studentNumber/balances/summary", balanceHandler.Summary)
		api.POST("/students/:studentNumber/balances/generate/:structureId", balanceHandler.Generate)
		api.POST("/students/:studentNumber/balances/recalculate", balanceHandler.Recalculate)
		api.GET("/students/:studentNumber/statement", balanceHandler.Statement)
		api.GET("/students/:studentNumber/statement/link", balanceHandler.StatementLink)
		api.GET("/statements/:token", balanceHandler.StatementDownload)
		api.GET("/students/:studentNumber/additional-fees", additionalFeeHandler.ListStudentFees)

		api.GET("/additional-fees", additionalFeeHandler.List)
		api.POST("/additional-fees", additionalFeeHandler.Create)
		api.GET("/additional-fees/:id", additionalFeeHandler.Get)
		api.PUT("/additional-fees/:id", additionalFeeHandler.Update)
		api.DELETE("/additional-fees/:id", additionalFeeHandler.Delete)
		api.POST("/additional-fees/:id/apply", additionalFeeHandler.Apply)

		api.POST("/admin/reconciliation/run", adminHandler.Reconcile)
		api.POST("/admin/reconciliation/statuses", adminHandler.RefreshStatuses)
		api.POST("/admin/migration/legacy-balances", adminHandler.Migrate)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
