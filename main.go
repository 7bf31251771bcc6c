package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/handlers"
	"github.com/tech-monarch/schepen-kring-sub003/kafka"
	"github.com/tech-monarch/schepen-kring-sub003/limiter"
	"github.com/tech-monarch/schepen-kring-sub003/llm"
	"github.com/tech-monarch/schepen-kring-sub003/middleware"
	"github.com/tech-monarch/schepen-kring-sub003/signature"
	"github.com/tech-monarch/schepen-kring-sub003/websocket"
)

func main() {
	// .env не обязателен
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()
	if envErr != nil {
		logger.Debug("Файл .env не найден, используем переменные окружения")
	}
	if cfg.UsesDevJWTSecret() {
		logger.Warn("JWT_SECRET_KEY не установлен, используется ключ для разработки")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Хранилище арендаторов
	var store database.TenantStore
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL, database.Migrations(), logger); err != nil {
			logger.Fatal("Ошибка миграций", zap.Error(err))
		}
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
		}
		defer pool.Close()
		store = database.NewPGStore(pool)
		logger.Info("хранилище: postgres")
	} else {
		store = database.NewMemoryStore()
		logger.Warn("DATABASE_URL не задан, арендаторы хранятся в памяти")
	}

	// ─── Лимитер чата
	var chatLimiter limiter.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Ошибка подключения к Redis", zap.Error(err))
		}
		chatLimiter = limiter.NewManager(rdb, limiter.StrategyByName(cfg.ChatRateStrategy))
		logger.Info("лимитер: redis", zap.String("strategy", cfg.ChatRateStrategy))
	} else {
		chatLimiter = limiter.NewMemory()
		logger.Info("лимитер: в памяти")
	}

	// ─── События виджета
	var publisher kafka.Publisher = kafka.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.Options{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			Username: cfg.KafkaUsername,
			Password: cfg.KafkaPassword,
		}, logger)
		if err != nil {
			logger.Fatal("Ошибка подключения к Kafka", zap.Error(err))
		}
		publisher = producer
		logger.Info("события: kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	// ─── LLM
	responder := llm.NewResponder(llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}), logger)

	// Инициализация WebSocket хаба
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// ─── HTTP
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(cors.New(corsConfig(cfg)))

	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Store:     store,
		Responder: responder,
		Limiter:   chatLimiter,
		Publisher: publisher,
		Hub:       hub,
		Tokens:    middleware.NewTokens(cfg.JWTSecret),
		Logger:    logger,
	})
	h.Register(r)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Сервер запущен", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки сервера", zap.Error(err))
	}
	// события, отправленные после ответа, дописываются до закрытия producer'а
	h.Wait()
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

// corsConfig открывает API виджета для сайтов арендаторов.
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{signature.Header, "X-Answer24-Visible", "Retry-After"},
	}
	if cfg.AllowsAllOrigins() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}
	return c
}
