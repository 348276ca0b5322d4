package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"squabble_server/internal/bot"
	"squabble_server/internal/cache"
	"squabble_server/internal/config"
	"squabble_server/internal/db"
	"squabble_server/internal/game"
	httpServer "squabble_server/internal/http"
	"squabble_server/internal/logger"
	"squabble_server/internal/repository"
	"squabble_server/internal/service"
	"squabble_server/internal/ton"
	"squabble_server/internal/ws"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", "error", err)
	}
	defer dbPool.Close()
	if err := db.EnsureSchema(ctx, dbPool); err != nil {
		logger.Fatal("schema apply failed", "error", err)
	}

	var sessionCache service.SessionCache
	if cfg.RedisURL != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis connect failed", "error", err)
		}
		defer rdb.Close()
		sessionCache = cache.NewRedisStore(rdb)
	} else {
		log.Warn("REDIS_URL not set - rooms will not survive restart")
		sessionCache = cache.NewMemoryStore()
	}

	dict, err := game.LoadWordListFile(cfg.DictionaryPath)
	if err != nil {
		logger.Fatal("dictionary load failed", "path", cfg.DictionaryPath, "error", err)
	}
	log.Info("dictionary loaded", "words", dict.Len())

	games := repository.NewGameRepository(dbPool)
	ledger := repository.NewParticipantRepository(dbPool)
	auditRepo := repository.NewAuditRepository(dbPool)
	audit := service.NewAuditService(auditRepo)

	chain, stakes := setupTON(ctx, cfg, log)

	var notifier service.Notifier = service.NoopNotifier{}
	if cfg.BotToken != "" {
		n, err := bot.NewNotifier(cfg.BotToken)
		if err != nil {
			log.Error("telegram notifier disabled", "error", err)
		} else {
			notifier = n
		}
	}

	registry := service.NewRoomRegistry(games, sessionCache, cfg.GameDurationSeconds(), cfg.SessionTTL)
	settlement := service.NewSettlementCoordinator(games, ledger, chain, notifier, audit, cfg.CallTimeout)
	hub := ws.NewHub()

	sessions := service.NewSessionService(service.SessionDeps{
		Registry:   registry,
		Games:      games,
		Ledger:     ledger,
		Dictionary: dict,
		Letters:    game.NewLetterBag(),
		Chain:      chain,
		Stakes:     stakes,
		Out:        hub,
		Audit:      audit,
		Settlement: settlement,
	}, service.SessionConfig{TickInterval: cfg.TickInterval, CallTimeout: cfg.CallTimeout})
	defer sessions.Close()

	if n, err := sessions.Recover(ctx); err != nil {
		log.Error("room recovery failed", "error", err)
	} else if n > 0 {
		log.Info("rooms recovered", "count", n)
	}

	auth := service.NewAuthenticator(cfg.JWTSecret, cfg.BotToken)
	if !auth.Enabled() {
		log.Warn("JWT_SECRET and BOT_TOKEN not set - websocket connections are anonymous")
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpServer.NewRouter(ctx, httpServer.Deps{
		Rooms: sessions,
		Audit: auditRepo,
		Auth:  auth,
		WS: ws.NewHandler(hub, sessions, auth, ws.Options{
			AllowedOrigin: cfg.AllowedOrigin,
			RatePerSecond: cfg.WSMessagesPerSecond,
			Burst:         cfg.WSBurst,
			BaseContext:   ctx,
		}),
		AllowedOrigin: cfg.AllowedOrigin,
		APIRatePerSec: cfg.APIRequestsPerSec,
		APIBurst:      cfg.APIBurst,
		Version:       Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

// setupTON - без кошелька и контракта вызовы контракта пропускаются
func setupTON(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.ChainSettler, service.StakeVerifier) {
	network := ton.ParseNetwork(cfg.TONNetwork)

	var chain service.ChainSettler = service.NoopSettler{}
	if cfg.TONWalletMnemonic != "" && cfg.SettlementContract != "" {
		w, err := ton.NewWallet(ctx, cfg.TONWalletMnemonic, network)
		if err != nil {
			log.Error("ton wallet init failed - contract calls disabled", "error", err)
		} else if s, err := ton.NewSettlement(w, cfg.SettlementContract); err != nil {
			log.Error("settlement contract invalid - contract calls disabled", "error", err)
		} else {
			chain = s
			log.Info("ton settlement enabled", "wallet", w.Address(), "network", network)
		}
	} else {
		log.Warn("TON_WALLET_MNEMONIC or TON_SETTLEMENT_CONTRACT not set - contract calls disabled")
	}

	var stakes service.StakeVerifier
	if cfg.StakeVerify && cfg.SettlementContract != "" {
		v, err := ton.NewStakeVerifier(ton.NewClient(network, cfg.TONAPIKey), cfg.SettlementContract)
		if err != nil {
			log.Error("stake verification disabled", "error", err)
		} else {
			stakes = v
		}
	}
	return chain, stakes
}
