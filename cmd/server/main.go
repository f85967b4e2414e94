// Package main is the entry point for the song navigation server
//
//	@title			Song Navigation API
//	@version		1.0
//	@description	主日崇拜诗歌导航：首页展示本周与下周诗歌，管理端维护周次、歌曲、歌谱与音频
//
//	@contact.name	kylinpoet
//	@contact.url	https://github.com/kylinpoet/song-for-guoxi
//
//	@license.name	MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	AdminCookie
//	@in						cookie
//	@name					admin_token
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entgo.io/ent/dialect"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kylinpoet/song-for-guoxi/internal/config"
	"github.com/kylinpoet/song-for-guoxi/internal/db"
	"github.com/kylinpoet/song-for-guoxi/internal/esx"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
	"github.com/kylinpoet/song-for-guoxi/internal/mqx"
	"github.com/kylinpoet/song-for-guoxi/internal/redisx"
	"github.com/kylinpoet/song-for-guoxi/internal/s3x"
	"github.com/kylinpoet/song-for-guoxi/internal/server"
	"github.com/kylinpoet/song-for-guoxi/internal/store"

	_ "github.com/kylinpoet/song-for-guoxi/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// Load config (env first; optional Apollo override)
	cfg, cfgStore, apClose, err := config.Load()
	if err != nil {
		panic(err)
	}
	if apClose != nil {
		defer apClose()
	}

	logx.Init(cfg.Log.Level, cfg.Log.Format)
	mainLogger := logx.GetScope("main")

	mainLogger.Info("config loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.Server.Addr),
		zap.String("db.driver", cfg.DB.Driver),
		zap.String("log.level", cfg.Log.Level),
		zap.String("log.format", cfg.Log.Format),
	)

	database, closeDB, err := db.Open(cfg)
	if err != nil {
		mainLogger.Fatal("open db error", zap.Error(err))
	}
	defer closeDB()

	seed := db.Seed{ChurchName: cfg.Church.Name, AdminPassword: cfg.Church.AdminPassword}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureSchema(ctx, database, seed); err != nil {
		// retried per request by the schema guard
		mainLogger.Warn("ensure schema error", zap.Error(err))
	}
	cancel()

	st := store.New(database, store.ChurchConfig{ChurchName: cfg.Church.Name, AdminPassword: cfg.Church.AdminPassword})

	// Optional deps: Redis, MQ, ES, object storage
	rdb, redisClose, err := redisx.Open(cfg)
	if err != nil {
		mainLogger.Warn("redis init failed; cache disabled", zap.Error(err))
	} else {
		defer redisClose()
	}
	cache := redisx.NewCache(rdb, "songnav:", time.Duration(cfg.Redis.TTLSec)*time.Second)

	publisher, err := mqx.Open(cfg.MQ.URL, cfg.MQ.Exchange)
	if err != nil {
		mainLogger.Warn("mq init failed; events disabled", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	esClient, esClose, err := esx.Open(cfg)
	if err != nil {
		mainLogger.Warn("es init failed; search disabled", zap.Error(err))
	} else {
		defer esClose()
	}

	providers := &httpx.Providers{
		DB:         database,
		Seed:       seed,
		Store:      st,
		AdminToken: cfg.Admin.Token,
		Cache:      cache,
		MQ:         publisher,
		ES:         esClient,
		ESIndex:    cfg.ES.Index,
	}
	objects, err := s3x.Open(cfg)
	switch {
	case err != nil:
		mainLogger.Warn("object store init failed; uploads disabled", zap.Error(err))
	case objects == nil:
		mainLogger.Warn("object store not configured; uploads disabled")
	default:
		providers.Uploader = objects
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: kit.ErrorHandler(),
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
	})
	httpx.RegisterCommonMiddlewares(app)
	httpx.Register(app, providers)

	// Validators discard invalid dynamic updates
	cfgStore.AddValidator(config.ValidatePool)

	cfgStore.Watch(func(newCfg *config.Config, changed map[string]bool) {
		if (changed["db.max_open"] || changed["db.max_idle"]) && database.Dialect == dialect.Postgres {
			db.UpdatePool(newCfg.DB.MaxOpenConns, newCfg.DB.MaxIdleConns)
			mainLogger.Info("db pool updated",
				zap.Int("max_open", newCfg.DB.MaxOpenConns),
				zap.Int("max_idle", newCfg.DB.MaxIdleConns),
			)
		}
		for _, key := range []string{"db.url", "server.addr", "redis.addr", "mq.url", "es.addrs"} {
			if changed[key] {
				mainLogger.Warn("setting changed; restart required to take effect", zap.String("key", key))
			}
		}
		if changed["log.level"] || changed["log.format"] {
			logx.Init(newCfg.Log.Level, newCfg.Log.Format)
			mainLogger.Info("logger reconfigured",
				zap.String("level", newCfg.Log.Level),
				zap.String("format", newCfg.Log.Format),
			)
		}
	})

	// Graceful shutdown
	go func() {
		ln, err := server.GetListener(cfg.Server.Addr)
		if err != nil {
			mainLogger.Sugar().Errorf("listener error: %v", err)
			return
		}
		if err := app.Listener(ln); err != nil {
			mainLogger.Sugar().Infof("fiber exit: %v", err)
		}
	}()
	mainLogger.Sugar().Infof("server started on %s", cfg.Server.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	mainLogger.Sugar().Info("shutting down...")
	_ = app.ShutdownWithTimeout(10 * time.Second)
}
