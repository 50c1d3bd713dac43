package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	httpapi "storefront/internal/http"
	"storefront/internal/media"
	"storefront/internal/repository"
	"storefront/internal/service"

	_ "storefront/docs"
)

// @title Storefront API
// @version 1.0
// @description Catalog, cart and cash-on-delivery checkout.
// @BasePath /api
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := newLogger(cfg)
	defer log.Sync()
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	// prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	var (
		users    userStore
		products repository.ProductRepository
		orders   repository.OrderRepository
		tx       repository.TxManager
	)
	switch cfg.Store {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoStore, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		cancel()
		if err != nil {
			log.Fatal("mongo connect failed", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoStore.Close(ctx); err != nil {
				log.Warn("mongo disconnect", zap.Error(err))
			}
		}()
		users, products, orders, tx = mongoStore.Users(), mongoStore.Products(), mongoStore.Orders(), mongoStore.Tx(cfg.MongoTx)
		log.Info("using mongo store", zap.String("database", cfg.MongoDatabase), zap.Bool("transactions", cfg.MongoTx))
	default:
		store := repository.NewMemoryStore()
		users, products, orders, tx = repository.NewMemoryUsers(store), store, repository.NewMemoryOrders(store), repository.NewMemoryTx(store)
		log.Info("using memory store")
	}

	var (
		images    media.Store
		localImgs httpapi.ImageFiles
	)
	switch cfg.Media {
	case config.MediaCloudinary:
		cld, err := media.NewCloudinary(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudSecret, "products")
		if err != nil {
			log.Fatal("cloudinary setup failed", zap.Error(err))
		}
		images = cld
	default:
		mem := media.NewMemory("/media/")
		images, localImgs = mem, mem
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	svc := httpapi.Services{
		Users:    service.NewUserService(users, tokens, service.AdminCredentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword}, log),
		Products: service.NewProductService(products, images, log),
		Carts:    service.NewCartService(users, log),
		Orders:   service.NewOrderService(users, products, orders, tx, cfg.DeliveryFee, log),
		Images:   localImgs,
	}
	srv := httpapi.NewServer(svc, tokens, log, cfg.AllowedOrigins)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

type userStore interface {
	repository.UserRepository
	repository.CartRepository
}

func newLogger(cfg config.Config) *zap.Logger {
	build := zap.NewProduction
	if cfg.Development() {
		build = zap.NewDevelopment
	}
	log, err := build()
	if err != nil {
		return zap.NewNop()
	}
	return log.With(zap.String("service", "storefront"))
}
