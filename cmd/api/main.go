package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmisian/internal/cart"
	"farmisian/internal/cart/redisstore"
	"farmisian/internal/chat"
	"farmisian/internal/config"
	"farmisian/internal/db"
	"farmisian/internal/docstore"
	"farmisian/internal/events"
	"farmisian/internal/httpserver"
	"farmisian/internal/logging"
	categoryrepo "farmisian/internal/repository/category"
	cartrepo "farmisian/internal/repository/cart"
	customerrepo "farmisian/internal/repository/customer"
	orderrepo "farmisian/internal/repository/order"
	productrepo "farmisian/internal/repository/product"
	tokenrepo "farmisian/internal/repository/token"
	cartsvc "farmisian/internal/service/cart"
	categorysvc "farmisian/internal/service/category"
	chatsvc "farmisian/internal/service/chat"
	"farmisian/internal/service/checkout"
	customersvc "farmisian/internal/service/customer"
	ordersvc "farmisian/internal/service/order"
	productsvc "farmisian/internal/service/product"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	chatNodeID     = 1
	janitorEvery   = time.Minute
	idleSessionTTL = 30 * time.Minute
)

func main() {
	cfg := config.FromEnv()
	base, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = base.Sync() }()
	logger := base.Named("api")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	mongoClient, err := docstore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("connect to mongo", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Carts still work in memory; persistence resumes once redis is back.
		logger.Warn("redis not reachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	ids, err := snowflake.NewNode(chatNodeID)
	if err != nil {
		logger.Fatal("init id node", zap.Error(err))
	}

	productRepo := productrepo.NewPostgres(dbpool, logger.Named("products"))
	productService := productsvc.New(productRepo, logger.Named("products"))
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool), logger.Named("customers"))

	orders := orderrepo.NewMongoRepository(mongoClient.Database(cfg.MongoDB))
	if err := orderrepo.EnsureIndexes(ctx, orders); err != nil {
		logger.Fatal("ensure order indexes", zap.Error(err))
	}
	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaOrdersTopic, logger.Named("events"))
	defer func() { _ = publisher.Close() }()

	var (
		cartStore  cart.Store
		staleCarts staleCartPurger
	)
	switch cfg.CartStore {
	case config.CartStorePostgres:
		repo := cartrepo.NewPostgres(dbpool, cfg.CartTTL)
		cartStore, staleCarts = repo, repo
	case config.CartStoreRedis:
		cartStore = redisstore.New(rdb, cfg.CartKeyPrefix, cfg.CartTTL)
	default:
		logger.Fatal("unknown cart store", zap.String("store", cfg.CartStore))
	}
	logger.Info("cart store selected", zap.String("store", cfg.CartStore))
	cartService := cartsvc.New(productService, cartStore, logger.Named("cart"))
	checkoutService := checkout.New(cartService, orders, publisher, logger.Named("checkout"))
	orderService := ordersvc.New(orders, productService, customerService, logger.Named("orders"))
	chatService := chatsvc.New(chat.NewMatcher(), ids, cartService,
		chat.RandomDelay(cfg.ChatReplyDelay, cfg.ChatReplyJitter), logger.Named("chat"))
	defer chatService.CloseAll()

	srv, err := httpserver.New(cfg.HTTPAddr, logger.Named("http"), httpserver.Deps{
		ProductSvc:  productService,
		CategorySvc: categoryService,
		CustomerSvc: customerService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		OrderSvc:    orderService,
		ChatSvc:     chatService,
		Probes: map[string]httpserver.Probe{
			"postgres": dbpool.Ping,
			"mongo": func(ctx context.Context) error {
				return mongoClient.Ping(ctx, readpref.Primary())
			},
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		j := janitor{
			logger:     logger.Named("janitor"),
			carts:      cartService,
			chats:      chatService,
			tokens:     customerService,
			staleCarts: staleCarts,
			cartTTL:    cfg.CartTTL,
		}
		j.run(janitorCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	stopJanitor()
	<-janitorDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

type idleEvictor interface {
	EvictIdle(cutoff time.Time) int
}

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type staleCartPurger interface {
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// janitor drops idle carts and conversations from memory and purges expired
// tokens. Redis expires carts itself; the postgres store is swept here.
type janitor struct {
	logger     *zap.Logger
	carts      idleEvictor
	chats      idleEvictor
	tokens     tokenPurger
	staleCarts staleCartPurger
	cartTTL    time.Duration
}

func (j janitor) run(ctx context.Context) {
	ticker := time.NewTicker(janitorEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			j.sweep(ctx, now)
		}
	}
}

func (j janitor) sweep(ctx context.Context, now time.Time) {
	cutoff := now.Add(-idleSessionTTL)
	c, s := j.carts.EvictIdle(cutoff), j.chats.EvictIdle(cutoff)
	if c+s > 0 {
		j.logger.Debug("idle sessions evicted", zap.Int("carts", c), zap.Int("chats", s))
	}
	if _, err := j.tokens.PurgeExpiredTokens(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("purge expired tokens", zap.Error(err))
	}
	if j.staleCarts != nil && j.cartTTL > 0 {
		n, err := j.staleCarts.DeleteStale(ctx, now.Add(-j.cartTTL))
		if err != nil && ctx.Err() == nil {
			j.logger.Warn("purge stale carts", zap.Error(err))
		} else if n > 0 {
			j.logger.Debug("stale carts purged", zap.Int64("count", n))
		}
	}
}
