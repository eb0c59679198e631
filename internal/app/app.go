// Package app 组装商城客户端的各个组件并管理它们的生命周期。
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/api"
	"github.com/MorseWayne/storefront/internal/basket"
	"github.com/MorseWayne/storefront/internal/cache"
	"github.com/MorseWayne/storefront/internal/config"
	"github.com/MorseWayne/storefront/internal/database"
	"github.com/MorseWayne/storefront/internal/gateway"
	"github.com/MorseWayne/storefront/internal/limiter"
	mw "github.com/MorseWayne/storefront/internal/middleware"
	"github.com/MorseWayne/storefront/internal/mq"
	"github.com/MorseWayne/storefront/internal/router"
	"github.com/MorseWayne/storefront/internal/service"
	"github.com/MorseWayne/storefront/internal/storage"
)

// App 持有所有已初始化的组件
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry

	Storage  storage.Storage
	Cache    cache.Cache
	Gateway  *gateway.Client
	Cart     *basket.Cart
	Wishlist *basket.Wishlist
	Shop     service.ShopService

	limiter   limiter.Limiter
	redis     *redis.Client
	db        *database.DB
	mqConn    *mq.Connection
	publisher *mq.BasketEventPublisher
	closers   []func() error
}

// New 按配置初始化全部组件；任何一步失败都会释放已创建的资源
func New(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*App, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: lg, Registry: prometheus.NewRegistry()}
	ready := false
	defer func() {
		if !ready {
			_ = a.Close()
		}
	}()

	var err error
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if a.Storage, err = a.initStorage(); err != nil {
		return nil, err
	}
	if a.Cache, err = a.initCache(); err != nil {
		return nil, err
	}

	a.Gateway, err = gateway.New(gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		StorePrefix: cfg.Gateway.StorePrefix,
		Timeout:     cfg.Gateway.Timeout,
		MinInterval: cfg.Gateway.MinInterval,
		CacheTTL:    cfg.Gateway.CacheTTL,
		Retry: gateway.RetryConfig{
			MaxAttempts: cfg.Gateway.RetryMax,
			Backoff:     cfg.Gateway.RetryBackoff,
		},
	}, a.Storage,
		gateway.WithCache(a.Cache),
		gateway.WithMetrics(gateway.NewMetrics(a.Registry)),
		gateway.WithLogger(lg.Named("gateway")),
	)
	if err != nil {
		return nil, fmt.Errorf("init gateway: %w", err)
	}
	if err = a.Gateway.Init(ctx); err != nil {
		return nil, fmt.Errorf("init gateway: %w", err)
	}
	a.closers = append(a.closers, a.Gateway.Dispose)

	a.Cart = basket.NewCart(a.Storage, lg.Named("cart"))
	a.Wishlist = basket.NewWishlist(a.Storage, lg.Named("wishlist"))
	if err = a.initPublisher(); err != nil {
		return nil, err
	}

	a.Shop = service.NewShopService(a.Gateway, a.Cart, a.Wishlist, lg.Named("shop"))

	if cfg.RateLimit.Enabled {
		client, rerr := a.redisClient()
		if rerr != nil {
			return nil, rerr
		}
		a.limiter, err = limiter.NewFixedWindowLimiter(client, limiter.Config{
			Rate:      cfg.RateLimit.Rate,
			Window:    cfg.RateLimit.Window,
			KeyPrefix: cfg.Redis.KeyPrefix + "ratelimit",
		})
		if err != nil {
			return nil, fmt.Errorf("init rate limiter: %w", err)
		}
	}

	lg.Sugar().Infow("storefront initialized",
		"endpoint", a.Gateway.Endpoint(),
		"storage", cfg.Storage.Driver,
		"cache", a.cacheType(),
		"authenticated", a.Gateway.IsAuthenticated(),
	)
	ready = true
	return a, nil
}

func (a *App) redisClient() (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := cache.NewRedisClient(a.Config.Redis.Addr(), a.Config.Redis.Password, a.Config.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", a.Config.Redis.Addr(), err)
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

func (a *App) initStorage() (storage.Storage, error) {
	cfg := a.Config
	var st storage.Storage

	switch cfg.Storage.Driver {
	case "memory":
		st = storage.NewMemoryStorage()
	case "file":
		fs, err := storage.NewFileStorage(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		st = fs
	case "redis":
		client, err := a.redisClient()
		if err != nil {
			return nil, err
		}
		st = storage.NewRedisStorage(client, cfg.Redis.KeyPrefix)
	case "mysql":
		db, err := database.New(cfg, a.Logger.Named("database"))
		if err != nil {
			return nil, err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		st = storage.NewSQLStorage(db.DB)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if c, ok := st.(storage.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	if cfg.Storage.Secret != "" {
		st = storage.NewSealedStorage(st, cfg.Storage.Secret)
	}
	return st, nil
}

func (a *App) initCache() (cache.Cache, error) {
	cfg := a.Config
	if !cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Type {
	case "redis":
		client, err := a.redisClient()
		if err != nil {
			a.Logger.Sugar().Warnw("failed to connect to Redis, falling back to memory cache", "error", err)
			return cache.NewMemoryCache(), nil
		}
		return cache.NewRedisCache(client, cfg.Redis.KeyPrefix), nil
	case "memory", "":
		return cache.NewMemoryCache(), nil
	default:
		a.Logger.Sugar().Warnw("unknown cache type, using memory cache", "type", cfg.Cache.Type)
		return cache.NewMemoryCache(), nil
	}
}

func (a *App) cacheType() string {
	switch a.Cache.(type) {
	case *cache.RedisCache:
		return "redis"
	case *cache.NullCache:
		return "disabled"
	default:
		return "memory"
	}
}

// initPublisher 开启 MQ 时把变更事件发布器注册为两个篮子的观察者
// 连接失败只记录警告，购物车照常工作
func (a *App) initPublisher() error {
	cfg := a.Config.MQ
	if !cfg.Enabled {
		return nil
	}

	conn, err := mq.Dial(cfg.URL, a.Logger.Named("mq"))
	if err != nil {
		a.Logger.Sugar().Warnw("basket events disabled", "err", err)
		return nil
	}
	a.mqConn = conn
	a.closers = append(a.closers, conn.Close)

	a.publisher, err = mq.NewBasketEventPublisher(conn, mq.PublisherConfig{
		Exchange:   cfg.Exchange,
		RoutingKey: cfg.RoutingKey,
		Source:     a.Config.App.Name,
	}, a.Logger.Named("mq"))
	if err != nil {
		return fmt.Errorf("init basket event publisher: %w", err)
	}
	// 发布器需要在连接之前关闭，以便发送完队列中的消息
	a.closers = append(a.closers, a.publisher.Close)

	a.Cart.AddObserver(a.publisher)
	a.Wishlist.AddObserver(a.publisher)
	return nil
}

// Health 检查各依赖
func (a *App) Health(ctx context.Context) map[string]error {
	checks := map[string]error{
		"cache": a.Cache.Ping(ctx),
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping(ctx).Err()
	}
	if a.db != nil {
		checks["database"] = a.db.PingContext(ctx)
	}
	if a.mqConn != nil {
		if s := a.mqConn.State(); s != mq.StateConnected {
			checks["mq"] = fmt.Errorf("rabbitmq %s", s)
		} else {
			checks["mq"] = nil
		}
	}
	return checks
}

// Handler 返回挂好中间件的本地 HTTP API
// 请求进入时依次经过 request ID → access log → CORS → timeout → recovery
func (a *App) Handler() http.Handler {
	lg := a.Logger
	deps := &router.Dependencies{
		BasketHandler:  api.NewBasketHandler(a.Shop, lg.Named("api")),
		CatalogHandler: api.NewCatalogHandler(a.Gateway, lg.Named("api")),
		AuthHandler:    api.NewAuthHandler(a.Gateway, lg.Named("api")),
		Limiter:        a.limiter,
		Gatherer:       a.Registry,
		Health:         a.Health,
	}
	engine := router.New().Setup(a.Config, deps, lg)

	return mw.Chain(engine,
		mw.RequestID,
		mw.AccessLog(lg, mw.NewHTTPMetrics(a.Registry)),
		mw.CORS(mw.CORSConfig{
			AllowedOrigins: a.Config.CORS.AllowedOrigins,
			AllowedMethods: a.Config.CORS.AllowedMethods,
			AllowedHeaders: a.Config.CORS.AllowedHeaders,
		}),
		mw.Timeout(a.Config.App.RequestTimeout),
		mw.Recovery(lg),
	)
}

// Close 按创建的逆序释放资源
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
