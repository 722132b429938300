package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/harvest-market-backend/internal/config"
	"github.com/shinyyama/harvest-market-backend/internal/dispatch"
	"github.com/shinyyama/harvest-market-backend/internal/handler"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/lock"
	appmw "github.com/shinyyama/harvest-market-backend/internal/middleware"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options carries the process-level collaborators. Zero values fall back to
// dev auth, an in-process locker and a no-op publisher.
type Options struct {
	AuthMode                string
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	Locker                  lock.Locker
	Publisher               dispatch.Publisher
	SHA                     string
	BuildTime               string
}

type Server struct {
	e     *echo.Echo
	log   *logrus.Logger
	setDB []func(*gorm.DB)
	ready atomic.Bool
}

// New builds the echo app. db may be nil; repositories answer
// repository.ErrDBNotReady until SetDB is called.
func New(db *gorm.DB, log *logrus.Logger, opts Options) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.DevUIDHeader},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			return strings.HasSuffix(u.Hostname(), "vercel.app"), nil
		},
	}))

	s := &Server{e: e, log: log}

	txm := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	farmRepo := repository.NewFarmRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	productRepo := repository.NewProductRepository(db)
	cropRepo := repository.NewCropRepository(db)
	supplyRepo := repository.NewMarketSupplyRepository(db)
	preOrderRepo := repository.NewPreOrderRepository(db)
	detailRepo := repository.NewOrderDetailRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	s.setDB = []func(*gorm.DB){
		txm.SetDB, userRepo.SetDB, farmRepo.SetDB, vendorRepo.SetDB, productRepo.SetDB,
		cropRepo.SetDB, supplyRepo.SetDB, preOrderRepo.SetDB, detailRepo.SetDB, notificationRepo.SetDB,
	}
	if db != nil {
		s.ready.Store(true)
	}

	locker := opts.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = dispatch.NopPublisher{}
	}

	supplySvc := service.NewSupplyService(cropRepo, supplyRepo)
	notificationSvc := service.NewNotificationService(notificationRepo, farmRepo, preOrderRepo)
	deps := service.Deps{
		Tx:        txm,
		PreOrders: preOrderRepo,
		Details:   detailRepo,
		Products:  productRepo,
		Supply:    supplySvc,
		Notifier:  notificationSvc,
		Status:    service.NewStatusAggregator(preOrderRepo, detailRepo),
		Locker:    locker,
		Publisher: publisher,
		Logger:    log,
	}
	offerSvc := service.NewOfferService(deps)
	preOrderSvc := service.NewPreOrderService(deps)
	productSvc := service.NewProductService(productRepo)

	preOrderHandler := handler.NewPreOrderHandler(preOrderSvc, offerSvc, log)
	offerHandler := handler.NewOfferHandler(offerSvc, log)
	supplyHandler := handler.NewSupplyHandler(supplySvc, log)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, log)
	productHandler := handler.NewProductHandler(productSvc, log)

	resolver := identity.NewResolver(userRepo, farmRepo, vendorRepo)
	var authMw *appmw.AuthMiddleware
	switch opts.AuthMode {
	case config.AuthModeFirebase:
		mw, err := appmw.NewAuthMiddleware(context.Background(), opts.FirebaseProjectID, opts.FirebaseCredentialsFile, resolver)
		if err != nil {
			return nil, fmt.Errorf("init firebase auth: %w", err)
		}
		authMw = mw
	default:
		log.Warn("dev auth enabled: requests are trusted via " + appmw.DevUIDHeader)
		authMw = appmw.NewDevAuthMiddleware(resolver)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"db_ready":   fmt.Sprint(s.ready.Load()),
			"git_sha":    opts.SHA,
			"build_time": opts.BuildTime,
		})
	})

	api := e.Group("/api", s.requireDB)
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.GET("/market-supplies", supplyHandler.ListAvailable)
	api.GET("/pre-orders/trending", preOrderHandler.Trending)

	authed := api.Group("", authMw.RequireAuth)
	authed.POST("/pre-orders", preOrderHandler.Create)
	authed.GET("/pre-orders", preOrderHandler.List)
	authed.POST("/pre-orders/from-surplus", preOrderHandler.FromSurplus)
	authed.GET("/pre-orders/:id", preOrderHandler.Get)
	authed.PUT("/pre-orders/:id", preOrderHandler.Update)
	authed.DELETE("/pre-orders/:id", preOrderHandler.Cancel)
	authed.GET("/pre-orders/:id/offers", preOrderHandler.Offers)

	authed.POST("/order-details/:preOrderId", offerHandler.Submit)
	authed.GET("/order-details", offerHandler.List)
	authed.PUT("/order-details/:id/offer-status", offerHandler.Decide)
	authed.POST("/order-details/:id/cancel", offerHandler.Cancel)

	authed.GET("/me/crops", supplyHandler.MyCrops)

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	authed.POST("/products", productHandler.Create)
	authed.PUT("/products/:id", productHandler.Update)

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// requireDB answers 503 until SetDB has published a connection. Handlers only
// reach the repositories after observing ready, which orders their reads after
// the writes in SetDB.
func (s *Server) requireDB(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.ready.Load() {
			return c.JSON(http.StatusServiceUnavailable, handler.NewErrorResponse("db_not_ready", "database is starting"))
		}
		return next(c)
	}
}

// SetDB injects the connection into every repository once it is available.
// It is called once, from the goroutine that connects at startup.
func (s *Server) SetDB(db *gorm.DB) {
	for _, set := range s.setDB {
		set(db)
	}
	s.ready.Store(db != nil)
}
