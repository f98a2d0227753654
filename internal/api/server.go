package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/galactica-credential-ledger/config"
	"github.com/swissborg/galactica-credential-ledger/internal/bank"
	"github.com/swissborg/galactica-credential-ledger/internal/credential"
)

type Server struct {
	echo     *echo.Echo
	service  *credential.Service
	bank     *bank.Bank
	gatherer prometheus.Gatherer
}

func NewServer(service *credential.Service, bank *bank.Bank, gatherer prometheus.Gatherer) *Server {
	return &Server{service: service, bank: bank, gatherer: gatherer}
}

func (s *Server) Start(cfg config.APIConf) error {
	log.Infof("API server starting...")

	s.echo = s.makeEcho()

	err := s.echo.Start(fmt.Sprintf("%s:%s", cfg.Host, cfg.Port))
	if err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	const shutdownTimeout = time.Second * 10

	if s.echo == nil {
		return nil
	}

	ctx, cancelTimeout := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelTimeout()

	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}

func (s *Server) makeEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.
				WithField("requestID", v.RequestID).
				WithField("method", v.Method).
				WithField("uri", v.URI).
				WithField("status", v.Status).
				WithField("latency", v.Latency.String()).
				Info("handled")
			return nil
		},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	handlers := NewHandlers(s.service, s.bank)

	credGroup := e.Group("/credentials")
	credGroup.POST("/request", handlers.RequestCredential)
	credGroup.POST("/issue", handlers.IssueCredential)
	credGroup.GET("/:user", handlers.GetCredentials)

	e.GET("/requests/:holder/:issuer/:type", handlers.GetPendingRequest)

	accountGroup := e.Group("/accounts")
	accountGroup.POST("/deposit", handlers.Deposit)
	accountGroup.GET("/:account/balance", handlers.GetBalance)

	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
