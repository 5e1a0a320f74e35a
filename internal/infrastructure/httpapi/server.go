// Package httpapi exposes the checking pipeline, history and exports over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/microcosm-cc/bluemonday"

	"Factulist/internal/domain"
	"Factulist/internal/infrastructure/probe"
	"Factulist/internal/ports"
	"Factulist/internal/usecase"
)

// DefaultMaxUpload caps multipart request bodies.
const DefaultMaxUpload = 10 << 20

// Checker runs one article through the pipeline.
type Checker interface {
	Check(ctx context.Context, input domain.ArticleInput) (domain.Report, error)
}

// HistoryReader serves the report log and source statistics.
type HistoryReader interface {
	Reports(ctx context.Context, limit int) ([]domain.Report, error)
	Report(ctx context.Context, id int64) (domain.Report, error)
	Sources(ctx context.Context, page int) (usecase.SourcePage, error)
	AllSources(ctx context.Context) ([]usecase.SourceRow, error)
}

// DomainProber checks a domain's reachability.
type DomainProber interface {
	Probe(ctx context.Context, d string) probe.Result
}

// Deps lists the collaborators behind the routes. Metrics and Prober are optional.
type Deps struct {
	Checker   Checker
	History   HistoryReader
	CSV       ports.ReportExporter
	PDF       ports.ReportRenderer
	Prober    DomainProber
	Metrics   http.Handler
	UploadDir string
	MaxUpload int64
	Logger    *slog.Logger
}

// Server owns the echo instance and its routes.
type Server struct {
	echo      *echo.Echo
	checker   Checker
	history   HistoryReader
	csv       ports.ReportExporter
	pdf       ports.ReportRenderer
	prober    DomainProber
	uploadDir string
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewServer builds the echo instance and registers every route.
func NewServer(deps Deps) *Server {
	if deps.MaxUpload <= 0 {
		deps.MaxUpload = DefaultMaxUpload
	}

	s := &Server{
		echo:      echo.New(),
		checker:   deps.Checker,
		history:   deps.History,
		csv:       deps.CSV,
		pdf:       deps.PDF,
		prober:    deps.Prober,
		uploadDir: deps.UploadDir,
		sanitizer: highlightPolicy(),
		logger:    deps.Logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || p == "/metrics"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if s.logger == nil {
				return nil
			}
			if v.Error == nil {
				s.logger.Debug("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				s.logger.Warn("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit(deps.MaxUpload)))

	e.GET("/healthz", s.health)
	e.POST("/check", s.check)
	e.GET("/history", s.listReports)
	e.GET("/reports/:id", s.getReport)
	e.GET("/sources", s.listSources)
	e.GET("/export/reports/csv", s.exportReportsCSV)
	e.GET("/export/sources/csv", s.exportSourcesCSV)
	e.GET("/export/report/:id/pdf", s.exportReportPDF)
	if s.prober != nil {
		e.GET("/probe/:domain", s.probeDomain)
	}
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("http server listening", "addr", addr)
		}
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// highlightPolicy keeps only the <mark> wrappers the bias scorer emits.
func highlightPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("mark")
	return p
}

func (s *Server) sanitize(rep domain.Report) domain.Report {
	rep.Bias.HighlightedText = s.sanitizer.Sanitize(rep.Bias.HighlightedText)
	return rep
}

// bodyLimit renders n in the unit syntax echo's BodyLimit parses.
func bodyLimit(n int64) string {
	return fmt.Sprintf("%dK", max(n>>10, 1))
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}
