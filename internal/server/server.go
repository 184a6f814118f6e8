// Package server serves replay parsing and the report archive over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/scharissis/coh3-replay-analyser/internal/api"
	"github.com/scharissis/coh3-replay-analyser/internal/archive"
	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/lookup"
	"github.com/scharissis/coh3-replay-analyser/internal/metrics"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/report"
	"github.com/scharissis/coh3-replay-analyser/internal/timeline"
)

const (
	defaultMaxUploadBytes = 32 << 20
	defaultRequestTimeout = 30 * time.Second
	uploadField           = "replay"
	headerReportID        = "X-Report-ID"
	multipartOverhead     = 1 << 20
)

type Options struct {
	Store          *archive.Store
	Lookup         *lookup.Table
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	Parser         report.Parser
	DefaultFilter  string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	opts     Options
	echo     *echo.Echo
	logger   *slog.Logger
	httpSrv  *http.Server
	shutdown sync.Once
	err      error
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Lookup == nil {
		opts.Lookup = lookup.Builtin()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Parser.Logger == nil {
		opts.Parser.Logger = opts.Logger
	}
	if opts.Metrics != nil && opts.Parser.Aggregator.Observer == nil {
		opts.Parser.Aggregator.Observer = opts.Metrics
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(opts.Metrics.Middleware())
	e.Use(requestLogger(opts.Logger))

	s := &Server{opts: opts, echo: e, logger: opts.Logger}
	e.GET("/healthz", s.health)
	// multipart framing needs headroom above the file limit
	bodyLimit := opts.MaxUploadBytes + multipartOverhead
	e.POST("/api/parse", s.parse, middleware.BodyLimit(fmt.Sprintf("%dB", bodyLimit)))
	e.GET("/api/reports", s.listReports)
	e.GET("/api/reports/:id", s.getReport)
	e.DELETE("/api/reports/:id", s.deleteReport)
	e.GET("/api/reports/:id/timeline", s.getTimeline)
	e.GET("/api/reports/:id/commands", s.getCommandCounts)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx ends or the listener fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Do(func() {
		if s.httpSrv != nil {
			s.err = s.httpSrv.Shutdown(ctx)
		}
	})
	return s.err
}

type parseQuery struct {
	Filter   string `query:"filter" validate:"omitempty,filter_preset"`
	Annotate *bool  `query:"annotate"`
	Archive  *bool  `query:"archive"`
}

type listQuery struct {
	Limit       int  `query:"limit" validate:"gte=0,lte=500"`
	Offset      int  `query:"offset" validate:"gte=0"`
	SuccessOnly bool `query:"success_only"`
}

func (s *Server) health(c echo.Context) error {
	resp := api.HealthResponse{
		SchemaVersion: api.SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Status:        "ok",
		Archive:       "disabled",
		LookupSource:  s.opts.Lookup.Source(),
	}
	if s.opts.Store != nil {
		resp.Archive = "ok"
		if err := s.opts.Store.DB().PingContext(c.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Archive = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// parse decodes the uploaded replay. The response body is always a report:
// a success report, or the failure envelope with a 4xx status.
func (s *Server) parse(c echo.Context) error {
	var q parseQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown filter %q", q.Filter)).SetInternal(err)
	}
	name := q.Filter
	if name == "" {
		name = s.opts.DefaultFilter
	}
	policy, err := filter.Named(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fh, err := c.FormFile(uploadField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, model.FailureReport("No replay file uploaded"))
	}
	if fh.Size > s.opts.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, model.FailureReport("Replay file too large"))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, report.Failure(fmt.Errorf("open upload: %w", err)))
	}
	defer f.Close() //nolint:errcheck
	data, err := io.ReadAll(io.LimitReader(f, s.opts.MaxUploadBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, model.FailureReport(fmt.Sprintf("Failed to read file: %v", err)))
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, model.FailureReport("Replay file too large"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.opts.RequestTimeout)
	defer cancel()
	started := time.Now()
	r, parseErr := s.opts.Parser.ParseBytes(ctx, data, policy)
	s.opts.Metrics.ObserveParse(parseErr, time.Since(started))

	// The archive always keeps the annotated report; annotate=false only
	// shapes the response.
	stored := r
	if parseErr == nil {
		stored = lookup.Annotated(r, s.opts.Lookup)
		if q.Annotate == nil || *q.Annotate {
			r = stored
		}
	}

	if s.opts.Store != nil && (q.Archive == nil || *q.Archive) {
		entry, err := s.opts.Store.Save(ctx, archive.SaveInput{
			SourceName: fh.Filename,
			Content:    data,
			Policy:     policy,
			Report:     stored,
		})
		s.opts.Metrics.ObserveArchive(err)
		switch {
		case err == nil, errors.Is(err, archive.ErrDuplicate):
			c.Response().Header().Set(headerReportID, entry.ReportID)
		default:
			s.logger.Warn("archive save failed", "error", err, "source", fh.Filename)
		}
	}

	if parseErr != nil {
		return c.JSON(http.StatusUnprocessableEntity, r)
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) listReports(c echo.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	var q listQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be within 0..500 and offset non-negative").SetInternal(err)
	}
	entries, err := store.List(c.Request().Context(), archive.ListOptions{
		Limit:       q.Limit,
		Offset:      q.Offset,
		SuccessOnly: q.SuccessOnly,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.ListEnvelope[archive.Entry]{
		SchemaVersion: api.SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Filters: map[string]any{
			"limit":        q.Limit,
			"offset":       q.Offset,
			"success_only": q.SuccessOnly,
		},
		Summary: api.Summarize(entries),
		Items:   entries,
	})
}

func (s *Server) getReport(c echo.Context) error {
	r, err := s.loadReport(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) getTimeline(c echo.Context) error {
	r, err := s.loadReport(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, timeline.Build(r))
}

func (s *Server) getCommandCounts(c echo.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	id := c.Param("id")
	if _, err := store.Get(c.Request().Context(), id); err != nil {
		return err
	}
	counts, err := store.CommandCounts(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.CommandCountsEnvelope{
		SchemaVersion: api.SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		ReportID:      id,
		Items:         counts,
	})
}

func (s *Server) deleteReport(c echo.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	if err := store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) loadReport(c echo.Context) (model.ReplayReport, error) {
	store, err := s.store()
	if err != nil {
		return model.ReplayReport{}, err
	}
	return store.Report(c.Request().Context(), c.Param("id"))
}

var errArchiveDisabled = echo.NewHTTPError(http.StatusServiceUnavailable, "report archive is disabled")

func (s *Server) store() (*archive.Store, error) {
	if s.opts.Store == nil {
		return nil, errArchiveDisabled
	}
	return s.opts.Store, nil
}
