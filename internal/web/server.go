package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/atsexpert/internal/config"
	"github.com/amishk599/atsexpert/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// MsgNoResume is shown when the form is submitted without a file.
const MsgNoResume = "Please upload a PDF resume first."

// Server serves the upload form and runs one analysis per POST.
type Server struct {
	analyzer  model.Analyzer
	logger    *slog.Logger
	addr      string
	maxUpload int64
	engine    *gin.Engine
}

type modeOption struct {
	Value    model.Mode
	Title    string
	Selected bool
}

type pageData struct {
	Modes          []modeOption
	JobDescription string
	MaxUploadMB    int64
	FileName       string
	Success        string
	Error          string
	Result         *model.AnalysisResponse
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// NewServer builds the gin engine for the form.
func NewServer(analyzer model.Analyzer, cfg config.WebConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		analyzer:  analyzer,
		logger:    logger,
		addr:      cfg.Addr,
		maxUpload: cfg.MaxUpload,
	}

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = cfg.MaxUpload

	r.GET("/", s.handleIndex)
	r.POST("/analyze", s.handleAnalyze)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(model.AllModes[0], ""))
}

func (s *Server) handleAnalyze(c *gin.Context) {
	if c.Request.ContentLength > s.maxUpload {
		s.fail(c, http.StatusRequestEntityTooLarge, s.page("", ""), s.tooLargeMessage())
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	jd := c.PostForm("jd")
	mode, modeErr := model.ParseMode(c.PostForm("mode"))
	data := s.page(mode, jd)

	fh, err := c.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, data, s.tooLargeMessage())
			return
		}
		s.fail(c, http.StatusBadRequest, data, MsgNoResume)
		return
	}
	if modeErr != nil {
		s.fail(c, http.StatusBadRequest, data, model.UserMessage(modeErr))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, http.StatusBadRequest, data, model.UserMessage(&model.ConversionError{Reason: "could not read the upload", Err: err}))
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, http.StatusBadRequest, data, model.UserMessage(&model.ConversionError{Reason: "could not read the upload", Err: err}))
		return
	}
	data.FileName = fh.Filename

	resp, err := s.analyzer.Run(c.Request.Context(), model.Document{Name: fh.Filename, Data: raw}, mode, jd)
	if err != nil {
		s.fail(c, statusFor(err), data, model.UserMessage(err))
		return
	}

	data.Success = fmt.Sprintf("Successfully processed %d-page resume", resp.Pages)
	data.Result = resp
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) fail(c *gin.Context, status int, data pageData, msg string) {
	data.Error = msg
	c.HTML(status, "index.html", data)
}

func (s *Server) page(selected model.Mode, jd string) pageData {
	opts := make([]modeOption, 0, len(model.AllModes))
	for _, m := range model.AllModes {
		opts = append(opts, modeOption{Value: m, Title: m.Title(), Selected: m == selected})
	}
	return pageData{
		Modes:          opts,
		JobDescription: jd,
		MaxUploadMB:    s.maxUpload >> 20,
	}
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("The uploaded file is larger than %d MB.", s.maxUpload>>20)
}

// statusFor picks the HTTP status for a failed analysis.
func statusFor(err error) int {
	var convErr *model.ConversionError
	var cfgErr *model.ConfigurationError
	switch {
	case errors.As(err, &convErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
