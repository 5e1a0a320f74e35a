package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"Factulist/internal/domain"
)

const noDataMessage = "No data to export"

type checkRequest struct {
	URL     string `json:"url" form:"url"`
	RawText string `json:"raw_text" form:"raw_text"`
	Text    string `json:"text" form:"text"`
}

// check accepts JSON, urlencoded or multipart bodies. An empty body still
// yields a report for the "no input" state.
func (s *Server) check(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	input := domain.ArticleInput{URL: strings.TrimSpace(req.URL), RawText: req.RawText}
	if input.RawText == "" {
		input.RawText = req.Text
	}

	if input.Kind() == domain.InputNone {
		if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
			path, err := s.saveUpload(fh)
			if err != nil {
				s.warn("store upload", "file", fh.Filename, "error", err)
				return errorJSON(c, http.StatusInternalServerError, "could not store upload")
			}
			defer os.Remove(path)
			input.FilePath = path
			input.Format = domain.FormatFromPath(fh.Filename)
		}
	}

	rep, err := s.checker.Check(c.Request().Context(), input)
	if err != nil {
		s.warn("check article", "input", input.Kind(), "error", err)
		return errorJSON(c, http.StatusInternalServerError, "could not create report")
	}
	return c.JSON(http.StatusOK, s.sanitize(rep))
}

// saveUpload copies the upload under a unique name that keeps the extension.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := s.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := filepath.Base(filepath.Clean("/" + fh.Filename))
	dst, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	return dst.Name(), nil
}

func (s *Server) listReports(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return errorJSON(c, http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	reports, err := s.history.Reports(c.Request().Context(), limit)
	if err != nil {
		return s.internal(c, "list reports", err)
	}
	for i := range reports {
		reports[i] = s.sanitize(reports[i])
	}
	return c.JSON(http.StatusOK, reports)
}

func (s *Server) getReport(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid report id")
	}
	rep, err := s.history.Report(c.Request().Context(), id)
	if errors.Is(err, domain.ErrReportNotFound) {
		return errorJSON(c, http.StatusNotFound, "report not found")
	}
	if err != nil {
		return s.internal(c, "get report", err)
	}
	return c.JSON(http.StatusOK, s.sanitize(rep))
}

func (s *Server) listSources(c echo.Context) error {
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return errorJSON(c, http.StatusBadRequest, "page must be a positive integer")
		}
		page = n
	}

	res, err := s.history.Sources(c.Request().Context(), page)
	if err != nil {
		return s.internal(c, "list sources", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) exportReportsCSV(c echo.Context) error {
	reports, err := s.history.Reports(c.Request().Context(), 0)
	if err != nil {
		return s.internal(c, "export reports", err)
	}
	if len(reports) == 0 {
		return errorJSON(c, http.StatusBadRequest, noDataMessage)
	}

	var buf bytes.Buffer
	if err := s.csv.WriteReports(&buf, reports); err != nil {
		return s.internal(c, "render reports csv", err)
	}
	return attachment(c, "reports.csv", "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) exportSourcesCSV(c echo.Context) error {
	rows, err := s.history.AllSources(c.Request().Context())
	if err != nil {
		return s.internal(c, "export sources", err)
	}
	if len(rows) == 0 {
		return errorJSON(c, http.StatusBadRequest, noDataMessage)
	}

	stats := make([]domain.SourceStats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, r.SourceStats)
	}

	var buf bytes.Buffer
	if err := s.csv.WriteSources(&buf, stats); err != nil {
		return s.internal(c, "render sources csv", err)
	}
	return attachment(c, "sources.csv", "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) exportReportPDF(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid report id")
	}
	rep, err := s.history.Report(c.Request().Context(), id)
	if errors.Is(err, domain.ErrReportNotFound) {
		return errorJSON(c, http.StatusNotFound, "report not found")
	}
	if err != nil {
		return s.internal(c, "export report", err)
	}

	var buf bytes.Buffer
	if err := s.pdf.WriteReport(&buf, rep); err != nil {
		return s.internal(c, "render report pdf", err)
	}
	return attachment(c, fmt.Sprintf("report_%d.pdf", id), "application/pdf", buf.Bytes())
}

func (s *Server) probeDomain(c echo.Context) error {
	d := strings.TrimSpace(c.Param("domain"))
	if domain.NormalizeDomain(d) == "" {
		return errorJSON(c, http.StatusBadRequest, "domain is required")
	}
	return c.JSON(http.StatusOK, s.prober.Probe(c.Request().Context(), d))
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func attachment(c echo.Context, filename, contentType string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, body)
}

func (s *Server) internal(c echo.Context, op string, err error) error {
	s.warn(op, "error", err)
	return errorJSON(c, http.StatusInternalServerError, "internal error")
}

func (s *Server) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
