package services

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"

	"launcher.GO/api"
	"launcher.GO/core/apperr"
	catalogService "launcher.GO/service/catalog"
)

func init() {
	api.RegisterModule(RegisterServiceRoutes)
}

// serviceForm holds the text fields of the add/edit multipart form.
type serviceForm struct {
	Title string `mapstructure:"title"`
	URL   string `mapstructure:"url"`
}

// RegisterServiceRoutes mounts the catalog CRUD endpoints on the /api group.
func RegisterServiceRoutes(apiGroup *echo.Group, svc *catalogService.Service) {
	g := apiGroup.Group("/services")

	// GET /api/services: full catalog
	g.GET("", func(c echo.Context) error {
		doc, err := svc.ListAll(c.Request().Context())
		if err != nil {
			return errorJSON(c, err, "error while reading services")
		}
		return c.JSON(http.StatusOK, doc)
	})

	// GET /api/services/:category: one category
	g.GET("/:category", func(c echo.Context) error {
		list, err := svc.List(c.Request().Context(), c.Param("category"))
		if err != nil {
			return errorJSON(c, err, "error while reading "+c.Param("category")+" services")
		}
		return c.JSON(http.StatusOK, list)
	})

	// POST /api/services/:category: multipart title, url, optional image
	g.POST("/:category", func(c echo.Context) error {
		form, err := bindForm(c)
		if err != nil {
			return errorJSON(c, err, "error while reading the form")
		}
		upload, closeFn, err := formImage(c)
		if err != nil {
			return errorJSON(c, err, "error while reading the image")
		}
		defer closeFn()

		created, err := svc.Create(c.Request().Context(), catalogService.CreateInput{
			Category: c.Param("category"),
			Title:    form.Title,
			URL:      form.URL,
			Image:    upload,
		})
		if err != nil {
			return errorJSON(c, err, "error while adding the service")
		}
		return c.JSON(http.StatusCreated, echo.Map{"message": "service added", "service": created})
	})

	// PUT /api/services/:category/:title: multipart url, optional new title and image
	g.PUT("/:category/:title", func(c echo.Context) error {
		form, err := bindForm(c)
		if err != nil {
			return errorJSON(c, err, "error while reading the form")
		}
		upload, closeFn, err := formImage(c)
		if err != nil {
			return errorJSON(c, err, "error while reading the image")
		}
		defer closeFn()

		updated, err := svc.Update(c.Request().Context(), catalogService.UpdateInput{
			Category:     c.Param("category"),
			CurrentTitle: titleParam(c),
			NewTitle:     form.Title,
			URL:          form.URL,
			Image:        upload,
		})
		if err != nil {
			return errorJSON(c, err, "error while updating the service")
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "service updated", "service": updated})
	})

	// DELETE /api/services/:category/:title
	g.DELETE("/:category/:title", func(c echo.Context) error {
		if err := svc.Delete(c.Request().Context(), c.Param("category"), titleParam(c)); err != nil {
			return errorJSON(c, err, "error while deleting the service")
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "service and image deleted"})
	})

	// GET /api/health: liveness plus swallowed side-effect failures
	apiGroup.GET("/health", func(c echo.Context) error {
		stats := svc.Stats()
		return c.JSON(http.StatusOK, echo.Map{
			"status":           "ok",
			"reclaim_failures": stats.ReclaimFailures,
			"notify_failures":  stats.NotifyFailures,
		})
	})
}

// bindForm decodes the text fields of a multipart or urlencoded body.
func bindForm(c echo.Context) (serviceForm, error) {
	var form serviceForm
	params, err := c.FormParams()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return form, apperr.Wrap(apperr.CodeMalformedBody, "malformed form body", err)
	}
	flat := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	if err := mapstructure.Decode(flat, &form); err != nil {
		return form, apperr.Wrap(apperr.CodeMalformedBody, "malformed form body", err)
	}
	return form, nil
}

// formImage opens the optional "image" file part. closeFn is always safe to call.
func formImage(c echo.Context) (*catalogService.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, apperr.Wrap(apperr.CodeInvalidImage, "unreadable image part", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperr.Wrap(apperr.CodeInvalidImage, "unreadable image part", err)
	}
	return uploadFrom(fh, f), func() { _ = f.Close() }, nil
}

func uploadFrom(fh *multipart.FileHeader, f multipart.File) *catalogService.Upload {
	return &catalogService.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}

// titleParam returns the decoded :title path segment. The router matches on
// RawPath when it is set and hands back the still-escaped segment; otherwise
// the segment comes from the already decoded Path and is returned as is.
func titleParam(c echo.Context) string {
	p := c.Param("title")
	if c.Request().URL.RawPath == "" {
		return p
	}
	if t, err := url.PathUnescape(p); err == nil {
		return t
	}
	return p
}

// errorJSON answers with the status of err's code. Server-side failures
// are logged and reported with the generic message.
func errorJSON(c echo.Context, err error, fallback string) error {
	code := apperr.GetCode(err)
	status := code.HTTPStatus()
	msg := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		slog.Error(fallback, "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		msg = fallback
	}
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}
