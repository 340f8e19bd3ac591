package server

import (
	"context"
	"errors"
	"image"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/imgcache/internal/fetch"
	"github.com/any-hub/imgcache/internal/imaging"
	"github.com/any-hub/imgcache/internal/loader"
	"github.com/any-hub/imgcache/internal/logging"
)

// ImageLoader is the loader surface the HTTP layer depends on. *loader.Loader
// satisfies it; tests inject fakes.
type ImageLoader interface {
	Load(url string, target loader.RenderTarget, placeholder image.Image)
}

// AppOptions controls how the Fiber application serves images.
type AppOptions struct {
	Logger      *logrus.Logger
	Images      ImageLoader
	LoadTimeout time.Duration
	JPEGQuality int
}

const (
	contextKeyRequestID = "_imgcache_request_id"

	defaultLoadTimeout = 30 * time.Second
)

// NewApp builds a Fiber application with request ID middleware, panic
// recovery and the image endpoint.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Images == nil {
		return nil, errors.New("image loader is required")
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = imaging.DefaultJPEGQuality
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	h := &imageHandler{
		logger:  opts.Logger,
		images:  opts.Images,
		timeout: opts.LoadTimeout,
		quality: opts.JPEGQuality,
	}
	app.Get("/-/image", h.serve)
	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID 并写入响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

type imageHandler struct {
	logger  *logrus.Logger
	images  ImageLoader
	timeout time.Duration
	quality int
}

func (h *imageHandler) serve(c fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url_required"})
	}
	if !isHTTPURL(raw) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_url"})
	}

	parent := c.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	slot := loader.NewSlot()
	h.images.Load(raw, slot, nil)
	img, err := slot.Wait(ctx)
	if err != nil {
		return h.renderFailure(c, raw, err)
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	if err := imaging.EncodeJPEG(c.Response().BodyWriter(), img, h.quality); err != nil {
		h.logger.WithFields(logrus.Fields{
			"action":     "image_encode",
			"url":        raw,
			"request_id": RequestID(c),
		}).WithError(err).Error("encode response failed")
		c.Response().ResetBody()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "encode_failed"})
	}
	return nil
}

func (h *imageHandler) renderFailure(c fiber.Ctx, raw string, err error) error {
	status := fiber.StatusBadGateway
	code := "upstream_failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status, code = fiber.StatusGatewayTimeout, "load_timeout"
	case errors.Is(err, context.Canceled):
		status, code = fiber.StatusServiceUnavailable, "load_canceled"
	case fetch.KindOf(err) == fetch.KindDecode:
		status, code = fiber.StatusUnprocessableEntity, "decode_failed"
	}

	fields := logging.LoadFields("image_request", raw, "", "")
	fields["request_id"] = RequestID(c)
	fields["status"] = status
	h.logger.WithFields(fields).WithError(err).Warn("image request failed")

	return c.Status(status).JSON(fiber.Map{"error": code})
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
