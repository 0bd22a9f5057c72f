package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"quizreg/internal/auth"
	"quizreg/internal/httpmiddleware"
	"quizreg/internal/registration"
	"quizreg/internal/schools"
)

// Options configures the HTTP handlers.
type Options struct {
	SigningKey string
	Issuer     string
	TokenTTL   time.Duration
	MaxUpload  int64
	DBTimeout  time.Duration
}

// Handler serves the public registration endpoints and the admin API.
type Handler struct {
	regs    *registration.Service
	schools *schools.Matcher
	creds   *auth.Credentials
	opts    Options
	log     zerolog.Logger
}

// New creates a handler.
func New(regs *registration.Service, matcher *schools.Matcher, creds *auth.Credentials, opts Options, logger zerolog.Logger) *Handler {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = registration.DefaultMaxFile
	}
	if opts.DBTimeout <= 0 {
		opts.DBTimeout = 10 * time.Second
	}
	return &Handler{
		regs:    regs,
		schools: matcher,
		creds:   creds,
		opts:    opts,
		log:     logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts every endpoint under /api. Registration submissions go
// through limiter.
func (h *Handler) Routes(r gin.IRouter, limiter httpmiddleware.Limiter) {
	api := r.Group("/api")
	api.GET("/schools", h.listSchools)
	api.POST("/register", httpmiddleware.RateLimit(limiter, h.log), h.register)
	api.POST("/admin/login", h.login)

	admin := api.Group("/admin", auth.AdminAuth(h.opts.SigningKey, h.opts.Issuer))
	admin.GET("/registrations", h.listRegistrations)
	admin.GET("/registrations/search", h.searchRegistrations)
	admin.GET("/registrations/:id", h.getRegistration)
	admin.PATCH("/registrations/:id", h.updateContact)
	admin.PATCH("/registrations/:id/attendance", h.setAttendance)
	admin.PATCH("/registrations/:id/certificate", h.setCertificate)
	admin.POST("/central-register", h.centralRegister)
	admin.GET("/stats", h.stats)
}

// dbContext bounds store calls made on behalf of a request.
func (h *Handler) dbContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.opts.DBTimeout)
}
