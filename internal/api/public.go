package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quizreg/internal/auth"
	"quizreg/internal/metrics"
	"quizreg/internal/registration"
	"quizreg/internal/schools"
)

// formOverhead is the room left for text fields on top of the file limit.
const formOverhead = 1 << 20

func (h *Handler) listSchools(c *gin.Context) {
	q, ok := c.GetQuery("q")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"schools": h.schools.Names()})
		return
	}
	includeInput, _ := strconv.ParseBool(c.Query("includeInput"))
	c.JSON(http.StatusOK, gin.H{
		"suggestions": h.schools.Suggest(q, schools.Options{IncludeInput: includeInput}),
	})
}

func (h *Handler) register(c *gin.Context) {
	h.create(c, "form", h.regs.Register, "Registration successful!")
}

func (h *Handler) centralRegister(c *gin.Context) {
	h.create(c, "onsite", h.regs.RegisterOnSite, "Participant registered and marked as attended")
}

type createFunc func(ctx context.Context, in registration.Input, doc *registration.Document) (registration.Registration, error)

func (h *Handler) create(c *gin.Context, source string, create createFunc, success string) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUpload+formOverhead)

	var in registration.Input
	if err := c.ShouldBind(&in); err != nil {
		h.rejectForm(c, source, err)
		return
	}
	doc, err := readDocument(c)
	if err != nil {
		h.rejectForm(c, source, err)
		return
	}

	ctx, cancel := h.dbContext(c)
	defer cancel()
	reg, err := create(ctx, in, doc)
	if err != nil {
		metrics.Rejections.WithLabelValues(rejectionReason(err)).Inc()
		h.respondError(c, err, "Registration failed.")
		return
	}

	metrics.Registrations.WithLabelValues(source).Inc()
	c.JSON(http.StatusCreated, gin.H{"message": success, "registration": reg})
}

func (h *Handler) rejectForm(c *gin.Context, source string, err error) {
	metrics.Rejections.WithLabelValues("invalid").Inc()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		badRequest(c, fmt.Sprintf("idCard must be smaller than %dMB", h.opts.MaxUpload>>20))
		return
	}
	h.log.Debug().Err(err).Str("source", source).Msg("unreadable registration form")
	badRequest(c, "Invalid registration form")
}

// readDocument returns the idCard upload, or nil when none was sent.
func readDocument(c *gin.Context) (*registration.Document, error) {
	fh, err := c.FormFile("idCard")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &registration.Document{Filename: fh.Filename, Data: data}, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, registration.ErrInvalid):
		return "invalid"
	case errors.Is(err, registration.ErrDuplicate):
		return "duplicate"
	}
	return "error"
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}
	if err := h.creds.Verify(req.Username, req.Password); err != nil {
		h.log.Warn().Str("username", req.Username).Str("ip", c.ClientIP()).Msg("admin login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	tok, err := auth.Issue(req.Username, auth.RoleAdmin, h.opts.Issuer, h.opts.SigningKey, h.opts.TokenTTL)
	if err != nil {
		h.respondError(c, err, "token issue failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok.AccessToken, "expiresAt": tok.ExpiresAt.Unix()})
}
