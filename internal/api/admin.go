package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quizreg/internal/metrics"
	"quizreg/internal/registration"
)

func (h *Handler) listRegistrations(c *gin.Context) {
	q := registration.ListQuery{
		Search:    c.Query("search"),
		Class:     c.Query("class"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	var ok bool
	if q.Page, ok = intQuery(c, "page"); !ok {
		return
	}
	if q.Limit, ok = intQuery(c, "limit"); !ok {
		return
	}
	if q.Attended, ok = boolQuery(c, "isAttended"); !ok {
		return
	}
	if q.CertificateIssued, ok = boolQuery(c, "certificateIssued"); !ok {
		return
	}

	ctx, cancel := h.dbContext(c)
	defer cancel()
	page, err := h.regs.List(ctx, q)
	if err != nil {
		h.respondError(c, err, "Error fetching registrations")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) searchRegistrations(c *gin.Context) {
	ctx, cancel := h.dbContext(c)
	defer cancel()
	results, err := h.regs.Search(ctx, c.Query("q"))
	if err != nil {
		h.respondError(c, err, "Search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": results})
}

func (h *Handler) getRegistration(c *gin.Context) {
	ctx, cancel := h.dbContext(c)
	defer cancel()
	reg, err := h.regs.Get(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Error fetching registration")
		return
	}
	c.JSON(http.StatusOK, reg)
}

type contactRequest struct {
	StudentName     string  `json:"studentName"`
	MobileNumber    string  `json:"mobileNumber"`
	AltMobileNumber *string `json:"altMobileNumber"`
}

func (h *Handler) updateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	ctx, cancel := h.dbContext(c)
	defer cancel()
	err := h.regs.UpdateContact(ctx, c.Param("id"), registration.ContactUpdate{
		StudentName:     req.StudentName,
		MobileNumber:    req.MobileNumber,
		AltMobileNumber: req.AltMobileNumber,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update registration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registration updated successfully"})
}

type attendanceRequest struct {
	IsAttended *bool `json:"isAttended"`
}

func (h *Handler) setAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAttended == nil {
		badRequest(c, "isAttended must be a boolean value")
		return
	}
	ctx, cancel := h.dbContext(c)
	defer cancel()
	if err := h.regs.SetAttendance(ctx, c.Param("id"), *req.IsAttended); err != nil {
		h.respondError(c, err, "Failed to update attendance status")
		return
	}
	metrics.StatusUpdates.WithLabelValues("isAttended", strconv.FormatBool(*req.IsAttended)).Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Attendance status updated successfully", "isAttended": *req.IsAttended})
}

type certificateRequest struct {
	CertificateIssued *bool `json:"certificateIssued"`
}

func (h *Handler) setCertificate(c *gin.Context) {
	var req certificateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CertificateIssued == nil {
		badRequest(c, "certificateIssued must be a boolean value")
		return
	}
	ctx, cancel := h.dbContext(c)
	defer cancel()
	if err := h.regs.SetCertificate(ctx, c.Param("id"), *req.CertificateIssued); err != nil {
		h.respondError(c, err, "Failed to update certificate status")
		return
	}
	metrics.StatusUpdates.WithLabelValues("certificateIssued", strconv.FormatBool(*req.CertificateIssued)).Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Certificate status updated successfully", "certificateIssued": *req.CertificateIssued})
}

func (h *Handler) stats(c *gin.Context) {
	ctx, cancel := h.dbContext(c)
	defer cancel()
	st, err := h.regs.Stats(ctx)
	if err != nil {
		h.respondError(c, err, "Error fetching statistics")
		return
	}
	c.JSON(http.StatusOK, st)
}

// intQuery reads an optional integer parameter, answering 400 when malformed.
func intQuery(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		badRequest(c, key+" must be a number")
		return 0, false
	}
	return n, true
}

// boolQuery reads an optional boolean filter, answering 400 when malformed.
func boolQuery(c *gin.Context, key string) (*bool, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		badRequest(c, key+" must be true or false")
		return nil, false
	}
	return &b, true
}
