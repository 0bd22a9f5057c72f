package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizreg/internal/auth"
	"quizreg/internal/httpmiddleware"
	"quizreg/internal/registration"
	"quizreg/internal/schools"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "quiz-registration"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://files.example.com/" + key, nil
}

type testServer struct {
	router *gin.Engine
	repo   *registration.MemoryRepository
	token  string
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(io.Discard)

	repo := registration.NewMemoryRepository()
	svc := registration.NewService(repo, stubUploader{}, 0, logger)
	creds, err := auth.NewCredentials("admin", "s3cret", "")
	require.NoError(t, err)

	h := New(svc, schools.New(schools.Known), creds, Options{
		SigningKey: testKey,
		Issuer:     testIssuer,
		TokenTTL:   time.Hour,
	}, logger)

	r := gin.New()
	h.Routes(r, httpmiddleware.NewSlidingWindow(limit, time.Minute))

	tok, err := auth.Issue("admin", auth.RoleAdmin, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return &testServer{router: r, repo: repo, token: tok.AccessToken}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) admin(method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func registrationForm(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("idCard", "card.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/register", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.RemoteAddr = "192.0.2.10:4000"
	return req
}

func formFields(name string) map[string]string {
	return map[string]string{
		"studentName":  name,
		"schoolName":   "Stewart School",
		"class":        "X",
		"dob":          "2009-11-02",
		"mobileNumber": "9876543210",
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func (s *testServer) register(t *testing.T, name string) registration.Registration {
	t.Helper()
	w := s.do(registrationForm(t, formFields(name), pngBytes))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Message      string                    `json:"message"`
		Registration registration.Registration `json:"registration"`
	}
	decode(t, w, &resp)
	return resp.Registration
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t, 100)

	reg := s.register(t, "Ravi Kumar")
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, "+91 9876543210", reg.MobileNumber)
	assert.True(t, strings.HasPrefix(reg.IDCardURL, "https://files.example.com/id-cards/"))

	w := s.do(registrationForm(t, formFields("Ravi Kumar"), pngBytes))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"A registration with these details already exists"}`, w.Body.String())
}

func TestRegisterEndpointValidation(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(registrationForm(t, formFields("No File"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "idCard file is required")

	w = s.do(registrationForm(t, formFields("Text File"), []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "JPG, PNG or PDF")

	fields := formFields("Bad Class")
	fields["class"] = "XIII"
	w = s.do(registrationForm(t, fields, pngBytes))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors []string `json:"errors"`
	}
	decode(t, w, &resp)
	assert.Equal(t, []string{"class must be one of VII, VIII, IX, X, XI, XII"}, resp.Errors)
}

func TestRegisterRateLimited(t *testing.T) {
	s := newTestServer(t, 2)

	s.register(t, "First")
	s.register(t, "Second")
	w := s.do(registrationForm(t, formFields("Third"), pngBytes))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 100)
	for _, path := range []string{"/api/admin/registrations", "/api/admin/stats", "/api/admin/registrations/search?q=a"} {
		w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, 100)

	login := func(user, pass string) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"username":%q,"password":%q}`, user, pass)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return s.do(req)
	}

	assert.Equal(t, http.StatusUnauthorized, login("admin", "nope").Code)

	w := login("admin", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}

func TestListEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	for i := 0; i < 15; i++ {
		s.register(t, fmt.Sprintf("Student %02d", i))
	}

	w := s.admin(http.MethodGet, "/api/admin/registrations?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page registration.Page
	decode(t, w, &page)
	assert.Len(t, page.Registrations, 5)
	assert.EqualValues(t, 15, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	w = s.admin(http.MethodGet, "/api/admin/registrations?search=zzz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Empty(t, page.Registrations)
	assert.EqualValues(t, 0, page.Total)

	for _, q := range []string{"sortBy=password", "page=abc", "isAttended=maybe", "class=V"} {
		w = s.admin(http.MethodGet, "/api/admin/registrations?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	reg := s.register(t, "Meera Das")

	w := s.admin(http.MethodGet, "/api/admin/registrations/search?q=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"registrations":[]}`, w.Body.String())

	w = s.admin(http.MethodGet, "/api/admin/registrations/search?q=meera", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Registrations []registration.Summary `json:"registrations"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Registrations, 1)
	assert.Equal(t, reg.ID, resp.Registrations[0].ID)
}

func TestToggleEndpoints(t *testing.T) {
	s := newTestServer(t, 100)
	reg := s.register(t, "Toggle Me")

	w := s.admin(http.MethodPatch, "/api/admin/registrations/missing/attendance", map[string]any{"isAttended": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Registration not found"}`, w.Body.String())

	w = s.admin(http.MethodPatch, "/api/admin/registrations/"+reg.ID+"/attendance", map[string]any{"isAttended": "yes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"isAttended must be a boolean value"}`, w.Body.String())

	w = s.admin(http.MethodPatch, "/api/admin/registrations/"+reg.ID+"/certificate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.admin(http.MethodPatch, "/api/admin/registrations/"+reg.ID+"/attendance", map[string]any{"isAttended": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Attendance status updated successfully","isAttended":true}`, w.Body.String())

	w = s.admin(http.MethodPatch, "/api/admin/registrations/"+reg.ID+"/certificate", map[string]any{"certificateIssued": true})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := s.repo.Get(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAttended)
	assert.True(t, stored.CertificateIssued)

	w = s.admin(http.MethodGet, "/api/admin/registrations?isAttended=true&certificateIssued=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page registration.Page
	decode(t, w, &page)
	assert.EqualValues(t, 0, page.Total)
}

func TestContactEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	reg := s.register(t, "Old Name")

	w := s.admin(http.MethodPatch, "/api/admin/registrations/"+reg.ID, map[string]any{
		"studentName":     "New Name",
		"mobileNumber":    "+91 9000000000",
		"altMobileNumber": "+91 9111111111",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.admin(http.MethodGet, "/api/admin/registrations/"+reg.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got registration.Registration
	decode(t, w, &got)
	assert.Equal(t, "New Name", got.StudentName)
	assert.Equal(t, "+91 9111111111", got.AltMobileNumber)

	w = s.admin(http.MethodPatch, "/api/admin/registrations/"+reg.ID, map[string]any{"studentName": "X", "mobileNumber": "9000000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.admin(http.MethodGet, "/api/admin/registrations/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCentralRegisterAndStats(t *testing.T) {
	s := newTestServer(t, 100)
	s.register(t, "Online Entrant")

	body := formFields("Walk In")
	body["schoolName"] = "  stewart school "
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/central-register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := s.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.admin(http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st registration.Stats
	decode(t, w, &st)
	assert.Equal(t, 2, st.TotalParticipants)
	assert.Equal(t, 1, st.TotalSchools)
	assert.Equal(t, 2, st.ClassCounts[registration.ClassX])
	assert.Equal(t, registration.AttendanceStats{Attended: 1, NotAttended: 1, AttendanceRate: 50}, st.AttendanceStats)
}

func TestSchoolsEndpoint(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/schools", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		Schools []string `json:"schools"`
	}
	decode(t, w, &all)
	assert.Len(t, all.Schools, len(schools.Known))

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/schools?q=DPS", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Suggestions []string `json:"suggestions"`
	}
	decode(t, w, &got)
	require.NotEmpty(t, got.Suggestions)
	assert.Equal(t, "Delhi Public School, Kalinga", got.Suggestions[0])

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/schools?q=Unlisted+Academy&includeInput=true", nil))
	decode(t, w, &got)
	assert.Equal(t, "Unlisted Academy", got.Suggestions[0])
}

func TestContactEndpointRejectsDuplicateName(t *testing.T) {
	s := newTestServer(t, 100)
	first := s.register(t, "Same Name")
	second := s.register(t, "Other Name")

	w := s.admin(http.MethodPatch, "/api/admin/registrations/"+second.ID, map[string]any{
		"studentName":  first.StudentName,
		"mobileNumber": "+91 9000000000",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"A registration with these details already exists"}`, w.Body.String())
}
