package objectstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryUpload(t *testing.T) {
	var fields map[string][]string
	var fileBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/auto/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		fields = r.MultipartForm.Value
		if f, _, err := r.FormFile("file"); assert.NoError(t, err) {
			fileBody, _ = io.ReadAll(f)
		}
		_ = json.NewEncoder(w).Encode(UploadResult{
			PublicID:  "quiz/id-cards/1-card",
			SecureURL: "https://res.cloudinary.com/demo/image/upload/quiz/id-cards/1-card.png",
		})
	}))
	defer srv.Close()

	c := NewCloudinary("demo", "key", "secret", "quiz")
	c.BaseURL = srv.URL

	url, err := c.Upload(context.Background(), "id-cards/1-card.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/quiz/id-cards/1-card.png", url)
	assert.Equal(t, []byte("png-bytes"), fileBody)
	assert.Equal(t, []string{"id-cards/1-card"}, fields["public_id"])
	assert.Equal(t, []string{"quiz"}, fields["folder"])
	assert.Equal(t, []string{"key"}, fields["api_key"])

	want := c.sign(map[string]string{
		"folder":    "quiz",
		"public_id": "id-cards/1-card",
		"timestamp": fields["timestamp"][0],
	})
	assert.Equal(t, []string{want}, fields["signature"])
}

func TestCloudinaryUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewCloudinary("demo", "key", "secret", "")
	c.BaseURL = srv.URL

	_, err := c.Upload(context.Background(), "id-cards/1-card.pdf", "application/pdf", []byte("%PDF-"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSignIgnoresKeyAndFile(t *testing.T) {
	c := &Cloudinary{APISecret: "secret"}
	a := c.sign(map[string]string{"timestamp": "1", "api_key": "k1", "file": "x"})
	b := c.sign(map[string]string{"timestamp": "1", "api_key": "k2"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestLocalUpload(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "http://localhost:8081/uploads/")
	require.NoError(t, err)

	url, err := l.Upload(context.Background(), "id-cards/42-card.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/uploads/id-cards/42-card.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "id-cards", "42-card.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}

func TestLocalUploadStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "store"), "/uploads")
	require.NoError(t, err)

	url, err := l.Upload(context.Background(), "../escape.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", url)
	assert.FileExists(t, filepath.Join(dir, "store", "escape.png"))
	assert.NoFileExists(t, filepath.Join(dir, "escape.png"))
}
