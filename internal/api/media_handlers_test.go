package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServePostImage(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedUser(t, "writer@example.com")
	token := ts.login(t, "writer@example.com")

	imgData := adminPNG(t)
	resp := ts.api.Post("/api/v1/admin/posts/image",
		bytes.NewReader(imgData),
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)

	var body struct {
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	resp = ts.api.Get("/media/posts/" + body.Filename)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, imgData, resp.Body.Bytes())
}

func TestServePostImage_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/media/posts/img-missing.png")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServePostImage_TraversalRejected(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/media/posts/..%2F..%2Fetc%2Fpasswd")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
