package source

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSource(t *testing.T) {
	contents := "master:\n  master.hl:\n    ip: 10.0.0.1\n"
	var gotAPIKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-Key")
		if r.URL.Path != "/roles.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(contents))
	}))
	defer ts.Close()

	src, err := NewWebSource(ts.URL + "/roles.yaml")
	require.NoError(t, err)
	src.APIKey = "sekret"

	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, contents, string(data))
	assert.Equal(t, "sekret", gotAPIKey)
	assert.Equal(t, "/roles.yaml", src.Path())
	assert.Equal(t, "http", src.Name())
}

func TestWebSourceNotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	src, err := NewWebSource(ts.URL + "/roles.yaml")
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWebSourceServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	src, err := NewWebSource(ts.URL + "/roles.yaml")
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}
