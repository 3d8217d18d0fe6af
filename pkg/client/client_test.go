package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransport(t *testing.T) {
	tr := NewTransport(
		WithMaxIdleConns(7),
		WithMaxIdleConnsPerHost(3),
		WithIdleConnTimeout(5*time.Second),
	)
	assert.Equal(t, 7, tr.MaxIdleConns)
	assert.Equal(t, 3, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 5*time.Second, tr.IdleConnTimeout)
	assert.NotSame(t, http.DefaultTransport, tr)
}

func TestNewClient(t *testing.T) {
	c := NewClient()
	assert.Equal(t, defaultClientTimeout, c.Timeout)

	tr := NewTransport()
	c = NewClient(WithTimeout(time.Second), WithTransport(tr))
	assert.Equal(t, time.Second, c.Timeout)
	assert.Same(t, tr, c.Transport)

	c = NewClient(WithTimeout(0))
	assert.Equal(t, defaultClientTimeout, c.Timeout)
}

func TestWithoutRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	resp, err := NewClient(WithoutRedirects()).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/elsewhere", resp.Header.Get("Location"))
}
