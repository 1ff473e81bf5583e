package gemini

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	blob, err := decodeDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, []byte("hello"), blob.Data)

	_, err = decodeDataURI("data:image/png;base64")
	assert.Error(t, err)
	_, err = decodeDataURI("data:image/png,rawbytes")
	assert.Error(t, err)
	_, err = decodeDataURI("data:image/png;base64,***")
	assert.Error(t, err)
}

func TestLoadImage_FetchesURL(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(png)
	}))
	defer srv.Close()

	c := NewClient("key", "")
	c.httpc = srv.Client()
	blob, err := c.loadImage(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, png, blob.Data)
	assert.Equal(t, defaultModel, c.ModelName())
}

func TestLoadImage_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient("key", "")
	c.httpc = srv.Client()
	_, err := c.loadImage(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestLoadImage_RefusesNonPublicHosts(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewClient("key", "")
	for _, ref := range []string{srv.URL + "/a.png", "http://169.254.169.254/latest/meta-data"} {
		_, err := c.loadImage(context.Background(), ref)
		assert.ErrorContains(t, err, "non-public address", ref)
	}
	assert.Zero(t, hits)

	_, err := c.loadImage(context.Background(), "httpx://example.com/a.png")
	assert.ErrorContains(t, err, "scheme")
}

func TestIsPublicIP(t *testing.T) {
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "172.20.0.1", "192.168.1.1", "169.254.169.254", "100.64.0.1", "0.0.0.0", "::1", "fd00::1", "fe80::1"} {
		assert.False(t, isPublicIP(net.ParseIP(ip)), ip)
	}
	for _, ip := range []string{"8.8.8.8", "142.250.72.14", "2606:4700:4700::1111"} {
		assert.True(t, isPublicIP(net.ParseIP(ip)), ip)
	}
}
