package urlguard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTLSCollectorSelfSignedEndpoint(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	dec, err := Tokenize(srv.URL + "/login")
	require.NoError(t, err)

	tc := NewTLSCollector()
	b := tc.Collect(context.Background(), dec)

	require.Equal(t, StatusOK, b.Status, b.Err)
	assert.Equal(t, 1.0, b.Features["tls_present"])
	assert.Equal(t, 1.0, b.Features["self_signed"])
	assert.Equal(t, 0.0, b.Features["cert_valid"])
	assert.Equal(t, 1.0, b.Features["hostname_match"])
	assert.Greater(t, b.Features["cert_days_remaining"], 0.0)
	assert.True(t, hasIndicator(b, IndicatorSelfSignedCert))
}

func TestTLSCollectorNoEndpoint(t *testing.T) {
	dec, err := Tokenize("https://127.0.0.1:1/login")
	require.NoError(t, err)

	tc := NewTLSCollector()
	b := tc.Collect(context.Background(), dec)

	require.Equal(t, StatusOK, b.Status)
	assert.Equal(t, 0.0, b.Features["tls_present"])
	assert.Equal(t, 0.0, b.Features["cert_valid"])
}

func TestTLSCollectorApplies(t *testing.T) {
	tc := NewTLSCollector()

	web, err := Tokenize("https://example.com/")
	require.NoError(t, err)
	ftp, err := Tokenize("ftp://files.example.com/x")
	require.NoError(t, err)

	assert.True(t, tc.Applies(web, Options{DeepScan: true}))
	assert.False(t, tc.Applies(web, Options{}))
	assert.False(t, tc.Applies(ftp, Options{DeepScan: true}))
}
