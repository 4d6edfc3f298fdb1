package urlguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeWebURL(t *testing.T) {
	dec, err := Tokenize("https://login.paypal-secure.tk:8443/Verify/Account?id=123&b=2")
	require.NoError(t, err)

	assert.Equal(t, "https", dec.Scheme)
	assert.Equal(t, CategoryWeb, dec.Category)
	assert.Equal(t, "login.paypal-secure.tk", dec.Host)
	assert.Equal(t, 8443, dec.Port)
	assert.False(t, dec.IsIPLiteral)
	assert.Equal(t, "paypal-secure.tk", dec.RegistrableDomain)
	assert.Equal(t, "tk", dec.TLD)
	assert.Equal(t, []string{"login"}, dec.SubdomainLabels)
	assert.Equal(t, []string{"Verify", "Account"}, dec.PathSegments)

	// Query parameters come back sorted by key.
	require.Len(t, dec.QueryParams, 2)
	assert.Equal(t, QueryParam{Key: "b", Value: "2"}, dec.QueryParams[0])
	assert.Equal(t, QueryParam{Key: "id", Value: "123"}, dec.QueryParams[1])

	assert.Equal(t,
		[]string{"login", "paypal", "secure", "tk", "verify", "account", "b", "2", "id", "123"},
		dec.Tokens)
}

func TestTokenizeIPLiteral(t *testing.T) {
	dec, err := Tokenize("http://192.168.1.10:8080/admin")
	require.NoError(t, err)

	assert.True(t, dec.IsIPLiteral)
	assert.Equal(t, 4, dec.IPVersion)
	assert.Equal(t, "192.168.1.10", dec.Host)
	assert.Equal(t, 8080, dec.Port)
	assert.Empty(t, dec.RegistrableDomain)
	assert.Empty(t, dec.TLD)
}

func TestTokenizeIPv6Literal(t *testing.T) {
	dec, err := Tokenize("http://[2001:db8::1]/index")
	require.NoError(t, err)

	assert.True(t, dec.IsIPLiteral)
	assert.Equal(t, 6, dec.IPVersion)
	assert.Equal(t, "2001:db8::1", dec.Host)
}

func TestTokenizeMailto(t *testing.T) {
	dec, err := Tokenize("mailto:Bob@Example.COM")
	require.NoError(t, err)

	assert.Equal(t, CategoryEmail, dec.Category)
	assert.Equal(t, "example.com", dec.Host)
	assert.Equal(t, "mailto:bob@example.com", dec.Fingerprint)
}

func TestTokenizeDataURL(t *testing.T) {
	dec, err := Tokenize("data:text/html;base64,SGVsbG8=")
	require.NoError(t, err)

	assert.Equal(t, CategoryDataEmbedded, dec.Category)
	assert.Equal(t, "text/html", dec.DataMediaType)
	assert.True(t, dec.DataBase64)
	assert.Equal(t, len("SGVsbG8="), dec.DataPayloadBytes)
}

func TestTokenizeDataURLDefaultMediaType(t *testing.T) {
	dec, err := Tokenize("data:,hello")
	require.NoError(t, err)

	assert.Equal(t, "text/plain", dec.DataMediaType)
	assert.False(t, dec.DataBase64)
	assert.Equal(t, 5, dec.DataPayloadBytes)
}

func TestTokenizeUnknownScheme(t *testing.T) {
	dec, err := Tokenize("gopher://old.example.com/1")
	require.NoError(t, err)
	assert.Equal(t, CategoryCustomUnknown, dec.Category)
}

func TestTokenizeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"embedded space", "http://exa mple.com/"},
		{"control character", "http://example.com/\x01"},
		{"missing scheme", "example.com/login"},
		{"missing host", "http:///path"},
		{"port out of range", "http://example.com:99999/"},
		{"over length limit", "https://example.com/" + strings.Repeat("a", maxURLLength)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(tc.raw)
			require.Error(t, err)
			var merr *MalformedURLError
			assert.ErrorAs(t, err, &merr)
		})
	}
}

func TestFingerprintNormalization(t *testing.T) {
	a, err := Tokenize("https://Example.COM/Path/?b=2&a=1")
	require.NoError(t, err)
	b, err := Tokenize("https://example.com/Path?a=1&b=2")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/path?a=1&b=2", a.Fingerprint)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestFingerprintDefaultPortOmitted(t *testing.T) {
	withPort, err := Tokenize("https://example.com:443/login")
	require.NoError(t, err)
	withoutPort, err := Tokenize("https://example.com/login")
	require.NoError(t, err)

	assert.Equal(t, withoutPort.Fingerprint, withPort.Fingerprint)

	oddPort, err := Tokenize("https://example.com:8443/login")
	require.NoError(t, err)
	assert.Contains(t, oddPort.Fingerprint, ":8443")
}

func TestFingerprintRootPathAndTrailingSlash(t *testing.T) {
	root, err := Tokenize("https://example.com/")
	require.NoError(t, err)
	bare, err := Tokenize("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, bare.Fingerprint, root.Fingerprint)

	trailing, err := Tokenize("https://example.com/a/b/")
	require.NoError(t, err)
	plain, err := Tokenize("https://example.com/a/b")
	require.NoError(t, err)
	assert.Equal(t, plain.Fingerprint, trailing.Fingerprint)
}
