package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapingRotatesHeaderSets(t *testing.T) {
	policy := ShapingPolicy{
		HeaderSets: []HeaderSet{
			{"User-Agent": "first"},
			{"User-Agent": "second"},
		},
	}
	req := Request{Url: "https://example.com"}

	require.Equal(t, "first", policy.Headers(req, 1)["User-Agent"])
	require.Equal(t, "second", policy.Headers(req, 2)["User-Agent"])
	require.Equal(t, "first", policy.Headers(req, 3)["User-Agent"])
}

func TestShapingReferer(t *testing.T) {
	policy := ShapingPolicy{PageReferer: "https://www.example.com/"}

	page := policy.Headers(Request{Kind: KindPage}, 1)
	require.Equal(t, "https://www.example.com/", page["Referer"])
	require.Equal(t, acceptPage, page["Accept"])

	document := policy.Headers(Request{Kind: KindDocument}, 1)
	_, hasReferer := document["Referer"]
	require.False(t, hasReferer)

	document = policy.Headers(Request{Kind: KindDocument, Referer: "https://www.example.com/page"}, 1)
	require.Equal(t, "https://www.example.com/page", document["Referer"])
}

func TestShapingClientIPs(t *testing.T) {
	policy := ShapingPolicy{
		ClientIPs:       []string{"10.1.1.1", "10.2.2.2"},
		ClientIPHeaders: []string{"CF-Connecting-IP"},
	}
	headers := policy.Headers(Request{}, 1)
	require.Contains(t, []string{"10.1.1.1", "10.2.2.2"}, headers["CF-Connecting-IP"])
	_, hasForwarded := headers["X-Forwarded-For"]
	require.False(t, hasForwarded)

	headers = ShapingPolicy{}.Headers(Request{}, 1)
	_, hasForwarded = headers["X-Forwarded-For"]
	require.False(t, hasForwarded)
}

func TestShapingDoesNotMutateHeaderSets(t *testing.T) {
	policy := DefaultShapingPolicy()
	policy.Headers(Request{Referer: "https://example.com"}, 1)
	_, hasReferer := DefaultHeaderSets[0]["Referer"]
	require.False(t, hasReferer)
}
