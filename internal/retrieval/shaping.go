package retrieval

import (
	"math/rand/v2"
	"strings"
)

// Kind is the type of resource a request fetches, it decides which
// Accept header is sent.
type Kind int

const (
	KindPage Kind = iota
	KindDocument
)

const (
	acceptPage     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptDocument = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel,application/octet-stream;q=0.9,*/*;q=0.8"
)

// HeaderSet is one browser-like header profile, keys are canonical header names.
type HeaderSet map[string]string

// DefaultHeaderSets resemble current desktop browsers.
var DefaultHeaderSets = []HeaderSet{
	{
		"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0 Safari/537.36",
		"Accept-Language":           "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
		"Cache-Control":             "no-cache",
		"Upgrade-Insecure-Requests": "1",
	},
	{
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
		"Accept-Language": "ru,en-US;q=0.7,en;q=0.3",
		"Cache-Control":   "no-cache",
	},
	{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Accept-Language": "ru-RU,ru;q=0.9",
	},
}

// DefaultClientIPHeaders are the headers a spoofed client ip is written to.
var DefaultClientIPHeaders = []string{"X-Forwarded-For", "X-Real-IP", "X-Client-IP"}

// ShapingPolicy decides the outbound headers of every attempt. It only
// varies the request fingerprint, nothing about it is a security measure and
// spoofed ip headers are best effort: most servers ignore them.
type ShapingPolicy struct {
	// HeaderSets are rotated through, attempt n uses HeaderSets[(n-1) % len].
	HeaderSets []HeaderSet
	// ClientIPs is the pool a spoofed client ip is drawn from, empty disables spoofing.
	ClientIPs []string
	// ClientIPHeaders are set to the drawn client ip.
	ClientIPHeaders []string
	// PageReferer is sent as the referer of page fetches that do not name one.
	PageReferer string
}

// DefaultShapingPolicy uses DefaultHeaderSets and no ip spoofing.
func DefaultShapingPolicy() ShapingPolicy {
	return ShapingPolicy{HeaderSets: DefaultHeaderSets}
}

func (p ShapingPolicy) headerSet(attempt int) HeaderSet {
	sets := p.HeaderSets
	if len(sets) == 0 {
		sets = DefaultHeaderSets
	}
	return sets[(attempt-1)%len(sets)]
}

// Headers returns the headers to send for attempt number `attempt` (1 based) of `req`.
func (p ShapingPolicy) Headers(req Request, attempt int) map[string]string {
	headers := map[string]string{}
	for k, v := range p.headerSet(attempt) {
		headers[k] = v
	}

	switch req.Kind {
	case KindDocument:
		headers["Accept"] = acceptDocument
	default:
		headers["Accept"] = acceptPage
	}

	referer := req.Referer
	if referer == "" && req.Kind == KindPage {
		referer = p.PageReferer
	}
	if referer != "" {
		headers["Referer"] = referer
	}

	if len(p.ClientIPs) > 0 {
		ip := strings.TrimSpace(p.ClientIPs[rand.IntN(len(p.ClientIPs))])
		ipHeaders := p.ClientIPHeaders
		if len(ipHeaders) == 0 {
			ipHeaders = DefaultClientIPHeaders
		}
		for _, h := range ipHeaders {
			headers[h] = ip
		}
	}

	return headers
}
