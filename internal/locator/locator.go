package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"schedule-backend/internal/components/assert"
	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/retrieval"
	"schedule-backend/lib/htmlutil"
	"schedule-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_locator_locate = "locator.locate"
)

// ErrNoDocumentLink is returned when the page has no usable link and there is
// no fallback url to substitute.
var ErrNoDocumentLink = errors.New("no spreadsheet link found")

// DefaultExtensions are the file extensions recognized as spreadsheets.
var DefaultExtensions = []string{".xlsx", ".xlsm"}

// Fetcher is the part of retrieval.Engine the locator needs.
type Fetcher interface {
	Fetch(ctx context.Context, req retrieval.Request) (retrieval.Result, error)
}

type Options struct {
	// FallbackUrl is returned when the page cannot be fetched or has no matching link.
	FallbackUrl string
	// Extensions are matched case insensitively against the link path.
	Extensions []string
	// TargetPhrase, when set, also matches links whose text contains it.
	TargetPhrase string
	// AcceptAnyLink takes the first resolvable link when nothing else matched.
	AcceptAnyLink bool
}

// Location is where the spreadsheet was found.
type Location struct {
	Url string
	// Fallback is true when Url is the configured fallback rather than a link on the page.
	Fallback bool
}

// Locator finds the url of the current schedule spreadsheet on a web page.
type Locator struct {
	fetcher Fetcher
	opts    Options
	tel     telemetry.API
}

func NewLocator(fetcher Fetcher, opts Options, tel telemetry.API) Locator {
	assert.NotNil(fetcher, "fetcher")
	assert.NotNil(tel, "telemetry")

	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	return Locator{
		fetcher: fetcher,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("locator", tel),
	}
}

func (l Locator) fallback(cause error) (Location, error) {
	if l.opts.FallbackUrl == "" {
		return Location{}, fmt.Errorf("%w: %w", ErrNoDocumentLink, cause)
	}
	l.tel.ReportWarning(report_locator_locate, cause, "using fallback", l.opts.FallbackUrl)
	return Location{Url: l.opts.FallbackUrl, Fallback: true}, nil
}

// Locate fetches `pageUrl` once and returns the absolute url of the first
// link that looks like a spreadsheet. Failures to fetch or parse the page
// are absorbed by returning the fallback url.
func (l Locator) Locate(ctx context.Context, pageUrl string) (Location, error) {
	base, err := url.Parse(pageUrl)
	if err != nil {
		return l.fallback(fmt.Errorf("parse page url: %w", err))
	}

	res, err := l.fetcher.Fetch(ctx, retrieval.Request{
		Url:         pageUrl,
		Kind:        retrieval.KindPage,
		MaxAttempts: 1,
	})
	if err != nil {
		return l.fallback(fmt.Errorf("fetch page: %w", err))
	}
	if res.Url != nil {
		base = res.Url
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return l.fallback(fmt.Errorf("parse page: %w", err))
	}

	anchors := htmlutil.GetAnchors(ctx, base, doc.Find("a[href]"))
	l.tel.ReportDebug("anchors found", pageUrl, len(anchors))

	link, ok := l.pick(anchors)
	if !ok {
		return l.fallback(fmt.Errorf("no matching link among %d anchors on %s", len(anchors), pageUrl))
	}
	return Location{Url: link}, nil
}

func (l Locator) pick(anchors []htmlutil.Anchor) (string, bool) {
	for _, a := range anchors {
		if l.isSpreadsheet(a) {
			return a.Url.String(), true
		}
	}
	if l.opts.AcceptAnyLink {
		for _, a := range anchors {
			if a.Url.Scheme == "http" || a.Url.Scheme == "https" {
				return a.Url.String(), true
			}
		}
	}
	return "", false
}

func (l Locator) isSpreadsheet(a htmlutil.Anchor) bool {
	ext := strings.ToLower(path.Ext(a.Url.Path))
	for _, e := range l.opts.Extensions {
		if ext != "" && ext == strings.ToLower(e) {
			return true
		}
	}
	if l.opts.TargetPhrase != "" {
		return textutil.MatchName(a.Name, []string{l.opts.TargetPhrase})
	}
	return false
}
