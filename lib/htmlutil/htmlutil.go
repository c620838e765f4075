package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("schedule.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Anchor is a hyperlink with its href resolved to an absolute url.
type Anchor struct {
	Name string
	Url  *url.URL
}

var whitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses whitespace and drops non printable characters.
func CleanText(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(removeNonPrintable(s))
}

// GetAnchors returns the anchors in `sel` in document order with every href
// resolved against `base`. Anchors without an href or with an href that does
// not parse are skipped.
func GetAnchors(ctx context.Context, base *url.URL, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	skipped := 0
	for _, n := range sel.Nodes {
		href, ok := "", false
		for _, a := range n.Attr {
			if a.Key == "href" {
				href, ok = a.Val, true
				break
			}
		}
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			skipped++
			continue
		}

		link, err := base.Parse(href)
		if err != nil {
			skipped++
			span.AddEvent("skipped malformed href", trace.WithAttributes(
				attribute.String("href", href),
				attribute.String("err", err.Error()),
			))
			continue
		}

		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Url:  link,
		})
	}

	span.SetAttributes(
		attribute.Int("anchors", len(anchors)),
		attribute.Int("skipped", skipped),
	)
	return anchors
}
