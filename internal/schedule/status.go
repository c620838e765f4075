package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"schedule-backend/internal/db"
)

// ErrInvalidUrl is returned for document urls that are not absolute http(s) urls.
var ErrInvalidUrl = errors.New("invalid document url")

// ValidateUrl trims `rawUrl` and checks that it is an absolute http(s) url.
func ValidateUrl(rawUrl string) (string, error) {
	if rawUrl == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidUrl)
	}
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidUrl, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidUrl, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidUrl)
	}
	return parsed.String(), nil
}

// LoadEvent is one attempt to replace the current document.
type LoadEvent struct {
	Source   string    `json:"source"`
	Revision string    `json:"revision,omitempty"`
	Ok       bool      `json:"ok"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

type Status struct {
	Cache       string      `json:"cache"`
	LastUpdated *time.Time  `json:"lastUpdated"`
	Document    *Document   `json:"document"`
	PageUrl     string      `json:"pageUrl,omitempty"`
	Events      []LoadEvent `json:"events"`
}

const statusEventLimit = 10

// Status describes the cache and the current document without loading it.
func (s *Service) Status(ctx context.Context) (Status, error) {
	status := Status{
		Cache:   s.cache.State().String(),
		PageUrl: s.opts.PageUrl,
		Events:  []LoadEvent{},
	}
	entry, ok := s.cache.Get()
	if ok {
		status.LastUpdated = &entry.LastUpdated
	}

	doc, err := s.CurrentDocument(ctx)
	if err == nil {
		status.Document = &doc
	} else if !errors.Is(err, ErrNotFound) {
		return Status{}, err
	}

	events, err := s.qry.GetRecentLoadEvents(ctx, statusEventLimit)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("GetRecentLoadEvents: %w", err))
		return Status{}, err
	}
	for _, e := range events {
		status.Events = append(status.Events, LoadEvent{
			Source:   e.Source,
			Revision: e.Revision,
			Ok:       e.Ok,
			Message:  e.Message,
			At:       time.Unix(e.At, 0).In(s.clock.Location()),
		})
	}

	return status, nil
}

// CurrentDocument returns the metadata of the current document or ErrNotFound.
func (s *Service) CurrentDocument(ctx context.Context) (Document, error) {
	row, err := s.qry.GetCurrentDocumentInfo(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("GetCurrentDocumentInfo: %w", err))
		return Document{}, err
	}
	return documentFromInfo(row, s.clock.Location()), nil
}

func documentFromInfo(row db.GetCurrentDocumentInfoRow, loc *time.Location) Document {
	return Document{
		Source:      row.Source,
		Revision:    row.Revision,
		Size:        row.Size,
		RecordCount: int(row.RecordCount),
		LoadedAt:    time.Unix(row.LoadedAt, 0).In(loc),
	}
}

// PruneEvents deletes load events older than `retention`.
func (s *Service) PruneEvents(ctx context.Context, retention time.Duration) error {
	cutoff := s.clock.Now().Add(-retention).Unix()
	err := s.qry.DeleteLoadEventsBefore(ctx, cutoff)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("DeleteLoadEventsBefore: %w", err))
		return err
	}
	return nil
}
