package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"schedule-backend/internal/cache"
	"schedule-backend/internal/components/assert"
	"schedule-backend/internal/components/chrono"
	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/db"
	"schedule-backend/internal/locator"
	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/retrieval"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("schedule.internal.schedule")

const (
	report_schedule_get     = "schedule.get"
	report_schedule_accept  = "schedule.accept"
	report_schedule_refresh = "schedule.refresh"
	report_schedule_records = "schedule.records"

	report_db_query        = "db.query"
	report_rand_revision   = "rand.revision"
	report_notify_delivery = "notify.delivery"
)

// ErrNotFound is returned when there is no current document and no source
// page to acquire one from.
var ErrNotFound = errors.New("schedule not loaded yet; upload a file or load by url")

// ErrEmptyDocument is returned when asked to accept a document with no content.
var ErrEmptyDocument = errors.New("empty document")

// ErrNoSource is returned by Refresh when no source page is configured.
var ErrNoSource = errors.New("no source page configured")

// Fetcher is the part of retrieval.Engine the service needs.
type Fetcher interface {
	Fetch(ctx context.Context, req retrieval.Request) (retrieval.Result, error)
}

// DocumentLocator finds the spreadsheet link on a source page.
type DocumentLocator interface {
	Locate(ctx context.Context, pageUrl string) (locator.Location, error)
}

// RandomAPI generates document revision tokens.
//
// note: fault injection point
type RandomAPI interface {
	Revision() (string, error)
}

type defaultRandomAPI struct{}

func (defaultRandomAPI) Revision() (string, error) {
	return random.String(8)
}

type Options struct {
	// PageUrl is the page the spreadsheet link is published on, it may be empty.
	PageUrl    string
	Normalizer normalizer.Options
}

// Document describes the current spreadsheet.
type Document struct {
	Source      string    `json:"source"`
	Revision    string    `json:"revision"`
	Size        int64     `json:"size"`
	RecordCount int       `json:"recordCount"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// Schedule is the result of GetSchedule.
type Schedule struct {
	Records     []normalizer.Record
	LastUpdated time.Time
	FromCache   bool
}

// Service owns the current document and the cache computed from it. Loads
// and cache misses are serialized, cache hits are not.
type Service struct {
	qry     *db.Queries
	makeTx  db.MakeTx
	cache   *cache.Cache
	fetcher Fetcher
	locator DocumentLocator
	opts    Options

	clock chrono.TimeAPI
	rand  RandomAPI
	tel   telemetry.API

	mutex sync.Mutex
}

type serviceConfig struct {
	clock chrono.TimeAPI
	rand  RandomAPI
	tel   telemetry.API
}

type ServiceOption func(cfg *serviceConfig)

func WithCustomClock(clock chrono.TimeAPI) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.clock = clock
	}
}

func WithCustomRandomAPI(rand RandomAPI) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.rand = rand
	}
}

func WithCustomTelemetryAPI(tel telemetry.API) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

func NewService(
	database *sql.DB,
	fetcher Fetcher,
	locator DocumentLocator,
	opts Options,
	options ...ServiceOption,
) (*Service, error) {
	assert.NotNil(database, "database")
	assert.NotNil(fetcher, "fetcher")
	assert.NotNil(locator, "locator")

	err := opts.Normalizer.Validate()
	if err != nil {
		return nil, err
	}

	cfg := serviceConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.clock == nil {
		clock, err := chrono.NewStandardTime("")
		if err != nil {
			return nil, err
		}
		cfg.clock = clock
	}
	if cfg.rand == nil {
		cfg.rand = defaultRandomAPI{}
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}

	return &Service{
		qry:     db.New(database),
		makeTx:  db.NewMakeTx(database),
		cache:   cache.New(),
		fetcher: fetcher,
		locator: locator,
		opts:    opts,
		clock:   cfg.clock,
		rand:    cfg.rand,
		tel:     telemetry.NewScopedAPI("schedule", cfg.tel),
	}, nil
}

// GetSchedule returns the cached schedule, computing it from the current
// document on a miss. When there is no current document it is acquired from
// the source page first.
func (s *Service) GetSchedule(ctx context.Context) (Schedule, error) {
	entry, ok := s.cache.Get()
	if ok {
		return Schedule{Records: entry.Records, LastUpdated: entry.LastUpdated, FromCache: true}, nil
	}

	ctx, span := tracer.Start(ctx, "GetSchedule")
	defer span.End()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// another caller may have filled the cache while this one waited
	entry, ok = s.cache.Get()
	if ok {
		return Schedule{Records: entry.Records, LastUpdated: entry.LastUpdated, FromCache: true}, nil
	}

	records, err := s.compute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_schedule_get, err)
		return Schedule{}, err
	}

	now := s.clock.Now()
	s.cache.Store(records, now)
	s.tel.ReportCount(report_schedule_records, int64(len(records)))
	span.SetAttributes(attribute.Int("records", len(records)))

	return Schedule{Records: records, LastUpdated: now, FromCache: false}, nil
}

// compute must be called with the mutex held.
func (s *Service) compute(ctx context.Context) ([]normalizer.Record, error) {
	doc, err := s.qry.GetCurrentDocument(ctx)
	if err == nil {
		return normalizer.Parse(doc.Content, s.opts.Normalizer)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("GetCurrentDocument: %w", err))
		return nil, err
	}

	if s.opts.PageUrl == "" {
		return nil, ErrNotFound
	}
	data, source, err := s.acquire(ctx)
	if err != nil {
		s.noteEvent(ctx, s.opts.PageUrl, "", err)
		return nil, err
	}
	_, records, err := s.accept(ctx, data, source)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LoadFromBytes makes `data` the current document and invalidates the cache.
// `data` must be a readable spreadsheet, otherwise nothing changes.
func (s *Service) LoadFromBytes(ctx context.Context, data []byte, source string) (Document, error) {
	ctx, span := tracer.Start(ctx, "LoadFromBytes")
	defer span.End()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, _, err := s.accept(ctx, data, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Document{}, err
	}
	return doc, nil
}

// LoadFromUrl fetches a spreadsheet and makes it the current document.
func (s *Service) LoadFromUrl(ctx context.Context, rawUrl string) (Document, error) {
	ctx, span := tracer.Start(ctx, "LoadFromUrl")
	defer span.End()

	documentUrl, err := ValidateUrl(rawUrl)
	if err != nil {
		return Document{}, err
	}
	span.SetAttributes(attribute.String("url", documentUrl))

	res, err := s.fetcher.Fetch(ctx, retrieval.Request{
		Url:  documentUrl,
		Kind: retrieval.KindDocument,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.noteEvent(ctx, documentUrl, "", err)
		return Document{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, _, err := s.accept(ctx, res.Body, documentUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Document{}, err
	}
	return doc, nil
}

// Refresh locates the spreadsheet on the source page, fetches it and makes
// it the current document.
func (s *Service) Refresh(ctx context.Context) (Document, error) {
	ctx, span := tracer.Start(ctx, "Refresh")
	defer span.End()

	if s.opts.PageUrl == "" {
		return Document{}, ErrNoSource
	}

	data, source, err := s.acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_schedule_refresh, err)
		s.noteEvent(ctx, s.opts.PageUrl, "", err)
		return Document{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, _, err := s.accept(ctx, data, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_schedule_refresh, err)
		return Document{}, err
	}
	return doc, nil
}

// acquire locates the document on the source page and fetches it. The page
// fetch always finishes before the document fetch starts.
func (s *Service) acquire(ctx context.Context) (data []byte, source string, err error) {
	loc, err := s.locator.Locate(ctx, s.opts.PageUrl)
	if err != nil {
		return nil, "", err
	}
	s.tel.ReportDebug("located document", loc.Url, "fallback", loc.Fallback)

	res, err := s.fetcher.Fetch(ctx, retrieval.Request{
		Url:     loc.Url,
		Kind:    retrieval.KindDocument,
		Referer: s.opts.PageUrl,
	})
	if err != nil {
		return nil, "", err
	}
	return res.Body, loc.Url, nil
}

// accept must be called with the mutex held. The document is persisted and
// the cache invalidated only when `data` parses.
func (s *Service) accept(ctx context.Context, data []byte, source string) (Document, []normalizer.Record, error) {
	if len(data) == 0 {
		s.noteEvent(ctx, source, "", ErrEmptyDocument)
		return Document{}, nil, ErrEmptyDocument
	}

	records, err := normalizer.Parse(data, s.opts.Normalizer)
	if err != nil {
		s.tel.ReportWarning(report_schedule_accept, source, err)
		s.noteEvent(ctx, source, "", err)
		return Document{}, nil, err
	}

	revision, err := s.rand.Revision()
	if err != nil {
		s.tel.ReportBroken(report_rand_revision, err)
		return Document{}, nil, err
	}

	doc := Document{
		Source:      source,
		Revision:    revision,
		Size:        int64(len(data)),
		RecordCount: len(records),
		LoadedAt:    s.clock.Now().Truncate(time.Second),
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err)
		return Document{}, nil, err
	}
	defer discard()

	err = tx.SetCurrentDocument(ctx, db.SetCurrentDocumentParams{
		Content:     data,
		Source:      doc.Source,
		Revision:    doc.Revision,
		Size:        doc.Size,
		RecordCount: int64(doc.RecordCount),
		LoadedAt:    doc.LoadedAt.Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("SetCurrentDocument: %w", err))
		return Document{}, nil, err
	}
	err = tx.NoteLoadEvent(ctx, db.NoteLoadEventParams{
		Source:   doc.Source,
		Revision: doc.Revision,
		Ok:       true,
		Message:  fmt.Sprintf("%d records", len(records)),
		At:       doc.LoadedAt.Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("NoteLoadEvent: %w", err))
		return Document{}, nil, err
	}
	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, err)
		return Document{}, nil, err
	}

	s.cache.Invalidate()
	s.tel.ReportDebug("accepted document", doc.Source, doc.Revision, doc.Size)
	return doc, records, nil
}

func (s *Service) noteEvent(ctx context.Context, source, revision string, cause error) {
	err := s.qry.NoteLoadEvent(context.WithoutCancel(ctx), db.NoteLoadEventParams{
		Source:   source,
		Revision: revision,
		Ok:       false,
		Message:  cause.Error(),
		At:       s.clock.Now().Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("NoteLoadEvent: %w", err))
	}
}
