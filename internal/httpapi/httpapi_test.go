package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/db"
	"schedule-backend/internal/locator"
	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/retrieval"
	"schedule-backend/internal/schedule"
	"schedule-backend/pkg/migrations"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(_ context.Context, req retrieval.Request) (retrieval.Result, error) {
	return retrieval.Result{}, &retrieval.Error{
		Url:      req.Url,
		Attempts: 3,
		Err:      &retrieval.StatusError{Code: 500, Status: "500 Internal Server Error"},
	}
}

type nopLocator struct{}

func (nopLocator) Locate(context.Context, string) (locator.Location, error) {
	return locator.Location{}, locator.ErrNoDocumentLink
}

func makeWorkbook(t testing.TB) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	cells := map[string]string{
		"D1": "GR-1", "E1": "GR-2",
		"A2": "нечетная", "B2": "Пн", "C2": "1", "D2": "Физика", "E2": "Химия",
		"C3": "2", "D3": "Мат",
	}
	for cell, value := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestServer(t testing.TB, schedules Schedules) *resty.Client {
	t.Helper()
	server := httptest.NewServer(NewServer(schedules, Options{AllowOrigin: "*"}, &telemetry.Recorder{}).Handler())
	t.Cleanup(server.Close)
	return resty.New().SetBaseURL(server.URL)
}

func newService(t testing.TB) *schedule.Service {
	t.Helper()
	database, err := migrations.OpenAndMigrateDB(db.Schema, migrations.Config{File: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	service, err := schedule.NewService(
		database, nopFetcher{}, nopLocator{}, schedule.Options{},
		schedule.WithCustomTelemetryAPI(&telemetry.Recorder{}),
	)
	require.NoError(t, err)
	return service
}

func TestUploadAndQuery(t *testing.T) {
	client := newTestServer(t, newService(t))

	var failed errorResponse
	res, err := client.R().SetResult(&failed).SetError(&failed).Get("/api/schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode())
	require.False(t, failed.Success)
	require.Equal(t, kindNotFound, failed.Kind)

	var loaded loadResponse
	res, err = client.R().
		SetFileReader("schedule", "raspisanie.xlsx", bytes.NewReader(makeWorkbook(t))).
		SetFormData(map[string]string{"comment": "autumn"}).
		SetResult(&loaded).
		Post("/api/upload-schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode(), res.String())
	require.True(t, loaded.Success)
	require.Equal(t, "raspisanie.xlsx", loaded.Filename)
	require.Equal(t, int64(len(makeWorkbook(t))), loaded.Size)
	require.Equal(t, 3, loaded.Document.RecordCount)

	var first scheduleResponse
	res, err = client.R().SetResult(&first).Get("/api/schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
	require.True(t, first.Success)
	require.False(t, first.FromCache)
	require.Len(t, first.Schedule, 3)

	var second scheduleResponse
	_, err = client.R().SetResult(&second).Get("/api/schedule")
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, first.Schedule, second.Schedule)
	require.True(t, first.LastUpdated.Equal(second.LastUpdated))

	var filtered scheduleResponse
	_, err = client.R().SetQueryParam("group", " gr-2 ").SetResult(&filtered).Get("/api/schedule")
	require.NoError(t, err)
	require.Equal(t, []normalizer.Record{
		{Week: "нечетная", Day: "Пн", Number: "1", Subject: "Химия", Group: "GR-2"},
	}, filtered.Schedule)

	var missing scheduleResponse
	_, err = client.R().SetQueryParam("group", "GR-3").SetResult(&missing).Get("/api/schedule")
	require.NoError(t, err)
	require.Empty(t, missing.Schedule)
	require.NotEmpty(t, missing.Suggestions)

	var groups groupsResponse
	_, err = client.R().SetResult(&groups).Get("/api/groups")
	require.NoError(t, err)
	require.Equal(t, []string{"GR-1", "GR-2"}, groups.Groups)

	var status statusResponse
	_, err = client.R().SetResult(&status).Get("/")
	require.NoError(t, err)
	require.Equal(t, "populated", status.Cache)
	require.Equal(t, "raspisanie.xlsx", status.Document.Source)
}

func TestUploadErrors(t *testing.T) {
	client := newTestServer(t, newService(t))

	cases := []struct {
		name   string
		req    func() (*resty.Response, error)
		status int
		kind   string
	}{
		{
			name: "not multipart",
			req: func() (*resty.Response, error) {
				return client.R().SetBody(map[string]string{"a": "b"}).Post("/api/upload-schedule")
			},
			status: http.StatusBadRequest,
			kind:   kindBadRequest,
		},
		{
			name: "no file part",
			req: func() (*resty.Response, error) {
				return client.R().SetMultipartFormData(map[string]string{"a": "b"}).Post("/api/upload-schedule")
			},
			status: http.StatusBadRequest,
			kind:   kindBadRequest,
		},
		{
			name: "not a spreadsheet",
			req: func() (*resty.Response, error) {
				return client.R().
					SetFileReader("schedule", "notes.xlsx", bytes.NewReader([]byte("plain text"))).
					Post("/api/upload-schedule")
			},
			status: http.StatusUnprocessableEntity,
			kind:   kindParse,
		},
		{
			name: "missing url",
			req: func() (*resty.Response, error) {
				return client.R().SetBody(map[string]string{}).Post("/api/load-schedule-url")
			},
			status: http.StatusBadRequest,
			kind:   kindBadRequest,
		},
		{
			name: "url is not a string",
			req: func() (*resty.Response, error) {
				return client.R().SetBody(map[string]int{"url": 1}).Post("/api/load-schedule-url")
			},
			status: http.StatusBadRequest,
			kind:   kindBadRequest,
		},
		{
			name: "bad scheme",
			req: func() (*resty.Response, error) {
				return client.R().SetBody(map[string]string{"url": "file:///etc/passwd"}).Post("/api/load-schedule-url")
			},
			status: http.StatusBadRequest,
			kind:   kindBadRequest,
		},
		{
			name: "upstream failure",
			req: func() (*resty.Response, error) {
				return client.R().SetBody(map[string]string{"url": "https://example.edu/a.xlsx"}).Post("/api/load-schedule-url")
			},
			status: http.StatusBadGateway,
			kind:   kindRetrieval,
		},
		{
			name: "refresh without source page",
			req: func() (*resty.Response, error) {
				return client.R().Post("/api/refresh")
			},
			status: http.StatusNotFound,
			kind:   kindNotFound,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			res, err := test.req()
			require.NoError(t, err)
			require.Equal(t, test.status, res.StatusCode(), res.String())

			var body errorResponse
			require.NoError(t, decode(res.Body(), &body))
			require.False(t, body.Success)
			require.Equal(t, test.kind, body.Kind)
			require.NotEmpty(t, body.Error)
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	service := newService(t)
	server := httptest.NewServer(NewServer(service, Options{MaxUploadBytes: 1024}, &telemetry.Recorder{}).Handler())
	defer server.Close()
	client := resty.New().SetBaseURL(server.URL)

	var body errorResponse
	res, err := client.R().
		SetError(&body).
		SetFileReader("schedule", "schedule.xlsx", bytes.NewReader(make([]byte, 8192))).
		Post("/api/upload-schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode(), res.String())
	require.Equal(t, kindTooLarge, body.Kind)
	require.False(t, body.Success)

	_, err = service.GetSchedule(context.Background())
	require.ErrorIs(t, err, schedule.ErrNotFound)
}

type failingSchedules struct {
	*schedule.Service
	err error
}

func (f failingSchedules) GetSchedule(context.Context) (schedule.Schedule, error) {
	return schedule.Schedule{}, f.err
}

func (f failingSchedules) Status(context.Context) (schedule.Status, error) {
	return schedule.Status{}, f.err
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{err: schedule.ErrNotFound, status: http.StatusNotFound, kind: kindNotFound},
		{err: &normalizer.ParseError{Stage: "open", Err: fmt.Errorf("zip: not a valid zip file")}, status: http.StatusUnprocessableEntity, kind: kindParse},
		{err: &retrieval.Error{Url: "u", Attempts: 3, Err: context.DeadlineExceeded}, status: http.StatusBadGateway, kind: kindRetrieval},
		{err: fmt.Errorf("locate: %w", locator.ErrNoDocumentLink), status: http.StatusBadGateway, kind: kindRetrieval},
		{err: fmt.Errorf("disk full"), status: http.StatusInternalServerError, kind: kindInternal},
	}
	for _, test := range cases {
		status, kind := classify(test.err)
		require.Equal(t, test.status, status, test.err.Error())
		require.Equal(t, test.kind, kind, test.err.Error())
	}

	client := newTestServer(t, failingSchedules{err: &retrieval.Error{Url: "u", Attempts: 3, Err: context.DeadlineExceeded}})
	res, err := client.R().Get("/api/schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, res.StatusCode())
	require.Contains(t, res.String(), "failed after 3 attempt(s)")
}

func TestCorsPreflight(t *testing.T) {
	client := newTestServer(t, newService(t))
	res, err := client.R().Execute(http.MethodOptions, "/api/schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, res.StatusCode())
	require.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
}

func decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
