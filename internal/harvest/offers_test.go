package harvest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The portal's direct-event reply: a JS object literal (unquoted keys,
// single quotes) inside a textarea.
const offersReply = `<div><textarea>{serviceResponse:{data:{data:[
  {id: 101, cargo: 'Maestro de grado', establecimiento: 'EP 12'},
  {id: 102, cargo: 'Preceptor', establecimiento: 'ES 3'}
]}}}</textarea></div>`

const offersBootstrap = `<html><body><form>
  <input type="hidden" name="__VIEWSTATE" value="vs-token" />
  <input type="hidden" name="__VIEWSTATEGENERATOR" value="gen-token" />
</form></body></html>`

func TestDecodeOffers(t *testing.T) {
	rows, err := decodeOffers(`{serviceResponse:{data:{data:[{id: 1, cargo: 'Maestro'}]}}}`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Maestro", rows[0]["cargo"])
}

func TestDecodeOffers_NoRows(t *testing.T) {
	_, err := decodeOffers(`{serviceResponse:{}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}

func TestDecodeOffers_Malformed(t *testing.T) {
	_, err := decodeOffers(`<<not an object>>`)
	require.Error(t, err)
}

func TestDirectEventConfig(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	cfg, err := directEventConfig(date)
	require.NoError(t, err)

	var decoded struct {
		Config struct {
			ExtraParams map[string]any `json:"extraParams"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal([]byte(cfg), &decoded))
	assert.Equal(t, "2026-03-02T00:00:00", decoded.Config.ExtraParams["fechaEQ"],
		"date filter is midnight of the requested day")
	assert.Contains(t, decoded.Config.ExtraParams, "idEstablecimiento")
}

// offersServer serves the bootstrap page on GET and per-date direct-event
// replies on POST. Dates are fetched concurrently, so the fetched log is
// mutex-guarded and handler checks use assert, never require.
type offersServer struct {
	*httptest.Server
	mu      sync.Mutex
	fetched []string
}

func (s *offersServer) fetchedDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make([]string, len(s.fetched))
	copy(dates, s.fetched)
	return dates
}

func newOffersServer(t *testing.T, perDate map[string]string) *offersServer {
	t.Helper()
	s := &offersServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(offersBootstrap))
			return
		}

		if !assert.NoError(t, r.ParseForm()) {
			return
		}
		assert.Equal(t, "vs-token", r.PostFormValue("__VIEWSTATE"))
		assert.NotEmpty(t, r.URL.Query().Get("_dc"), "cache buster must be present")

		var cfg struct {
			Config struct {
				ExtraParams struct {
					FechaEQ string `json:"fechaEQ"`
				} `json:"extraParams"`
			} `json:"config"`
		}
		if !assert.NoError(t, json.Unmarshal([]byte(r.PostFormValue("submitDirectEventConfig")), &cfg)) {
			return
		}
		day := cfg.Config.ExtraParams.FechaEQ[:10]
		s.mu.Lock()
		s.fetched = append(s.fetched, day)
		s.mu.Unlock()

		reply, ok := perDate[day]
		if !ok {
			reply = `<div><textarea>{serviceResponse:{data:{data:[]}}}</textarea></div>`
		}
		_, _ = w.Write([]byte(reply))
	}))
	return s
}

func TestFetchRange(t *testing.T) {
	srv := newOffersServer(t, map[string]string{
		"2026-03-02": offersReply,
	})
	defer srv.Close()

	client := NewClient(ClientOptions{})
	poller, err := NewOffersClient(client, OffersOptions{
		PageURL:       srv.URL,
		EventTarget:   "grid",
		EventArgument: "refresh",
		Days:          2,
		RatePerSec:    1000,
	})
	require.NoError(t, err)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	offerings, err := poller.FetchRange(context.Background(), from)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"2026-03-02", "2026-03-03"}, srv.fetchedDates())
	require.Len(t, offerings, 2, "only the first date has rows")
	assert.Equal(t, "2026-03-02", offerings[0].Date)
	assert.Equal(t, "Maestro de grado", offerings[0].Row["cargo"])
}

func TestFetchDate_NoPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(offersBootstrap))
			return
		}
		_, _ = w.Write([]byte("<div>sin textarea</div>"))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{})
	poller, err := NewOffersClient(client, OffersOptions{
		PageURL:       srv.URL,
		EventTarget:   "grid",
		EventArgument: "refresh",
		RatePerSec:    1000,
	})
	require.NoError(t, err)

	vs, err := poller.Bootstrap(context.Background())
	require.NoError(t, err)

	_, err = poller.FetchDate(context.Background(), vs, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no direct-event payload")
}

func TestNewOffersClient_Validation(t *testing.T) {
	client := NewClient(ClientOptions{})

	_, err := NewOffersClient(client, OffersOptions{})
	require.Error(t, err)

	_, err = NewOffersClient(client, OffersOptions{PageURL: "https://example.org"})
	require.Error(t, err)

	poller, err := NewOffersClient(client, OffersOptions{
		PageURL:       "https://example.org",
		EventTarget:   "grid",
		EventArgument: "refresh",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, poller.opts.Days, "horizon defaults to a week")
}

func TestWriteOffers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ofertas.ndjson")
	offerings := []Offering{
		{Date: "2026-03-02", Row: map[string]any{"cargo": "Maestro"}},
		{Date: "2026-03-03", Row: map[string]any{"cargo": "Preceptor"}},
	}
	require.NoError(t, WriteOffers(path, offerings))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var offering Offering
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &offering),
			fmt.Sprintf("line %d must be a standalone JSON object", lines+1))
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 2, lines)
}
