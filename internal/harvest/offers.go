package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/roach88/emend/internal/dataset"
)

const dayFormat = "2006-01-02"

// Offering is one grid row tagged with the date it was fetched for. Rows
// are schema-free: the portal owns the column set.
type Offering struct {
	Date string         `json:"fecha"`
	Row  map[string]any `json:"oferta"`
}

// OffersOptions configures the per-date offerings poller.
type OffersOptions struct {
	// PageURL hosts the offerings grid and receives the postbacks.
	PageURL string
	// EventTarget and EventArgument name the direct event that refreshes
	// the grid.
	EventTarget   string
	EventArgument string
	// Days is the horizon to fetch, starting today. Zero selects 7.
	Days int
	// RatePerSec caps requests against the portal. Zero selects 2.
	RatePerSec float64
}

// OffersClient polls the offerings endpoint one date at a time under a
// shared rate limit.
type OffersClient struct {
	client  *Client
	opts    OffersOptions
	limiter *rate.Limiter
}

// NewOffersClient validates opts and builds the poller.
func NewOffersClient(client *Client, opts OffersOptions) (*OffersClient, error) {
	if opts.PageURL == "" {
		return nil, errors.New("offers: page url is required")
	}
	if opts.EventTarget == "" || opts.EventArgument == "" {
		return nil, errors.New("offers: event target and argument are required")
	}
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 2
	}
	return &OffersClient{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}, nil
}

// Bootstrap fetches the offerings page once and scrapes the postback state
// the direct events must echo.
func (o *OffersClient) Bootstrap(ctx context.Context) (ViewState, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return ViewState{}, err
	}
	doc, err := o.client.fetchHTML(ctx, o.opts.PageURL)
	if err != nil {
		return ViewState{}, err
	}
	return ExtractViewState(doc)
}

// FetchRange bootstraps once, then fetches every date of the horizon
// concurrently. Dates share the rate limiter; any date failing fails the
// whole range. Rows come back grouped in date order.
func (o *OffersClient) FetchRange(ctx context.Context, from time.Time) ([]Offering, error) {
	vs, err := o.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]map[string]any, o.opts.Days)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < o.opts.Days; i++ {
		i := i
		date := from.AddDate(0, 0, i)
		g.Go(func() error {
			rows, err := o.FetchDate(gctx, vs, date)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var offerings []Offering
	for i, rows := range results {
		day := from.AddDate(0, 0, i).Format(dayFormat)
		for _, row := range rows {
			offerings = append(offerings, Offering{Date: day, Row: row})
		}
	}
	o.client.log.Info("fetched offerings",
		slog.Int("days", o.opts.Days),
		slog.Int("rows", len(offerings)))
	return offerings, nil
}

// FetchDate posts one direct-event refresh for the given date and returns
// the grid rows.
func (o *OffersClient) FetchDate(ctx context.Context, vs ViewState, date time.Time) ([]map[string]any, error) {
	day := date.Format(dayFormat)
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cfg, err := directEventConfig(date)
	if err != nil {
		return nil, fmt.Errorf("date %s: %w", day, err)
	}
	form := url.Values{
		"__EVENTTARGET":             {o.opts.EventTarget},
		"__EVENTARGUMENT":           {o.opts.EventArgument},
		"__VIEWSTATE":               {vs.State},
		"__VIEWSTATEGENERATOR":      {vs.Generator},
		"submitDirectEventConfig":   {cfg},
		"__ExtNetDirectEventMarker": {"delta=true"},
	}

	u, err := url.Parse(o.opts.PageURL)
	if err != nil {
		return nil, fmt.Errorf("parse offers url: %w", err)
	}
	q := u.Query()
	q.Set("_dc", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	o.client.decorate(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", o.opts.PageURL)

	resp, err := o.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("date %s: %w", day, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("date %s: unexpected status %s", day, resp.Status)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("date %s: decode: %w", day, err)
	}
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("date %s: parse: %w", day, err)
	}

	payload := textareaPayload(doc)
	if payload == "" {
		return nil, fmt.Errorf("date %s: no direct-event payload", day)
	}
	rows, err := decodeOffers(payload)
	if err != nil {
		return nil, fmt.Errorf("date %s: %w", day, err)
	}
	o.client.log.Debug("fetched date", slog.String("date", day), slog.Int("rows", len(rows)))
	return rows, nil
}

// directEventConfig builds the submitDirectEventConfig JSON: all grid
// filters open, equality filter on the requested date at midnight.
func directEventConfig(date time.Time) (string, error) {
	payload := map[string]any{
		"config": map[string]any{
			"extraParams": map[string]any{
				"idEstablecimiento":    0,
				"idNivel":              0,
				"idTurno":              0,
				"idSituacionDeRevista": 0,
				"fechaEQ":              date.Format(dayFormat) + "T00:00:00",
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode direct event config: %w", err)
	}
	return string(data), nil
}

var selTextarea = cascadia.MustCompile("textarea")

// textareaPayload returns the text of the response's first textarea, where
// the direct-event reply embeds its payload.
func textareaPayload(doc *html.Node) string {
	ta := selTextarea.MatchFirst(doc)
	if ta == nil {
		return ""
	}
	return strings.TrimSpace(nodeText(ta))
}

// decodeOffers reads the payload as JSON5 (the portal emits a JS object
// literal, not strict JSON) and digs out serviceResponse.data.data.
func decodeOffers(payload string) ([]map[string]any, error) {
	var envelope struct {
		ServiceResponse struct {
			Data struct {
				Data []map[string]any `json:"data"`
			} `json:"data"`
		} `json:"serviceResponse"`
	}
	if err := json5.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if envelope.ServiceResponse.Data.Data == nil {
		return nil, errors.New("payload carries no rows")
	}
	return envelope.ServiceResponse.Data.Data, nil
}

// WriteOffers writes the rows as NDJSON, one object per line, atomically.
func WriteOffers(path string, offerings []Offering) error {
	return dataset.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, offering := range offerings {
			if err := enc.Encode(offering); err != nil {
				return err
			}
		}
		return nil
	})
}
