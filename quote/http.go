package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// HTTPFeed resolves quotes from a JSON web API, one request per ticker.
//
// URL contains a "{ticker}" placeholder, and each field of the quote is
// extracted from the response with a JSONPath expression. An empty path leaves
// the field unknown.
type HTTPFeed struct {
	URL            string
	PricePath      string
	VolumePath     string
	MarketOpenPath string

	// Client defaults to a daily cached client.
	Client *http.Client
	// Limiter throttles requests, nil means unlimited.
	Limiter *rate.Limiter
}

// NewHTTPFeed returns a feed reading the price at pricePath, with at most
// perSecond requests per second.
func NewHTTPFeed(urlTemplate, pricePath string, perSecond float64) *HTTPFeed {
	f := &HTTPFeed{URL: urlTemplate, PricePath: pricePath}
	if perSecond > 0 {
		f.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return f
}

// Quotes implements Feed.
func (f *HTTPFeed) Quotes(ctx context.Context, tickers []string) map[string]Quote {
	res := make(map[string]Quote, len(tickers))
	for _, t := range tickers {
		q, err := f.quote(ctx, t)
		if err != nil {
			log.Printf("cannot get quote for %s: %v", t, err)
		}
		res[t] = q
	}
	return res
}

func (f *HTTPFeed) quote(ctx context.Context, ticker string) (Quote, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return Quote{}, err
		}
	}
	client := f.Client
	if client == nil {
		client = Daily("")
	}
	addr := strings.ReplaceAll(f.URL, "{ticker}", url.PathEscape(ticker))
	jobj, err := jwget(ctx, client, addr)
	if err != nil {
		return Quote{}, err
	}

	// fields are independent, a missing one does not hide the others.
	var q Quote
	var errs []error
	if q.Price, err = decimalAt(jobj, f.PricePath); err != nil {
		errs = append(errs, fmt.Errorf("price: %w", err))
	}
	if q.Volume, err = decimalAt(jobj, f.VolumePath); err != nil {
		errs = append(errs, fmt.Errorf("volume: %w", err))
	}
	if q.IsMarketOpen, err = boolAt(jobj, f.MarketOpenPath); err != nil {
		errs = append(errs, fmt.Errorf("market open: %w", err))
	}
	return q, errors.Join(errs...)
}

// jwget performs an HTTP GET and decodes the JSON response, keeping numbers as json.Number.
func jwget(ctx context.Context, client *http.Client, addr string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, err
	}
	return jobj, nil
}

// valueAt evaluates path, keeping the first answer when it returns a list.
func valueAt(jobj any, path string) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, nil
		}
		jval = jlist[0]
	}
	return jval, nil
}

func decimalAt(jobj any, path string) (*decimal.Decimal, error) {
	if path == "" {
		return nil, nil
	}
	jval, err := valueAt(jobj, path)
	if err != nil || jval == nil {
		return nil, err
	}
	var s string
	switch v := jval.(type) {
	case json.Number:
		s = v.String()
	case float64:
		d := decimal.NewFromFloat(v)
		return &d, nil
	case string:
		// some APIs use a decimal comma
		s = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	default:
		return nil, fmt.Errorf("%q is not a number: %v", path, jval)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number: %w", path, err)
	}
	return &d, nil
}

func boolAt(jobj any, path string) (*bool, error) {
	if path == "" {
		return nil, nil
	}
	jval, err := valueAt(jobj, path)
	if err != nil || jval == nil {
		return nil, err
	}
	switch v := jval.(type) {
	case bool:
		return &v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean: %w", path, err)
		}
		return &b, nil
	}
	return nil, fmt.Errorf("%q is not a boolean: %v", path, jval)
}
