package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/etnz/fxhub"
)

// contains http utils to deal with remote providers

// reply is the raw answer of a provider.
type reply struct {
	status  int
	etag    string
	latency time.Duration
	body    []byte
}

// OK reports whether the status is a success.
func (r *reply) OK() bool { return r.status >= 200 && r.status < 300 }

// validator returns the ETag of the reply, or a weak validator computed from
// the body when the provider did not send one.
func (r *reply) validator() string {
	if r.etag != "" {
		return r.etag
	}
	sum := sha256.Sum256(r.body)
	return fmt.Sprintf("W/\"%x\"", sum[:3])
}

// meta returns the quote metadata for a currency identified by rawID at the provider.
func (r *reply) meta(rawID string) fxhub.QuoteMeta {
	return fxhub.QuoteMeta{
		RawID:      rawID,
		RequestMS:  r.latency.Milliseconds(),
		StatusCode: r.status,
		ETag:       r.validator(),
	}
}

// decode unmarshals the body as a generic JSON value.
func (r *reply) decode() (any, error) {
	var jobj any
	dec := json.NewDecoder(bytes.NewReader(r.body))
	if err := dec.Decode(&jobj); err != nil {
		return nil, err
	}
	return jobj, nil
}

// wget performs an HTTP GET request bounded by timeout, and returns the whole reply.
func wget(ctx context.Context, client *http.Client, addr string, timeout time.Duration) (*reply, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	r := &reply{
		status:  resp.StatusCode,
		etag:    resp.Header.Get("ETag"),
		latency: time.Since(start),
		body:    buf.Bytes(),
	}
	// The path is not logged, some providers put the api key in it.
	log.Printf("%v %v %v %dms", req.Method, req.URL.Host, resp.Status, r.latency.Milliseconds())
	return r, nil
}
