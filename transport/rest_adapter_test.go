package transport

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-autohub/core"
)

type stubDoer struct {
	req *http.Request
	res *http.Response
	err error
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestRESTAdapter_BuildsRequestAndReadsResponse(t *testing.T) {
	doer := &stubDoer{res: okResponse(`{"id":"u1"}`)}
	adapter := NewRESTAdapter(doer)

	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:  "post",
		URL:     "https://api.clockify.me/api/v1/user",
		Headers: map[string]string{"X-Api-Key": "secret"},
		Query:   map[string]string{"page-size": "50"},
		Body:    []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if string(res.Body) != `{"id":"u1"}` {
		t.Fatalf("unexpected body: %s", res.Body)
	}
	if doer.req.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", doer.req.Method)
	}
	if doer.req.Header.Get("X-Api-Key") != "secret" {
		t.Fatalf("expected api key header")
	}
	if doer.req.URL.Query().Get("page-size") != "50" {
		t.Fatalf("expected query parameter, got %s", doer.req.URL.RawQuery)
	}
}

func TestRESTAdapter_TransportFailureIsExternal(t *testing.T) {
	adapter := NewRESTAdapter(&stubDoer{err: io.ErrUnexpectedEOF})

	_, err := adapter.Do(context.Background(), core.TransportRequest{
		URL: "https://api.clockify.me/api/v1/user",
	})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected classified error, got %T", err)
	}
	if richErr.TextCode != core.ErrorCodeUpstream {
		t.Fatalf("expected %s, got %s", core.ErrorCodeUpstream, richErr.TextCode)
	}
}

func TestRESTAdapter_RejectsOversizedBody(t *testing.T) {
	adapter := NewRESTAdapter(&stubDoer{res: okResponse(strings.Repeat("x", 64))})
	adapter.MaxResponseBodyBytes = 16

	_, err := adapter.Do(context.Background(), core.TransportRequest{
		URL: "https://api.clockify.me/api/v1/user",
	})
	if err == nil {
		t.Fatalf("expected body limit error")
	}
}
