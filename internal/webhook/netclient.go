package webhook

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
)

// NetHttpClient implements HttpClient on top of the standard library's
// net/http.Client, the same way the rest of the example pack reaches for
// an off-the-shelf http.Client rather than hand-rolling a transport.
type NetHttpClient struct {
	Client *http.Client
}

func NewNetHttpClient(client *http.Client) *NetHttpClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &NetHttpClient{Client: client}
}

func (c *NetHttpClient) Do(ctx context.Context, req HttpRequest) (HttpResponse, error) {
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		return HttpResponse{}, &HttpError{Kind: HttpErrorInvalidURL, URL: req.URL, Cause: err}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return HttpResponse{}, &HttpError{Kind: HttpErrorInvalidURL, URL: req.URL, Cause: err}
	}
	httpReq.Header = req.Header.Clone()

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return HttpResponse{}, &HttpError{Kind: HttpErrorTimeout, URL: req.URL, Cause: err}
		}
		return HttpResponse{}, &HttpError{Kind: HttpErrorConnection, URL: req.URL, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return HttpResponse{}, &HttpError{Kind: HttpErrorConnection, URL: req.URL, Cause: err}
	}

	return HttpResponse{Status: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}
