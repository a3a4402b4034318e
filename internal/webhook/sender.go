package webhook

import (
	"context"
	"net/http"

	"github.com/aymerick/raymond"
	log "github.com/sirupsen/logrus"

	"github.com/ipwatchd/ipwatchd/internal/clock"
	"github.com/ipwatchd/ipwatchd/internal/network"
)

// WebhookSender delivers a batch of changes to a configured destination.
type WebhookSender interface {
	Send(ctx context.Context, changes []network.IpChange) error
}

// ChangeData is the template-visible shape of one IpChange. Timestamp is
// integer seconds since the Unix epoch, matching the webhook wire contract.
type ChangeData struct {
	Adapter   string
	Address   string
	Kind      string
	Timestamp int64
}

// HttpWebhook sends one HTTP request per IpChange — not one batched
// request per call — fanning a changed batch out into N independent
// deliveries, each retried on its own retry budget. Changes are delivered
// one at a time, in order; Send returns the first error encountered and
// does not start the deliveries after it (fail-fast within the batch).
type HttpWebhook struct {
	Client       HttpClient
	Sleeper      clock.Sleeper
	URL          string
	Method       string
	Headers      http.Header
	BodyTemplate string
	Retry        RetryPolicy
}

func NewHttpWebhook(client HttpClient, url string) *HttpWebhook {
	return &HttpWebhook{
		Client:  client,
		Sleeper: clock.RealSleeper{},
		URL:     url,
		Method:  http.MethodPost,
		Headers: make(http.Header),
		Retry:   DefaultRetryPolicy(),
	}
}

func (w *HttpWebhook) Send(ctx context.Context, changes []network.IpChange) error {
	for _, c := range changes {
		if err := w.sendOne(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (w *HttpWebhook) sendOne(ctx context.Context, change network.IpChange) error {
	body, err := w.renderBody(change)
	if err != nil {
		retryable := &RetryableError{TemplateError: err.Error()}
		return &WebhookError{Retryable: retryable}
	}

	req := NewRequest(w.methodOrDefault(), w.URL).WithBody(body)
	for key, values := range w.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	var lastErr *RetryableError
	maxAttempts := w.Retry.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := w.Client.Do(ctx, req)
		if err != nil {
			httpErr, ok := err.(*HttpError)
			if !ok {
				httpErr = &HttpError{Kind: HttpErrorConnection, URL: w.URL, Cause: err}
			}
			lastErr = &RetryableError{Http: httpErr}
		} else if !resp.IsSuccess() {
			lastErr = &RetryableError{NonSuccess: &NonSuccessStatus{Status: resp.Status, Body: resp.BodyText()}}
		} else {
			log.WithFields(log.Fields{
				"adapter": change.Adapter, "address": change.Address.String(), "kind": change.Kind, "attempt": attempt,
			}).Info("webhook delivered")
			return nil
		}

		if !lastErr.IsRetryable() {
			return &WebhookError{Retryable: lastErr}
		}
		if !w.Retry.ShouldRetry(attempt) {
			break
		}

		delay := w.Retry.DelayForRetry(attempt - 1)
		log.WithFields(log.Fields{
			"adapter": change.Adapter, "address": change.Address.String(), "attempt": attempt, "delay": delay,
		}).Warn("webhook attempt failed, retrying")
		w.Sleeper.Sleep(ctx, delay)
	}

	return &WebhookError{Retryable: lastErr, MaxRetriesExceeded: true, Attempts: maxAttempts}
}

func (w *HttpWebhook) methodOrDefault() string {
	if w.Method == "" {
		return http.MethodPost
	}
	return w.Method
}

func (w *HttpWebhook) renderBody(change network.IpChange) ([]byte, error) {
	if w.BodyTemplate == "" {
		return nil, nil
	}
	data := ChangeData{
		Adapter:   change.Adapter,
		Address:   change.Address.String(),
		Kind:      string(change.Kind),
		Timestamp: change.Timestamp.Unix(),
	}
	rendered, err := raymond.Render(w.BodyTemplate, data)
	if err != nil {
		return nil, err
	}
	return []byte(rendered), nil
}
