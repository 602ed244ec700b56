/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package publish posts the final result document to the configured
// endpoints. Publishing happens strictly after all phases have completed;
// it consumes the assembled document and never touches the plugin engine.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
)

const maxAttempts = 4

type (
	Publisher struct {
		urls   []string
		client *http.Client
	}
)

func New(urls []string, timeout time.Duration) *Publisher {
	return &Publisher{
		urls:   urls,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the document to every endpoint concurrently. Each endpoint is
// retried with exponential backoff; the first definitive failure of any
// endpoint is returned, but the others still complete.
func (p *Publisher) Send(ctx context.Context, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal result document")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, url := range p.urls {
		url := url
		g.Go(func() error {
			return p.sendOne(ctx, url, raw)
		})
	}
	return g.Wait()
}

func (p *Publisher) sendOne(ctx context.Context, url string, raw []byte) error {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    15 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = p.post(ctx, url, raw)
		if lastErr == nil {
			logger.Infof("[publish] result sent to %s", url)
			return nil
		}

		logger.Warnf("[publish] attempt %d to %s failed: %v", attempt, url, lastErr)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return errors.Wrapf(lastErr, "publish to %s", url)
}

func (p *Publisher) post(ctx context.Context, url string, raw []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
