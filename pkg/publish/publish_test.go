/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package publish

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSend(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var doc map[string]interface{}
		assert.NoError(t, json.Unmarshal(raw, &doc))
		assert.Equal(t, "abc", doc["_id"])

		received.Add(1)
	}))
	defer srv.Close()

	p := New([]string{srv.URL, srv.URL + "/second"}, time.Second)
	err := p.Send(context.Background(), map[string]interface{}{"_id": "abc"})
	assert.NoError(t, err)
	assert.Equal(t, int32(2), received.Load())
}

func TestSendRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	p := New([]string{srv.URL}, time.Second)
	err := p.Send(context.Background(), map[string]string{"k": "v"})
	assert.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := New([]string{srv.URL}, time.Second)
	start := time.Now()
	err := p.Send(context.Background(), map[string]string{"k": "v"})
	assert.Error(t, err)
	assert.Equal(t, int32(maxAttempts), calls.Load())
	// Three backoff waits between four attempts and none after the last
	// one, so well under the 0.5+1+2+4s a trailing wait would add up to.
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestSendCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New([]string{srv.URL}, time.Second)
	err := p.Send(ctx, map[string]string{"k": "v"})
	assert.Error(t, err)
}
