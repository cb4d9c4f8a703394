// Copyright 2026 The SurfStore authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serve wraps an http.Handler with the concurrency cap and
// request-correlation middleware shared by blockstored and
// metadatastored, and runs it over cleartext HTTP/2 (h2c).
package serve

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Loveker97/SurfStore/internal/reqid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/semaphore"
)

// Limit wraps h so that at most maxConcurrent requests are handled at
// once; callers beyond the limit block until a slot frees up, giving the
// server the bounded "-t/--threads" concurrency the spec's CLI surface
// asks for.
func Limit(h http.Handler, maxConcurrent int64) http.Handler {
	sem := semaphore.NewWeighted(maxConcurrent)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sem.Acquire(r.Context(), 1); err != nil {
			http.Error(w, "server busy", http.StatusServiceUnavailable)
			return
		}
		defer sem.Release(1)
		h.ServeHTTP(w, r)
	})
}

// ListenAndServe binds addr and serves h (already wrapped with Limit by
// the caller) over h2c behind reqid.Middleware, blocking until the server
// exits or ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	h2s := &http2.Server{}
	srv := &http.Server{
		Addr:    addr,
		Handler: reqid.Middleware(h2c.NewHandler(h, h2s)),
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}
