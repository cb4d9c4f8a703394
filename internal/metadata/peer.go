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

package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Loveker97/SurfStore/api"
)

// Peer is how a leader talks to one follower (or how a test harness wires
// replicas together in-process). Implementations must treat a failed or
// timed-out call identically to an explicit false/crashed reply.
type Peer interface {
	Vote(ctx context.Context) (bool, error)
	Commit(ctx context.Context, entry api.LogEntry) error
	Update(ctx context.Context, log []api.LogEntry) (bool, error)
}

// peerCallTimeout bounds each outbound Vote/Commit/Update call, per the
// recommendation that inter-replica calls not block forever.
const peerCallTimeout = 1 * time.Second

// httpPeer is a Peer backed by a real metadatastored instance over HTTP.
type httpPeer struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPPeer returns a Peer for the metadata replica listening at baseURL.
func NewHTTPPeer(baseURL string) Peer {
	return &httpPeer{baseURL: baseURL, hc: &http.Client{Timeout: peerCallTimeout}}
}

func (p *httpPeer) do(ctx context.Context, path string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, peerCallTimeout)
	defer cancel()
	var body bytes.Buffer
	if req != nil {
		if err := json.NewEncoder(&body).Encode(req); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	httpResp, err := p.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", path, httpResp.StatusCode)
	}
	if resp == nil {
		return nil
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

func (p *httpPeer) Vote(ctx context.Context) (bool, error) {
	var ans api.SimpleAnswer
	if err := p.do(ctx, "/metadata/vote", api.Empty{}, &ans); err != nil {
		return false, err
	}
	return ans.Answer, nil
}

func (p *httpPeer) Commit(ctx context.Context, entry api.LogEntry) error {
	return p.do(ctx, "/metadata/commit", api.Log{Entry: entry}, nil)
}

func (p *httpPeer) Update(ctx context.Context, log []api.LogEntry) (bool, error) {
	var ans api.SimpleAnswer
	if err := p.do(ctx, "/metadata/update", api.Logs{Entries: log}, &ans); err != nil {
		return false, err
	}
	return ans.Answer, nil
}

// localPeer is an in-process Peer wrapping another Replica directly,
// letting tests exercise multi-replica 2PC and catch-up without sockets.
type localPeer struct {
	replica *Replica
}

// NewLocalPeer returns a Peer that calls straight into r's follower RPCs.
func NewLocalPeer(r *Replica) Peer {
	return &localPeer{replica: r}
}

func (p *localPeer) Vote(ctx context.Context) (bool, error) {
	return p.replica.Vote(), nil
}

func (p *localPeer) Commit(ctx context.Context, entry api.LogEntry) error {
	p.replica.Commit(entry)
	return nil
}

func (p *localPeer) Update(ctx context.Context, log []api.LogEntry) (bool, error) {
	return p.replica.Update(log), nil
}
