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

// Client is the full client-facing surface of a metadata replica: the read
// path, the leader-only write path, and the crash-control endpoints used
// by tests and surfstorectl.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient returns a Client for the metadata replica listening at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, hc: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) do(ctx context.Context, method, path string, req, resp any) error {
	var body bytes.Buffer
	if req != nil {
		if err := json.NewEncoder(&body).Encode(req); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d", method, path, httpResp.StatusCode)
	}
	if resp == nil {
		return nil
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/metadata/ping", nil, nil)
}

func (c *Client) ReadFile(ctx context.Context, filename string) (api.FileInfo, error) {
	var fi api.FileInfo
	err := c.do(ctx, http.MethodPost, "/metadata/read", api.FileInfo{Filename: filename}, &fi)
	return fi, err
}

func (c *Client) ModifyFile(ctx context.Context, fi api.FileInfo) (api.WriteResult, error) {
	var res api.WriteResult
	err := c.do(ctx, http.MethodPost, "/metadata/modify", fi, &res)
	return res, err
}

func (c *Client) DeleteFile(ctx context.Context, fi api.FileInfo) (api.WriteResult, error) {
	var res api.WriteResult
	err := c.do(ctx, http.MethodPost, "/metadata/delete", fi, &res)
	return res, err
}

func (c *Client) IsLeader(ctx context.Context) (bool, error) {
	var ans api.SimpleAnswer
	err := c.do(ctx, http.MethodGet, "/metadata/is-leader", nil, &ans)
	return ans.Answer, err
}

func (c *Client) IsCrashed(ctx context.Context) (bool, error) {
	var ans api.SimpleAnswer
	err := c.do(ctx, http.MethodGet, "/metadata/is-crashed", nil, &ans)
	return ans.Answer, err
}

func (c *Client) Crash(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/metadata/crash", api.Empty{}, nil)
}

func (c *Client) Restore(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/metadata/restore", api.Empty{}, nil)
}
