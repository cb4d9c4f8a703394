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

package blockstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Loveker97/SurfStore/api"
)

// Client talks to a remote BlockStore server over HTTP. It implements
// Store so the metadata replica's write path can treat a local or remote
// block store identically.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient returns a Client for the block store listening at baseURL
// (e.g. "http://127.0.0.1:8081").
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, hc: &http.Client{Timeout: 5 * time.Second}}
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
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/block/ping", nil, nil)
}

func (c *Client) StoreBlock(ctx context.Context, hash string, data []byte) error {
	var ans api.SimpleAnswer
	return c.do(ctx, http.MethodPost, "/block/store", api.Block{Hash: hash, Data: data}, &ans)
}

func (c *Client) GetBlock(ctx context.Context, hash string) ([]byte, bool, error) {
	var b api.Block
	err := c.do(ctx, http.MethodPost, "/block/get", api.Block{Hash: hash}, &b)
	if err != nil {
		return nil, false, err
	}
	// Server answers an absent key with an empty-hash Block rather than a
	// transport error; translate that back into ok=false here.
	if b.Hash == "" {
		return nil, false, nil
	}
	return b.Data, true, nil
}

func (c *Client) HasBlock(ctx context.Context, hash string) (bool, error) {
	var ans api.SimpleAnswer
	if err := c.do(ctx, http.MethodPost, "/block/has", api.Block{Hash: hash}, &ans); err != nil {
		return false, err
	}
	return ans.Answer, nil
}

func (c *Client) MissingBlocks(ctx context.Context, hashes []string) ([]string, error) {
	var fi api.FileInfo
	if err := c.do(ctx, http.MethodPost, "/block/missing", api.FileInfo{BlockList: hashes}, &fi); err != nil {
		return nil, err
	}
	return fi.BlockList, nil
}

var _ Store = (*Client)(nil)
