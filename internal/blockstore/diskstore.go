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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const filePerm = 0o644
const dirPerm = 0o755

// DiskStore is an optional persistent Store backend: each block is written
// as one file named by its fingerprint under root. This does not change
// any replication or write-path semantics; it only gives block bytes a
// durability option independent of the in-memory metadata log.
type DiskStore struct {
	mu   sync.Mutex
	root string
}

// NewDiskStore returns a Store backed by files under root, creating root
// if it does not already exist.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create block root %q: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) path(hash string) string {
	return filepath.Join(s.root, hash)
}

func (s *DiskStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

func (s *DiskStore) StoreBlock(ctx context.Context, hash string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.path(hash)
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("write block %q: %w", hash, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("commit block %q: %w", hash, err)
	}
	return nil
}

func (s *DiskStore) GetBlock(ctx context.Context, hash string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read block %q: %w", hash, err)
	}
	return b, true, nil
}

func (s *DiskStore) HasBlock(ctx context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.path(hash))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, nil
}

func (s *DiskStore) MissingBlocks(ctx context.Context, hashes []string) ([]string, error) {
	var missing []string
	for _, h := range hashes {
		ok, err := s.HasBlock(ctx, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, h)
		}
	}
	return missing, nil
}
