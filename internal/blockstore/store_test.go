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
	"testing"
)

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if ok, _ := s.HasBlock(ctx, "abc"); ok {
		t.Fatal("unexpected block present in empty store")
	}
	if err := s.StoreBlock(ctx, "abc", []byte("hello")); err != nil {
		t.Fatalf("StoreBlock: %v", err)
	}
	// Idempotent: storing the same hash again must not error.
	if err := s.StoreBlock(ctx, "abc", []byte("hello")); err != nil {
		t.Fatalf("StoreBlock (repeat): %v", err)
	}
	data, ok, err := s.GetBlock(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("GetBlock: data=%v ok=%v err=%v", data, ok, err)
	}
	if string(data) != "hello" {
		t.Fatalf("GetBlock returned %q, want %q", data, "hello")
	}
}

func TestMemStoreMissingBlocks(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	if err := s.StoreBlock(ctx, "present", []byte("x")); err != nil {
		t.Fatalf("StoreBlock: %v", err)
	}
	missing, err := s.MissingBlocks(ctx, []string{"present", "absent"})
	if err != nil {
		t.Fatalf("MissingBlocks: %v", err)
	}
	if len(missing) != 1 || missing[0] != "absent" {
		t.Fatalf("MissingBlocks = %v, want [absent]", missing)
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if err := s.StoreBlock(ctx, "abc", []byte("hello")); err != nil {
		t.Fatalf("StoreBlock: %v", err)
	}
	if err := s.StoreBlock(ctx, "abc", []byte("hello")); err != nil {
		t.Fatalf("StoreBlock (repeat): %v", err)
	}
	data, ok, err := s.GetBlock(ctx, "abc")
	if err != nil || !ok || string(data) != "hello" {
		t.Fatalf("GetBlock: data=%v ok=%v err=%v", data, ok, err)
	}
	if ok, err := s.HasBlock(ctx, "missing"); err != nil || ok {
		t.Fatalf("HasBlock(missing) = %v, %v", ok, err)
	}
}
