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
	"encoding/json"
	"net/http"

	"github.com/Loveker97/SurfStore/api"
	"k8s.io/klog/v2"
)

// Server exposes a Store over HTTP, using the same pattern-routed
// net/http mux style as the rest of the SurfStore binaries.
type Server struct {
	store Store
}

// NewServer returns a Server backed by store.
func NewServer(store Store) *Server {
	return &Server{store: store}
}

// Register mounts the block store's endpoints under /block on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /block/ping", s.handlePing)
	mux.HandleFunc("POST /block/store", s.handleStoreBlock)
	mux.HandleFunc("POST /block/get", s.handleGetBlock)
	mux.HandleFunc("POST /block/has", s.handleHasBlock)
	mux.HandleFunc("POST /block/missing", s.handleMissingBlocks)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		klog.Warningf("block store ping failed: %v", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, api.Empty{})
}

func (s *Server) handleStoreBlock(w http.ResponseWriter, r *http.Request) {
	var b api.Block
	if !decodeJSON(w, r, &b) {
		return
	}
	if err := s.store.StoreBlock(r.Context(), b.Hash, b.Data); err != nil {
		klog.Errorf("StoreBlock(%s): %v", b.Hash, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, api.SimpleAnswer{Answer: true})
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	var b api.Block
	if !decodeJSON(w, r, &b) {
		return
	}
	data, ok, err := s.store.GetBlock(r.Context(), b.Hash)
	if err != nil {
		klog.Errorf("GetBlock(%s): %v", b.Hash, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		// Absent-key contract: callers are expected to call HasBlock first,
		// so this is a defensive fallback, not the primary path. Mirror it
		// on the wire as an empty block rather than a transport error.
		writeJSON(w, api.Block{Hash: "", Data: nil})
		return
	}
	writeJSON(w, api.Block{Hash: b.Hash, Data: data})
}

func (s *Server) handleHasBlock(w http.ResponseWriter, r *http.Request) {
	var b api.Block
	if !decodeJSON(w, r, &b) {
		return
	}
	ok, err := s.store.HasBlock(r.Context(), b.Hash)
	if err != nil {
		klog.Errorf("HasBlock(%s): %v", b.Hash, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, api.SimpleAnswer{Answer: ok})
}

func (s *Server) handleMissingBlocks(w http.ResponseWriter, r *http.Request) {
	var fi api.FileInfo
	if !decodeJSON(w, r, &fi) {
		return
	}
	missing, err := s.store.MissingBlocks(r.Context(), fi.BlockList)
	if err != nil {
		klog.Errorf("MissingBlocks: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, api.FileInfo{BlockList: missing})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "malformed request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.Errorf("encode response: %v", err)
	}
}
