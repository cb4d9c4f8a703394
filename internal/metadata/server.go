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
	"encoding/json"
	"net/http"

	"github.com/Loveker97/SurfStore/api"
	"k8s.io/klog/v2"
)

// Server exposes a Replica's RPC surface over HTTP.
type Server struct {
	replica *Replica
}

// NewServer returns a Server backed by replica.
func NewServer(replica *Replica) *Server {
	return &Server{replica: replica}
}

// Register mounts the metadata store's endpoints under /metadata on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /metadata/ping", s.handlePing)
	mux.HandleFunc("POST /metadata/read", s.handleReadFile)
	mux.HandleFunc("POST /metadata/modify", s.handleModifyFile)
	mux.HandleFunc("POST /metadata/delete", s.handleDeleteFile)
	mux.HandleFunc("POST /metadata/vote", s.handleVote)
	mux.HandleFunc("POST /metadata/commit", s.handleCommit)
	mux.HandleFunc("POST /metadata/update", s.handleUpdate)
	mux.HandleFunc("GET /metadata/is-leader", s.handleIsLeader)
	mux.HandleFunc("POST /metadata/crash", s.handleCrash)
	mux.HandleFunc("POST /metadata/restore", s.handleRestore)
	mux.HandleFunc("GET /metadata/is-crashed", s.handleIsCrashed)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.Empty{})
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	var fi api.FileInfo
	if !decodeJSON(w, r, &fi) {
		return
	}
	writeJSON(w, s.replica.ReadFile(fi.Filename))
}

func (s *Server) handleModifyFile(w http.ResponseWriter, r *http.Request) {
	var fi api.FileInfo
	if !decodeJSON(w, r, &fi) {
		return
	}
	res, err := s.replica.ModifyFile(r.Context(), fi)
	if err != nil {
		klog.Errorf("ModifyFile(%s): %v", fi.Filename, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	var fi api.FileInfo
	if !decodeJSON(w, r, &fi) {
		return
	}
	res, err := s.replica.DeleteFile(r.Context(), fi)
	if err != nil {
		klog.Errorf("DeleteFile(%s): %v", fi.Filename, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.SimpleAnswer{Answer: s.replica.Vote()})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var l api.Log
	if !decodeJSON(w, r, &l) {
		return
	}
	s.replica.Commit(l.Entry)
	writeJSON(w, api.Empty{})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var logs api.Logs
	if !decodeJSON(w, r, &logs) {
		return
	}
	writeJSON(w, api.SimpleAnswer{Answer: s.replica.Update(logs.Entries)})
}

func (s *Server) handleIsLeader(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.SimpleAnswer{Answer: s.replica.IsLeader()})
}

func (s *Server) handleCrash(w http.ResponseWriter, r *http.Request) {
	s.replica.Crash()
	writeJSON(w, api.Empty{})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.replica.Restore()
	writeJSON(w, api.Empty{})
}

func (s *Server) handleIsCrashed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.SimpleAnswer{Answer: s.replica.IsCrashed()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
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
