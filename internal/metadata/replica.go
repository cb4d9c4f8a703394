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
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Loveker97/SurfStore/api"
	"github.com/Loveker97/SurfStore/internal/blockstore"
	"github.com/cenkalti/backoff/v4"
	"k8s.io/klog/v2"
)

// Options configures a Replica. Use the With* functions below rather than
// constructing this directly.
type Options struct {
	Metrics            *Metrics
	CatchupInterval    time.Duration
	PrepareMaxElapsed  time.Duration
	newBackOff         func() backoff.BackOff
}

// WithMetrics attaches Prometheus instrumentation to the replica.
func WithMetrics(m *Metrics) func(*Options) {
	return func(o *Options) { o.Metrics = m }
}

// WithCatchupInterval overrides the cadence of the background catch-up
// loop. The reference runs at roughly 2 Hz.
func WithCatchupInterval(d time.Duration) func(*Options) {
	return func(o *Options) { o.CatchupInterval = d }
}

// WithPrepareMaxElapsed bounds how long a 2PC round will busy-wait/recurse
// while it lacks a majority before giving up and surfacing a transport-level
// error to the caller, resolving the open question the reference leaves as
// an unbounded retry.
func WithPrepareMaxElapsed(d time.Duration) func(*Options) {
	return func(o *Options) { o.PrepareMaxElapsed = d }
}

func resolveOptions(opts ...func(*Options)) *Options {
	defaults := &Options{
		CatchupInterval:   500 * time.Millisecond, // ~2 Hz
		PrepareMaxElapsed: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(defaults)
	}
	if defaults.newBackOff == nil {
		defaults.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = defaults.PrepareMaxElapsed
			return b
		}
	}
	return defaults
}

// Replica is one node of the replicated metadata store: either the static
// leader or one of its followers. fileTable, log, crashedFollowers, and
// the crashed/leader flags form a single consistency domain guarded by mu.
type Replica struct {
	mu sync.RWMutex

	myID   int
	leader bool
	crashed bool

	fileTable map[string]FileEntry
	log       []api.LogEntry

	// On the leader, peers holds every other replica, ordered by ID. A
	// follower's peers slice holds exactly the leader.
	peers            []Peer
	crashedFollowers map[int]bool

	blocks blockstore.Store
	opts   *Options

	stopCatchup chan struct{}
}

// NewReplica constructs a replica. myID is 1-based. isLeader must be set by
// the caller from configuration (myID == config.NumLeaders), since
// leadership is static and never elected.
func NewReplica(myID int, isLeader bool, peers []Peer, blocks blockstore.Store, opts ...func(*Options)) *Replica {
	return &Replica{
		myID:             myID,
		leader:           isLeader,
		fileTable:        make(map[string]FileEntry),
		peers:            peers,
		crashedFollowers: make(map[int]bool),
		blocks:           blocks,
		opts:             resolveOptions(opts...),
	}
}

// WarmPeers pings every peer once via Vote, purely to warm up the leader's
// outbound HTTP connection pool before the first real 2PC round. It is a
// no-op on a follower, and errors are ignored: a peer that doesn't answer
// here is simply marked crashed on its first real vote.
func (r *Replica) WarmPeers(ctx context.Context) {
	if !r.leader {
		return
	}
	for _, p := range r.peers {
		_, _ = p.Vote(ctx)
	}
}

// ReadFile serves the metadata read path. It may be called on any replica,
// crashed or not, and never touches the log.
func (r *Replica) ReadFile(filename string) api.FileInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if filename == "" {
		return api.FileInfo{Version: 0, BlockList: nil}
	}
	e, ok := r.fileTable[filename]
	if !ok {
		return api.FileInfo{Filename: filename, Version: 0, BlockList: nil}
	}
	return e.toFileInfo(filename)
}

// ModifyFile is the leader-only write path for creating/updating a file.
func (r *Replica) ModifyFile(ctx context.Context, fi api.FileInfo) (api.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.leader {
		return api.WriteResult{Result: api.ResultNotLeader}, nil
	}

	prev := int32(0)
	if e, ok := r.fileTable[fi.Filename]; ok {
		prev = e.Version
	}
	if fi.Version != prev+1 {
		r.recordResult(api.ResultOldVersion)
		return api.WriteResult{Result: api.ResultOldVersion, CurrentVersion: prev}, nil
	}

	entry := api.LogEntry{Cmd: cmdModify, Filename: fi.Filename, Version: fi.Version, BlockList: fi.BlockList}
	if err := r.twoPhaseCommitLocked(ctx, entry); err != nil {
		return api.WriteResult{}, err
	}

	missing, err := r.blocks.MissingBlocks(ctx, fi.BlockList)
	if err != nil {
		return api.WriteResult{}, err
	}
	if len(missing) > 0 {
		r.recordResult(api.ResultMissingBlocks)
		return api.WriteResult{Result: api.ResultMissingBlocks, CurrentVersion: prev, MissingBlocks: missing}, nil
	}

	r.fileTable[fi.Filename] = FileEntry{Version: fi.Version, BlockList: fi.BlockList, Deleted: false}
	r.recordResult(api.ResultOK)
	return api.WriteResult{Result: api.ResultOK, CurrentVersion: fi.Version}, nil
}

// DeleteFile is the leader-only write path for tombstoning a file.
func (r *Replica) DeleteFile(ctx context.Context, fi api.FileInfo) (api.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.leader {
		return api.WriteResult{Result: api.ResultNotLeader}, nil
	}

	e, ok := r.fileTable[fi.Filename]
	if !ok || e.Deleted || fi.Version != e.Version+1 {
		prev := int32(0)
		if ok {
			prev = e.Version
		}
		r.recordResult(api.ResultOldVersion)
		return api.WriteResult{Result: api.ResultOldVersion, CurrentVersion: prev}, nil
	}

	entry := api.LogEntry{Cmd: cmdDelete, Filename: fi.Filename, Version: fi.Version, BlockList: api.DeletedBlockList}
	if err := r.twoPhaseCommitLocked(ctx, entry); err != nil {
		return api.WriteResult{}, err
	}

	r.fileTable[fi.Filename] = FileEntry{Version: fi.Version, BlockList: api.DeletedBlockList, Deleted: true}
	r.recordResult(api.ResultOK)
	return api.WriteResult{Result: api.ResultOK, CurrentVersion: fi.Version}, nil
}

func (r *Replica) recordResult(code api.WriteResultCode) {
	if r.opts.Metrics == nil {
		return
	}
	r.opts.Metrics.writesByResult.WithLabelValues(strconv.Itoa(int(code))).Inc()
}

// Vote is the follower RPC polled during 2PC's prepare phase.
func (r *Replica) Vote() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.crashed
}

// Commit is the follower RPC applied during 2PC's commit phase. A crashed
// follower silently ignores it and still replies normally, so the leader
// sees no failure for the dropped entry; only a transport error or timeout
// makes the leader mark the peer crashed.
func (r *Replica) Commit(entry api.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.crashed {
		return
	}
	r.applyLocked(entry)
}

// Update is the catch-up RPC: it replays any log suffix the caller has
// that this replica lacks.
func (r *Replica) Update(leaderLog []api.LogEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.crashed {
		return false
	}
	if len(leaderLog) > len(r.log) {
		for _, e := range leaderLog[len(r.log):] {
			r.applyLocked(e)
		}
	}
	return true
}

// applyLocked appends entry to the log and folds it into the file table.
// Callers must hold mu.
func (r *Replica) applyLocked(entry api.LogEntry) {
	r.log = append(r.log, entry)
	switch entry.Cmd {
	case cmdModify:
		r.fileTable[entry.Filename] = FileEntry{Version: entry.Version, BlockList: entry.BlockList, Deleted: false}
	case cmdDelete:
		r.fileTable[entry.Filename] = FileEntry{Version: entry.Version, BlockList: api.DeletedBlockList, Deleted: true}
	default:
		klog.Warningf("replica %d: ignoring log entry with unknown cmd %q", r.myID, entry.Cmd)
	}
}

// Crash marks this replica (a follower only) unavailable for Vote/Commit/
// Update while still serving ReadFile against its last-known file table.
func (r *Replica) Crash() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leader {
		return
	}
	r.crashed = true
}

// Restore clears the crashed flag unconditionally.
func (r *Replica) Restore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crashed = false
}

func (r *Replica) IsCrashed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.crashed
}

func (r *Replica) IsLeader() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leader
}

// LogLen exposes the current log length, used by tests to assert a
// follower's log is a prefix of the leader's.
func (r *Replica) LogLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.log)
}

// Log returns a copy of the replica's current log.
func (r *Replica) Log() []api.LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]api.LogEntry, len(r.log))
	copy(out, r.log)
	return out
}

// StopCatchup halts the background catch-up goroutine started by
// StartCatchupLoop, if one is running.
func (r *Replica) StopCatchup() {
	if r.stopCatchup != nil {
		close(r.stopCatchup)
		r.stopCatchup = nil
	}
}
