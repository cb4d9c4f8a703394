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
	"errors"
	"time"

	"github.com/Loveker97/SurfStore/api"
	retry "github.com/avast/retry-go/v4"
	"k8s.io/klog/v2"
)

var errCatchupRefused = errors.New("peer refused catch-up update")

// StartCatchupLoop launches the leader's background replay task: at a
// fixed cadence, every peer believed crashed is sent the full log via
// Update, and forgiven if it acknowledges. It is a no-op on a follower.
func (r *Replica) StartCatchupLoop(ctx context.Context) {
	if !r.leader {
		return
	}
	r.stopCatchup = make(chan struct{})
	ticker := time.NewTicker(r.opts.CatchupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCatchup:
				return
			case <-ticker.C:
				r.catchupTick(ctx)
			}
		}
	}()
}

func (r *Replica) catchupTick(ctx context.Context) {
	r.mu.Lock()
	if len(r.crashedFollowers) == 0 {
		r.mu.Unlock()
		return
	}
	log := make([]api.LogEntry, len(r.log))
	copy(log, r.log)
	targets := make([]int, 0, len(r.crashedFollowers))
	for i := range r.crashedFollowers {
		targets = append(targets, i)
	}
	peers := r.peers
	r.mu.Unlock()

	for _, i := range targets {
		if i < 0 || i >= len(peers) {
			continue
		}
		peer := peers[i]
		r.recordCatchupAttempt()
		err := retry.Do(
			func() error {
				ok, err := peer.Update(ctx, log)
				if err != nil {
					return err
				}
				if !ok {
					return errCatchupRefused
				}
				return nil
			},
			retry.Attempts(2),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			klog.V(1).Infof("replica %d: catch-up push to peer %d did not land: %v", r.myID, i, err)
			continue
		}
		r.recordCatchupSuccess()
		r.mu.Lock()
		delete(r.crashedFollowers, i)
		r.mu.Unlock()
	}
	r.recordCrashedGauge()
}

func (r *Replica) recordCatchupAttempt() {
	if r.opts.Metrics != nil {
		r.opts.Metrics.catchupAttempts.Inc()
	}
}

func (r *Replica) recordCatchupSuccess() {
	if r.opts.Metrics != nil {
		r.opts.Metrics.catchupSuccess.Inc()
	}
}
