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
	"fmt"
	"time"

	"github.com/Loveker97/SurfStore/api"
	"github.com/Loveker97/SurfStore/internal/quorum"
	"github.com/cenkalti/backoff/v4"
	"k8s.io/klog/v2"
)

// twoPhaseCommitLocked runs the leader's replication protocol for entry.
// Callers must already hold mu in exclusive mode; it is held for the
// duration of the round-trips to peers, per the design's intentional
// serialisation of writes.
func (r *Replica) twoPhaseCommitLocked(ctx context.Context, entry api.LogEntry) error {
	b := r.opts.newBackOff()
	for {
		// 1. Append locally; the leader's log is ground truth.
		r.log = append(r.log, entry)

		// 2. Prepare phase: poll every peer, not just ones not already
		// believed crashed, since a re-poll after rollback is how a
		// recovered peer gets noticed.
		needed := quorum.Needed(len(r.peers))
		counter := quorum.NewCounter(needed)
		for i, p := range r.peers {
			ok, err := p.Vote(ctx)
			if err != nil || !ok {
				r.crashedFollowers[i] = true
				continue
			}
			delete(r.crashedFollowers, i)
			counter.Vote()
		}
		r.recordPrepareRound()

		if counter.Satisfied() {
			// 3. Commit phase: push to every peer not believed crashed.
			for i, p := range r.peers {
				if r.crashedFollowers[i] {
					continue
				}
				if err := p.Commit(ctx, entry); err != nil {
					klog.Warningf("replica %d: Commit to peer %d failed, marking crashed: %v", r.myID, i, err)
					r.crashedFollowers[i] = true
				}
			}
			r.recordCrashedGauge()
			return nil
		}

		// 4. Rollback: remove the entry we just appended.
		r.log = r.log[:len(r.log)-1]

		// 5. Re-poll crashed peers; any that now answer are forgiven
		// before we recurse and retry the whole round.
		for i := range r.crashedFollowers {
			if i < 0 || i >= len(r.peers) {
				continue
			}
			if ok, err := r.peers[i].Vote(ctx); err == nil && ok {
				delete(r.crashedFollowers, i)
			}
		}
		r.recordCrashedGauge()

		d := b.NextBackOff()
		if d == backoff.Stop {
			return fmt.Errorf("replica %d: 2PC could not reach majority of %d peers within the configured deadline", r.myID, len(r.peers))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

func (r *Replica) recordPrepareRound() {
	if r.opts.Metrics != nil {
		r.opts.Metrics.prepareRounds.Inc()
	}
}

func (r *Replica) recordCrashedGauge() {
	if r.opts.Metrics != nil {
		r.opts.Metrics.crashedPeers.Set(float64(len(r.crashedFollowers)))
	}
}
