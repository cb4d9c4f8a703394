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
	"testing"
	"time"

	"github.com/Loveker97/SurfStore/api"
	"github.com/Loveker97/SurfStore/internal/blockstore"
)

// cluster wires up a leader and numFollowers followers, all sharing one
// in-memory block store, with in-process Peer links from the leader to
// each follower.
type cluster struct {
	leader    *Replica
	followers []*Replica
	blocks    *blockstore.MemStore
}

func newCluster(t *testing.T, numFollowers int, opts ...func(*Options)) *cluster {
	t.Helper()
	blocks := blockstore.NewMemStore()
	followers := make([]*Replica, numFollowers)
	for i := range followers {
		// Followers get no peers here: a follower never calls out to its
		// peers, so these tests need no follower-to-leader link.
		followers[i] = NewReplica(i+2, false, nil, blocks, opts...)
	}
	peers := make([]Peer, numFollowers)
	for i, f := range followers {
		peers[i] = NewLocalPeer(f)
	}
	leader := NewReplica(1, true, peers, blocks, opts...)
	return &cluster{leader: leader, followers: followers, blocks: blocks}
}

func TestReadFileOnEmptyReplica(t *testing.T) {
	c := newCluster(t, 0)
	fi := c.leader.ReadFile("cat.txt")
	if fi.Version != 0 || len(fi.BlockList) != 0 {
		t.Fatalf("ReadFile on empty replica = %+v, want version 0, empty blocklist", fi)
	}
}

func TestMissingBlocksRatchet(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 2)

	want := []string{"H0", "H1", "H2"}
	res, err := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "cat.txt", Version: 1, BlockList: want})
	if err != nil {
		t.Fatalf("ModifyFile: %v", err)
	}
	if res.Result != api.ResultMissingBlocks {
		t.Fatalf("result = %v, want MISSING_BLOCKS", res.Result)
	}
	if len(res.MissingBlocks) != 3 {
		t.Fatalf("missing_blocks = %v, want all three", res.MissingBlocks)
	}

	c.blocks.StoreBlock(ctx, "H0", []byte("block0"))
	res, _ = c.leader.ModifyFile(ctx, api.FileInfo{Filename: "cat.txt", Version: 1, BlockList: want})
	if res.Result != api.ResultMissingBlocks || len(res.MissingBlocks) != 2 {
		t.Fatalf("after storing H0: result=%v missing=%v", res.Result, res.MissingBlocks)
	}

	c.blocks.StoreBlock(ctx, "H1", []byte("block1"))
	c.blocks.StoreBlock(ctx, "H2", []byte("block2"))
	res, err = c.leader.ModifyFile(ctx, api.FileInfo{Filename: "cat.txt", Version: 1, BlockList: want})
	if err != nil {
		t.Fatalf("ModifyFile: %v", err)
	}
	if res.Result != api.ResultOK || res.CurrentVersion != 1 {
		t.Fatalf("final ModifyFile = %+v, want OK/version 1", res)
	}

	fi := c.leader.ReadFile("cat.txt")
	if fi.Version != 1 || len(fi.BlockList) != 3 {
		t.Fatalf("ReadFile after commit = %+v", fi)
	}
}

func TestVersionGate(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 2)
	c.blocks.StoreBlock(ctx, "H0", []byte("x"))

	if res, _ := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 1, BlockList: []string{"H0"}}); res.Result != api.ResultOK {
		t.Fatalf("first write: %+v", res)
	}
	// Stale version.
	res, _ := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 1, BlockList: []string{"H0"}})
	if res.Result != api.ResultOldVersion || res.CurrentVersion != 1 {
		t.Fatalf("stale write = %+v, want OLD_VERSION/current=1", res)
	}
	// Skipping ahead is also rejected.
	res, _ = c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 3, BlockList: []string{"H0"}})
	if res.Result != api.ResultOldVersion {
		t.Fatalf("version-skip write = %+v, want OLD_VERSION", res)
	}
}

func TestDeleteAndRecreate(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 2)
	c.blocks.StoreBlock(ctx, "H0", []byte("x"))

	c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 1, BlockList: []string{"H0"}})
	res, err := c.leader.DeleteFile(ctx, api.FileInfo{Filename: "f", Version: 2})
	if err != nil || res.Result != api.ResultOK {
		t.Fatalf("DeleteFile = %+v, err=%v", res, err)
	}
	fi := c.leader.ReadFile("f")
	if !api.IsDeletedBlockList(fi.BlockList) {
		t.Fatalf("ReadFile after delete = %+v, want sentinel blocklist", fi)
	}
	// Deleting again, even at the next version, is rejected (already deleted).
	if res, _ := c.leader.DeleteFile(ctx, api.FileInfo{Filename: "f", Version: 3}); res.Result != api.ResultOldVersion {
		t.Fatalf("double delete = %+v, want OLD_VERSION", res)
	}
	// Recreate with the next version.
	res, err = c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 3, BlockList: []string{"H0"}})
	if err != nil || res.Result != api.ResultOK {
		t.Fatalf("recreate = %+v, err=%v", res, err)
	}
}

func TestNotLeaderRejection(t *testing.T) {
	c := newCluster(t, 1)
	res, err := c.followers[0].ModifyFile(context.Background(), api.FileInfo{Filename: "f", Version: 1})
	if err != nil {
		t.Fatalf("ModifyFile on follower: %v", err)
	}
	if res.Result != api.ResultNotLeader {
		t.Fatalf("result = %v, want NOT_LEADER", res.Result)
	}
}

func TestFollowerCrashAndCatchup(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 2, WithCatchupInterval(20*time.Millisecond))
	c.blocks.StoreBlock(ctx, "H0", []byte("x"))
	c.blocks.StoreBlock(ctx, "H1", []byte("y"))

	c.followers[1].Crash()
	if !c.followers[1].IsCrashed() {
		t.Fatal("expected follower to be crashed")
	}

	if res, _ := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "a", Version: 1, BlockList: []string{"H0"}}); res.Result != api.ResultOK {
		t.Fatalf("write 1: %+v", res)
	}
	if res, _ := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "b", Version: 1, BlockList: []string{"H1"}}); res.Result != api.ResultOK {
		t.Fatalf("write 2: %+v", res)
	}

	if fi := c.followers[1].ReadFile("a"); fi.Version != 0 {
		t.Fatalf("crashed follower should serve stale data, got %+v", fi)
	}

	c.leader.StartCatchupLoop(ctx)
	defer c.leader.StopCatchup()
	c.followers[1].Restore()

	deadline := time.After(2 * time.Second)
	for {
		if c.followers[1].LogLen() == c.leader.LogLen() {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("follower did not catch up: follower log=%d leader log=%d", c.followers[1].LogLen(), c.leader.LogLen())
		case <-time.After(10 * time.Millisecond):
		}
	}

	fi := c.followers[1].ReadFile("a")
	if fi.Version != 1 {
		t.Fatalf("after catch-up, follower ReadFile(a) = %+v", fi)
	}
}

func TestMajorityLoss(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 2, WithPrepareMaxElapsed(200*time.Millisecond))
	c.blocks.StoreBlock(ctx, "H0", []byte("x"))

	c.followers[0].Crash()
	c.followers[1].Crash()

	_, err := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 1, BlockList: []string{"H0"}})
	if err == nil {
		t.Fatal("expected an error once the 2PC prepare deadline elapses with no majority")
	}
}

func TestSingleReplicaDeployment(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 0)
	c.blocks.StoreBlock(ctx, "H0", []byte("x"))
	res, err := c.leader.ModifyFile(ctx, api.FileInfo{Filename: "f", Version: 1, BlockList: []string{"H0"}})
	if err != nil || res.Result != api.ResultOK {
		t.Fatalf("single-replica ModifyFile = %+v, err=%v", res, err)
	}
}
