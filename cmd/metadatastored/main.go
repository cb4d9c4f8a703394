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

// Command metadatastored serves one replica of SurfStore's replicated
// metadata store.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/Loveker97/SurfStore/internal/blockstore"
	"github.com/Loveker97/SurfStore/internal/config"
	"github.com/Loveker97/SurfStore/internal/metadata"
	"github.com/Loveker97/SurfStore/internal/serve"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	threads := flag.Int("t", 10, "maximum number of concurrent request handlers")
	flag.IntVar(threads, "threads", 10, "alias for -t")
	number := flag.Int("n", 0, "which replica (1-based index into metadata_ports) this process is")
	flag.IntVar(number, "number", 0, "alias for -n")
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() != 1 {
		klog.Exitf("usage: metadatastored [flags] <config_file>")
	}
	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		klog.Exitf("loading config: %v", err)
	}
	if *number <= 0 || *number > cfg.NumMetadataServers {
		klog.Exitf("-n=%d out of range for %d metadata servers", *number, cfg.NumMetadataServers)
	}

	isLeader := *number == cfg.NumLeaders
	blockAddr := fmt.Sprintf("http://127.0.0.1:%d", cfg.BlockPort)
	blockClient := blockstore.NewClient(blockAddr)

	var peers []metadata.Peer
	if isLeader {
		for id := 1; id <= cfg.NumMetadataServers; id++ {
			if id == *number {
				continue
			}
			peers = append(peers, metadata.NewHTTPPeer(fmt.Sprintf("http://127.0.0.1:%d", cfg.MetadataPorts[id])))
		}
	} else {
		leaderID := cfg.NumLeaders
		peers = []metadata.Peer{metadata.NewHTTPPeer(fmt.Sprintf("http://127.0.0.1:%d", cfg.MetadataPorts[leaderID]))}
	}

	reg := prometheus.NewRegistry()
	metrics := metadata.NewMetrics(reg)
	replica := metadata.NewReplica(*number, isLeader, peers, blockClient, metadata.WithMetrics(metrics))

	ctx := context.Background()
	if err := blockClient.Ping(ctx); err != nil {
		klog.Warningf("block store at %s not reachable at startup: %v", blockAddr, err)
	}
	replica.WarmPeers(ctx)
	replica.StartCatchupLoop(ctx)

	mux := http.NewServeMux()
	metadata.NewServer(replica).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.MetadataPorts[*number])
	klog.Infof("metadatastored replica %d (leader=%v) listening on %s", *number, isLeader, addr)
	if err := serve.ListenAndServe(ctx, addr, serve.Limit(mux, int64(*threads))); err != nil {
		klog.Errorf("ListenAndServe: %v", err)
		os.Exit(1)
	}
}
