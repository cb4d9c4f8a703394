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

// Command blockstored serves SurfStore's content-addressed block store.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/Loveker97/SurfStore/internal/blockstore"
	"github.com/Loveker97/SurfStore/internal/config"
	"github.com/Loveker97/SurfStore/internal/serve"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	threads := flag.Int("t", 10, "maximum number of concurrent request handlers")
	flag.IntVar(threads, "threads", 10, "alias for -t")
	blocksDir := flag.String("blocks-dir", "", "if set, persist blocks as files under this directory instead of in memory")
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() != 1 {
		klog.Exitf("usage: blockstored [flags] <config_file>")
	}
	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		klog.Exitf("loading config: %v", err)
	}

	var store blockstore.Store
	if *blocksDir != "" {
		ds, err := blockstore.NewDiskStore(*blocksDir)
		if err != nil {
			klog.Exitf("creating disk-backed block store: %v", err)
		}
		store = ds
	} else {
		store = blockstore.NewMemStore()
	}

	mux := http.NewServeMux()
	blockstore.NewServer(store).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.BlockPort)
	klog.Infof("blockstored listening on %s (threads=%d, blocks-dir=%q)", addr, *threads, *blocksDir)
	if err := serve.ListenAndServe(context.Background(), addr, serve.Limit(mux, int64(*threads))); err != nil {
		klog.Errorf("ListenAndServe: %v", err)
		os.Exit(1)
	}
}
