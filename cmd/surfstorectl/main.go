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

// Command surfstorectl is a small control and test client for a running
// SurfStore deployment: it exposes the crash-control RPCs directly, and
// implements the informative client chunking protocol (fixed-size blocks,
// SHA-256 fingerprints) for exercising upload/download end to end.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/Loveker97/SurfStore/api"
	"github.com/Loveker97/SurfStore/internal/blockstore"
	"github.com/Loveker97/SurfStore/internal/config"
	"github.com/Loveker97/SurfStore/internal/metadata"
)

const blockSize = 4096

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	ctx := context.Background()

	switch cmd {
	case "ping", "is-leader", "is-crashed", "crash", "restore", "read":
		runReplicaCmd(ctx, cmd, args)
	case "upload":
		runUpload(ctx, args)
	case "download":
		runDownload(ctx, args)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: surfstorectl <ping|is-leader|is-crashed|crash|restore|read|upload|download> <config_file> <replica_number> [args...]")
	os.Exit(2)
}

func loadReplicaClient(configFile string, n int) (*metadata.Client, *config.Config) {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	port, ok := cfg.MetadataPorts[n]
	if !ok {
		fmt.Fprintf(os.Stderr, "no metadata replica numbered %d in config\n", n)
		os.Exit(1)
	}
	return metadata.NewClient(fmt.Sprintf("http://127.0.0.1:%d", port)), cfg
}

func runReplicaCmd(ctx context.Context, cmd string, args []string) {
	if cmd == "read" {
		if len(args) != 3 {
			usage()
		}
	} else if len(args) != 2 {
		usage()
	}
	n := atoi(args[1])
	client, _ := loadReplicaClient(args[0], n)

	switch cmd {
	case "ping":
		check(client.Ping(ctx))
		fmt.Println("ok")
	case "is-leader":
		v, err := client.IsLeader(ctx)
		check(err)
		fmt.Println(v)
	case "is-crashed":
		v, err := client.IsCrashed(ctx)
		check(err)
		fmt.Println(v)
	case "crash":
		check(client.Crash(ctx))
		fmt.Println("ok")
	case "restore":
		check(client.Restore(ctx))
		fmt.Println("ok")
	case "read":
		fi, err := client.ReadFile(ctx, args[2])
		check(err)
		fmt.Printf("version=%d blocklist=%v\n", fi.Version, fi.BlockList)
	}
}

func runUpload(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: surfstorectl upload <config_file> <leader_replica_number> <local_path>")
		os.Exit(2)
	}
	n := atoi(args[1])
	leader, cfg := loadReplicaClient(args[0], n)
	blockClient := blockstore.NewClient(fmt.Sprintf("http://127.0.0.1:%d", cfg.BlockPort))

	data, err := os.ReadFile(args[2])
	check(err)
	filename := args[2]

	existing, err := leader.ReadFile(ctx, filename)
	check(err)
	version := existing.Version + 1

	var blockList []string
	for off := 0; off < len(data) || (len(data) == 0 && off == 0); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]
		sum := sha256.Sum256(chunk)
		hash := hex.EncodeToString(sum[:])
		blockList = append(blockList, hash)
		check(blockClient.StoreBlock(ctx, hash, chunk))
		if len(data) == 0 {
			break
		}
	}

	for {
		res, err := leader.ModifyFile(ctx, api.FileInfo{Filename: filename, Version: version, BlockList: blockList})
		check(err)
		switch res.Result {
		case api.ResultOK:
			fmt.Printf("uploaded %s as version %d\n", filename, res.CurrentVersion)
			return
		case api.ResultMissingBlocks:
			for _, h := range res.MissingBlocks {
				idx := indexOf(blockList, h)
				off := idx * blockSize
				end := off + blockSize
				if end > len(data) {
					end = len(data)
				}
				check(blockClient.StoreBlock(ctx, h, data[off:end]))
			}
		case api.ResultOldVersion:
			fmt.Fprintf(os.Stderr, "stale version, current=%d\n", res.CurrentVersion)
			os.Exit(1)
		case api.ResultNotLeader:
			fmt.Fprintln(os.Stderr, "target replica is not the leader")
			os.Exit(1)
		}
	}
}

func runDownload(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: surfstorectl download <config_file> <replica_number> <filename>")
		os.Exit(2)
	}
	n := atoi(args[1])
	client, cfg := loadReplicaClient(args[0], n)
	blockClient := blockstore.NewClient(fmt.Sprintf("http://127.0.0.1:%d", cfg.BlockPort))
	filename := args[2]

	fi, err := client.ReadFile(ctx, filename)
	check(err)
	if api.IsDeletedBlockList(fi.BlockList) {
		fmt.Fprintln(os.Stderr, "file is deleted")
		os.Exit(1)
	}
	var out []byte
	for _, h := range fi.BlockList {
		data, ok, err := blockClient.GetBlock(ctx, h)
		check(err)
		if !ok {
			fmt.Fprintf(os.Stderr, "missing block %s\n", h)
			os.Exit(1)
		}
		out = append(out, data...)
	}
	check(os.WriteFile(filename, out, 0o644))
	fmt.Printf("downloaded %s (version %d)\n", filename, fi.Version)
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}

func atoi(s string) int {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	check(err)
	return n
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
