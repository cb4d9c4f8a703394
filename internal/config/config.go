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

// Package config loads the flat SurfStore deployment config file shared by
// the blockstored and metadatastored binaries.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config describes the topology of one SurfStore deployment.
type Config struct {
	BlockPort          int
	NumMetadataServers int
	NumLeaders         int
	// MetadataPorts maps a 1-indexed replica number to its listen port.
	MetadataPorts map[int]int
}

// Load reads a config file of the form:
//
//	B <block_port>
//	N <num_metadata_servers>
//	L <num_leaders>
//	M <port>
//	M <port>
//	...
//
// one M line per metadata replica, in replica order starting at 1.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	cfg := &Config{MetadataPorts: map[int]int{}}
	next := 1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed config line %q", line)
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("malformed config line %q: %w", line, err)
		}
		switch fields[0] {
		case "B":
			cfg.BlockPort = v
		case "N":
			cfg.NumMetadataServers = v
		case "L":
			cfg.NumLeaders = v
		case "M":
			cfg.MetadataPorts[next] = v
			next++
		default:
			return nil, fmt.Errorf("unknown config directive %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if len(cfg.MetadataPorts) != cfg.NumMetadataServers {
		return nil, fmt.Errorf("config declares %d metadata servers but lists %d M lines", cfg.NumMetadataServers, len(cfg.MetadataPorts))
	}
	return cfg, nil
}
