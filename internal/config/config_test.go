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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.txt")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := writeConfig(t, "B 8080\nN 3\nL 1\nM 8081\nM 8082\nM 8083\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BlockPort != 8080 || cfg.NumMetadataServers != 3 || cfg.NumLeaders != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	want := map[int]int{1: 8081, 2: 8082, 3: 8083}
	for k, v := range want {
		if cfg.MetadataPorts[k] != v {
			t.Errorf("MetadataPorts[%d] = %d, want %d", k, cfg.MetadataPorts[k], v)
		}
	}
}

func TestLoadMismatchedCount(t *testing.T) {
	p := writeConfig(t, "B 8080\nN 2\nL 1\nM 8081\n")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for mismatched M-line count")
	}
}

func TestLoadMalformedLine(t *testing.T) {
	p := writeConfig(t, "B notanumber\n")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for malformed line")
	}
}
