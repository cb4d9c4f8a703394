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

import "github.com/Loveker97/SurfStore/api"

// FileEntry is one row of a replica's file table.
type FileEntry struct {
	Version   int32
	BlockList []string
	Deleted   bool
}

func (e FileEntry) toFileInfo(filename string) api.FileInfo {
	return api.FileInfo{Filename: filename, Version: e.Version, BlockList: e.BlockList}
}

const (
	cmdModify = "mod"
	cmdDelete = "del"
)
