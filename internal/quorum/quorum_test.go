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

package quorum

import "testing"

func TestNeeded(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3}
	for peers, want := range cases {
		if got := Needed(peers); got != want {
			t.Errorf("Needed(%d) = %d, want %d", peers, got, want)
		}
	}
}

func TestCounter(t *testing.T) {
	c := NewCounter(Needed(4))
	if c.Satisfied() {
		t.Fatal("should not be satisfied with zero votes")
	}
	c.Vote()
	if c.Satisfied() {
		t.Fatal("should not be satisfied with one of two needed votes")
	}
	c.Vote()
	if !c.Satisfied() {
		t.Fatal("should be satisfied with two of two needed votes")
	}
}
