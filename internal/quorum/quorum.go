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

// Package quorum provides the threshold-counting logic behind the
// two-phase commit's prepare-phase vote tally.
package quorum

// Needed returns the number of affirmative responses required for a
// majority out of peers total participants (the peers themselves, not
// counting the leader).
func Needed(peers int) int {
	return (peers + 1) / 2
}

// Counter tallies boolean outcomes against a threshold without requiring
// all outcomes to be collected up front; Satisfied can be polled as
// outcomes arrive.
type Counter struct {
	threshold int
	count     int
}

// NewCounter returns a Counter that becomes Satisfied once threshold votes
// have been recorded.
func NewCounter(threshold int) *Counter {
	return &Counter{threshold: threshold}
}

// Vote records one affirmative outcome.
func (c *Counter) Vote() {
	c.count++
}

// Satisfied reports whether the threshold has been met.
func (c *Counter) Satisfied() bool {
	return c.count >= c.threshold
}

// Count returns the number of affirmative votes recorded so far.
func (c *Counter) Count() int {
	return c.count
}
