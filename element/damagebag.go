// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: element/damagebag.go
// Summary: Bounded per-element damage accumulator backing DamageSince.
// Usage: Element implementations record content damage here and answer
//        DamageSince/CurrentCommit queries from the stored history.

package element

import "github.com/framegrace/redraw/geom"

// DefaultDamageLimit is the number of commits of element damage a bag
// retains by default, matching the damage tracker's buffer age bound.
const DefaultDamageLimit = 4

// A DamageBag accumulates element-local damage per content commit and can
// answer "what changed since commit X" for recent commits. When a query
// reaches further back than the retained history the caller has to treat
// the whole element as damaged.
//
// The zero value is not usable; construct with NewDamageBag.
type DamageBag struct {
	limit  int
	commit CommitCounter
	// One rectangle list per commit, newest first.
	damage [][]geom.Rect
}

// NewDamageBag creates a bag retaining damage for the given number of
// commits.
func NewDamageBag(limit int) *DamageBag {
	return &DamageBag{limit: limit}
}

// CurrentCommit returns the bag's current content version. Callers store it
// after querying DamageSince and pass it back on the next query.
func (b *DamageBag) CurrentCommit() CommitCounter {
	return b.commit
}

// Add records damage for a new content commit. Empty rectangles are
// dropped; if nothing remains the commit is not recorded.
func (b *DamageBag) Add(rects ...geom.Rect) {
	kept := make([]geom.Rect, 0, len(rects))
	for _, r := range rects {
		if !r.Empty() {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return
	}

	b.damage = append([][]geom.Rect{kept}, b.damage...)
	if len(b.damage) > b.limit {
		b.damage = b.damage[:b.limit]
	}
	b.commit.Increment()
}

// DamageSince returns the accumulated damage between prev and the current
// commit. It reports false when prev is nil, too old or ahead; the caller
// must then damage the whole element. A recent prev with no intervening
// commits yields an empty list and true.
func (b *DamageBag) DamageSince(prev *CommitCounter) ([]geom.Rect, bool) {
	distance, ok := b.commit.Distance(prev)
	if !ok || distance > uint64(len(b.damage)) {
		return nil, false
	}

	var out []geom.Rect
	for _, d := range b.damage[:distance] {
		out = append(out, d...)
	}
	return out, true
}

// Reset drops the retained damage and advances the commit, forcing the next
// DamageSince query to report the whole element as damaged.
func (b *DamageBag) Reset() {
	b.damage = b.damage[:0]
	b.commit.Increment()
}
