// Package detect implements the change detector: the pure decision core that
// turns fetched candidate items, a stored watermark, and dedup ledger lookups
// into notify/skip decisions. It performs no I/O and never mutates its inputs,
// which keeps every policy rule directly testable.
package detect

import (
	"sort"
	"time"

	"release-radar/internal/domain/entity"
)

// Outcome classifies what the poll loop should do with one candidate item.
type Outcome string

const (
	// OutcomeNotify means the item is new and a notification should be sent.
	OutcomeNotify Outcome = "notify"

	// OutcomeSkipDuplicate means the item was already notified, either per
	// the dedup ledger or because the same content ID appeared earlier in
	// this batch.
	OutcomeSkipDuplicate Outcome = "skip_duplicate"

	// OutcomeSkipOld means the item is not strictly newer than the watermark.
	OutcomeSkipOld Outcome = "skip_old"

	// OutcomeSkipNoTimestamp means the upstream supplied no parseable
	// timestamp, so the item cannot be ordered against the watermark.
	OutcomeSkipNoTimestamp Outcome = "skip_no_timestamp"

	// OutcomeSkipInvalid means the item has no usable identity at all.
	OutcomeSkipInvalid Outcome = "skip_invalid"
)

// Decision is the verdict for a single candidate item.
type Decision struct {
	Item    entity.ContentItem
	Outcome Outcome
}

// Result is the full verdict for one (artist, kind) batch.
type Result struct {
	// Decisions holds one entry per input candidate, in input order.
	Decisions []Decision

	// Notify lists the items to deliver, oldest first, so notifications
	// arrive in chronological order and a partial failure leaves the
	// watermark at the last delivered item.
	Notify []entity.ContentItem

	// Watermark is the timestamp to persist once every Notify item has been
	// delivered. Nil means no advance. On a partial delivery failure the
	// caller must advance only to the newest delivered item instead.
	Watermark *time.Time

	// Bootstrap is true when the stored watermark was nil. Nothing is
	// notified; Watermark carries the seed value (the newest candidate
	// timestamp) so pre-existing content is never reported as new.
	Bootstrap bool
}

// Evaluate decides what to do with the candidates fetched for one artist and
// content kind.
//
// Policy:
//   - Items without a timestamp or identity are skipped individually; one
//     broken upstream record never fails the batch.
//   - A nil watermark bootstraps: the newest candidate timestamp becomes the
//     seed and nothing is notified.
//   - Otherwise an item is new only if its timestamp is strictly greater than
//     the watermark. Equal timestamps were already seen.
//   - alreadyNotified maps content IDs the dedup ledger already holds; those
//     items still advance the watermark (they were delivered before) but are
//     never re-sent. The same suppression applies to repeated content IDs
//     within the batch.
func Evaluate(watermark *time.Time, candidates []entity.ContentItem, alreadyNotified map[string]bool) Result {
	result := Result{Decisions: make([]Decision, 0, len(candidates))}

	if watermark == nil {
		return bootstrap(candidates)
	}

	var advance time.Time
	seen := make(map[string]bool, len(candidates))

	for _, item := range candidates {
		decision := Decision{Item: item}
		switch {
		case item.Validate() != nil:
			decision.Outcome = OutcomeSkipInvalid
		case !item.HasTimestamp():
			decision.Outcome = OutcomeSkipNoTimestamp
		case !item.Timestamp.After(*watermark):
			decision.Outcome = OutcomeSkipOld
		case alreadyNotified[item.ContentID()] || seen[item.ContentID()]:
			decision.Outcome = OutcomeSkipDuplicate
			if item.Timestamp.After(advance) {
				advance = item.Timestamp
			}
		default:
			decision.Outcome = OutcomeNotify
			seen[item.ContentID()] = true
			result.Notify = append(result.Notify, item)
			if item.Timestamp.After(advance) {
				advance = item.Timestamp
			}
		}
		result.Decisions = append(result.Decisions, decision)
	}

	sort.SliceStable(result.Notify, func(i, j int) bool {
		return result.Notify[i].Timestamp.Before(result.Notify[j].Timestamp)
	})

	if !advance.IsZero() {
		advance = advance.UTC()
		result.Watermark = &advance
	}
	return result
}

// bootstrap handles the nil-watermark case: seed from the newest usable
// candidate, notify nothing.
func bootstrap(candidates []entity.ContentItem) Result {
	result := Result{
		Decisions: make([]Decision, 0, len(candidates)),
		Bootstrap: true,
	}

	var seed time.Time
	for _, item := range candidates {
		decision := Decision{Item: item}
		switch {
		case item.Validate() != nil:
			decision.Outcome = OutcomeSkipInvalid
		case !item.HasTimestamp():
			decision.Outcome = OutcomeSkipNoTimestamp
		default:
			decision.Outcome = OutcomeSkipOld
			if item.Timestamp.After(seed) {
				seed = item.Timestamp
			}
		}
		result.Decisions = append(result.Decisions, decision)
	}

	if !seed.IsZero() {
		seed = seed.UTC()
		result.Watermark = &seed
	}
	return result
}
