// Package reconcile inserts parsed transactions into the store. The
// reference ID is the store's natural key, so re-importing overlapping
// statements or mail ranges only ever adds what was not seen before.
package reconcile

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/common"
)

// Outcome classifies a single insert.
type Outcome int

const (
	Inserted Outcome = iota
	Duplicate
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// InsertResult is what a store returns for one insert. A unique key
// violation is a Duplicate, never an error.
type InsertResult struct {
	Outcome Outcome
	Err     error
}

func Ok() InsertResult { return InsertResult{Outcome: Inserted} }
func Dup() InsertResult { return InsertResult{Outcome: Duplicate} }
func Fail(err error) InsertResult { return InsertResult{Outcome: Failed, Err: err} }

// Store is the part of the persistent store the engine writes through.
// Each call is its own transaction.
type Store interface {
	InsertTransaction(ctx context.Context, tx common.Transaction) InsertResult
	AddReviewItem(ctx context.Context, item common.ReviewItem) InsertResult
}

// Batch names where a set of transactions came from.
type Batch struct {
	Bank   string
	User   string
	Source string
	FileID string
}

// Result counts the outcome of a batch. It is filled in even when some
// inserts fail.
type Result struct {
	Read       int `json:"read"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Review     int `json:"review"`
	Failed     int `json:"failed"`
}

// Conflicts is the number of items set aside: duplicates plus items routed
// to manual review.
func (r Result) Conflicts() int {
	return r.Duplicates + r.Review
}

// Add folds another result into r.
func (r *Result) Add(o Result) {
	r.Read += o.Read
	r.Inserted += o.Inserted
	r.Duplicates += o.Duplicates
	r.Review += o.Review
	r.Failed += o.Failed
}

// InsertBatch inserts every transaction in its own store call and then
// queues each unparsed source item for review. One failing row never
// rolls back rows already stored.
func InsertBatch(ctx context.Context, store Store, txs []common.NormalizedTransaction, conflicts []string, b Batch) Result {
	res := Result{Read: len(txs)}
	logger := log.WithFields(log.Fields{"bank": b.Bank, "user": b.User, "source": b.Source})

	for _, n := range txs {
		r := store.InsertTransaction(ctx, common.Transaction{
			NormalizedTransaction: n,
			FileID:                b.FileID,
			Source:                b.Source,
			Bank:                  b.Bank,
			User:                  b.User,
		})
		switch r.Outcome {
		case Inserted:
			res.Inserted++
		case Duplicate:
			res.Duplicates++
			logger.WithField("reference", n.ReferenceID).Warnf("transaction already stored: %s %s %s",
				n.Date.Format(common.CanonicalDateLayout), n.Description, n.Amount.StringFixed(2))
		default:
			res.Failed++
			logger.WithField("reference", n.ReferenceID).Errorf("failed to insert transaction: %v", r.Err)
		}
	}

	for _, content := range conflicts {
		r := store.AddReviewItem(ctx, common.ReviewItem{User: b.User, Content: content})
		if r.Outcome == Failed {
			res.Failed++
			logger.Errorf("failed to queue item for review: %v", r.Err)
			continue
		}
		res.Review++
	}

	logger.Infof("batch done: %d read, %d inserted, %d conflicts", res.Read, res.Inserted, res.Conflicts())
	return res
}

// String renders r for CLI output.
func (r Result) String() string {
	return fmt.Sprintf("read=%d inserted=%d duplicates=%d review=%d failed=%d",
		r.Read, r.Inserted, r.Duplicates, r.Review, r.Failed)
}
