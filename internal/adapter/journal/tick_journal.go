package journal

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/iho/farmledger/internal/usecase"
)

const (
	defaultJournalDir    = "./wal/ticks"
	journalSegmentLimit  = 1000
	journalMaxSegments   = 50
	tickReportKeyPrefix  = "tick_"
	tickReportTimeLayout = "20060102T150405.000000Z"
)

// TickRecord is a journaled tick report with its WAL index.
type TickRecord struct {
	Report usecase.TickReport
	Index  uint64
}

// TickJournal keeps accrual tick reports in a local WAL so operators can see
// what recent ticks did without querying the ledger.
type TickJournal struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewTickJournal opens (or creates) the journal under dir.
func NewTickJournal(dir string) (*TickJournal, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "tick_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init tick journal WAL")
	}

	return &TickJournal{wal: wal}, nil
}

// Append writes one report and returns its index.
func (j *TickJournal) Append(report *usecase.TickReport) (uint64, error) {
	if j == nil || j.wal == nil {
		return 0, errors.New("tick journal is not initialized")
	}
	if report == nil {
		return 0, errors.New("tick report is required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return 0, errors.Wrap(err, "marshal tick report")
	}

	key := tickReportKeyPrefix + report.Now.UTC().Format(tickReportTimeLayout)

	j.mu.Lock()
	defer j.mu.Unlock()

	idx := j.wal.CurrentIndex() + 1
	if err := j.wal.Write(idx, key, payload); err != nil {
		return 0, errors.Wrapf(err, "write tick report %d", idx)
	}
	return idx, nil
}

// Recent returns up to n of the latest reports, newest first.
func (j *TickJournal) Recent(n int) ([]TickRecord, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("tick journal is not initialized")
	}
	if n <= 0 {
		return nil, nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	records := make([]TickRecord, 0, n)
	for idx := j.wal.CurrentIndex(); idx > 0 && len(records) < n; idx-- {
		key, payload, err := j.wal.Get(idx)
		if err != nil {
			// older segments may have been rotated away
			break
		}
		if !strings.HasPrefix(key, tickReportKeyPrefix) {
			continue
		}

		var report usecase.TickReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, errors.Wrapf(err, "decode tick report %d", idx)
		}
		records = append(records, TickRecord{Index: idx, Report: report})
	}

	return records, nil
}

// CurrentIndex returns the latest index written.
func (j *TickJournal) CurrentIndex() uint64 {
	if j == nil || j.wal == nil {
		return 0
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (j *TickJournal) Close() error {
	if j == nil || j.wal == nil {
		return errors.New("tick journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}
