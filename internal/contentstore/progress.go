package contentstore

import (
	"io"
	"sync"
)

// Progress describes cumulative upload progress.
type Progress struct {
	Name       string
	Position   int64
	Total      int64
	Percentage int
	Done       bool
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// progressTracker reports cumulative transfer across concurrent readers. An
// update is emitted only when the whole percentage moves, plus once on completion.
type progressTracker struct {
	mutex              sync.Mutex
	name               string
	total              int64
	position           int64
	notify             ProgressFunc
	reportedPercentage int
	finished           bool
}

func newProgressTracker(name string, total int64, notify ProgressFunc) *progressTracker {
	return &progressTracker{name: name, total: total, notify: notify, reportedPercentage: -1}
}

func (tracker *progressTracker) advance(transferredBytes int64) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.position += transferredBytes
	if tracker.notify == nil || tracker.finished {
		return
	}

	percentage := 100
	if tracker.total > 0 {
		percentage = int(min(tracker.position, tracker.total) * 100 / tracker.total)
	}
	done := tracker.position >= tracker.total
	if percentage == tracker.reportedPercentage && !done {
		return
	}
	tracker.reportedPercentage = percentage
	tracker.finished = done
	tracker.notify(Progress{Name: tracker.name, Position: tracker.position, Total: tracker.total, Percentage: percentage, Done: done})
}

type countingReader struct {
	reader  io.Reader
	tracker *progressTracker
}

func (reader countingReader) Read(buffer []byte) (int, error) {
	readBytes, readError := reader.reader.Read(buffer)
	if readBytes > 0 {
		reader.tracker.advance(int64(readBytes))
	}
	return readBytes, readError
}
