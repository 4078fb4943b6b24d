package log4g

// never use fmt in threads!

import (
	"io"
	"sync"
)

/*
Queue is an asynchronous sink: complete, already rendered lines are pushed into
a buffered channel and written to the target sink by a single background
goroutine, so the target sees lines strictly one after another.

Lifecycle: a Queue is created stopped, Start launches the writer goroutine,
Stop closes the channel (no new lines accepted) and Wait blocks until the
remaining lines are written. Failures of the target are reported to the
fallback writer since there is no caller left to return them to.
*/

// queuedLine is the unit enqueued into the queue channel.
type queuedLine struct {
	data    []byte
	level   LogLevel
	leveled bool // written with WriteLevelLine
}

type Queue struct {
	sync struct {
		statMtx sync.RWMutex   // guards state and channel checks
		fbckMtx sync.RWMutex   // guards access to fallback writer
		waitEnd sync.WaitGroup // tracks background goroutine lifecycle
	}
	target  Sink
	fallbck io.Writer // fallback writer used to report write errors
	channel chan queuedLine
	state   lgrState
}

var _ LevelSink = (*Queue)(nil)

// NewQueue creates a stopped queue in front of target. Nil fallback discards
// error reports.
func NewQueue(target Sink, fallback io.Writer) *Queue {
	if target == nil {
		panic(_ERROR_MESSAGE_SINK_IS_NIL)
	}
	q := &Queue{target: target, state: _STATE_STOPPED}
	q.SetFallback(fallback)
	return q
}

// Creates a queue and starts it (see Start).
//
// Preferred usage example:
//
//	func main() {
//	    q := StartQueue(log4g.Stderr(), -1, os.Stderr)
//	    defer q.StopAndWait()
//	    logger := log4g.Init("app").SetSink(q)
//	    ...
//	}
func StartQueue(target Sink, buffsize int, fallback io.Writer) *Queue {
	q := NewQueue(target, fallback)
	q.Start(buffsize)
	return q
}

// Start launches the background goroutine that writes queued lines.
// If the queue is already active an error is returned. The channel is
// created with the provided buffsize (DEFAULT_QUEUE_BUFF for non-positive).
func (q *Queue) Start(buffsize int) error {
	q.sync.statMtx.Lock()
	defer q.sync.statMtx.Unlock()
	if q.isActive() {
		return ErrQueueStarted
	}
	if buffsize <= 0 {
		buffsize = DEFAULT_QUEUE_BUFF
	}
	channel := make(chan queuedLine, buffsize)
	q.channel = channel
	q.sync.waitEnd.Go(func() { q.procced(channel) })
	q.state = _STATE_ACTIVE
	return nil
}

// Stop sets the stopping state and closes the channel. No new lines are
// accepted; the writer goroutine exits once the channel drains.
//
// Wait() should be called before program exits to prevent the loss of last
// queued lines.
func (q *Queue) Stop() {
	q.sync.statMtx.Lock()
	defer q.sync.statMtx.Unlock()
	if q.isActive() {
		q.state = _STATE_STOPPING
		close(q.channel)
	}
}

// Wait blocks until the background goroutine has finished.
func (q *Queue) Wait() {
	q.sync.waitEnd.Wait()
}

// A convenience to Stop() and then Wait() for completion.
func (q *Queue) StopAndWait() {
	q.Stop()
	q.Wait()
}

// True if the queue accepts lines.
func (q *Queue) IsActive() bool {
	q.sync.statMtx.RLock()
	defer q.sync.statMtx.RUnlock()
	return q.isActive()
}

func (q *Queue) isActive() bool {
	return q.state == _STATE_ACTIVE
}

// Sets the fallback output used to report write errors, io.Discard is used
// instead of nil to silently drop reports.
func (q *Queue) SetFallback(f io.Writer) *Queue {
	q.sync.fbckMtx.Lock()
	defer q.sync.fbckMtx.Unlock()
	if f != nil {
		q.fallbck = f
	} else {
		q.fallbck = io.Discard
	}
	return q
}

// WriteLine implements Sink. The line is copied, queued and written later;
// the returned error only reports queueing problems.
func (q *Queue) WriteLine(line []byte) error {
	return q.push(queuedLine{data: append([]byte(nil), line...)})
}

// WriteLevelLine implements LevelSink. The level is passed on if the target
// is a LevelSink itself.
func (q *Queue) WriteLevelLine(level LogLevel, line []byte) error {
	return q.push(queuedLine{data: append([]byte(nil), line...), level: level, leveled: true})
}

// Sync flushes the target sink if it supports it. Lines still in the channel
// are not waited for (use StopAndWait for that).
func (q *Queue) Sync() error {
	if syncer, ok := q.target.(Syncer); ok {
		return syncer.Sync()
	}
	return nil
}

// Attempts to enqueue a line. Catches any panics (including writing to the
// closed channel) and converts them to errors.
func (q *Queue) push(line queuedLine) (err error) {
	q.sync.statMtx.RLock()
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
		q.sync.statMtx.RUnlock()
	}()
	if !q.isActive() {
		return ErrQueueInactive
	}
	// will panic if channel is closed (with recover and setting error)
	q.channel <- line
	return nil
}

// Moves a stopping queue to the stopped state. A queue restarted before the
// previous goroutine finished stays active.
func (q *Queue) setStopped() {
	q.sync.statMtx.Lock()
	defer q.sync.statMtx.Unlock()
	if q.state == _STATE_STOPPING {
		q.state = _STATE_STOPPED
	}
}

// procced is the background loop. It reads lines until the channel is closed
// and writes them to the target. Panics are recovered per line so one broken
// write doesn't stop the queue.
func (q *Queue) procced(channel <-chan queuedLine) {
	defer q.setStopped()
	for line := range channel {
		if err := q.writeLine(line); err != nil {
			q.handleWriteError(err.Error())
		}
	}
}

func (q *Queue) writeLine(line queuedLine) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	if ls, ok := q.target.(LevelSink); ok && line.leveled {
		return ls.WriteLevelLine(line.level, line.data)
	}
	return q.target.WriteLine(line.data)
}

// handleWriteError writes a human-readable error message to the fallback writer.
// A panicking fallback must not kill the writer goroutine, so it is ignored.
func (q *Queue) handleWriteError(errormsg string) {
	q.sync.fbckMtx.RLock()
	defer q.sync.fbckMtx.RUnlock()
	defer func() { recover() }()
	q.fallbck.Write([]byte("queued log write failed: " + errormsg + "\n"))
}
