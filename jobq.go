package mpeg2

import (
	"sync"
)

type jobCmd int

const (
	jobProcess jobCmd = iota
	jobConvert
	jobTerminate
)

func (c jobCmd) String() string {
	switch c {
	case jobProcess:
		return "process"
	case jobConvert:
		return "fmtconv"
	case jobTerminate:
		return "terminate"
	}

	return "unknown"
}

// job is a unit of picture work. For jobProcess start and end are the
// macroblock rows the job decodes and offset is the byte offset of its first
// slice start code in the access unit. For jobConvert they are the macroblock
// rows of the display frame to convert.
type job struct {
	cmd    jobCmd
	start  int
	end    int
	offset int
}

// jobQueue is a FIFO of jobs shared by the workers of one picture. Once the
// terminate job is reached it stays at the head so every worker sees it.
type jobQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	jobs []job
	head int
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

func (q *jobQueue) reset() {
	q.mu.Lock()
	q.jobs = q.jobs[:0]
	q.head = 0
	q.mu.Unlock()
}

func (q *jobQueue) enqueue(j job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	q.mu.Unlock()
	q.cond.Signal()
}

// terminate appends the terminate job and wakes all waiting workers.
func (q *jobQueue) terminate() {
	q.mu.Lock()
	q.jobs = append(q.jobs, job{cmd: jobTerminate})
	q.mu.Unlock()
	q.cond.Broadcast()
}

// dequeue blocks until a job is available.
func (q *jobQueue) dequeue() job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head >= len(q.jobs) {
		q.cond.Wait()
	}

	j := q.jobs[q.head]
	if j.cmd != jobTerminate {
		q.head++
	}

	return j
}

// len returns the number of jobs not yet taken, including a pending terminate job.
func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs) - q.head
}
