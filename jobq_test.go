package mpeg2

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobQueueOrder(t *testing.T) {
	q := newJobQueue()
	for i := 0; i < 3; i++ {
		q.enqueue(job{cmd: jobProcess, start: i})
	}
	q.enqueue(job{cmd: jobConvert, start: 9})
	q.terminate()

	require.Equal(t, 5, q.len())
	for i := 0; i < 3; i++ {
		require.Equal(t, job{cmd: jobProcess, start: i}, q.dequeue())
	}
	require.Equal(t, jobConvert, q.dequeue().cmd)

	// The terminate job stays at the head.
	require.Equal(t, jobTerminate, q.dequeue().cmd)
	require.Equal(t, jobTerminate, q.dequeue().cmd)
	require.Equal(t, 1, q.len())

	q.reset()
	require.Zero(t, q.len())
}

func TestJobQueueBlocks(t *testing.T) {
	q := newJobQueue()
	got := make(chan job, 1)

	go func() {
		got <- q.dequeue()
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned from an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	q.enqueue(job{cmd: jobProcess, start: 7})
	select {
	case j := <-got:
		require.Equal(t, 7, j.start)
	case <-time.After(5 * time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestJobQueueWorkers(t *testing.T) {
	const (
		workers = 8
		jobs    = 1000
	)

	q := newJobQueue()

	var done int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				j := q.dequeue()
				if j.cmd == jobTerminate {
					return
				}
				atomic.AddInt64(&done, int64(j.end-j.start))
			}
		}()
	}

	for i := 0; i < jobs; i++ {
		q.enqueue(job{cmd: jobProcess, start: i, end: i + 1})
	}
	q.terminate()
	wg.Wait()

	require.Equal(t, int64(jobs), atomic.LoadInt64(&done))
}

func TestJobCmdString(t *testing.T) {
	require.Equal(t, "process", jobProcess.String())
	require.Equal(t, "fmtconv", jobConvert.String())
	require.Equal(t, "terminate", jobTerminate.String())
}
