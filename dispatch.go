package mpeg2

import (
	"sync"

	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
)

// convertLines is the number of display lines one conversion job covers.
const convertLines = 64

// scanSlices walks the slice start codes from the cursor of br and splits the
// picture into process jobs of whole macroblock rows. Each job starts at the
// first slice of a new row; the first job starts at row 0 and every job ends
// where the next begins, so the jobs cover [0, numVertMB).
func scanSlices(br bitReader, numVertMB int, rowExtension bool) []job {
	var jobs []job

	last := -1
	for {
		c := br.startCode()
		if !startIsSlice(c) {
			break
		}

		offset := br.byteOffset()
		br.flush(32)
		row := c
		if rowExtension {
			row += br.get(3) << 7
		}
		if row == 0 || row > numVertMB {
			break
		}
		row--

		if row > last {
			jobs = append(jobs, job{cmd: jobProcess, start: row, offset: offset})
			last = row
		}
		br.nextStartCode()
	}

	if len(jobs) == 0 {
		return nil
	}

	jobs[0].start = 0
	for i := range jobs {
		if i+1 < len(jobs) {
			jobs[i].end = jobs[i+1].start
		} else {
			jobs[i].end = numVertMB
		}
	}

	return jobs
}

// numVertMB returns the number of macroblock rows of the current picture.
func (v *Video) numVertMB() int {
	if v.pic.Structure != StructureFrame {
		return (v.seq.Height + 31) >> 5
	}

	return (v.seq.Height + 15) >> 4
}

// newSliceDecoder builds the decode context of one worker for the current picture.
func (v *Video) newSliceDecoder(data []byte) (*sliceDecoder, error) {
	quant, err := copystructure.Copy(v.quant)
	if err != nil {
		return nil, errors.Wrap(err, "mpeg2: copy quantizer matrices")
	}

	d := &sliceDecoder{
		pic:          v.pic,
		quant:        quant.(QuantMatrices),
		quantizer:    v.quantizer,
		mpeg2:        v.seq.MPEG2,
		mbWidth:      (v.seq.Width + 15) >> 4,
		numVertMB:    v.numVertMB(),
		rowExtension: v.seq.sliceRowExtension(),
		field:        -1,
		secondField:  v.secondField,
		cur:          v.cur,
		fwd:          v.fwd,
		bwd:          v.bwd,
		conv:         v.converting,
		format:       v.cfg.Format,
	}

	d.scan = &scanZigZag
	if v.pic.AlternateScan {
		d.scan = &scanAlternate
	}
	if v.pic.Structure != StructureFrame {
		d.field = int(v.pic.Structure) - 1
	}
	d.br.init(data, 0)

	return d, nil
}

// run executes jobs from q until the terminate job.
func (d *sliceDecoder) run(q *jobQueue) {
	for {
		j := q.dequeue()

		switch j.cmd {
		case jobTerminate:
			return

		case jobConvert:
			d.conv.convertRows(j.start<<4, j.end<<4)

		case jobProcess:
			if log.IsEnabledFor(debugLevel) {
				log.Debugf("decoding rows %d-%d at byte %d", j.start, j.end, j.offset)
			}
			d.br.init(d.br.data, j.offset)
			d.startRow, d.endRow = j.start, j.end
			d.mbsLeft = (j.end - j.start) * d.mbWidth
			d.mbX, d.mbY = 0, j.start
			d.decodeRows()
		}
	}
}

// decodePicture decodes the slices of the current picture with the worker pool.
// The caller's goroutine is one of the workers. Conversion of the previously
// displayed frame runs in the same pool.
func (v *Video) decodePicture(br *bitReader) error {
	if err := v.startPicture(); err != nil {
		return err
	}

	br.nextStartCode()

	var jobs []job
	if v.seq.MPEG2 {
		jobs = scanSlices(*br, v.numVertMB(), v.seq.sliceRowExtension())
	} else if startIsSlice(br.startCode()) {
		// MPEG-1 slices may span rows.
		jobs = []job{{cmd: jobProcess, start: 0, end: v.numVertMB(), offset: br.byteOffset()}}
	}

	q := v.queue
	q.reset()
	for _, j := range jobs {
		q.enqueue(j)
	}
	if f := v.converting; f != nil {
		f.prepareOut(v.cfg.Format)
		for i := 0; v.cfg.Format != FormatNative && i < f.Height; i += convertLines {
			q.enqueue(job{cmd: jobConvert, start: i >> 4, end: (i + convertLines) >> 4})
		}
	}
	q.terminate()

	// Workers beyond the queued jobs would only take the terminate job.
	n := v.cfg.Threads
	if pending := q.len() - 1; pending < n {
		n = pending
	}
	if n < 1 {
		n = 1
	}

	workers := make([]*sliceDecoder, n)
	for i := range workers {
		d, err := v.newSliceDecoder(br.data)
		if err != nil {
			v.finishPicture()
			return err
		}
		workers[i] = d
	}

	if log.IsEnabledFor(debugLevel) {
		log.Debugf("picture %s: %d jobs, %d workers", v.pic.Type, len(jobs), len(workers))
	}

	var wg sync.WaitGroup
	for _, d := range workers[1:] {
		wg.Add(1)
		go func(d *sliceDecoder) {
			defer wg.Done()
			d.run(q)
		}(d)
	}
	workers[0].run(q)
	wg.Wait()

	v.finishPicture()

	for _, d := range workers {
		if d.err != nil {
			return d.err
		}
	}
	if len(jobs) == 0 {
		return errors.Wrap(ErrStartCode, "picture without slices")
	}

	return nil
}
