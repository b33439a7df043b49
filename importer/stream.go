package importer

import (
	"context"
	"fmt"
	"iter"
	"math"
	"sync/atomic"

	"github.com/airbusgeo/geocube-importer/interface/cache"
	"github.com/airbusgeo/geocube-importer/service/log"
)

const (
	idealIncrement = 512
	maxIncrement   = 2048
)

// increment returns the number of rows copied at each step: a multiple of the native block height
// close to idealIncrement, capped to maxIncrement
func increment(blockRows int) int {
	if blockRows <= 0 {
		return idealIncrement
	}
	n := blockRows * ((idealIncrement + blockRows - 1) / blockRows)
	if n > maxIncrement {
		return maxIncrement
	}
	return n
}

// stage describes the progress events of a stream
type stage struct {
	uuid     string
	source   string
	desc     string
	doneDesc string
}

func (s stage) progress(completion float64, rows int, desc string) Progress {
	return Progress{
		UUID:         s.uuid,
		Stages:       1,
		CurrentStage: 0,
		Completion:   completion,
		StageDesc:    desc,
		Rows:         rows,
	}
}

// stream returns a single-use sequence copying the rows of the reader returned by open into a new cache buffer.
// If the context is cancelled or the consumer stops before the last event, the cache file is removed.
func stream(ctx context.Context, open func() (RowReader, error), cachePath string, st stage) iter.Seq2[Progress, error] {
	var consumed atomic.Bool
	return func(yield func(Progress, error) bool) {
		if consumed.Swap(true) {
			yield(st.progress(0, 0, st.desc), ErrSequenceConsumed)
			return
		}
		reader, err := open()
		if err != nil {
			yield(st.progress(0, 0, st.desc), err)
			return
		}
		defer reader.Close()

		rows, cols := reader.Shape()
		buf, err := cache.Allocate(cachePath, rows, cols)
		if err != nil {
			yield(st.progress(0, 0, st.desc), fmt.Errorf("stream.%w", err))
			return
		}
		abort := func() {
			if err := buf.Remove(); err != nil {
				log.Logger(ctx).Sugar().Warnf("stream: unable to remove %s: %v", cachePath, err)
			}
		}
		nodata, hasNodata := reader.NoData()
		step := increment(reader.BlockRows())
		log.Logger(ctx).Sugar().Debugf("streaming %dx%d rows from %s by %d", rows, cols, st.source, step)

		for written := 0; written < rows; {
			if err := ctx.Err(); err != nil {
				abort()
				yield(st.progress(float64(written)/float64(rows), 0, st.desc), fmt.Errorf("stream.%w", err))
				return
			}
			n := min(step, rows-written)
			samples := buf.Rows(written, n)
			if err := reader.ReadRows(written, n, samples); err != nil {
				if e := buf.Close(); e != nil {
					log.Logger(ctx).Sugar().Warnf("stream: %v", e)
				}
				yield(st.progress(float64(written)/float64(rows), 0, st.desc), ErrDecode{Source: st.source, Err: err})
				return
			}
			normalize(samples, nodata, hasNodata)
			written += n
			if !yield(st.progress(float64(written)/float64(rows), n, st.desc), nil) {
				abort()
				return
			}
		}

		if err := buf.Flush(); err != nil {
			buf.Close()
			yield(st.progress(1, 0, st.desc), fmt.Errorf("stream.%w", err))
			return
		}
		done := st.progress(1, 0, st.doneDesc)
		done.Data = buf
		yield(done, nil)
	}
}

// normalize replaces the nodata and infinite samples by NaN
func normalize(samples []float32, nodata float64, hasNodata bool) {
	nan := float32(math.NaN())
	nd := float32(nodata)
	checkNodata := hasNodata && !math.IsNaN(nodata)
	for i, v := range samples {
		if math.IsInf(float64(v), 0) || (checkNodata && v == nd) {
			samples[i] = nan
		}
	}
}
