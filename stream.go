/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"time"

	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/storagemodels"
)

// StreamResult is one streamed record, or the error that ended the stream.
type StreamResult struct {
	Record *record.Record
	Err    error
	Meta   storagemodels.StreamMeta
}

// Stream reads the records matching opts one page at a time in a background
// goroutine. Each page is a FindAll with a LIMIT/OFFSET window, so a
// key-attribute connection resumes from its cached continuation tokens. The
// channel closes after the last record, after an error result, or when ctx
// is cancelled.
func (m *Model) Stream(ctx context.Context, opts *storagemodels.Options, sopts ...storagemodels.StreamOption) <-chan StreamResult {
	options := storagemodels.DefaultStreamOptions()
	for _, o := range sopts {
		o(&options)
	}
	if options.PageSize <= 0 {
		options.PageSize = storagemodels.DefaultStreamOptions().PageSize
	}

	resultCh := make(chan StreamResult, options.BufferSize)
	go m.streamWorker(ctx, opts.Clone(), options, resultCh)
	return resultCh
}

func (m *Model) streamWorker(ctx context.Context, opts *storagemodels.Options, options storagemodels.StreamOptions, resultCh chan<- StreamResult) {
	defer close(resultCh)

	var index int64
	var pageNumber int
	startTime := time.Now()

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: index,
			PagesProcessed: pageNumber,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(index) / elapsed
		}
		options.ProgressHandler(progress)
	}

	offset := 0
	if opts.Offset != nil {
		offset = *opts.Offset
	}
	remaining := -1
	if opts.Limit != nil {
		remaining = *opts.Limit
	}

	for remaining != 0 {
		select {
		case <-ctx.Done():
			return
		default:
		}

		size := options.PageSize
		if remaining > 0 && remaining < size {
			size = remaining
		}
		page := opts.Clone()
		page.Limit = storagemodels.Int(size)
		page.Offset = storagemodels.Int(offset)

		recs, err := m.FindAll(ctx, page)
		if err != nil {
			select {
			case <-ctx.Done():
			case resultCh <- StreamResult{Err: err, Meta: storagemodels.StreamMeta{
				Index:      index,
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			}}:
			}
			return
		}
		pageNumber++

		for _, rec := range recs {
			result := StreamResult{Record: rec, Meta: storagemodels.StreamMeta{
				Index:      index,
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			}}
			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}
			index++
		}
		reportProgress()

		if len(recs) < size {
			break
		}
		offset += len(recs)
		if remaining > 0 {
			remaining -= len(recs)
		}
	}
}
