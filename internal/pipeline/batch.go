package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// Input is one upload in a batch.
type Input struct {
	Name string
	Data []byte
}

// BatchResult is the outcome for the Input at the same index.
//
// On success Problem is set and Err is nil. An undecodable upload still
// yields a Problem holding the original bytes, with Err reporting the decode
// failure. Any other failure leaves Problem nil.
type BatchResult struct {
	Name    string
	Problem *Problem
	Err     error
}

// ProgressFunc is called once per finished input with the number finished
// so far. Calls are serialized and done increases by one each time.
type ProgressFunc func(done, total int)

// ProcessBatch processes inputs on up to BatchWorkers goroutines. Each
// input's failure is isolated to its own result. Inputs not started when ctx
// ends get ctx's error and are not reported to progress.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputs []Input, progress ProgressFunc) []BatchResult {
	results := make([]BatchResult, len(inputs))
	total := len(inputs)

	var (
		mu   sync.Mutex
		done int
	)
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	var g errgroup.Group
	g.SetLimit(max(1, p.opts.BatchWorkers))
	for i, in := range inputs {
		results[i].Name = in.Name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			defer finish()
			results[i].Problem, results[i].Err = p.processOne(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// processOne never lets a failure escape the batch.
func (p *Pipeline) processOne(ctx context.Context, in Input) (prob *Problem, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic processing %s: %v", in.Name, r)
			prob, err = nil, errors.New("internal error while processing image")
		}
	}()

	prob, err = p.Process(ctx, in.Name, in.Data)
	switch {
	case err == nil:
		return prob, nil
	case errors.Is(err, imaging.ErrDecode):
		log.Printf("Cannot decode %s, keeping original: %v", in.Name, err)
		return newProblem(in.Name, in.Data, p.now()), err
	default:
		log.Printf("Failed to process %s: %v", in.Name, err)
		return nil, err
	}
}
