package evaluate

import (
	"runtime"
	"sync"

	"github.com/inodb/geneval/internal/genome"
)

// WorkItem is one truth gene of a region; Seq is its index in the region.
type WorkItem struct {
	Seq   int
	Truth *genome.Gene
}

// WorkResult is the comparison of one truth gene. Err is set when the gene
// failed validation, in which case Genes is empty.
type WorkResult struct {
	Seq   int
	Truth *genome.Gene
	Genes []*OverlapGene
	Err   error
}

// ParallelCompare shards truth genes across workers, all reading the same
// Locator. Results arrive in completion order; OrderedCollect restores
// region order. If workers is 0, runtime.NumCPU() is used.
func (e *Evaluator) ParallelCompare(items <-chan WorkItem, loc *Locator, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- e.compareItem(loc, item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (e *Evaluator) compareItem(loc *Locator, item WorkItem) WorkResult {
	genes, err := e.CompareGene(item.Truth, loc)
	return WorkResult{Seq: item.Seq, Truth: item.Truth, Genes: genes, Err: err}
}

// OrderedCollect hands each result to fn in truth gene order, holding back
// genes that finish early. It returns once results is closed, so every
// worker has exited by then.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult)) {
	held := make(map[int]WorkResult)
	next := 0

	for r := range results {
		held[r.Seq] = r
		for {
			rr, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++
			fn(rr)
		}
	}
}
