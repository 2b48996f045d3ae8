package ranker

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"tripmatch/domain"

	"golang.org/x/sync/errgroup"
)

// Selector runs the scoring engine over a candidate pool and keeps the top k
// by score. Memory stays O(k) regardless of pool size: each worker maintains
// a bounded min-heap and the partial heaps are merged sequentially, so no
// goroutine ever mutates shared heap state.
type Selector struct {
	store   *WeightStore
	cache   ScoreCache
	workers int
}

func NewSelector(store *WeightStore, cache ScoreCache, workers int) *Selector {
	if workers < 1 {
		workers = 1
	}
	if cache == nil {
		cache = NopCache{}
	}
	return &Selector{store: store, cache: cache, workers: workers}
}

// SelectTopK returns at most k candidates ordered by score descending, exact
// ties broken by ascending trip ID. The order is deterministic for a fixed
// (candidates, preferences, active weight version) triple, never a function
// of worker scheduling.
func (s *Selector) SelectTopK(
	ctx context.Context,
	candidates []domain.TripCandidate,
	prefs domain.SearchPreferences,
	k int,
) ([]domain.ScoredTrip, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if k <= 0 || len(candidates) == 0 {
		return []domain.ScoredTrip{}, nil
	}

	wv := s.store.GetActive()
	fp := Fingerprint(prefs)
	now := time.Now()

	workers := s.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	partials := make([]topKHeap, workers)
	g, gctx := errgroup.WithContext(ctx)

	chunk := (len(candidates) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(candidates) {
			hi = len(candidates)
		}
		w := w
		batch := candidates[lo:hi]

		g.Go(func() error {
			local := make(topKHeap, 0, k)
			for i := range batch {
				if err := gctx.Err(); err != nil {
					return err
				}
				st, err := s.scoreOne(gctx, batch[i], prefs, fp, wv, now)
				if err != nil {
					return err
				}
				pushBounded(&local, k, st)
			}
			partials[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sequential merge of the partial heaps; the total order (score desc,
	// trip ID asc) makes the result independent of worker interleaving.
	final := make(topKHeap, 0, k)
	for _, partial := range partials {
		for _, st := range partial {
			pushBounded(&final, k, st)
		}
	}

	out := make([]domain.ScoredTrip, len(final))
	for i := len(final) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&final).(domain.ScoredTrip)
	}
	return out, nil
}

func (s *Selector) scoreOne(
	ctx context.Context,
	trip domain.TripCandidate,
	prefs domain.SearchPreferences,
	fp string,
	wv *WeightVector,
	now time.Time,
) (domain.ScoredTrip, error) {

	if st, ok := s.cache.GetScore(ctx, trip.ID, fp, wv.Version); ok {
		return st, nil
	}

	fv := ExtractFeatures(trip, prefs, now)
	score, err := Score(fv, wv)
	if err != nil {
		return domain.ScoredTrip{}, fmt.Errorf("score trip %d: %w", trip.ID, err)
	}

	st := domain.ScoredTrip{
		TripID:        trip.ID,
		Score:         score,
		WeightVersion: wv.Version,
		Features:      fv.Map(),
	}
	s.cache.SetScore(ctx, fp, st)
	CandidatesScoredTotal.Inc()

	return st, nil
}

// topKHeap is a min-heap over the final ranking order: the root is the entry
// that would be dropped first. Among equal scores the higher trip ID is the
// worse entry, so the final output can always prefer the lower ID.
type topKHeap []domain.ScoredTrip

func (h topKHeap) Len() int { return len(h) }

func (h topKHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].TripID > h[j].TripID
}

func (h topKHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap) Push(x any) { *h = append(*h, x.(domain.ScoredTrip)) }

func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// beats reports whether a would outrank the current heap minimum.
func beats(a, min domain.ScoredTrip) bool {
	if a.Score != min.Score {
		return a.Score > min.Score
	}
	return a.TripID < min.TripID
}

func pushBounded(h *topKHeap, k int, st domain.ScoredTrip) {
	if h.Len() < k {
		heap.Push(h, st)
		return
	}
	if beats(st, (*h)[0]) {
		(*h)[0] = st
		heap.Fix(h, 0)
	}
}
