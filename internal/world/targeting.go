package world

import (
	"github.com/OCAP2/unitcore/internal/targeting"
	"github.com/OCAP2/unitcore/pkg/core"
)

// TargetResult is the outcome of one targeting request.
type TargetResult struct {
	Selected   core.Handle
	Candidates int
	History    []core.Handle
}

// SelectTarget picks the best target for referer and records it in the
// referer's history, so the next request favours it.
func (w *World) SelectTarget(referer core.Handle, opts targeting.Options) (TargetResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, err := w.lookup(referer)
	if err != nil {
		return TargetResult{}, err
	}

	hist := w.history(referer)
	previous := hist.Handles()
	res := targeting.SelectBestTarget(w.cfg.Targeting, r.unit, opts, previous, w.registry.All())

	out := TargetResult{Candidates: res.Visited, History: previous}
	if res.Found() {
		out.Selected = res.Target.Handle()
		hist.Record(out.Selected)
	}
	return out, nil
}

// History returns the targeting history of referer, most recent first.
func (w *World) History(referer core.Handle) []core.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if hist, ok := w.histories[referer]; ok {
		return hist.Handles()
	}
	return nil
}

func (w *World) history(referer core.Handle) *targeting.History {
	hist, ok := w.histories[referer]
	if !ok {
		hist = targeting.NewHistory(w.cfg.HistorySize)
		w.histories[referer] = hist
	}
	return hist
}
