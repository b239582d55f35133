package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v2"
)

// progressView renders the engine's progress hook. The hook fires from
// several workers; a new bar starts once the previous set is complete.
type progressView struct {
	mu    sync.Mutex
	w     io.Writer
	bar   *progressbar.ProgressBar
	done  int
	total int
}

func newProgressView(w io.Writer) *progressView {
	return &progressView{w: w}
}

func (v *progressView) update(done, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bar == nil || v.done >= v.total {
		v.closeBar()
		v.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(v.w),
			progressbar.OptionSetDescription("projecting"),
		)
		v.done, v.total = 0, total
	}
	if done > v.done {
		v.bar.Add(done - v.done)
		v.done = done
	}
}

// finish closes the current bar; a nil view is a no-op.
func (v *progressView) finish() {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closeBar()
}

func (v *progressView) closeBar() {
	if v.bar == nil {
		return
	}
	v.bar.Finish()
	io.WriteString(v.w, "\n")
	v.bar = nil
	v.done, v.total = 0, 0
}
