package main

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rizkirmdhn/vistopia/internal/downloader"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/schollz/progressbar/v3"
)

// segmentProgress draws one bar per merged episode on stderr
type segmentProgress struct {
	mu   sync.Mutex
	out  *os.File
	bars map[string]*progressbar.ProgressBar
}

// newSegmentProgress returns nil when stderr is not a terminal; logs carry progress then
func newSegmentProgress(out *os.File) downloader.ProgressFunc {
	fd := out.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	p := &segmentProgress{out: out, bars: make(map[string]*progressbar.ProgressBar)}
	return p.update
}

func (p *segmentProgress) update(title string, info models.ProgressInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[title]
	if !ok {
		bar = progressbar.NewOptions(info.TotalSegments,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(title),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		p.bars[title] = bar
	}

	_ = bar.Set(info.Downloaded)
	if info.Downloaded >= info.TotalSegments {
		_ = bar.Finish()
		delete(p.bars, title)
	}
}
