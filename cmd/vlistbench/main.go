package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/term"

	"vlist"
)

var (
	rows       = flag.Int("rows", 1_000_000, "number of rows")
	frames     = flag.Int("frames", 2000, "frames to render")
	step       = flag.Int("step", 1, "lines scrolled per frame")
	dynamic    = flag.Bool("dynamic", false, "wrap rows and size them by content")
	configPath = flag.String("config", "", "YAML config file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal")
	}

	cfg := vlist.DefaultConfig()
	if *configPath != "" {
		c, err := vlist.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	if *dynamic {
		cfg.Sizing = vlist.DynamicSize
	}

	src := vlist.FuncSource[int]{
		Count: func() int { return *rows },
		Data:  func(i int) (int, error) { return i, nil },
	}
	renderer := &vlist.TextRenderer[int]{
		Format: func(_ int, i int) string {
			return fmt.Sprintf("row %7d %s", i, strings.Repeat("· ", i%60))
		},
		Style: func(i int, _ int) vlist.Style {
			if i%10 == 0 {
				return vlist.DefaultStyle().Foreground(vlist.BrightCyan)
			}
			return vlist.DefaultStyle()
		},
		Wrap: true,
	}
	list, err := vlist.NewVirtualList[int, *vlist.RowItem](cfg, src, renderer)
	if err != nil {
		return err
	}
	if err := list.Start(); err != nil {
		return err
	}

	screen, err := vlist.NewScreen(nil)
	if err != nil {
		return err
	}
	if err := screen.EnterRawMode(); err != nil {
		return err
	}
	defer screen.ExitRawMode()

	size := screen.Size()
	if err := list.SetViewport(size.Width, size.Height); err != nil && !recoverable(err) {
		return err
	}

	times := make([]time.Duration, 0, *frames)
	var written int
	degraded := 0
	start := time.Now()
	for n := *frames; n > 0; n-- {
		select {
		case sz := <-screen.ResizeChan():
			if err := list.SetViewport(sz.Width, sz.Height); err != nil && !recoverable(err) {
				return err
			}
		default:
		}

		t := time.Now()
		if err := list.ScrollBy(*step); err != nil {
			if !recoverable(err) {
				return err
			}
			degraded++
		}
		list.Render(screen.Buffer(), 0, 0)
		stats, err := screen.Flush()
		if err != nil {
			return err
		}
		written += stats.Bytes
		times = append(times, time.Since(t))
	}
	total := time.Since(start)

	if err := screen.ExitRawMode(); err != nil {
		return err
	}

	slices.Sort(times)
	ps := list.PoolStats()
	cs := list.CacheStats()
	idx, off := list.ScrollPosition()

	fmt.Printf("rows %d, frames %d, sizing %s, viewport %dx%d\n", *rows, len(times), cfg.Sizing, size.Width, size.Height)
	fmt.Printf("total %v, p50 %v, p99 %v, max %v, %d bytes written\n",
		total, percentile(times, 0.50), percentile(times, 0.99), times[len(times)-1], written)
	fmt.Printf("anchor row %d +%d, degraded frames %d\n", idx, off, degraded)
	fmt.Printf("pool: target %d max %d available %d lent %d created %d reused %d discarded %d hit %.1f%%\n",
		ps.TargetSize, ps.MaxSize, ps.Available, ps.Lent, ps.TotalCreated, ps.TotalReused, ps.TotalDiscarded, ps.HitRate*100)
	fmt.Printf("cache: len %d/%d hits %d misses %d evictions %d\n",
		cs.Len, cs.Capacity, cs.Hits, cs.Misses, cs.Evictions)
	return nil
}

func recoverable(err error) bool {
	var e *vlist.Error
	return errors.As(err, &e) && e.Recoverable()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
