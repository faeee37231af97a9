package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"vlist"
)

var (
	configPath = flag.String("config", "", "YAML config file (reloaded on change)")
	rows       = flag.Int("rows", 100000, "number of rows")
	dynamic    = flag.Bool("dynamic", false, "wrap rows and size them by content")
	logPath    = flag.String("log", "", "write a debug log to this file")
)

type entry struct {
	ID    int
	Level string
	Msg   string
}

var words = strings.Fields("pool cache reconcile viewport anchor overscan measure bind release acquire " +
	"frame scroll extent container index range render layout optimize target")

var levels = []string{"debug", "info", "info", "info", "warn", "error"}

func makeEntries(n int) []entry {
	r := rand.New(rand.NewPCG(1, 2))
	out := make([]entry, n)
	for i := range out {
		msg := make([]string, 3+r.IntN(30))
		for j := range msg {
			msg[j] = words[r.IntN(len(words))]
		}
		out[i] = entry{ID: i, Level: levels[r.IntN(len(levels))], Msg: strings.Join(msg, " ")}
	}
	return out
}

func levelStyle(theme vlist.Theme, level string) vlist.Style {
	switch level {
	case "error":
		return theme.Error
	case "warn":
		return theme.Accent
	case "debug":
		return theme.Muted
	}
	return theme.Base
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *logPath != "" {
		zc := zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{*logPath}
		zc.ErrorOutputPaths = []string{*logPath}
		l, err := zc.Build()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer l.Sync()
		vlist.SetLogger(l)
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

	var list *vlist.VirtualList[entry, *vlist.RowItem]
	renderer := &vlist.TextRenderer[entry]{
		Format: func(_ int, e entry) string {
			return fmt.Sprintf("%7d %-5s %s", e.ID, e.Level, e.Msg)
		},
		Style: func(_ int, e entry) vlist.Style {
			return levelStyle(list.Theme(), e.Level)
		},
		Wrap: true,
	}
	list, err := vlist.NewVirtualList[entry, *vlist.RowItem](cfg, vlist.NewSliceSource(makeEntries(*rows)), renderer)
	if err != nil {
		return err
	}
	if err := list.Start(); err != nil {
		return err
	}

	model := vlist.NewModel(list)
	model.Title = fmt.Sprintf("vlist %d rows (%s)", *rows, cfg.Sizing)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if *configPath != "" {
		w, err := vlist.WatchConfig(*configPath, func(c vlist.Config) {
			p.Send(vlist.ConfigReloadedMsg{Config: c})
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	_, err = p.Run()
	return err
}
