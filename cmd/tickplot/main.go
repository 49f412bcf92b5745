package main

import (
	"context"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tickplot/tickplot"
	"github.com/tickplot/tickplot/backend"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
})

func main() {
	root := &cobra.Command{
		Use:          "tickplot",
		Short:        "Interactive time-series charts",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool("verbose") {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	flags := root.PersistentFlags()
	flags.Bool("verbose", false, "enable debug logging")
	flags.Float64("bar-spacing", 6, "initial horizontal pixels per bar")
	flags.Bool("scroll-past-edge", false, "allow scrolling the newest bar away from the right edge")
	flags.Bool("no-autoscroll", false, "do not follow new bars at the right edge")
	flags.String("price-scale", "normal", "price scale mode: normal, logarithmic, or percentage")
	if err := viper.BindPFlags(flags); err != nil {
		logger.Fatal("failed binding flags", "err", err)
	}

	demo := &cobra.Command{
		Use:   "demo",
		Short: "Chart a synthetic random walk",
		RunE: func(cmd *cobra.Command, args []string) error {
			tick := viper.GetDuration("tick")
			seed := viper.GetInt64("seed")
			return runWindow(func(feed *backend.Feed) (string, error) {
				gen := backend.NewGenerator(seed, time.Now(), time.Second, 100)
				return feed.Synthesize(gen, tick), nil
			})
		},
	}
	demoFlags := demo.Flags()
	demoFlags.Duration("tick", 50*time.Millisecond, "delay between generated bars")
	demoFlags.Int64("seed", time.Now().UnixNano(), "random walk seed")
	if err := viper.BindPFlags(demoFlags); err != nil {
		logger.Fatal("failed binding flags", "err", err)
	}

	replay := &cobra.Command{
		Use:   "replay [file]",
		Short: "Replay bars from a CSV file, tailing it as it grows",
		Long: `Replay reads time_ns,open,high,low,close[,volume] records from a CSV
file and charts them. The file is watched for appends, so a live recorder can
write into it while the chart follows. Without an argument a file picker opens
from the toolbar.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(func(feed *backend.Feed) (string, error) {
				if len(args) == 0 {
					// No session yet; the toolbar's open button starts one.
					return "", nil
				}
				return feed.ReplayPath(args[0])
			})
		},
	}
	root.AddCommand(demo, replay)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// chartOptions builds the chart configuration from the bound flags.
func chartOptions() *tickplot.ChartOptions {
	opts := tickplot.DefaultChartOptions()
	if bs := viper.GetFloat64("bar-spacing"); bs > 0 {
		opts.TimeScale.BarSpacing = bs
	}
	opts.TimeScale.ScrollPastEdge = viper.GetBool("scroll-past-edge")
	opts.TimeScale.AutoScroll = !viper.GetBool("no-autoscroll")
	switch mode := viper.GetString("price-scale"); mode {
	case "", "normal":
	case "log", "logarithmic":
		opts.PriceScale.Mode = tickplot.PriceScaleLogarithmic
	case "percent", "percentage":
		opts.PriceScale.Mode = tickplot.PriceScalePercentage
	default:
		logger.Warn("unknown price scale mode, using normal", "mode", mode)
	}
	return &opts
}

func runWindow(start func(*backend.Feed) (string, error)) error {
	go func() {
		w := app.NewWindow(
			app.Title("tickplot"),
			app.Size(unit.Dp(960), unit.Dp(600)),
		)
		if err := loop(w, start); err != nil {
			logger.Fatal("window closed", "err", err)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func loop(w *app.Window, start func(*backend.Feed) (string, error)) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mutator := stream.NewMutator(ctx, 5*time.Second)
	feed, err := backend.NewFeed(mutator, logger)
	if err != nil {
		return err
	}
	ws := backend.NewWindowState(ctx, feed, w)
	sessionID, err := start(feed)
	if err != nil {
		return err
	}
	expl := explorer.NewExplorer(w)
	ui, err := NewUI(ws, expl, w.Invalidate, chartOptions())
	if err != nil {
		return err
	}
	if sessionID != "" {
		ui.Follow(sessionID)
	}
	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
