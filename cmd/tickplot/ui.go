package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/tickplot/tickplot"
	"github.com/tickplot/tickplot/backend"
	"github.com/tickplot/tickplot/giochart"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

var fitIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.ActionZoomOut)
	return icon
}()

var openIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.FileFolderOpen)
	return icon
}()

// UI holds the state of the top-level window: a hosted chart with a
// candlestick pane over a volume pane, plus the toolbar controls.
type UI struct {
	ws         backend.WindowState
	expl       *explorer.Explorer
	invalidate func()
	opts       *tickplot.ChartOptions

	chartWidget *giochart.Widget
	priceSeries tickplot.SeriesID
	volSeries   tickplot.SeriesID

	sessionStream *stream.Stream[backend.Session]
	session       backend.Session
	consumed      int

	paused   bool
	pauseBtn widget.Clickable
	fitBtn   widget.Clickable
	openBtn  widget.Clickable

	hover   string
	loadErr string

	th *material.Theme
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, invalidate func(), opts *tickplot.ChartOptions) (*UI, error) {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		ws:         ws,
		expl:       expl,
		invalidate: invalidate,
		opts:       opts,
		th:         th,
	}
	if err := ui.resetChart(); err != nil {
		return nil, err
	}
	return ui, nil
}

// resetChart rebuilds the hosted chart. The shared time axis only ever
// grows, so switching to a session with older timestamps needs fresh chart
// state rather than a truncation.
func (ui *UI) resetChart() error {
	w, err := giochart.NewWidget(ui.th, ui.invalidate, ui.opts, logger)
	if err != nil {
		return err
	}
	chart := w.Chart()
	price, err := chart.AddSeries(tickplot.SeriesCandlestick, tickplot.DefaultSeriesOptions(), 0)
	if err != nil {
		return err
	}
	volOpts := tickplot.DefaultSeriesOptions()
	volOpts.Color = color.NRGBA{R: 0x3a, G: 0x6e, B: 0x4f, A: 0xff}
	vol, err := chart.AddSeries(tickplot.SeriesHistogram, volOpts, 1)
	if err != nil {
		return err
	}
	if err := chart.SetPaneStretch(0, 3); err != nil {
		return err
	}
	chart.SetCrosshairMoveHandler(func(ev tickplot.CrosshairEvent) {
		ui.hover = formatHover(ev, price, vol)
	})
	ui.chartWidget = w
	ui.priceSeries = price
	ui.volSeries = vol
	ui.consumed = 0
	return nil
}

// Follow subscribes the UI to a feed session.
func (ui *UI) Follow(sessionID string) {
	ui.sessionStream = stream.New(ui.ws.Controller, func(ctx context.Context) <-chan backend.Session {
		return ui.ws.Feed.StreamSession(ctx, sessionID)
	})
}

// Update processes session data and toolbar events. Must run once per frame
// before Layout paints.
func (ui *UI) Update(gtx C) {
	if ui.sessionStream != nil {
		ui.sessionStream.ReadInto(gtx, &ui.session, backend.Session{})
	}
	if !ui.paused {
		for ; ui.consumed < len(ui.session.Bars); ui.consumed++ {
			ui.appendBar(ui.session.Bars[ui.consumed])
		}
	}
	if ui.session.Err != nil {
		ui.loadErr = ui.session.Err.Error()
	}
	if ui.pauseBtn.Clicked(gtx) {
		ui.paused = !ui.paused
	}
	if ui.fitBtn.Clicked(gtx) {
		ui.chartWidget.Chart().FitContent()
	}
	if ui.openBtn.Clicked(gtx) {
		id, err := ui.ws.Feed.ReplayFile(ui.expl)
		if err != nil {
			ui.loadErr = err.Error()
		} else if err := ui.resetChart(); err != nil {
			ui.loadErr = err.Error()
		} else {
			ui.loadErr = ""
			ui.session = backend.Session{}
			ui.Follow(id)
		}
	}
}

func (ui *UI) appendBar(bar backend.Bar) {
	chart := ui.chartWidget.Chart()
	if err := chart.AppendBar(ui.priceSeries, tickplot.BarData{
		Time:  bar.TimeNS,
		Open:  bar.Open,
		High:  bar.High,
		Low:   bar.Low,
		Close: bar.Close,
	}); err != nil {
		logger.Warn("dropping bar", "time", bar.TimeNS, "err", err)
		return
	}
	if err := chart.AppendBar(ui.volSeries, tickplot.BarData{
		Time:  bar.TimeNS,
		Value: bar.Volume,
	}); err != nil {
		logger.Warn("dropping volume", "time", bar.TimeNS, "err", err)
	}
}

func formatHover(ev tickplot.CrosshairEvent, price, vol tickplot.SeriesID) string {
	if ev.Time == nil {
		return ""
	}
	ts := time.Unix(0, *ev.Time).UTC().Format("2006-01-02 15:04:05")
	out := ts
	if v, ok := ev.SeriesValues[price]; ok {
		out += fmt.Sprintf("  close %.2f", v)
	}
	if v, ok := ev.SeriesValues[vol]; ok {
		out += fmt.Sprintf("  vol %.0f", v)
	}
	return out
}

func (ui *UI) layoutToolbar(gtx C) D {
	btn := func(gtx C, state *widget.Clickable, icon *widget.Icon) D {
		side := gtx.Dp(28)
		gtx.Constraints = layout.Exact(image.Pt(side, side))
		return material.Clickable(gtx, state, func(gtx C) D {
			return layout.Center.Layout(gtx, func(gtx C) D {
				return icon.Layout(gtx, ui.th.Fg)
			})
		})
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			icon := pauseIcon
			if ui.paused {
				icon = playIcon
			}
			return btn(gtx, &ui.pauseBtn, icon)
		}),
		layout.Rigid(func(gtx C) D {
			return btn(gtx, &ui.fitBtn, fitIcon)
		}),
		layout.Rigid(func(gtx C) D {
			return btn(gtx, &ui.openBtn, openIcon)
		}),
		layout.Flexed(1, func(gtx C) D {
			l := material.Body2(ui.th, ui.hover)
			l.MaxLines = 1
			return layout.UniformInset(4).Layout(gtx, l.Layout)
		}),
		layout.Rigid(func(gtx C) D {
			if len(ui.loadErr) == 0 {
				return D{}
			}
			l := material.Body2(ui.th, ui.loadErr)
			l.Color = color.NRGBA{R: 150, A: 255}
			l.MaxLines = 1
			return layout.UniformInset(4).Layout(gtx, l.Layout)
		}),
	)
}

// Layout updates and draws the whole window.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutToolbar),
		layout.Flexed(1, ui.chartWidget.Layout),
	)
}
