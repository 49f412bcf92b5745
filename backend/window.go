package backend

import (
	"context"

	"gioui.org/app"
	"git.sr.ht/~gioverse/skel/stream"
)

// WindowState bundles the shared feed with the stream controller of one
// window, so UI code can subscribe to sessions without threading contexts
// around.
type WindowState struct {
	Feed       *Feed
	Controller *stream.Controller
}

func NewWindowState(ctx context.Context, feed *Feed, win *app.Window) WindowState {
	return WindowState{
		Feed:       feed,
		Controller: stream.NewController(ctx, win.Invalidate),
	}
}
