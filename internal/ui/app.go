package ui

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"Drawboard/internal/board"
	"Drawboard/internal/export"
	"Drawboard/internal/metrics"
	dnet "Drawboard/internal/net"
	"Drawboard/internal/state"
)

const appID = "io.drawboard.client"

type AppConfig struct {
	URL      string
	Settings dnet.Settings
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// statusLine shows connection state, participant count and the last server
// alert.
type statusLine struct {
	label *widget.Label
	room  state.Room
	alert string
	err   error
}

func newStatusLine() *statusLine {
	s := &statusLine{label: widget.NewLabel("")}
	s.render()
	return s
}

func (s *statusLine) SetRoom(room state.Room) {
	fyne.Do(func() {
		s.room = room
		s.render()
	})
}

func (s *statusLine) Alert(text string) {
	fyne.Do(func() {
		s.alert = text
		s.render()
	})
}

func (s *statusLine) SetError(err error) {
	fyne.Do(func() {
		s.err = err
		s.render()
	})
}

func (s *statusLine) render() {
	s.label.SetText(statusText(s.room, s.alert, s.err))
}

func statusText(room state.Room, alert string, err error) string {
	text := room.State.String()
	if room.State == state.Connected {
		text = fmt.Sprintf("%s, %d participant(s)", text, room.Participants)
	}
	if alert != "" {
		text += " | server: " + alert
	}
	if err != nil && room.State == state.Disconnected {
		text += " | " + err.Error()
	}
	return text
}

// RunApp opens the board window and joins cfg.URL. It returns when the window
// is closed.
func RunApp(ctx context.Context, cfg AppConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := app.NewWithID(appID)
	w := a.NewWindow("Drawboard")
	w.Resize(fyne.NewSize(1024, 768))

	tools := state.NewToolSettings(state.DefaultTool())
	surface := NewBoardWidget()
	status := newStatusLine()

	sess, err := dnet.NewSession(cfg.URL, cfg.Settings, tools, board.Hooks{
		Display:    surface.SetFrame,
		Visibility: surface.SetSurfaceVisible,
		Alert:      status.Alert,
		Room:       status.SetRoom,
	}, cfg.Metrics, logger)
	if err != nil {
		return err
	}
	surface.SetSink(sess)

	toolbar := NewToolbar(tools)
	toolbar.OnExport = func(format export.Format) {
		exportDialog(ctx, w, sess, format, logger)
	}

	w.SetContent(container.NewBorder(
		toolbar.Build(),
		status.label,
		nil, nil,
		container.NewScroll(surface),
	))
	w.SetOnClosed(sess.Close)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		err := sess.Run(runCtx)
		if err != nil {
			logger.Error("Session ended", "error", err)
		}
		status.SetError(err)
	}()

	w.ShowAndRun()
	sess.Close()
	cancel()
	<-sess.Done()
	return nil
}

func exportDialog(ctx context.Context, w fyne.Window, sess *dnet.Session, format export.Format, logger *slog.Logger) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if wc == nil {
			return
		}
		go func() {
			defer wc.Close()
			img, err := sess.Snapshot(ctx)
			if err == nil {
				err = export.Write(wc, format, img)
			}
			if err != nil {
				logger.Error("Export failed", "format", format, "error", err)
				fyne.Do(func() { dialog.ShowError(err, w) })
				return
			}
			logger.Info("Exported board", "format", format, "uri", wc.URI().String())
		}()
	}, w)
	d.SetFileName("board." + string(format))
	d.Show()
}
