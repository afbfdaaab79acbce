package sim

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/events"
	"github.com/koscakluka/ema-narrator/core/speech"
)

// App runs the simulated desktop in the terminal.
type App struct {
	desktop *Desktop
	program *tea.Program
}

type AppOption func(*appOptions)

type appOptions struct {
	start    func(context.Context) error
	playback func() speech.PlaybackState
	program  []tea.ProgramOption
}

// WithStart is called once the terminal is up, typically with the
// narrator's Start.
func WithStart(start func(context.Context) error) AppOption {
	return func(o *appOptions) { o.start = start }
}

// WithPlaybackState lets the app show when speech is playing.
func WithPlaybackState(playback func() speech.PlaybackState) AppOption {
	return func(o *appOptions) { o.playback = playback }
}

func WithProgramOptions(opts ...tea.ProgramOption) AppOption {
	return func(o *appOptions) { o.program = append(o.program, opts...) }
}

func NewApp(desktop *Desktop, opts ...AppOption) *App {
	options := appOptions{program: []tea.ProgramOption{tea.WithAltScreen()}}
	for _, opt := range opts {
		opt(&options)
	}

	return &App{
		desktop: desktop,
		program: tea.NewProgram(newModel(desktop, options.start, options.playback), options.program...),
	}
}

// Run blocks until the user quits or Quit is called.
func (a *App) Run() error {
	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("simulator failed: %w", err)
	}
	return nil
}

func (a *App) Quit() {
	logger.Info("simulator quit requested")
	a.program.Quit()
}

// Event shows a narrator event in the log.
func (a *App) Event(event events.Event) {
	a.program.Send(eventMsg{event: event})
}

// Send draws the narrator highlight, nil clears it.
func (a *App) Send(rect *a11y.Rect) {
	a.program.Send(highlightMsg{rect: rect})
}
