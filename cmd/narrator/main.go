// Command narrator runs the narrator against the terminal desktop
// simulator. Speech goes through Deepgram when DEEPGRAM_API_KEY is set and
// is shown in the terminal otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	narrator "github.com/koscakluka/ema-narrator/core"
	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/audio"
	"github.com/koscakluka/ema-narrator/core/audio/miniaudio"
	"github.com/koscakluka/ema-narrator/core/audio/portaudio"
	"github.com/koscakluka/ema-narrator/core/overlay/wsoverlay"
	"github.com/koscakluka/ema-narrator/core/speech"
	"github.com/koscakluka/ema-narrator/core/speech/deepgram"
	"github.com/koscakluka/ema-narrator/internal/config"
	"github.com/koscakluka/ema-narrator/internal/sim"
	"github.com/koscakluka/ema-narrator/internal/telemetry"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	serviceName         = "ema-narrator"
	portaudioBufferSize = 512
	stopTimeout         = 15 * time.Second
)

var logger = otelslog.NewLogger("github.com/koscakluka/ema-narrator/cmd/narrator")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	var (
		configPath  string
		printSchema bool
		latency     time.Duration
	)
	flag.StringVar(&configPath, "config", "", "path to the config file (default $"+config.PathEnv+" or the user config dir)")
	flag.BoolVar(&printSchema, "config-schema", false, "print the config JSON schema and exit")
	flag.DurationVar(&latency, "latency", 0, "simulated delay of every element query")
	flag.Parse()

	if printSchema {
		schema, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Println(string(schema))
		return err
	}

	if configPath == "" {
		if configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, shutdownTelemetry(context.Background()))
	}()

	output, closeOutput := openSpeaker(cfg.Sound.Backend)
	defer closeOutput()
	sounds, closeSounds := openSoundPlayer(cfg.Sound.Backend, output)
	defer closeSounds()

	engine := newSpeechEngine(*cfg, output)
	desktop := sim.NewDesktop(sim.DefaultElements(), sim.WithLatency(latency))

	var n *narrator.Narrator
	app := sim.NewApp(desktop,
		sim.WithStart(func(ctx context.Context) error { return n.Start(ctx) }),
		sim.WithPlaybackState(engine.PlaybackState),
	)

	renderers := overlayRenderers{app}
	var overlayServer *wsoverlay.Server
	if cfg.Overlay.Addr != "" {
		overlayServer = wsoverlay.NewServer(wsoverlay.WithCloseCallback(func() {
			logger.Info("overlay closed, shutting down")
			app.Quit()
		}))
		renderers = append(renderers, overlayServer)
	}

	n = narrator.New(
		narrator.WithConfig(cfg),
		narrator.WithSpeechEngine(engine),
		narrator.WithElementInspector(desktop),
		narrator.WithFocusSource(desktop),
		narrator.WithKeySource(desktop),
		narrator.WithSoundPlayer(sounds),
		narrator.WithOverlayRenderer(renderers),
		narrator.WithEventCallback(app.Event),
	)

	if overlayServer != nil {
		go func() {
			if err := overlayServer.ListenAndServe(ctx, cfg.Overlay.Addr); err != nil {
				logger.Error("overlay server failed", "error", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		app.Quit()
	}()

	runErr := app.Run()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	stopErr := n.Stop(stopCtx)
	if overlayServer != nil {
		overlayServer.Close()
	}

	return errors.Join(runErr, stopErr)
}

// openSpeaker opens the device speech is played on. Without one the
// narrator falls back to the terminal.
func openSpeaker(backend string) (*miniaudio.Client, func()) {
	if backend != "miniaudio" && os.Getenv("DEEPGRAM_API_KEY") == "" {
		return nil, func() {}
	}

	client, err := miniaudio.NewClient(audio.GetDefaultEncodingInfo())
	if err != nil {
		logger.Warn("no audio output, speech will be shown in the terminal", "error", err)
		return nil, func() {}
	}
	return client, client.Close
}

func openSoundPlayer(backend string, speaker *miniaudio.Client) (narrator.SoundPlayer, func()) {
	switch backend {
	case "miniaudio":
		if speaker != nil {
			return speaker, func() {}
		}
	case "portaudio":
		client, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			logger.Warn("portaudio unavailable, cues disabled", "error", err)
			return nil, func() {}
		}
		return client, client.Close
	}
	return nil, func() {}
}

func newSpeechEngine(cfg config.Config, speaker *miniaudio.Client) speech.Engine {
	if speaker != nil && os.Getenv("DEEPGRAM_API_KEY") != "" {
		engine, err := deepgram.NewEngine(speaker,
			deepgram.WithVoice(deepgram.Voice(cfg.Speech.Voice)),
			deepgram.WithSpeechOptions(cfg.SpeechOptions()),
		)
		if err == nil {
			return engine
		}
		logger.Warn("deepgram unavailable, speech will be shown in the terminal", "error", err)
	}
	return sim.NewConsoleEngine(sim.WithConsoleSpeechOptions(cfg.SpeechOptions()))
}

// overlayRenderers fans the highlight out to every renderer.
type overlayRenderers []narrator.OverlayRenderer

func (r overlayRenderers) Send(rect *a11y.Rect) {
	for _, renderer := range r {
		renderer.Send(rect)
	}
}
