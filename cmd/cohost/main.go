package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"cohost/internal/ai"
	"cohost/internal/assistant"
	"cohost/internal/audio"
	"cohost/internal/config"
	"cohost/internal/dashboard"
	"cohost/internal/ipc"
	"cohost/internal/obs"
	"cohost/internal/speech"
	"cohost/internal/transcript"
	"cohost/internal/tts"
	"cohost/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS proxy for the model server (optional)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	log.Debug("Configuration loaded", "udp_port", cfg.UDPPort, "model", cfg.OllamaModel)

	persona, err := ai.LoadPersona(cfg.PromptFile)
	if err != nil {
		log.Error("Failed to load persona", "err", err)
		os.Exit(1)
	}
	defer persona.Close()

	responder, err := ai.NewClient(cfg.OllamaURL, cfg.OllamaModel, *proxyAddr, persona)
	if err != nil {
		log.Error("Failed to init model client", "err", err)
		os.Exit(1)
	}

	engine, err := tts.NewEngine(context.Background(), cfg.GoogleCredentialsPath, cfg.TTSAudioEncoding)
	if err != nil {
		log.Error("Failed to init TTS", "err", err)
		os.Exit(1)
	}
	defer engine.Close()

	var synth assistant.Synthesizer = engine
	if cfg.EspeakFallback {
		synth = &tts.Fallback{Primary: engine, Backup: tts.NewEspeak()}
	}

	player, err := audio.NewPlayer(cfg.SampleRate, cfg.AudioBufferSize)
	if err != nil {
		log.Error("Failed to init audio output", "err", err)
		os.Exit(1)
	}
	encoding, _ := audio.ParseEncoding(cfg.TTSAudioEncoding)
	output := audio.NewOutput(player, encoding)

	log.Debug("Loaded audio output")

	var scenes assistant.SceneControl
	obsClient, err := obs.Connect(cfg.OBSHost, cfg.OBSPort, cfg.OBSPassword)
	if err != nil {
		log.Warn("OBS unavailable, avatar control disabled", "err", err)
		obsClient = nil
	} else {
		scenes = obsClient
	}

	var ducker assistant.Ducker
	if cfg.DuckingEnabled {
		ducker = audio.NewDucker([]string{"cohost"}, cfg.DuckingMinVolume, cfg.DuckingFactor, cfg.DuckingFade)
	}

	store := transcript.Load(cfg.HistoryFile)
	log.Info("Loaded transcript", "entries", store.Len())

	intake := assistant.NewIntake()
	status := assistant.NewStatus()
	bus := assistant.NewBus(128)
	cache := tts.NewCache(cfg.TTSCacheEnabled, cfg.TTSCacheSize)

	var app *assistant.Assistant

	speechMgr := buildSpeech(cfg, player, bus, func(text string) {
		app.OfferVoice(text)
	})

	var speechCtl assistant.SpeechControl
	if speechMgr != nil {
		speechCtl = speechMgr
	}

	app = assistant.New(assistant.Params{
		UDPPort: cfg.UDPPort,
		Intake:  intake,
		Status:  status,
		Bus:     bus,
		Speech:  speechCtl,
		Disconnect: func() {
			if obsClient != nil {
				obsClient.Close()
			}
		},
		Pipeline: assistant.PipelineDeps{
			Responder:   responder,
			Synthesizer: synth,
			Speaker:     output,
			Scenes:      scenes,
			Ducker:      ducker,
			Cache:       cache,
			Transcript:  store,
			Avatar: assistant.AvatarConfig{
				Scene:     cfg.SceneName,
				BotSource: cfg.BotSource,
				TopSource: cfg.TopSource,
			},
		},
	})

	ipcServer, err := ipc.StartServer(cfg.ControlSocket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "record-start", "trigger":
			if speechMgr != nil {
				speechMgr.StartRecording()
			}
		case "record-stop":
			if speechMgr != nil {
				speechMgr.StopRecording()
			}
		case "ask":
			app.Offer(msg.Text, assistant.SourceNetwork)
		case "stop":
			go app.Stop()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	})
	if err != nil {
		log.Warn("Control socket unavailable", "err", err)
	} else {
		defer ipcServer.Close()
	}

	if err := app.Start(); err != nil {
		log.Error("Failed to start assistant", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("Shutting down gracefully")
		app.Stop()
	}()

	dash := dashboard.New(status, bus, cfg.DashboardRefresh, os.Stdout)
	dash.Run(app.Done())
}

// buildSpeech assembles the push-to-talk chain. Any missing piece
// (no portaudio, no input device, no whisper model) disables voice
// intake without failing startup.
func buildSpeech(cfg *config.Config, player *audio.Player, bus *assistant.Bus, offer func(string)) *speech.Manager {
	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Warn("Audio capture unavailable", "err", err)
		return nil
	}
	if !rec.Available() {
		log.Warn("No input device, voice intake disabled")
		rec.Close()
		return nil
	}

	whisp, err := stt.NewTranscriber(cfg.WhisperModelPath, stt.Options{Language: "en"})
	if err != nil {
		log.Warn("Whisper unavailable, voice intake disabled", "err", err)
		rec.Close()
		return nil
	}

	chime := func(start bool) {
		if start {
			player.Chime(880, 120*time.Millisecond)
		} else {
			player.Chime(660, 120*time.Millisecond)
		}
	}

	return speech.NewManager(rec, whisp, speech.Config{
		StartKey:    cfg.StartKey,
		StopKey:     cfg.StopKey,
		MaxDuration: cfg.SpeechTimeout,
	}, offer, bus, chime)
}
