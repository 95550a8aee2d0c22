package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/voxelapi/goVoxelCoach/business/worker"
	"github.com/voxelapi/goVoxelCoach/foundation/audio"
	"github.com/voxelapi/goVoxelCoach/foundation/config"
	"github.com/voxelapi/goVoxelCoach/foundation/external/faceapi"
	"github.com/voxelapi/goVoxelCoach/foundation/external/gemini"
	"github.com/voxelapi/goVoxelCoach/foundation/external/googlestt"
	"github.com/voxelapi/goVoxelCoach/foundation/external/speaker"
	"github.com/voxelapi/goVoxelCoach/foundation/logger"
	"github.com/voxelapi/goVoxelCoach/foundation/sessionrecord"
	"github.com/voxelapi/goVoxelCoach/foundation/supabase"
)

var (
	version   string
	buildTime string
)

func main() {
	// =================================================================================================================
	// Configuration

	godotenv.Load()

	cfg := struct {
		conf.Version
		Session struct {
			ID             string
			ProfileID      string `conf:"default:1"`
			ConfigFilePath string `conf:"default:/etc/voxelcoach/profiles.json,noprint"`
		}
		Audio struct {
			DevicePath string `conf:"default:/tmp/voxelcoach/audio.pcm"`
		}
		Gemini struct {
			ApiKey string `conf:"noprint"`
		}
		FaceApi struct {
			ApiEndpoint string `conf:"default:http://localhost:5005/sample"`
		}
		Speaker struct {
			ApiEndpoint string `conf:"default:http://localhost:5006/say"`
		}
		Redis struct {
			Address  string `conf:"default:localhost:6379"`
			Password string `conf:"noprint"`
		}
		Supabase struct {
			ProjectURL string
			ApiKey     string `conf:"noprint"`
		}
		Logger struct {
			LogDirectory string `conf:"default:/var/log/voxelcoach/sessions/,noprint"`
		}
	}{
		Version: conf.Version{
			Build: version,
			Desc:  buildTime,
		},
	}

	help, err := conf.Parse("VOXEL", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}

	if cfg.Session.ID == "" {
		cfg.Session.ID = uuid.NewString()
	}

	// =================================================================================================================
	// Application Logger

	log, err := logger.New(cfg.Logger.LogDirectory, cfg.Session.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// =================================================================================================================
	// Coaching Profile

	profile, err := config.GetProfile(cfg.Session.ConfigFilePath, cfg.Session.ProfileID)
	if err != nil {
		log.Errorw("startup", "ERROR", err)
		os.Exit(1)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		log.Errorw("startup", "ERROR", err)
	}
	log.Infow("startup", "config", out, "profile", profile.Name)

	// =================================================================================================================
	// Shared Session Record

	record, err := sessionrecord.NewRedis(cfg.Redis.Address, cfg.Redis.Password)
	if err != nil {
		log.Errorw("startup: running without shared session record", "ERROR", err)
		record = sessionrecord.NewMemory()
	}
	defer record.Close()

	// =================================================================================================================
	// Supabase

	persist, err := supabase.New(cfg.Supabase.ProjectURL, cfg.Supabase.ApiKey)
	if err != nil {
		log.Errorw("startup", "ERROR", err)
		os.Exit(1)
	}

	// =================================================================================================================
	// Speech2Text

	ctx := context.Background()

	stt, err := googlestt.New(ctx, audio.SampleRate, profile.LanguageCode, config.GetSpeechContext(profile))
	if err != nil {
		log.Errorw("startup", "ERROR", err)
		os.Exit(1)
	}
	defer stt.Close()

	// =================================================================================================================
	// Reasoning Service

	reasoner, err := gemini.New(ctx, cfg.Gemini.ApiKey)
	if err != nil {
		log.Errorw("startup", "ERROR", err)
		os.Exit(1)
	}

	// =================================================================================================================
	// Audio Capture Device

	capture, err := audio.Open(cfg.Audio.DevicePath)
	if err != nil {
		log.Errorw("startup", "ERROR", err)
		os.Exit(1)
	}
	defer capture.Close()

	// =================================================================================================================
	// Run Worker

	var face worker.FaceSampler
	if profile.EnableFacial {
		face = faceSampler{apiEndpoint: cfg.FaceApi.ApiEndpoint}
	}

	w, workerCh := worker.Run(worker.Settings{
		Logger:   log,
		Audio:    capture,
		Speech:   stt,
		Reasoner: reasoner,
		Face:     face,
		Notifier: ttsSpeaker{apiEndpoint: cfg.Speaker.ApiEndpoint},
		Record:   record,
		Persist:  persist,
		Control:  os.Stdin,
		Config: worker.Config{
			SessionID:            cfg.Session.ID,
			ConversationID:       uuid.NewString(),
			WindowDuration:       time.Duration(profile.WindowSeconds) * time.Second,
			EnableFacial:         profile.EnableFacial,
			FacialSampleInterval: time.Duration(profile.SampleSeconds * float64(time.Second)),
			InsightModel:         profile.InsightModel,
			ExtractModel:         profile.ExtractModel,
			InsightHistorySize:   profile.InsightHistory,
		},
	})

	// An interrupt winds the session down the same way the "end" command
	// does: drain, persist, terminate.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Infow("shutdown", "signal", sig)
		w.End()
	}()

	// Blocking main and waiting for the session to terminate.
	err = <-workerCh

	log.Infow("shutdown", "status", "shutdown started")
	defer log.Infow("shutdown", "status", "shutdown complete")

	if err != nil {
		log.Errorw("shutdown", "ERROR", err)
	}
}

// =====================================================================================================================
// Collaborator adapters

type faceSampler struct {
	apiEndpoint string
}

func (f faceSampler) Sample() (faceapi.Result, error) {
	return faceapi.Sample(f.apiEndpoint)
}

type ttsSpeaker struct {
	apiEndpoint string
}

func (t ttsSpeaker) Say(text string) error {
	return speaker.Say(t.apiEndpoint, text)
}
