// Command telephony-agent serves the carrier-facing HTTP surface for the
// phone-based voice agent: an incoming-call webhook that hands the call off
// to a bidirectional media-stream WebSocket, driving one Session per call.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/chat"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/config"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/logging"
	sttProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/stt"
	ttsProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/tts"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/telephony"
)

const warmupTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("note: no .env file found, using system environment variables")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewSlogLogger(slog.LevelInfo)

	stt, err := buildSTT(cfg)
	if err != nil {
		log.Fatalf("stt: %v", err)
	}

	tts := ttsProvider.NewLokutorTTS(cfg.LokutorAPIKey)
	voice := telephony.Voice(cfg.AgentVoice)
	lang := telephony.Language(cfg.AgentLanguage)

	warmupCtx, cancelWarmup := context.WithTimeout(context.Background(), warmupTimeout)
	if err := tts.Warmup(warmupCtx, voice, lang); err != nil {
		logger.Warn("tts_warmup_failed", "error", err.Error())
	}
	cancelWarmup()

	driver := chat.New(chat.Config{APIKey: cfg.AnthropicAPIKey})

	srv := &server{
		cfg:    cfg,
		logger: logger,
		stt:    stt,
		tts:    tts,
		driver: driver,
		voice:  voice,
		lang:   lang,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/incoming-call", srv.handleIncomingCall)
	mux.HandleFunc("/media-stream/", srv.handleMediaStream)

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server_error", "error", err.Error())
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting_down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpSrv.Shutdown(shutdownCtx)
}

type server struct {
	cfg    config.Config
	logger *logging.SlogLogger
	stt    telephony.STTProvider
	tts    telephony.TTSProvider
	driver *chat.Driver
	voice  telephony.Voice
	lang   telephony.Language
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "ok",
		"active_calls": telephony.ActiveCallCount(),
	})
}

// handleIncomingCall is the carrier's call webhook: it validates the request
// signature, then responds with TwiML connecting the call to our
// media-stream WebSocket.
func (s *server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if s.cfg.TwilioAuthToken != "" {
		fullURL := s.cfg.PublicBaseURL + r.URL.Path
		signature := r.Header.Get("X-Twilio-Signature")
		if err := telephony.RequireValidSignature(fullURL, r.PostForm, signature, s.cfg.TwilioAuthToken); err != nil {
			s.logger.Warn("invalid_webhook_signature", "path", r.URL.Path)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	callID := r.PostFormValue("CallSid")
	caller := r.PostFormValue("From")

	twiml, err := telephony.BuildMediaStreamTwiML(s.cfg.PublicBaseURL, callID, caller)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(twiml))
}

// handleMediaStream upgrades the carrier's bidirectional media-stream
// connection and runs a Session against it until the call ends.
func (s *server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	callID := strings.TrimPrefix(r.URL.Path, "/media-stream/")
	if callID == "" {
		http.Error(w, "call id required", http.StatusBadRequest)
		return
	}

	conn, err := telephony.AcceptMediaStream(w, r)
	if err != nil {
		s.logger.Error("media_stream_upgrade_failed", "error", err.Error())
		return
	}

	conv, err := telephony.GetOrCreateConversation(callID, "", s.cfg.MaxConversationTurns)
	if err != nil {
		s.logger.Error("conversation_create_failed", "error", err.Error())
		return
	}

	session := telephony.NewSession(r.Context(), telephony.SessionConfig{
		CallID:           callID,
		STT:              s.stt,
		TTS:              s.tts,
		Driver:           s.driver,
		Conversation:     conv,
		SystemPrompt:     s.cfg.SystemPrompt,
		Greeting:         s.cfg.Greeting,
		Voice:            s.voice,
		Language:         s.lang,
		SilenceThreshold: s.cfg.SilenceThreshold,
		Logger:           s.logger.WithCallID(callID),
	}, conn)

	go func() {
		for range session.Events() {
			// events are logged by the session itself; this drains the
			// channel so emit()'s non-blocking send never has to drop one
			// due to a full buffer during a long call.
		}
	}()

	if err := conn.Serve(session); err != nil {
		s.logger.Warn("media_stream_closed", "error", err.Error())
	}

	telephony.RemoveConversation(callID)
}

func buildSTT(cfg config.Config) (telephony.STTProvider, error) {
	switch cfg.STTProvider {
	case "openai":
		return sttProvider.NewOpenAISTT(cfg.OpenAIAPIKey, "whisper-1"), nil
	case "deepgram":
		return sttProvider.NewDeepgramSTT(cfg.DeepgramAPIKey), nil
	case "assemblyai":
		return sttProvider.NewAssemblyAISTT(cfg.AssemblyAIAPIKey), nil
	case "groq":
		fallthrough
	default:
		return sttProvider.NewGroqSTT(cfg.GroqAPIKey, "whisper-large-v3-turbo"), nil
	}
}
