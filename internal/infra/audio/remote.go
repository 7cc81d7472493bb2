package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"voicebox/internal/application"
)

// RemoteServer accepts prompts over HTTP so the speaker can be driven
// without touching the button: POST /say injects a text turn, POST
// /audio injects a recorded clip (WAV or raw PCM).
type RemoteServer struct {
	addr       string
	authToken  string
	sampleRate int
	logger     *slog.Logger

	mux       *http.ServeMux
	promptCh  chan application.Prompt
	limiter   *ipLimiter
	mu        sync.Mutex
	server    *http.Server
	running   bool
	lastPCM   []byte
	closeOnce sync.Once
}

func NewRemoteServer(addr, authToken string, sampleRate int, logger *slog.Logger) *RemoteServer {
	s := &RemoteServer{
		addr:       addr,
		authToken:  authToken,
		sampleRate: sampleRate,
		logger:     logger,
		mux:        http.NewServeMux(),
		promptCh:   make(chan application.Prompt, 10),
		limiter:    newIPLimiter(rate.Every(2*time.Second), 5),
	}
	s.mux.HandleFunc("POST /say", s.limiter.middleware(s.withAuth(s.handleSay)))
	s.mux.HandleFunc("POST /audio", s.limiter.middleware(s.withAuth(s.handleAudio)))
	s.mux.HandleFunc("GET /audio/last", s.limiter.middleware(s.withAuth(s.handleLastAudio)))
	// No rate limiting on health check
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *RemoteServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("remote control server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("remote server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *RemoteServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.closeOnce.Do(func() {
		close(s.promptCh)
	})
	s.running = false
	return nil
}

func (s *RemoteServer) Prompts() <-chan application.Prompt {
	return s.promptCh
}

// Handler exposes the mux for httptest.
func (s *RemoteServer) Handler() http.Handler {
	return s.mux
}

func (s *RemoteServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.authToken {
				s.logger.Warn("unauthorized remote request", "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *RemoteServer) handleSay(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	select {
	case s.promptCh <- application.Prompt{Text: text}:
		s.logger.Info("received text prompt via HTTP", "text", text)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"received","text":%q}`, text)
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (s *RemoteServer) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		s.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	pcm, err := ExtractPCM(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad audio clip: %v", err), http.StatusBadRequest)
		return
	}

	select {
	case s.promptCh <- application.Prompt{Audio: pcm}:
		s.mu.Lock()
		s.lastPCM = pcm
		s.mu.Unlock()
		s.logger.Info("received audio prompt via HTTP", "bytes", len(pcm))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"received","bytes":%d}`, len(pcm))
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

// handleLastAudio returns the most recent injected clip as WAV, so a
// remote client can check what the speaker was actually fed.
func (s *RemoteServer) handleLastAudio(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pcm := s.lastPCM
	s.mu.Unlock()

	if len(pcm) == 0 {
		http.Error(w, "no audio received yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Write(EncodeWAV(PCMToSamples(pcm), s.sampleRate))
}

func (s *RemoteServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := s.running
	queueSize := len(s.promptCh)
	s.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":"%s","running":%t,"queue_size":%d}`, status, running, queueSize)
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

func (l *ipLimiter) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
