package ws

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/whispergate/whispergate/internal/audio"
	"github.com/whispergate/whispergate/internal/config"
	"github.com/whispergate/whispergate/internal/session"
	"github.com/whispergate/whispergate/internal/whisper"
)

const readTimeout = 60 * time.Second

// Server exposes the session gateway over a websocket: one inference session
// per connection, created on "start", run on "run", freed on "stop" or
// disconnect.
type Server struct {
	cfg     config.Config
	gateway *session.Gateway

	upgrader websocket.Upgrader
}

func NewServer(cfg config.Config, gateway *session.Gateway) *Server {
	return &Server{
		cfg:     cfg,
		gateway: gateway,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024 * 16,
			WriteBufferSize: 1024 * 16,
		},
	}
}

type clientMessage struct {
	Type       string `json:"type"`
	Data       string `json:"data,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Language   string `json:"language,omitempty"`
	Translate  *bool  `json:"translate,omitempty"`
	Threads    int    `json:"threads,omitempty"`
	TS         any    `json:"ts,omitempty"`
}

type segmentPayload struct {
	Text  string `json:"text"`
	Start int64  `json:"start_cs"`
	End   int64  `json:"end_cs"`
}

func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	var (
		handle    = session.NilHandle
		samples   []float32
		language  = s.cfg.Language
		translate = s.cfg.Translate
		threads   = s.cfg.Threads
	)
	defer func() {
		if !handle.IsNil() {
			if err := s.gateway.Release(handle); err != nil {
				log.Warn().Err(err).Msg("ws: release on disconnect failed")
			}
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("ws read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if mt != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			writeError(conn, "invalid json")
			continue
		}

		switch msg.Type {
		case "ping":
			_ = conn.WriteJSON(map[string]any{"type": "pong", "ts": msg.TS})

		case "start":
			if !handle.IsNil() {
				writeError(conn, "session already started")
				continue
			}
			if msg.Language != "" {
				language = msg.Language
			}
			if msg.Translate != nil {
				translate = *msg.Translate
			}
			if msg.Threads > 0 {
				threads = msg.Threads
			}
			h, err := s.gateway.Create(s.cfg.ModelPath)
			if err != nil {
				log.Error().Err(err).Msg("ws: session create failed")
				writeError(conn, "model load failed")
				continue
			}
			handle = h
			_ = conn.WriteJSON(map[string]any{
				"type":     "started",
				"language": whisper.NormalizeLanguage(language),
			})

		case "chunk":
			pcm, err := s.decodeChunk(msg)
			if err != nil {
				log.Warn().Err(err).Msg("ws: audio decode failed")
				writeError(conn, "decode audio failed")
				continue
			}
			samples = append(samples, pcm...)

		case "run":
			if handle.IsNil() {
				writeError(conn, "no session; send start first")
				continue
			}
			err := s.gateway.Run(r.Context(), handle, session.RunParams{
				Threads:   threads,
				Samples:   samples,
				Language:  language,
				Translate: translate,
			})
			samples = samples[:0]
			if err != nil {
				if errors.Is(err, session.ErrInference) {
					writeError(conn, "inference failed")
					continue
				}
				log.Warn().Err(err).Msg("ws: run failed")
				writeError(conn, "run failed")
				continue
			}
			segs, err := s.gateway.Segments(handle)
			if err != nil {
				writeError(conn, "segments unavailable")
				continue
			}
			payload := make([]segmentPayload, len(segs))
			for i, seg := range segs {
				payload[i] = segmentPayload{Text: seg.Text, Start: seg.Start, End: seg.End}
			}
			_ = conn.WriteJSON(map[string]any{"type": "result", "segments": payload})

		case "stop":
			if !handle.IsNil() {
				if err := s.gateway.Release(handle); err != nil {
					log.Warn().Err(err).Msg("ws: release failed")
				}
				handle = session.NilHandle
			}
			_ = conn.WriteJSON(map[string]any{"type": "stopped"})
			return

		default:
			writeError(conn, "unknown message type")
		}
	}
}

// decodeChunk turns a base64 chunk payload into 16 kHz mono PCM32F.
func (s *Server) decodeChunk(msg clientMessage) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return nil, err
	}

	var (
		pcm  []float32
		rate int
	)
	switch msg.MimeType {
	case "audio/pcm", "audio/L16", "audio/pcm16":
		pcm, err = audio.DecodePCM16(raw)
		rate = msg.SampleRate
		if rate <= 0 {
			rate = whisper.SampleRate
		}
	default:
		pcm, rate, err = audio.DecodeWAV(raw)
	}
	if err != nil {
		return nil, err
	}
	if rate != whisper.SampleRate {
		pcm = audio.Resample(pcm, rate, whisper.SampleRate)
	}
	return pcm, nil
}

func writeError(conn *websocket.Conn, detail string) {
	_ = conn.WriteJSON(map[string]any{"type": "error", "detail": detail})
}
