package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// Time allowed to write a reply to the peer.
	writeWait = 10 * time.Second

	// A socket that sends nothing for this long is closed.
	idleTimeout = 5 * time.Minute

	// Time allowed to evaluate one message.
	evalTimeout = 5 * time.Second
)

// regexMessage is one live evaluation request. Seq is echoed so the page
// can drop replies that arrive after a newer one.
type regexMessage struct {
	regexRequest
	Seq int64 `json:"seq,omitempty"`
}

// regexReply carries either the evaluation or the error, never both.
type regexReply struct {
	*regexResponse
	Seq   int64     `json:"seq,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

// originPatterns turns the allowed origins into the host patterns the
// websocket handshake checks. The request's own host is always accepted.
func (s *Server) originPatterns() []string {
	patterns := make([]string, 0, len(s.security.AllowedOrigins))
	for _, origin := range s.security.AllowedOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)

			continue
		}
		patterns = append(patterns, origin)
	}

	return patterns
}

// handleRegexSocket evaluates every message it receives and answers each
// with one reply, in order.
func (s *Server) handleRegexSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.originPatterns(),
		InsecureSkipVerify: s.security.AllowAnyOrigin,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "ip", getClientIP(r))

		return
	}
	defer conn.CloseNow()

	conn.SetReadLimit(int64(s.config.Regex.MaxSubjectLen)*2 + maxBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Debug(ctx, "Live regex socket opened", "ip", getClientIP(r))

	for {
		var msg regexMessage
		readCtx, cancelRead := context.WithTimeout(ctx, idleTimeout)
		err := wsjson.Read(readCtx, conn, &msg)
		cancelRead()
		if err != nil {
			s.closeSocket(ctx, conn, err)

			return
		}

		reply := s.evaluateMessage(ctx, msg)

		writeCtx, cancelWrite := context.WithTimeout(ctx, writeWait)
		err = wsjson.Write(writeCtx, conn, reply)
		cancelWrite()
		if err != nil {
			s.logger.Debug(ctx, "Live regex reply failed", "error", err.Error())

			return
		}
	}
}

func (s *Server) evaluateMessage(ctx context.Context, msg regexMessage) regexReply {
	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	res, err := s.evaluateRegex(ctx, msg.regexRequest)
	if err != nil {
		e := toAPIError(err)

		return regexReply{Seq: msg.Seq, Error: &e}
	}

	return regexReply{regexResponse: res, Seq: msg.Seq}
}

func (s *Server) closeSocket(ctx context.Context, conn *websocket.Conn, err error) {
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		s.logger.Debug(ctx, "Live regex socket closed")
	case stderrors.Is(err, context.DeadlineExceeded):
		conn.Close(websocket.StatusPolicyViolation, "idle timeout")
	case status == -1:
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
			conn.Close(websocket.StatusUnsupportedData, "messages must be JSON objects")
		}
		s.logger.Debug(ctx, "Live regex socket read failed", "error", err.Error())
	default:
		s.logger.Debug(ctx, "Live regex socket closed", "status", status.String())
	}
}
