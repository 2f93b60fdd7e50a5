// Package handlers implements the relay's HTTP surface: the client-facing
// /v1/messages endpoint plus the operator-facing diagnostics and OAuth
// management endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/dispatch"
	"mercator-hq/relay/pkg/protocol"
	"mercator-hq/relay/pkg/relayerr"
	"mercator-hq/relay/pkg/telemetry/logging"
)

// MessagesHandler serves POST /v1/messages: parse, dispatch, and stream or
// buffer the result back depending on the client's stream flag. Per-provider
// outcome metrics are recorded by the dispatcher itself, which is the only
// layer that knows which provider produced a given outcome.
type MessagesHandler struct {
	Dispatcher *dispatch.Dispatcher
	Logger     *logging.Logger
}

func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req protocol.AnthropicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, req.Stream, http.StatusBadRequest, "invalid_request_error", "request body is not valid JSON")
		return
	}

	ctx := logging.WithModel(r.Context(), req.Model)
	entry, _, err := h.Dispatcher.Dispatch(req, r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, req.Stream, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	sub := entry.Broadcaster.Subscribe()
	defer sub.Unsubscribe()

	if req.Stream {
		h.streamResponse(w, r.WithContext(ctx), sub)
		return
	}
	h.bufferResponse(w, r.WithContext(ctx), sub)
}

func (h *MessagesHandler) bufferResponse(w http.ResponseWriter, r *http.Request, sub *dedup.Subscription) {
	ctx := r.Context()

	for {
		chunk, ok, err := sub.Next(ctx)
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(chunk)
			continue
		}
		if err != nil {
			h.writeClassifiedError(w, false, err)
			return
		}
		return
	}
}

func (h *MessagesHandler) streamResponse(w http.ResponseWriter, r *http.Request, sub *dedup.Subscription) {
	ctx := r.Context()
	flusher, _ := w.(http.Flusher)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	headersSent := false
	for {
		chunk, ok, err := sub.Next(ctx)
		if ok {
			if !headersSent {
				w.WriteHeader(http.StatusOK)
				headersSent = true
			}
			_, _ = w.Write(chunk)
			if flusher != nil {
				flusher.Flush()
			}
			continue
		}
		if err != nil {
			if !headersSent {
				h.writeClassifiedError(w, true, err)
				return
			}
			var relayErr *relayerr.Error
			if errors.As(err, &relayErr) {
				_, _ = w.Write(protocol.AnthropicErrorSSEEvent(relayErr.AnthropicType(), relayErr.Message))
			}
			if flusher != nil {
				flusher.Flush()
			}
			return
		}
		return
	}
}

func (h *MessagesHandler) writeClassifiedError(w http.ResponseWriter, streamed bool, err error) {
	var relayErr *relayerr.Error
	if errors.As(err, &relayErr) {
		if relayErr.Kind == relayerr.KindCancelled {
			return
		}
		h.writeError(w, streamed, relayErr.HTTPStatus, relayErr.AnthropicType(), relayErr.Message)
		return
	}
	h.writeError(w, streamed, http.StatusBadGateway, "api_error", err.Error())
}

func (h *MessagesHandler) writeError(w http.ResponseWriter, streamed bool, status int, kind, message string) {
	if streamed {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		_, _ = w.Write(protocol.AnthropicErrorSSEEvent(kind, message))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(protocol.NewAnthropicError(kind, message))
}
