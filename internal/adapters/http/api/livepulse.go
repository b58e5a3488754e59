package api

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/okian/canmnt/internal/adapters/pubsub"
	"github.com/okian/canmnt/internal/domain/types"
	"github.com/okian/canmnt/pkg/logger"
)

const defaultKeepAlive = 25 * time.Second

// LivePulseDependencies provides the live feed and its updates.
type LivePulseDependencies interface {
	LivePulse() types.LivePulse
	Subscribe() chan pubsub.Event
	Unsubscribe(ch chan pubsub.Event)
}

// LivePulseHandler handles live event requests.
type LivePulseHandler struct {
	deps      LivePulseDependencies
	keepAlive time.Duration
	logger    logger.Logger
}

// NewLivePulseHandler creates a new live pulse handler.
func NewLivePulseHandler(deps LivePulseDependencies, keepAlive time.Duration, l logger.Logger) *LivePulseHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &LivePulseHandler{deps: deps, keepAlive: keepAlive, logger: l}
}

// HandleGetLivePulse handles GET /api/live-pulse requests.
func (h *LivePulseHandler) HandleGetLivePulse(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.LivePulse())
}

// HandleStream handles GET /api/live-pulse/stream. It writes the current feed
// and then every update as Server-Sent Events until the client goes away.
func (h *LivePulseHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.live_pulse_stream"
	ctx := r.Context()
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug(ctx, "clear write deadline", logger.Error(err))
	}

	ch := h.deps.Subscribe()
	defer h.deps.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := sonic.Marshal(h.deps.LivePulse())
	if err != nil {
		h.logger.Error(ctx, "encode live pulse", logger.Error(err))
		return
	}
	if err := writeEvent(w, pubsub.EventLivePulseUpdated, initial); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn(ctx, "stream not flushable", logger.Error(wrapKind(op, ErrStreaming, err)))
		return
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, ev.Type, ev.Data); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data []byte) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
