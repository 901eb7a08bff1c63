package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/services"
)

type StreamAPI struct {
	events services.EventService
	*APIBase
}

func NewStreamAPI(events services.EventService, logFactory logger.LogFactory) *StreamAPI {
	return &StreamAPI{
		events:  events,
		APIBase: NewAPIBase(logFactory("StreamAPI")),
	}
}

// StreamJobs streams job state transitions as server-sent events. The event
// type is the transition name (created, running, success, failed).
func (a *StreamAPI) StreamJobs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := a.startEventStream(w, r)
	if !ok {
		return
	}
	ch, cancel := a.events.SubscribeJobEvents()
	defer cancel()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			a.writeEvent(w, flusher, event.EventType.String(), event)
		case <-r.Context().Done():
			return
		}
	}
}

// StreamLogs streams captured step output chunks as server-sent events of
// type log_chunk.
func (a *StreamAPI) StreamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := a.startEventStream(w, r)
	if !ok {
		return
	}
	ch, cancel := a.events.SubscribeLogChunks()
	defer cancel()

	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return
			}
			a.writeEvent(w, flusher, models.LogChunkEventName, chunk)
		case <-r.Context().Done():
			return
		}
	}
}

func (a *StreamAPI) startEventStream(w http.ResponseWriter, r *http.Request) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.Error(w, r, gerror.NewErrInternal())
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func (a *StreamAPI) writeEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		a.Errorf("Failed to serialize %s event: %v", eventType, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	flusher.Flush()
}
