package event

import (
	"sync"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
)

const (
	// jobEventBufferSize is the per-subscriber buffer for job-state events.
	jobEventBufferSize = 100
	// logChunkBufferSize is the per-subscriber buffer for step output chunks.
	logChunkBufferSize = 1000
)

// EventService is a lossy in-process broadcast bus. Each subscriber gets its
// own buffered channel; a publish that finds a subscriber's buffer full drops
// the event for that subscriber rather than blocking the producer.
type EventService struct {
	mu             sync.Mutex
	nextID         int
	jobSubscribers map[int]chan *models.JobEvent
	logSubscribers map[int]chan *models.LogChunk
	logger.Log
}

func NewEventService(logFactory logger.LogFactory) *EventService {
	return &EventService{
		jobSubscribers: make(map[int]chan *models.JobEvent),
		logSubscribers: make(map[int]chan *models.LogChunk),
		Log:            logFactory("EventService"),
	}
}

func (s *EventService) PublishJobEvent(event *models.JobEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.jobSubscribers {
		select {
		case ch <- event:
		default:
			s.Tracef("Dropping job event for slow subscriber %d", id)
		}
	}
}

func (s *EventService) PublishLogChunk(chunk *models.LogChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.logSubscribers {
		select {
		case ch <- chunk:
		default:
			s.Tracef("Dropping log chunk for slow subscriber %d", id)
		}
	}
}

// SubscribeJobEvents registers a subscriber for job-state events. The
// returned cancel function unsubscribes and closes the channel; it is safe to
// call more than once.
func (s *EventService) SubscribeJobEvents() (<-chan *models.JobEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan *models.JobEvent, jobEventBufferSize)
	s.jobSubscribers[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.jobSubscribers[id]; ok {
			delete(s.jobSubscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// SubscribeLogChunks registers a subscriber for live step output chunks.
func (s *EventService) SubscribeLogChunks() (<-chan *models.LogChunk, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan *models.LogChunk, logChunkBufferSize)
	s.logSubscribers[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.logSubscribers[id]; ok {
			delete(s.logSubscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}
