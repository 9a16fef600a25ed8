package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/backendshell/internal/events"
)

// registerSSERoutes registers the event stream endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of backend state changes, backend exits and window events",
		Tags:        []string{"events"},
	}, map[string]any{
		"backend-state-changed": events.BackendStateChangedEvent{},
		"backend-exited":        events.BackendExitedEvent{},
		"window-created":        events.WindowCreatedEvent{},
		"window-closed":         events.WindowClosedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		bus := s.options.EventBus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.BackendStateChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.BackendExitedEvent](bus, eventCh),
			events.SubscribeToChannel[events.WindowCreatedEvent](bus, eventCh),
			events.SubscribeToChannel[events.WindowClosedEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
