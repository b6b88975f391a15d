package dialogue

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"github.com/bu-online/assistant/internal/assistant/model"
	logx "github.com/bu-online/assistant/pkg/logger"
)

// Observer receives one call per handled event and per state store failure.
// *metrics.Recorder implements it.
type Observer interface {
	ObserveEvent(kind, state string)
	ObserveStoreError(op string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(string, string) {}
func (nopObserver) ObserveStoreError(string)    {}

// Assistant is the transport-facing entry point. It owns state loading and
// saving around the Machine.
type Assistant struct {
	machine  *Machine
	store    model.StateStore
	observer Observer
}

type AssistantOption func(*Assistant)

func WithObserver(o Observer) AssistantOption {
	return func(a *Assistant) {
		if o != nil {
			a.observer = o
		}
	}
}

func NewAssistant(machine *Machine, store model.StateStore, opts ...AssistantOption) *Assistant {
	a := &Assistant{machine: machine, store: store, observer: nopObserver{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) OnCommand(ctx context.Context, conversationID, name string) Reply {
	return a.dispatch(ctx, conversationID, Command(name))
}

func (a *Assistant) OnText(ctx context.Context, conversationID, text string) Reply {
	return a.dispatch(ctx, conversationID, Text(text))
}

func (a *Assistant) OnCallback(ctx context.Context, conversationID, data string) Reply {
	return a.dispatch(ctx, conversationID, Callback(data))
}

// OnDocument handles an upload already saved at path. The file is removed
// before returning whatever the state or outcome.
func (a *Assistant) OnDocument(ctx context.Context, conversationID, path string) Reply {
	defer removeUpload(path)
	return a.dispatch(ctx, conversationID, Document(path))
}

func (a *Assistant) dispatch(ctx context.Context, conversationID string, ev Event) Reply {
	eventID := uuid.NewString()
	log := logx.With().
		Str("conversation_id", conversationID).
		Str("event_id", eventID).
		Str("event", ev.Kind.String()).
		Logger()

	conv, err := a.store.Load(ctx, conversationID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load conversation state, continuing as idle")
		a.observer.ObserveStoreError("load")
		conv = model.IdleConversation()
	}

	reply, next := a.machine.Handle(ctx, ev, conv)
	a.observer.ObserveEvent(ev.Kind.String(), conv.State.String())

	log.Debug().
		Str("state", conv.State.String()).
		Str("next_state", next.State.String()).
		Bool("ignored", reply.Empty()).
		Msg("event handled")

	if next != conv {
		if err := a.store.Save(ctx, conversationID, next); err != nil {
			log.Error().Err(err).Str("state", next.State.String()).Msg("failed to save conversation state")
			a.observer.ObserveStoreError("save")
		}
	}
	return reply
}

func removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Warn().Err(err).Str("path", path).Msg("failed to remove uploaded file")
	}
}
