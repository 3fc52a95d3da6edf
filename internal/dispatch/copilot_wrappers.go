package dispatch

import (
	"context"

	copilot "github.com/github/copilot-sdk/go"
)

// agentSession is just an interface over [*copilot.Session]
type agentSession interface {
	// On maps to [copilot.Session.On]
	On(handler copilot.SessionEventHandler) func()

	// SendAndWait maps to [copilot.Session.SendAndWait]
	SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error)

	// SessionID returns [copilot.Session.SessionID]
	SessionID() string
}

// agentClient is just an interface over [*copilot.Client]
type agentClient interface {
	// Start maps to [copilot.Client.Start]
	Start(ctx context.Context) error

	// Stop maps to [copilot.Client.Stop]
	Stop() error

	// CreateSession maps to [copilot.Client.CreateSession]
	CreateSession(ctx context.Context, config *copilot.SessionConfig) (agentSession, error)
}

// newAgentClient creates the real SDK-backed client. Tests swap this out for
// a fake.
var newAgentClient = func(clientOptions *copilot.ClientOptions) agentClient {
	return &agentClientWrapper{inner: copilot.NewClient(clientOptions)}
}

type agentClientWrapper struct {
	inner *copilot.Client
}

func (w *agentClientWrapper) Start(ctx context.Context) error {
	return w.inner.Start(ctx)
}

func (w *agentClientWrapper) Stop() error {
	return w.inner.Stop()
}

func (w *agentClientWrapper) CreateSession(ctx context.Context, config *copilot.SessionConfig) (agentSession, error) {
	sess, err := w.inner.CreateSession(ctx, config)

	if err != nil {
		return nil, err
	}

	return &agentSessionWrapper{inner: sess}, nil
}

// agentSessionWrapper forwards to [copilot.Session]. It only has to exist
// because [copilot.Session.SessionID] is a field, so we can't represent it in
// an interface.
type agentSessionWrapper struct {
	inner *copilot.Session
}

func (w *agentSessionWrapper) On(handler copilot.SessionEventHandler) func() {
	return w.inner.On(handler)
}

func (w *agentSessionWrapper) SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error) {
	return w.inner.SendAndWait(ctx, options)
}

func (w *agentSessionWrapper) SessionID() string {
	return w.inner.SessionID
}
