package httpapi

import (
	"context"
)

// serverBaseCtx is the daemon-wide context handlers derive from. The
// entrypoint installs the signal context here so in-flight generations
// stop together with the server.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level base context used by
// handlers. A nil ctx resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context canceled when either a or b is done,
// tying a backend call to both the client request and daemon shutdown.
// The cancel func must be called when the handler ends to release the
// goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
