package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/duetfm/duet/internal/auth"
)

// CallbackResult contains the outcome of a login redirect.
type CallbackResult struct {
	Callback *auth.Callback
	err      error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the provider redirect during login and delivers
// the parsed parameters through a channel, exactly once.
//
// The implicit flow puts the token in the URL fragment, which never reaches
// a server, so the first request is answered with a small page that folds
// the fragment into the query string and reloads. The second request, and
// any code-flow redirect, carries everything server-side and completes the
// handshake.
type CallbackHandler struct {
	state      string
	resultChan chan CallbackResult
	once       sync.Once
	mu         sync.Mutex
	done       bool
}

// NewCallbackHandler creates a callback handler for one login attempt.
// The state token should be cryptographically random for CSRF protection.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{state: state, resultChan: make(chan CallbackResult, 1)}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the login redirect.
//
// Validates the state parameter against the one issued at login before
// delivering the parsed callback through the result channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Nothing usable server-side yet: the token may still be hiding in
	// the fragment. Hand back the forwarder page.
	if q.Get("access_token") == "" && q.Get("code") == "" && q.Get("error") == "" {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, fragmentForwarderPage)
		return
	}

	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.done = true
	h.mu.Unlock()

	cb, err := auth.ParseCallback(r.URL.String())
	if err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Malformed callback", http.StatusBadRequest)
		return
	}

	if cb.State != h.state {
		h.Send(CallbackResult{err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if cb.ErrorParam != "" {
		h.Send(CallbackResult{err: fmt.Errorf("authorization failed: %s", cb.ErrorParam)})
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, resultPage, "✗ Authorization Failed", "You can close this window and try again from the terminal.")
		return
	}

	h.Send(CallbackResult{Callback: cb})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, resultPage, "✓ Authorization Successful", "You can close this window and return to the terminal.")
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// fragmentForwarderPage folds the URL fragment into the query string and
// reloads, so fragment-delivered tokens become visible to the handler.
const fragmentForwarderPage = `
<!DOCTYPE html>
<html>
<head><title>Completing Login...</title></head>
<body>
    <p>Completing login...</p>
    <script>
        var frag = window.location.hash.replace(/^#/, "");
        var sep = window.location.search ? "&" : "?";
        if (frag) {
            window.location.replace(window.location.pathname + window.location.search + sep + frag);
        } else {
            window.location.replace(window.location.pathname + window.location.search + sep + "error=missing_token");
        }
    </script>
</body>
</html>
`

const resultPage = `
<!DOCTYPE html>
<html>
<head>
    <title>duet</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #ff5500; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`
