// Package auth manages the bearer-token session used to talk to the
// bookmark backend.
//
// # Components
//
//   - Capture / ParseFragment turn the fragment of the login redirect
//     (access_token=...&refresh_token=...&token_type=...) into a TokenSet
//     and persist it with a single store write.
//   - Session reads the persisted tokens and performs refreshes against
//     POST {baseURL}/auth/refresh.
//   - Client wraps outgoing requests: it injects the Bearer token, and on a
//     401 refreshes once and retries once.
//   - LoginInitiator builds {baseURL}/login?return_to=... and hands it to a
//     URLOpener such as BrowserOpener.
//
// # Request lifecycle
//
// For every Client.Do call:
//
//	no stored token      -> ErrNotSignedIn, nothing is sent
//	first response != 401 -> returned as-is
//	first response == 401 -> Session.Refresh
//	    refresh fails    -> refresh error returned, no retry
//	    refresh succeeds -> request resent once, second response returned
//
// At most one refresh and one retry happen per call, so a backend that
// keeps answering 401 cannot cause a loop.
//
// # Usage
//
//	session, err := auth.NewSession(auth.SessionConfig{
//	    Store:   store,
//	    BaseURL: auth.StaticBaseURL("http://localhost:8001"),
//	})
//	client := auth.NewClient(session, nil)
//	resp, err := client.Do(ctx, http.MethodGet, session.BaseURL()+"/me", nil, nil)
package auth
