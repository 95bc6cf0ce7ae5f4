// Package callback runs the short-lived local HTTP server that receives the
// browser redirect at the end of login.
//
// The backend delivers tokens in the URL fragment, which browsers never send
// to a server. The server therefore answers GET /callback with a small page
// whose script posts location.hash back to POST /callback/capture, where the
// fragment is parsed and persisted with auth.Capture.
//
// Each server handles exactly one capture, then shuts itself down.
package callback
