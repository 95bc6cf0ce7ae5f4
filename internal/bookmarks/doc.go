// Package bookmarks is the client for the linkstash backend's resource
// endpoints: saving and listing bookmarks, the signed-in user's profile and
// refresh token revocation.
//
// Every call goes through auth.Client, so an expired access token is
// refreshed and the request retried transparently. Non-2xx answers surface
// as *APIError.
package bookmarks
