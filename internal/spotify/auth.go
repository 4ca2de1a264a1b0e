package spotify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Scopes are the permissions a report run needs.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserFollowRead,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
}

func NewAuthenticator(clientID, clientSecret, redirectURI string) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithScopes(Scopes...),
	)
}

// Authorize runs the authorization code flow. It listens on the host and path
// of redirectURI, hands the consent URL to notify and waits for Spotify to
// redirect back with a code.
func Authorize(ctx context.Context, auth *spotifyauth.Authenticator, redirectURI string, notify func(authURL string) error) (*oauth2.Token, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect URI: %w", err)
	}
	if redirect.Host == "" {
		return nil, fmt.Errorf("redirect URI %q has no host", redirectURI)
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("listening for callback: %w", err)
	}

	state := uuid.NewString()
	type result struct {
		token *oauth2.Token
		err   error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Couldn't get token", http.StatusForbidden)
			select {
			case done <- result{err: fmt.Errorf("getting token: %w", err)}:
			default:
			}
			return
		}
		fmt.Fprintln(w, "Authenticated, you can close this window.")
		select {
		case done <- result{token: token}:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case done <- result{err: fmt.Errorf("serving callback: %w", err)}:
			default:
			}
		}
	}()
	defer server.Close()

	if err := notify(auth.AuthURL(state)); err != nil {
		return nil, err
	}

	select {
	case res := <-done:
		return res.token, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
