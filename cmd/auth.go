package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/spotify-tools/internal/server"
	"github.com/desertthunder/spotify-tools/internal/services"
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization code flow and caches the token.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization and exchanges the code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc, "authorization")
	if err != nil {
		return err
	}

	cache := r.tokenCache()
	if err := cache.Save(token); err != nil {
		return err
	}

	if err := r.authenticate(ctx, svc, cache, token); err != nil {
		return err
	}
	r.session = svc

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n", cache.Path())

	if user, err := svc.CurrentUser(ctx); err != nil {
		r.logger.Warn("failed to fetch current user", "error", err)
	} else {
		r.writePlain("✓ Logged in as %s\n", displayName(user.DisplayName, user.ID))
	}

	r.writePlain("\nYou can now use: spotify-tools shuffle --playlist-id <id>\n")
	return nil
}

// AuthStatus prints the cached token state and the account it authorizes.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cache := r.tokenCache()
	token, err := cache.Load()
	if err != nil {
		return err
	}

	if token == nil {
		r.writePlain("✗ Not authenticated (no token at %s)\n", cache.Path())
		r.writePlain("Run 'spotify-tools auth login' to authorize.\n")
		return nil
	}

	r.writePlain("Token cache: %s\n", cache.Path())
	if token.Expiry.IsZero() {
		r.writePlain("Access token: no expiry\n")
	} else if token.Expiry.Before(time.Now()) {
		r.writePlain("Access token: expired %s\n", token.Expiry.Format(time.RFC3339))
	} else {
		r.writePlain("Access token: valid until %s\n", token.Expiry.Format(time.RFC3339))
	}
	if token.RefreshToken != "" {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: missing\n")
	}

	session, err := r.connect(ctx)
	if err != nil {
		return err
	}

	user, err := session.CurrentUser(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Account: %s (%s)\n", displayName(user.DisplayName, user.ID), user.ID)
	return nil
}

// AuthLogout removes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	cache := r.tokenCache()
	if err := cache.Delete(); err != nil {
		return err
	}

	r.logger.Info("token cache removed", "path", cache.Path())
	return r.writePlain("✓ Logged out (removed %s)\n", cache.Path())
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server listening on the redirect URI.
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	config := oauthSrv.GetOAuthConfig()
	addr, path, err := server.CallbackAddress(config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(config, state, path)
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", r.authTimeout)

	timeout := time.NewTimer(r.authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, r.authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, result.Error()
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
