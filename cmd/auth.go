package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"tidalsplit/internal/server"
	"tidalsplit/internal/services"
	"tidalsplit/internal/shared"
)

// AuthLogin performs the OAuth2 flow against Tidal and saves the tokens.
//
// The device flow prints a verification URL and polls until the user approves.
// The code flow starts a local HTTP server and opens the browser for
// authorization.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	flow := cmd.String("flow")

	if configPath != "" {
		r.configPath = configPath
	}

	if r.config.Credentials.Tidal.ClientID == "" || r.config.Credentials.Tidal.ClientSecret == "" {
		return fmt.Errorf("%w: Tidal client_id and client_secret must be set in %s", shared.ErrMissingCredentials, configPath)
	}

	oauthSrv, err := r.oauthService()
	if err != nil {
		return err
	}

	var token *oauth2.Token
	switch flow {
	case "device":
		token, err = r.doDeviceAuth(ctx, oauthSrv)
	case "code":
		token, err = r.doOAuth(oauthSrv)
	default:
		return fmt.Errorf("%w: unknown flow '%s' (must be 'device' or 'code')", shared.ErrInvalidArgument, flow)
	}
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	if err := oauthSrv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}
	r.tidal = oauthSrv

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	}
	r.writePlain("You can now use: tidalsplit split <playlist_url>\n")

	return nil
}

// AuthStatus checks the current authentication state against the Tidal API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	if r.tidal == nil {
		r.writePlain("✗ Not configured\n")
		r.writePlain("Set Tidal credentials in config.toml, then run: tidalsplit auth login\n")
		return nil
	}

	user, err := r.tidal.CurrentUser(ctx)
	if err != nil {
		r.writePlain("✗ Not authenticated: %v\n", err)
		r.writePlain("Run: tidalsplit auth login\n")
		return nil
	}

	r.writePlain("✓ Authenticated with %s\n", r.tidal.Name())
	r.writePlain("User ID: %s\n", user.ID)
	if user.Username != "" {
		r.writePlain("Username: %s\n", user.Username)
	}
	if user.CountryCode != "" {
		r.writePlain("Country: %s\n", user.CountryCode)
	}

	return nil
}

// oauthService returns the runner's Tidal service as an OAuthService,
// constructing one from config credentials when none is initialized.
func (r *Runner) oauthService() (services.OAuthService, error) {
	if r.tidal != nil {
		if srv, ok := r.tidal.(services.OAuthService); ok {
			return srv, nil
		}
		return nil, fmt.Errorf("%w: service does not support OAuth", shared.ErrInvalidArgument)
	}

	srv, err := services.NewTidalService(r.config.Credentials.Tidal.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to create Tidal service: %w", err)
	}
	return srv, nil
}

// doDeviceAuth executes the OAuth2 device authorization flow.
func (r *Runner) doDeviceAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	da, err := oauthSrv.DeviceAuthorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device authorization failed: %v", shared.ErrAuthFailed, err)
	}

	verificationURL := da.VerificationURIComplete
	if verificationURL == "" {
		verificationURL = da.VerificationURI
	}
	// Tidal returns the verification URI without a scheme
	if !strings.HasPrefix(verificationURL, "http") {
		verificationURL = "https://" + verificationURL
	}

	r.writePlain("→ Visit this URL to authorize:\n  %s\n", verificationURL)
	if da.UserCode != "" {
		r.writePlain("→ Code: %s\n", da.UserCode)
	}
	r.writePlain("→ Waiting for approval (expires %s)...\n", da.Expiry.Format(time.Kitchen))

	if err := shared.OpenBrowser(verificationURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
	}

	pollCtx, cancel := context.WithDeadline(ctx, da.Expiry)
	defer cancel()

	token, err := oauthSrv.DeviceAccessToken(pollCtx, da)
	if err != nil {
		if pollCtx.Err() != nil {
			return nil, fmt.Errorf("%w: device authorization expired before approval", shared.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return token, nil
}

// doOAuth executes the OAuth2 authorization-code flow with a local HTTP server.
func (r *Runner) doOAuth(oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Tidal authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
