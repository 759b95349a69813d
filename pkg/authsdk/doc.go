/*
Package authsdk is a Go client for the LMS authentication service.

# SDKClient vs Session

  - SDKClient: public endpoints (register, login, refresh, health) and
    creation of authenticated sessions
  - Session: endpoints that need a bearer token, with automatic refresh

	client := authsdk.NewSDKClient("https://auth.example.com")

	user, err := client.Register(ctx, authsdk.RegisterRequest{
		Email:    "learner@example.com",
		Password: "correct horse battery",
	})

	session, err := client.Login(ctx, "learner@example.com", "correct horse battery")

	me, err := session.Me(ctx)

# Token refresh

A Session refreshes its access token 30 seconds before it expires. Refresh
tokens rotate on every use, so a Session must not be shared with another
process holding the same refresh token: presenting a rotated token revokes
the whole login.

# Errors

Every non-2xx response becomes an *APIError carrying the status code and
the service's error code:

	_, err := session.ListUsers(ctx, 50, 0)
	if authsdk.IsForbidden(err) {
		// caller lacks the admin role
	}
*/
package authsdk
