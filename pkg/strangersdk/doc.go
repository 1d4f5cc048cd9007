/*
Package strangersdk is the Go client for the Stranger presence service.

A Client covers the public endpoints: registration, email verification,
login and health checks. Login returns a Session, which carries the access
token and logs in again shortly before the token expires.

	client := strangersdk.NewClient("http://localhost:8080")
	sess, err := client.Login(ctx, "neo@example.com", password)
	if err != nil {
		return err
	}

	id, err := sess.Identity(ctx)
	backend := wsclient.New(wsclient.Config{URL: sess.RealtimeURL(), Token: sess.Token})
	gate := presence.Gate{
		Tracker:  &presence.Tracker{Backend: backend},
		Profiles: sess.Profiles(),
	}
	ps, err := gate.Enter(ctx, id)

Failed requests return *APIError. Compare with errors.Is against the
predefined values:

	if errors.Is(err, strangersdk.ErrWrongPassword) {
		// ask again
	}
*/
package strangersdk
