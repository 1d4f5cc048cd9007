/*
Package presence tracks which users currently have a connected session and
aggregates the set of online usernames.

# Overview

Presence is kept in a shared collection of Records keyed by uid. Each client
owns exactly one record and keeps it honest with three writes:

  - PublishOnline marks the record online whenever the transport connects.
  - ArmDisconnectOffline registers a server-executed offline write that fires
    when the backend loses this client's transport.
  - PublishOffline marks the record offline on logout or teardown.

The package never talks to a network directly. Everything goes through the
Backend interface, which the realtime websocket client (package wsclient),
the server's in-process backend, and MemoryClient all implement. A
MemoryDatabase hands out MemoryClients that share one collection.

# Lifecycle

A Gate turns an authenticated identity into a running Session:

	gate := &presence.Gate{
		Tracker:  &presence.Tracker{Backend: backend},
		Profiles: profiles,
	}

	session, err := gate.Enter(ctx, presence.Identity{
		UID:           uid,
		EmailVerified: verified,
		DisplayName:   displayName,
	})
	if errors.Is(err, presence.ErrVerificationRequired) {
		// send the user to the verification step
	}

	for names := range session.Updates() {
		render(names)
	}

	session.Stop(ctx)

Unverified identities never reach the Tracker, so they never write a record.

# Ordering

ComputeOnlineNames deduplicates by username, not uid: two users sharing a
display name show up once. Records are fed to it in uid order, so the same
collection always yields the same list.
*/
package presence
