package http

import (
	"net/http"

	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

// OnlineNames is the server's view of who is online.
type OnlineNames interface {
	Names() []string
}

type OnlineHandler struct {
	Online OnlineNames
}

// ServeHTTP godoc
//
//	@Summary		List online users
//	@Description	Distinct usernames of everyone currently online, as seen by this server instance.
//	@Tags			Presence
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	strangersdk.OnlineResponse	"count, usernames"
//	@Failure		401	{object}	strangersdk.ErrorResponse	"invalid_token"
//	@Failure		403	{object}	strangersdk.ErrorResponse	"verification_required"
//	@Router			/v1/presence/online [get].
func (h *OnlineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	names := h.Online.Names()
	if names == nil {
		names = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, strangersdk.OnlineResponse{
		Count:     len(names),
		Usernames: names,
	})
}
