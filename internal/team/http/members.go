package http

import (
	"net/http"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

type MembersHandler struct {
	ActivationService *service.ActivationService
}

// HandleInvite godoc
//
//	@Summary		Invite a team member
//	@Description	Creates an inactive manager or sales member and emails them a setup link. Admin only.
//	@Tags			Team
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		teamsdk.InviteRequest	true	"Invitee"
//	@Success		201		{object}	teamsdk.InviteResponse
//	@Failure		400		{object}	teamsdk.ErrorResponse	"missing_fields, invalid_role"
//	@Failure		401		{object}	teamsdk.ErrorResponse
//	@Failure		403		{object}	teamsdk.ErrorResponse	"forbidden"
//	@Failure		409		{object}	teamsdk.ErrorResponse	"already_exists"
//	@Router			/v1/team/members [post].
func (h *MembersHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	var req teamsdk.InviteRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	res, err := h.ActivationService.Invite(r.Context(), service.InviteRequest{
		Actor: actorFrom(r),
		Name:  req.Name,
		Email: req.Email,
		Role:  domain.Role(req.Role),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, teamsdk.InviteResponse{
		Member:         toSummary(res.Member),
		SetupExpiresAt: res.SetupExpiresAt,
	})
}

// HandleList godoc
//
//	@Summary		List team members
//	@Description	Every member including the admin, with status active once a password is set. Admin only.
//	@Tags			Team
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	teamsdk.ListMembersResponse
//	@Failure		401	{object}	teamsdk.ErrorResponse
//	@Failure		403	{object}	teamsdk.ErrorResponse
//	@Router			/v1/team/members [get].
func (h *MembersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	members, err := h.ActivationService.ListMembers(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := teamsdk.ListMembersResponse{Members: make([]teamsdk.MemberSummary, 0, len(members))}
	for _, m := range members {
		out.Members = append(out.Members, toSummary(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRemove godoc
//
//	@Summary		Remove a team member
//	@Description	Deletes a manager or sales member and any pending setup links. The admin cannot be removed.
//	@Tags			Team
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Member ID"
//	@Success		204
//	@Failure		401	{object}	teamsdk.ErrorResponse
//	@Failure		403	{object}	teamsdk.ErrorResponse	"forbidden, cannot_delete_admin"
//	@Failure		404	{object}	teamsdk.ErrorResponse	"not_found"
//	@Router			/v1/team/members/{id} [delete].
func (h *MembersHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.ActivationService.RemoveMember(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
