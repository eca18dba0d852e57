package http

import (
	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

func toSummary(m domain.Member) teamsdk.MemberSummary {
	return teamsdk.MemberSummary{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      string(m.Role),
		Status:    string(m.Status()),
		CreatedAt: m.CreatedAt,
	}
}
