package sanction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "02/01/2006"

// GetBanMessage builds the notice shown to a banned user, including the
// reason from the governing record when one exists.
func (e *Engine) GetBanMessage(userID uuid.UUID) string {
	status, err := e.GetUserSanctionStatus(userID)
	if err != nil || !status.IsBanned || status.BanReason == "" {
		return "Sua conta foi banida permanentemente da plataforma. Entre em contato com o suporte caso queira recorrer."
	}
	return fmt.Sprintf(
		"Sua conta foi banida permanentemente da plataforma. Motivo: %s. Entre em contato com o suporte caso queira recorrer.",
		status.BanReason,
	)
}

// GetPenaltyMessage builds the notice shown to a suspended user.
func GetPenaltyMessage(expiresAt time.Time) string {
	return fmt.Sprintf(
		"Sua conta está suspensa até %s. Durante a suspensão você não pode publicar novos projetos.",
		expiresAt.Format(dateLayout),
	)
}

// GetViolationWarningMessage builds the notice attached to a first-level
// violation.
func GetViolationWarningMessage() string {
	return "Atenção: sua mensagem violou as regras da plataforma. Violações repetidas podem resultar em suspensão ou banimento da conta."
}
