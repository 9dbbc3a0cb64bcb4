package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerate_DetectsKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind ViolationKind
	}{
		{"bare mobile number", "me chama no zap 11999998888", ViolationPhoneNumber},
		{"formatted number", "liga pra mim (11) 99999-8888", ViolationPhoneNumber},
		{"country code", "meu numero é +55 11 98888-7777", ViolationPhoneNumber},
		{"contact keyword digits", "whatsapp: 9999-8888", ViolationPhoneNumber},
		{"plain email", "fala comigo: joao@example.com", ViolationEmail},
		{"email keyword", "meu email: joaosilva", ViolationEmail},
		{"http link", "olha meu trabalho em https://meusite.dev/portfolio", ViolationURL},
		{"www link", "acessa www.meusite.com.br ai", ViolationURL},
		{"bare domain", "meu portfolio ta em meusite.com.br", ViolationURL},
		{"platform handle", "me segue no instagram @joao.designer", ViolationSocialMedia},
		{"bare handle", "me acha la @joao_designer", ViolationSocialMedia},
		{"follow phrasing", "sigam @meuperfil", ViolationSocialMedia},
		{"off platform payment", "pagamento fora da plataforma, pix direto", ViolationPaymentRequest},
		{"split payment", "me passa metade antes e o resto depois", ViolationPaymentRequest},
		{"platform fee", "a taxa da plataforma ta muito alta", ViolationCommissionMention},
		{"platform takes cut", "a plataforma cobra 20% de tudo", ViolationCommissionMention},
		{"insult", "voce é um idiota", ViolationOffensiveContent},
		{"scam accusation", "isso é golpe, você é um golpista", ViolationOffensiveContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Moderate(tt.text)
			require.True(t, result.HasViolation, "expected a violation in %q", tt.text)
			assert.Contains(t, result.Violations, tt.kind)
		})
	}
}

func TestModerate_CleanText(t *testing.T) {
	texts := []string{
		"",
		"bom dia, vamos conversar sobre o projeto?",
		"posso entregar em duas semanas",
		"o prazo combinado está mantido",
	}

	for _, text := range texts {
		result := Moderate(text)
		assert.False(t, result.HasViolation, "false positive on %q", text)
		assert.Empty(t, result.Violations)
		assert.Equal(t, text, result.SanitizedText)
		assert.Empty(t, result.Warning)
	}
}

func TestModerate_MasksPhoneEmailAndURL(t *testing.T) {
	result := Moderate("me chama no zap 11999998888 ou joao@example.com, site: https://joao.dev")

	require.True(t, result.HasViolation)
	assert.Contains(t, result.SanitizedText, "[TELEFONE REMOVIDO]")
	assert.Contains(t, result.SanitizedText, "[EMAIL REMOVIDO]")
	assert.Contains(t, result.SanitizedText, "[LINK REMOVIDO]")
	assert.NotContains(t, result.SanitizedText, "11999998888")
	assert.NotContains(t, result.SanitizedText, "joao@example.com")
	assert.NotContains(t, result.SanitizedText, "https://joao.dev")
}

func TestModerate_FlaggedButNotMasked(t *testing.T) {
	// payment requests, commission mentions, social handles and offense are
	// warned about but pass through unchanged
	texts := []string{
		"pagamento fora da plataforma, pix direto",
		"a plataforma cobra demais",
		"sigam @meuperfil",
		"voce é um golpista",
	}

	for _, text := range texts {
		result := Moderate(text)
		require.True(t, result.HasViolation, "expected violation in %q", text)
		assert.Equal(t, text, result.SanitizedText)
	}
}

func TestModerate_WarningIsFirstDetectedKind(t *testing.T) {
	// phone comes before offensive content in detection order
	result := Moderate("seu golpista, me liga 11999998888")

	require.True(t, result.HasViolation)
	require.Len(t, result.Violations, 2)
	assert.Equal(t, ViolationPhoneNumber, result.Violations[0])
	assert.Equal(t, WarningOf(ViolationPhoneNumber), result.Warning)
}

func TestModerate_SanitizationIsIdempotent(t *testing.T) {
	texts := []string{
		"me chama no zap 11999998888",
		"email joao@example.com e site www.joao.com.br",
		"liga +55 11 98888-7777 urgente",
		"pix direto pra mim, fora da plataforma",
	}

	for _, text := range texts {
		first := Moderate(text).SanitizedText
		second := Moderate(first).SanitizedText
		assert.Equal(t, first, second, "re-sanitizing %q changed the text", text)
	}
}

func TestModerate_TruncatesLongInput(t *testing.T) {
	text := strings.Repeat("a", maxTextLength+100)
	result := Moderate(text)

	assert.Len(t, []rune(result.SanitizedText), maxTextLength)
	assert.False(t, result.HasViolation)
}

func TestHasSevereViolation(t *testing.T) {
	assert.True(t, HasSevereViolation("me liga 11999998888"))
	assert.True(t, HasSevereViolation("manda email joao@example.com"))
	assert.True(t, HasSevereViolation("pix direto fora da plataforma"))

	// social media and commission mentions are medium severity
	assert.False(t, HasSevereViolation("sigam @meuperfil"))
	assert.False(t, HasSevereViolation("a taxa da plataforma é alta"))
	assert.False(t, HasSevereViolation("bom dia"))
}

func TestSanitizeProjectPosting(t *testing.T) {
	text := "Orçamento R$ 1.500,00 me chame no 11 99999-8888 ou joao@example.com, site https://joao.dev"
	sanitized := SanitizeProjectPosting(text)

	assert.Contains(t, sanitized, "[VALOR REMOVIDO]")
	assert.Contains(t, sanitized, "[LINK REMOVIDO]")
	// phones and emails are stripped, not masked
	assert.NotContains(t, sanitized, "[TELEFONE REMOVIDO]")
	assert.NotContains(t, sanitized, "[EMAIL REMOVIDO]")
	assert.NotContains(t, sanitized, "99999-8888")
	assert.NotContains(t, sanitized, "joao@example.com")
	assert.NotContains(t, sanitized, "R$ 1.500,00")
}

func TestSeverityAssignments(t *testing.T) {
	high := []ViolationKind{
		ViolationPhoneNumber, ViolationEmail, ViolationURL,
		ViolationPaymentRequest, ViolationOffensiveContent,
	}
	for _, kind := range high {
		assert.Equal(t, SeverityHigh, SeverityOf(kind), "kind %s", kind)
	}

	medium := []ViolationKind{ViolationSocialMedia, ViolationCommissionMention}
	for _, kind := range medium {
		assert.Equal(t, SeverityMedium, SeverityOf(kind), "kind %s", kind)
	}
}
