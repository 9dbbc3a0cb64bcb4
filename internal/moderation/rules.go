package moderation

import "regexp"

// ViolationKind identifies a category of prohibited message content
type ViolationKind string

const (
	ViolationPhoneNumber       ViolationKind = "phone_number"
	ViolationEmail             ViolationKind = "email"
	ViolationURL               ViolationKind = "url"
	ViolationSocialMedia       ViolationKind = "social_media"
	ViolationPaymentRequest    ViolationKind = "payment_request"
	ViolationCommissionMention ViolationKind = "commission_mention"
	ViolationOffensiveContent  ViolationKind = "offensive_content"
)

// Severity of a violation kind
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rule holds the detection patterns and messages for one violation kind.
// A kind is detected when any of its patterns matches; patterns are tried
// in order and testing stops at the first hit.
type Rule struct {
	Kind        ViolationKind
	Severity    Severity
	Patterns    []*regexp.Regexp
	Warning     string
	Description string
}

// rules is the full catalogue in detection order. Detected kinds are
// reported in this order regardless of where they occur in the text.
var rules = []Rule{
	{
		Kind:     ViolationPhoneNumber,
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{
			// Brazilian landline/mobile, optional area code parentheses and dashes
			regexp.MustCompile(`\(?\d{2}\)?[\s.-]?\d{4,5}[\s.-]?\d{4}\b`),
			regexp.MustCompile(`\b\d{4,5}[\s.-]\d{4}\b`),
			// +55 country code
			regexp.MustCompile(`\+55[\s.-]?\(?\d{2}\)?[\s.-]?\d{4,5}[\s.-]?\d{4}\b`),
			// generic international
			regexp.MustCompile(`\+\d{1,3}[\s.-]\d{4,10}\b`),
			// contact keyword followed by digits
			regexp.MustCompile(`(?i)\b(whatsapp|whats|zap|zapzap|telefone|celular|fone|contato)\b[\s:.-]*\(?\d{2,}\)?[\d\s.()-]{4,}`),
		},
		Warning:     "Não é permitido compartilhar números de telefone. Mantenha a negociação dentro da plataforma.",
		Description: "Compartilhamento de número de telefone",
	},
	{
		Kind:     ViolationEmail,
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
			// "email: fulano" without a full address
			regexp.MustCompile(`(?i)\be-?mail\b\s*:\s*[a-z0-9._%+-]+`),
		},
		Warning:     "Não é permitido compartilhar endereços de e-mail nas mensagens.",
		Description: "Compartilhamento de e-mail",
	},
	{
		Kind:     ViolationURL,
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)https?://\S+`),
			regexp.MustCompile(`(?i)\bwww\.\S+`),
			// bare domain with a known TLD
			regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*\.(com|br|net|org|io|co|app|dev|site|online)\b(/\S*)?`),
			regexp.MustCompile(`(?i)\b(link|site|portf[oó]lio)\b\s*:\s*\S+\.\S+`),
		},
		Warning:     "Links externos não são permitidos nas mensagens.",
		Description: "Compartilhamento de link externo",
	},
	{
		Kind:     ViolationSocialMedia,
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(instagram|insta|facebook|face|telegram|tiktok|twitter|linkedin|discord)\b\s*[:@]?\s*[a-z0-9._]{3,}`),
			regexp.MustCompile(`(^|\s)@[A-Za-z0-9_.]{3,}\b`),
			regexp.MustCompile(`(?i)\b(sigam|siga|follow|add)\b\s*(no|na|em|on)?\s*@?[a-z0-9._]{3,}`),
		},
		Warning:     "Não é permitido compartilhar redes sociais ou contatos externos.",
		Description: "Divulgação de rede social",
	},
	{
		Kind:     ViolationPaymentRequest,
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(pagamento|pagar|pago|pix|ted|doc|dep[oó]sito|transfer[eê]ncia)\b[^.!?]{0,40}\b(fora|por\s+fora|externo|direto|particular)\b`),
			regexp.MustCompile(`(?i)\b(fora|por\s+fora)\s+d[ao]\s+(plataforma|site|app)\b`),
			regexp.MustCompile(`(?i)\b(pix|ted|dep[oó]sito)\s+direto\b`),
			// split-payment evasion: half up front, rest outside
			regexp.MustCompile(`(?i)\b(50\s*%|metade|entrada)[^.!?]{0,30}\b(antes|adiantad[oa])\b`),
			regexp.MustCompile(`(?i)\b(resto|restante)\b[^.!?]{0,30}\b(depois|fora|por\s+fora)\b`),
		},
		Warning:     "Pagamentos fora da plataforma não são permitidos e removem a proteção da transação.",
		Description: "Solicitação de pagamento fora da plataforma",
	},
	{
		Kind:     ViolationCommissionMention,
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(taxa|comiss[aã]o)\s+d[ao]\s+(plataforma|site)\b`),
			regexp.MustCompile(`(?i)\ba\s+plataforma\s+(cobra|tira|retira|fica\s+com)\b`),
			regexp.MustCompile(`(?i)\b\d{1,3}\s*%\s*de\s+(taxa|comiss[aã]o)\b`),
		},
		Warning:     "Comentários sobre a taxa da plataforma não são permitidos nas mensagens.",
		Description: "Menção à comissão da plataforma",
	},
	{
		Kind:     ViolationOffensiveContent,
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(idiota|imbecil|burr[oa]|est[uú]pid[oa]|ot[aá]ri[oa]|babaca|lixo|merda|porra|caralho|desgra[cç]ad[oa]|vagabund[oa]|safad[oa])\b`),
			// scam accusations
			regexp.MustCompile(`(?i)\b(golpe|golpista|fraude|fraudador|enganad[oa]|mentiros[oa]|calote|caloteir[oa])\b`),
		},
		Warning:     "Sua mensagem contém linguagem ofensiva. Mantenha o respeito na comunicação.",
		Description: "Conteúdo ofensivo",
	},
}

var ruleIndex = func() map[ViolationKind]*Rule {
	m := make(map[ViolationKind]*Rule, len(rules))
	for i := range rules {
		m[rules[i].Kind] = &rules[i]
	}
	return m
}()

// SeverityOf returns the fixed severity of a violation kind.
func SeverityOf(kind ViolationKind) Severity {
	if r, ok := ruleIndex[kind]; ok {
		return r.Severity
	}
	return SeverityLow
}

// DescriptionOf returns the operator-facing description of a violation kind.
func DescriptionOf(kind ViolationKind) string {
	if r, ok := ruleIndex[kind]; ok {
		return r.Description
	}
	return string(kind)
}

// WarningOf returns the end-user warning message of a violation kind.
func WarningOf(kind ViolationKind) string {
	if r, ok := ruleIndex[kind]; ok {
		return r.Warning
	}
	return ""
}
