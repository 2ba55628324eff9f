package discord

import "remindbot/internal/domain"

// ErrorKey maps a domain error to the i18n key of its user-facing message.
func ErrorKey(err error) string {
	switch domain.Code(err) {
	case domain.CodeExtractionNotFound:
		return "error.extraction"
	case domain.CodeNotFound:
		return "error.not_found"
	case domain.CodeAlreadyHandled:
		return "proposal.already_handled"
	case domain.CodeValidation:
		return "error.invalid"
	default:
		return "error.generic"
	}
}
