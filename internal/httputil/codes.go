package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch without parsing English text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInternalError      = "internal_error"
	CodeNotFound           = "not_found"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"

	CodeEmailRequired      = "email_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodePasswordMismatch   = "password_mismatch"

	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeAccountNotFound    = "account_not_found"
	CodeInvalidResetToken  = "invalid_reset_token"
	CodeEmailSendFailed    = "email_send_failed"

	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidTokenUserID = "invalid_token_user_id"

	CodeProviderAlreadyLinked   = "provider_already_linked"
	CodeEmailAlreadyRegistered  = "email_already_registered"
	CodeUnknownProvider         = "unknown_provider"
	CodeOAuthStateMismatch      = "oauth_state_mismatch"
	CodeOAuthExchangeFailed     = "oauth_exchange_failed"
	CodeOAuthProfileUnavailable = "oauth_profile_unavailable"
)
