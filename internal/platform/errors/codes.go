// Package errors provides structured, machine-readable domain errors.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// User errors
	CodeUserEmailInvalid  Code = "USER_EMAIL_INVALID"
	CodeUserEmailTaken    Code = "USER_EMAIL_TAKEN"
	CodeUserPasswordEmpty Code = "USER_PASSWORD_EMPTY"
	CodeUserRoleInvalid   Code = "USER_ROLE_INVALID"
	CodeUserNotFound      Code = "USER_NOT_FOUND"

	// Repository errors
	CodeRepositoryNameEmpty    Code = "REPOSITORY_NAME_EMPTY"
	CodeRepositoryAuthorEmpty  Code = "REPOSITORY_AUTHOR_EMPTY"
	CodeRepositoryLinkMismatch Code = "REPOSITORY_LINK_MISMATCH"
	CodeRepositoryLinkInvalid  Code = "REPOSITORY_LINK_INVALID"
	CodeRepositoryOwnerMissing Code = "REPOSITORY_OWNER_MISSING"
	CodeRepositoryNotFound     Code = "REPOSITORY_NOT_FOUND"
	CodeRepositoryLimitInvalid Code = "REPOSITORY_TIME_LIMIT_INVALID"

	// Telegram link errors
	CodeTelegramChatIDEmpty  Code = "TELEGRAM_CHAT_ID_EMPTY"
	CodeTelegramLinkExists   Code = "TELEGRAM_LINK_EXISTS"
	CodeTelegramLinkNotFound Code = "TELEGRAM_LINK_NOT_FOUND"

	// Link token errors
	CodeLinkTokenInvalid  Code = "LINK_TOKEN_INVALID"
	CodeLinkTokenExpired  Code = "LINK_TOKEN_EXPIRED"
	CodeLinkTokenMismatch Code = "LINK_TOKEN_MISMATCH"

	// Support contact errors
	CodeSupportUsernameEmpty Code = "SUPPORT_USERNAME_EMPTY"
	CodeSupportNotFound      Code = "SUPPORT_NOT_FOUND"
)
