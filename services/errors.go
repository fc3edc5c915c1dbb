package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed           = errors.New("validation failed") // Общая ошибка валидации
	ErrPasswordTooShort           = errors.New("password must be at least 6 characters")
	ErrRoleNotAllowed             = errors.New("role is not allowed for self-registration")
	ErrRegistrationClosed         = errors.New("registration for this tournament is closed")
	ErrCancellationNotAllowed     = errors.New("cannot cancel registration for an ongoing or completed tournament")
	ErrInvalidRegistrationStatus  = errors.New("invalid registration status")
	ErrTeamsNotApproved           = errors.New("one or both teams are not approved for this tournament")
	ErrSameTeams                  = errors.New("a team cannot play against itself")
	ErrInvalidMatchStatus         = errors.New("invalid match status")
	ErrNegativeScore              = errors.New("scores must not be negative")
	ErrMatchNotDeletable          = errors.New("cannot delete an ongoing or completed match")
	ErrTournamentInvalidDateRange = errors.New("tournament end date must not be before start date")
	ErrGameInUse                  = errors.New("game cannot be deleted while tournaments reference it")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrGameNameConflict     = errors.New("game already exists")
	ErrRegistrationConflict = errors.New("you are already registered for this tournament")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed") // Общая ошибка аутентификации
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей (могут дублировать ErrNotFound, но дают больше контекста)
	ErrUserNotFound         = errors.New("user not found")
	ErrGameNotFound         = errors.New("game not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrMatchNotFound        = errors.New("match not found")
)
