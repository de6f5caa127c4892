package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService       AuthService
	SignupService     SignupService
	ModerationService ModerationService
	CountryService    CountryService
	ProfileService    ProfileService
	UserService       UserService
	StatsService      StatsService
}
