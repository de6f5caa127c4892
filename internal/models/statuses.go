package models

type VerificationStatus string
type Capability string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusDeclined VerificationStatus = "declined"

	// CapabilityAdmin - доступ к панели модерации
	CapabilityAdmin Capability = "admin"
)

// IsValid проверяет, что статус входит в допустимый набор
func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusApproved, VerificationStatusDeclined:
		return true
	}
	return false
}

// IsTerminal - approved/declined больше не меняются
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusDeclined
}
