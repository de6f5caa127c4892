// Package signup описывает шаги мастера регистрации и допустимые переходы между ними.
package signup

import "fmt"

type Step string

const (
	StepRegistration        Step = "registration"
	StepCountrySelection    Step = "country_selection"
	StepPaymentInstructions Step = "payment_instructions"
	StepProofOfPayment      Step = "proof_of_payment"
	StepConfirmation        Step = "confirmation"
)

// order - строго линейная последовательность шагов
var order = []Step{
	StepRegistration,
	StepCountrySelection,
	StepPaymentInstructions,
	StepProofOfPayment,
	StepConfirmation,
}

// Steps возвращает все шаги по порядку
func Steps() []Step {
	out := make([]Step, len(order))
	copy(out, order)
	return out
}

func (s Step) index() int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) IsValid() bool {
	return s.index() >= 0
}

// IsTerminal - дальше Confirmation переходов нет
func (s Step) IsTerminal() bool {
	return s == StepConfirmation
}

// ParseStep разбирает сохраненное значение шага
func ParseStep(raw string) (Step, error) {
	s := Step(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown signup step %q", raw)
	}
	return s, nil
}

// Next возвращает следующий шаг; для терминального шага ok=false
func Next(s Step) (Step, bool) {
	i := s.index()
	if i < 0 || i+1 >= len(order) {
		return "", false
	}
	return order[i+1], true
}

// CanAdvance разрешает переход только на непосредственно следующий шаг
func CanAdvance(from, to Step) bool {
	next, ok := Next(from)
	return ok && next == to
}

// Transition проверяет, что действие, ожидающее шаг expected, выполняется на нем,
// и возвращает шаг, на который нужно перейти.
func Transition(current, expected Step) (Step, error) {
	if current != expected {
		return current, &StepError{Current: current, Expected: expected}
	}
	next, ok := Next(current)
	if !ok {
		return current, &StepError{Current: current, Expected: expected}
	}
	return next, nil
}

// StepError - действие вызвано не на своем шаге
type StepError struct {
	Current  Step
	Expected Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("signup step is %q, action requires %q", e.Current, e.Expected)
}
