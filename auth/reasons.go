package auth

import "errors"

// Reason là mã lỗi xác thực ổn định, dùng trong log và test.
type Reason string

const (
	ReasonMalformedOrForged  Reason = "malformed-or-forged"
	ReasonWrongIssuer        Reason = "wrong-issuer"
	ReasonWrongAudience      Reason = "wrong-audience"
	ReasonWrongSessionType   Reason = "wrong-session-type"
	ReasonRevoked            Reason = "revoked"
	ReasonMalformedToken     Reason = "malformed-token"
	ReasonNotFound           Reason = "not-found"
	ReasonInactive           Reason = "inactive"
	ReasonNoOwningInvitation Reason = "no-owning-invitation"
	ReasonSubjectMismatch    Reason = "subject-mismatch"
	ReasonAccountNotFound    Reason = "account-not-found"
)

// Mã lỗi trả về cho client qua query ?message=.
const (
	CodeTokenInvalid    = "token-invalido"
	CodeTokenUsed       = "token-ya-usado"
	CodeTokenProcessing = "error-procesando-token"
	CodeNeedsInvitation = "necesita-invitacion"
	CodeAuthCheckFailed = "error-verificando-autenticacion"
	CodeTooManyAttempts = "demasiados-intentos"
)

// Failure là lỗi xác thực, khác với lỗi hạ tầng (DB, mạng...).
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return string(f.Reason) + ": " + f.Err.Error()
	}
	return string(f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(reason Reason, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

// ReasonOf trả về lý do nếu err là *Failure.
// ok=false khi err là nil hoặc là lỗi hạ tầng.
func ReasonOf(err error) (reason Reason, ok bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return "", false
}
