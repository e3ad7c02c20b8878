package mailer

// Service delivers verification codes. Implementations report delivery
// failure through the error; the caller decides what that means for the
// surrounding flow.
type Service interface {
	SendVerificationCode(toEmail, toName, code string) error
}
