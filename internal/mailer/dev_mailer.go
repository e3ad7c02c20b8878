package mailer

import (
	"fmt"

	"github.com/menuqr/menuqr/pkg/logger"
)

// DevMailer prints codes to the log instead of sending anything.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationCode(toEmail, toName, code string) error {
	logger.Info("[DEV MAIL] Verification code",
		"to", toEmail,
		"name", toName,
		"code", code,
	)

	fmt.Printf("\n"+
		"=================================================================\n"+
		"VERIFICATION EMAIL (DEV MODE)\n"+
		"=================================================================\n"+
		"To: %s (%s)\n"+
		"Subject: Your MenuQR verification code\n"+
		"\n"+
		"Code: %s\n"+
		"=================================================================\n\n",
		toEmail, toName, code)

	return nil
}
