package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dtroode/sickfits-server/internal/model"
)

//go:embed templates/*.html
var templates embed.FS

var resetTemplate = template.Must(template.ParseFS(templates, "templates/reset.html"))

const resetSubject = "Your Password Reset Token"

// NewResetMail renders the password reset email pointing at link.
func NewResetMail(to, link string, validFor time.Duration) (model.Mail, error) {
	var body bytes.Buffer
	err := resetTemplate.Execute(&body, struct {
		Link     string
		ValidFor string
	}{
		Link:     link,
		ValidFor: validFor.String(),
	})
	if err != nil {
		return model.Mail{}, fmt.Errorf("failed to render reset email: %w", err)
	}

	return model.Mail{
		To:       to,
		Subject:  resetSubject,
		HTMLBody: body.String(),
	}, nil
}
