package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
)

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("January 2, 2006")
	},
}

var (
	contactTmpl = template.Must(template.New("contact").Funcs(funcs).Parse(`New message from the TVK Canada website

Reference: {{.Reference}}
From:      {{.Name}} <{{.Email}}>
{{- if .Phone}}
Phone:     {{.Phone}}
{{- end}}
Subject:   {{.Subject}}

{{.Message}}
`))

	confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`Hi {{.User.Name}},

Welcome to TVK Canada! Your {{.PlanName}} membership is now active.

Member number: {{.Membership.MemberNumber}}
Valid until:   {{date .Membership.EndDate}}
{{- if .FreeMonths}}

You are one of our founding members. Your membership includes {{.FreeMonths}} free months and a
physical membership card, which we will mail to you shortly.
{{- else if .Membership.FoundingMember}}

Thank you for staying with us as a founding member.
{{- end}}

See you at the next event,
TVK Canada
`))

	reminderTmpl = template.Must(template.New("reminder").Funcs(funcs).Parse(`Hi {{.User.Name}},

Your TVK Canada {{.PlanName}} membership ({{.Membership.MemberNumber}}) ends on {{date .Membership.EndDate}},
in {{.DaysLeft}} day{{if ne .DaysLeft 1}}s{{end}}.

Renew from your dashboard to keep your member benefits: {{.RenewURL}}

TVK Canada
`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// ContactNotification is sent to the club inbox; replies go to the sender.
func ContactNotification(inbox string, c models.Contact) (Message, error) {
	body, err := render(contactTmpl, c)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{inbox},
		ReplyTo: c.Email,
		Subject: fmt.Sprintf("[Contact %s] %s", c.Reference, c.Subject),
		Body:    body,
	}, nil
}

// MembershipConfirmation is sent when a membership is activated.
func MembershipConfirmation(u models.User, m models.Membership, planName string, freeMonths int) (Message, error) {
	body, err := render(confirmationTmpl, map[string]any{
		"User": u, "Membership": m, "PlanName": planName, "FreeMonths": freeMonths,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{u.Email},
		Subject: "Your TVK Canada membership is active",
		Body:    body,
	}, nil
}

// RenewalReminder is sent shortly before a membership ends.
func RenewalReminder(u models.User, m models.Membership, planName string, daysLeft int, renewURL string) (Message, error) {
	body, err := render(reminderTmpl, map[string]any{
		"User": u, "Membership": m, "PlanName": planName, "DaysLeft": daysLeft, "RenewURL": renewURL,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{u.Email},
		Subject: "Your TVK Canada membership is ending soon",
		Body:    body,
	}, nil
}
