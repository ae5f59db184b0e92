package notify

import (
	"strings"
	"text/template"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// emailData is the view every email template renders.
type emailData struct {
	Name         string
	Email        string
	Topic        string
	Date         string
	Time         string
	Zone         string
	Link         string
	CalendarLink string
	TemplateLink string
	Notes        string
	Signature    string
	Rule         string
}

var requestedTemplate = template.Must(template.New("requested").Parse(`Hello {{.Name}},

Thank you for requesting a meeting with us! We've received your meeting request and will get back to you shortly.

Meeting Details:
{{.Rule}}
Topic: {{.Topic}}
Requested Date: {{.Date}}
Requested Time: {{.Time}} {{.Zone}}
Your Email: {{.Email}}
{{.Rule}}

Event Link: {{.Link}}
{{- if .TemplateLink}}

Add it to your Google Calendar: {{.TemplateLink}}
{{- end}}

Additional Notes: {{.Notes}}

You will receive a calendar invitation with the Google Meet link shortly.
The attached invite can be added to any calendar.

Best regards,
{{.Signature}}
`))

var adminTemplate = template.Must(template.New("admin").Parse(`New Meeting Request Received!

{{.Rule}}
Requester Name: {{.Name}}
Requester Email: {{.Email}}
Meeting Topic: {{.Topic}}
Requested Date: {{.Date}}
Requested Time: {{.Time}} {{.Zone}}
{{.Rule}}

Meeting Link: {{.Link}}
{{- if .CalendarLink}}
Calendar Event: {{.CalendarLink}}
{{- end}}

Additional Notes:
{{.Notes}}

Action Required:
1. Review the meeting request
2. Accept/Confirm the calendar invitation in your Google Calendar
3. Optional: Add a Google Meet conference to the event if not already present
4. Send confirmation to {{.Email}}
`))

var confirmedTemplate = template.Must(template.New("confirmed").Parse(`Hello {{.Name}},

Your meeting has been confirmed! Here are the details:

{{.Rule}}
Meeting Topic: {{.Topic}}
Date: {{.Date}}
Time: {{.Time}} {{.Zone}}
Google Meet Link: {{.Link}}
{{.Rule}}

Join the meeting here: {{.Link}}

Additional Notes: {{.Notes}}

We look forward to meeting with you!

Best regards,
{{.Signature}}
`))

func render(t *template.Template, data emailData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
