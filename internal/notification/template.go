package notification

import (
	"bytes"
	"html/template"
	"strings"
)

// emailTmpl is the HTML wrapper applied to every outgoing notification.
// Fields are auto-escaped by html/template; line breaks inside a paragraph
// are kept with white-space:pre-line.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f4f4f5;padding:40px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">

          <!-- Header -->
          <tr>
            <td style="background-color:#0b2545;padding:24px 40px;border-radius:12px 12px 0 0;">
              <span style="font-size:20px;font-weight:700;color:#ffffff;">{{.Division}}</span>
              <span style="display:block;font-size:11px;color:#8da9c4;margin-top:2px;letter-spacing:0.3px;">
                Training Department
              </span>
            </td>
          </tr>

          <!-- Subject bar -->
          <tr>
            <td style="background-color:#13315c;padding:16px 40px;border-left:3px solid #8da9c4;">
              <p style="margin:0;font-size:15px;font-weight:600;color:#eef4ed;">{{.Subject}}</p>
            </td>
          </tr>

          <!-- Body -->
          <tr>
            <td style="background-color:#ffffff;padding:36px 40px;">
              <p style="margin:0 0 16px 0;font-size:14px;color:#374151;">Hello {{.Name}},</p>
              {{range .Lines}}
              <p style="margin:0 0 16px 0;font-size:14px;line-height:1.7;color:#374151;white-space:pre-line;">{{.}}</p>
              {{end}}
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="background-color:#f9fafb;padding:20px 40px;
                       border-top:1px solid #e5e7eb;border-radius:0 0 12px 12px;">
              <p style="margin:0;font-size:12px;color:#9ca3af;">
                {{if .Contact}}Questions about your training? Contact
                <a href="mailto:{{.Contact}}" style="color:#13315c;text-decoration:none;">{{.Contact}}</a>.
                {{else}}This is an automated message from the {{.Division}} training system.{{end}}
              </p>
            </td>
          </tr>

        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// buildEmailHTML renders the HTML email for msg.
func buildEmailHTML(division string, msg Message) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Division, Subject, Name, Contact string
		Lines                            []string
	}{division, msg.Subject, msg.To.Name, msg.Contact, msg.Lines})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// plainBody renders the text/plain part: greeting, paragraphs, contact line.
func plainBody(msg Message) string {
	var b strings.Builder
	if msg.To.Name != "" {
		b.WriteString("Hello " + msg.To.Name + ",\n\n")
	}
	b.WriteString(msg.Body())
	if msg.Contact != "" {
		b.WriteString("\n\nQuestions about your training? Contact " + msg.Contact + ".")
	}
	return b.String()
}
