package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// SubjectPrefix is prepended to every outgoing email subject.
const SubjectPrefix = "stockbell - "

const reportTimeLayout = "2006-01-02 15:04:05 MST"

// emailTmpl renders an alert email. Fields are auto-escaped by html/template.
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
          <tr>
            <td style="background-color:#14532d;padding:24px 40px;border-radius:12px 12px 0 0;">
              <span style="font-size:20px;font-weight:700;color:#ffffff;">stockbell</span>
              <span style="display:block;font-size:11px;color:#bbf7d0;margin-top:2px;">
                Plants vs Brainrots stock alert
              </span>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:32px 40px;">
              <p style="margin:0 0 16px;font-size:15px;font-weight:600;color:#111827;">
                Now in stock:
              </p>
              <ul style="margin:0;padding-left:20px;font-size:14px;line-height:1.8;color:#374151;">
                {{range .Items}}<li>{{.}}</li>{{end}}
              </ul>
            </td>
          </tr>
          <tr>
            <td style="background-color:#f9fafb;padding:16px 40px;
                       border-top:1px solid #e5e7eb;border-radius:0 0 12px 12px;">
              <p style="margin:0;font-size:12px;color:#9ca3af;">
                Report {{.ReportID}} from {{.ReportedAt}}.
                You are receiving this because these items are on your watchlist.
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

// buildSubject prepends the standard prefix to a subject line.
func buildSubject(subject string) string {
	return SubjectPrefix + subject
}

// buildBody renders the plain-text alert body.
func buildBody(alert Alert) string {
	var b strings.Builder
	b.WriteString("Now in stock:\n")
	for _, item := range alert.Items {
		fmt.Fprintf(&b, "  - %s\n", item)
	}
	fmt.Fprintf(&b, "\nReport %s from %s.\n", alert.ReportID, formatReportTime(alert.ReportedAt))
	return b.String()
}

// buildEmailHTML renders the HTML email for alert.
func buildEmailHTML(subject string, alert Alert) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Subject    string
		Items      []string
		ReportID   string
		ReportedAt string
	}{subject, alert.Items, alert.ReportID, formatReportTime(alert.ReportedAt)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatReportTime(t time.Time) string {
	if t.IsZero() {
		return "an unknown time"
	}
	return t.UTC().Format(reportTimeLayout)
}
