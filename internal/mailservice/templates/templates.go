package templates

import (
	"bytes"
	"errors"
	"html/template"

	_ "embed"

	types "github.com/mkwiatek/mailfan/internal/mailservice/types"
)

//go:embed report.html
var reportTemplate string

func RenderMailTemplate(templateType string, emailData types.MailData) (string, error) {
	switch templateType {
	case "report":
		tmpl, err := template.New("report").Parse(reportTemplate)
		if err != nil {
			return "", err
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, emailData); err != nil {
			return "", err
		}

		return buf.String(), nil

	default:
		return "", errors.New("no available template")
	}
}
