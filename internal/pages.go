package internal

import (
	"bytes"
	"html/template"
)

const alreadyConfirmedPage = `<h1>Email already confirmed!</h1><p>You can close this window.</p>`

var confirmedTmpl = template.Must(template.New("confirmed").Parse(`<html>
	<body style="font-family: Arial, sans-serif; background-color: #0f1025; color: white; text-align: center; padding-top: 50px;">
		<h1 style="color: #4fb7b3;">Email Confirmed!</h1>
		<p>Thank you, {{.ParentFirstName}}. Your registration for {{.PlayerName}} is now confirmed.</p>
		<p>We will be in touch shortly.</p>
	</body>
</html>
`))

func renderConfirmedPage(reg Registration) ([]byte, error) {
	var buf bytes.Buffer
	if err := confirmedTmpl.Execute(&buf, reg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
