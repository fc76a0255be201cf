package auth

import (
	"context"

	"github.com/roastery-dev/roastery/pkg/fsx"
	"github.com/roastery-dev/roastery/pkg/logx"
	"github.com/roastery-dev/roastery/pkg/notifx"
)

// Template names for the emails this module sends.
const (
	TemplateWelcome             = "auth_welcome"
	TemplateSecondFactorEnabled = "auth_second_factor_enabled"
)

// emailData is the render context shared by the auth email templates.
type emailData struct {
	Name  string
	Email string
}

var defaultEmailTemplates = map[string]string{
	TemplateWelcome: `<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Your Roastery account is ready. You can sign in with your email and password.</p>`,

	TemplateSecondFactorEnabled: `<p>A second factor was just enabled on the account {{.Email}}.</p>
<p>If this was not you, change your password immediately.</p>`,
}

// RegisterEmailTemplates registers the auth email templates on the notifier.
// When overrides is non-nil, a file named "<template>.html" in it replaces
// the built-in body for that template.
func RegisterEmailTemplates(ctx context.Context, client *notifx.Client, overrides fsx.FileReader) error {
	for name, body := range defaultEmailTemplates {
		if overrides != nil {
			path := name + ".html"
			if ok, err := overrides.Exists(ctx, path); err == nil && ok {
				custom, err := overrides.ReadFile(ctx, path)
				if err != nil {
					return err
				}
				body = string(custom)
				logx.Debugf("Loaded email template override: %s", path)
			}
		}
		if err := client.RegisterTemplate(name, body); err != nil {
			return err
		}
	}
	return nil
}
