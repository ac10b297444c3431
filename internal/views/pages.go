// Package views renders the pages served to the CMS login popup.
//
// Each page carries a single value in a JSON script element (ValueElementID)
// that the inline script reads. The success and error pages run the CMS
// handshake: announce "authorizing:<provider>" to the opener, wait for its
// reply, then post the result back to the replying origin.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
	"github.com/brizzai/cms-oauth-relay/internal/auth/models"
)

// ValueElementID is the id of the script element holding the page value
const ValueElementID = "relay-value"

// Outcome markers set on <body data-outcome="...">
const (
	OutcomeLanding = "landing"
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// LandingValue is the value exposed by the landing page
type LandingValue struct {
	AuthURL string `json:"auth_url"`
}

// ErrorValue is the value exposed by the error page and posted to the opener
type ErrorValue struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// NewErrorValue converts an exchange failure into what the browser may see.
// The wrapped cause stays server side.
func NewErrorValue(err *models.ExchangeError) ErrorValue {
	if err == nil {
		return ErrorValue{Error: string(models.ErrorKindExchangeFailed)}
	}
	return ErrorValue{
		Error:            err.ErrorCode(),
		ErrorDescription: err.Description,
	}
}

const readValueJS = `var value = JSON.parse(document.getElementById("` + ValueElementID + `").textContent);`

const landingJS = `(function () {
  ` + readValueJS + `
  var link = document.getElementById("login");
  if (link) { link.href = value.auth_url; }
})();`

// handshakeJS posts message(value) to the opener once the opener answers
// the announcement. Other messages are ignored.
func handshakeJS(message string) string {
	return `(function () {
  ` + readValueJS + `
  function receiveMessage(e) {
    if (e.data !== "authorizing:` + constants.ProviderName + `") { return; }
    window.removeEventListener("message", receiveMessage, false);
    window.opener.postMessage(` + message + `, e.origin);
  }
  if (!window.opener) { return; }
  window.addEventListener("message", receiveMessage, false);
  window.opener.postMessage("authorizing:` + constants.ProviderName + `", "*");
})();`
}

var (
	successJS = handshakeJS(`"authorization:` + constants.ProviderName + `:success:" + value`)
	errorJS   = handshakeJS(`"authorization:` + constants.ProviderName + `:error:" + JSON.stringify(value)`)
)

// Landing renders the informational root page
func Landing(value LandingValue) templ.Component {
	return withLayout("CMS OAuth relay", OutcomeLanding, value, landingJS,
		element("h1", "CMS OAuth relay"),
		element("p", "", link("login", value.AuthURL, "Login with GitHub")),
	)
}

// Success renders the page that hands the serialized token payload to the opener
func Success(payload string) templ.Component {
	return withLayout("Authorized", OutcomeSuccess, payload, successJS,
		element("p", "Authorized, this window will be closed by the editor."),
	)
}

// Error renders the failure page
func Error(value ErrorValue) templ.Component {
	body := []templ.Component{element("p", "Authorization failed: "+value.Error)}
	if value.ErrorDescription != "" {
		body = append(body, element("p", value.ErrorDescription))
	}
	body = append(body, element("p", "Close this window and try logging in again."))
	return withLayout("Authorization failed", OutcomeError, value, errorJS, body...)
}

func withLayout(title, outcome string, value any, script string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(title, outcome, value, script).Render(templ.WithChildren(ctx, join(body)), w)
	})
}

// layout writes the document shell around its children. script is trusted
// page code, never request data.
func layout(title, outcome string, value any, script string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(title)+`</title></head><body data-outcome="`+templ.EscapeString(outcome)+`">`); err != nil {
			return err
		}
		if err := templ.JSONScript(ValueElementID, value).Render(ctx, w); err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<script>`+script+`</script></body></html>`)
		return err
	})
}

func join(components []templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range components {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// element renders <tag>text children</tag> with text escaped
func element(tag, text string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<"+tag+">"+templ.EscapeString(text)); err != nil {
			return err
		}
		if err := join(children).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

func link(id, href, text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<a id="`+templ.EscapeString(id)+`" href="`+templ.EscapeString(href)+`">`+templ.EscapeString(text)+`</a>`)
		return err
	})
}
