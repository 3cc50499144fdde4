package mailer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// template pairs a subject line with a Liquid body source.
type template struct {
	subject string
	body    string
}

// Built-in follow-up templates, keyed by dispatch reason.
var builtinTemplates = map[string]template{
	"3_day_reminder": {
		subject: "We miss you - quick check-in from Acme Platform",
		body: `Hi {{ name | default: "there" }},

We noticed you haven't logged in for a few days. If there's anything you need or if you want a quick walkthrough, reply to this email and we'll help.

Best,
The Acme Support Team`,
	},
	"7_day_check_in": {
		subject: "Need help with Acme Platform?",
		body: `Hi {{ name | default: "there" }},

It looks like you haven't logged in for a week. If you're having trouble finding something or need assistance, please reply and we'll schedule a quick call.

Warmly,
The Acme Support Team`,
	},
}

// TemplateStore renders reason-keyed email templates with Liquid, caching
// parsed templates.
type TemplateStore struct {
	engine    *liquid.Engine
	templates map[string]template
	cache     sync.Map // map[string]*liquid.Template
}

// NewTemplateStore creates a store with the built-in templates and a
// "default" filter registered.
func NewTemplateStore() *TemplateStore {
	engine := liquid.NewEngine()
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &TemplateStore{
		engine:    engine,
		templates: builtinTemplates,
	}
}

// Reasons returns the reasons this store can render, in no particular order.
func (ts *TemplateStore) Reasons() []string {
	reasons := make([]string, 0, len(ts.templates))
	for r := range ts.templates {
		reasons = append(reasons, r)
	}
	return reasons
}

// Render produces the subject and plain-text body for a reason. Unknown
// reasons fail before any network call is made.
func (ts *TemplateStore) Render(reason string, vars map[string]interface{}) (subject, body string, err error) {
	tpl, ok := ts.templates[reason]
	if !ok {
		return "", "", fmt.Errorf("unsupported reason: %s", reason)
	}

	parsed, err := ts.parse(reason, tpl.body)
	if err != nil {
		return "", "", fmt.Errorf("parsing template %s: %w", reason, err)
	}

	rendered, err := parsed.RenderString(vars)
	if err != nil {
		return "", "", fmt.Errorf("rendering template %s: %w", reason, err)
	}

	return tpl.subject, strings.TrimRight(rendered, "\n") + "\n", nil
}

func (ts *TemplateStore) parse(key, source string) (*liquid.Template, error) {
	if cached, ok := ts.cache.Load(key); ok {
		return cached.(*liquid.Template), nil
	}
	parsed, err := ts.engine.ParseString(source)
	if err != nil {
		return nil, err
	}
	ts.cache.Store(key, parsed)
	return parsed, nil
}
