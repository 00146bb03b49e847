package notify

import (
	"bytes"
	"fmt"

	"github.com/gofiber/template/html/v2"
)

const billReminderTemplate = "emails/bill_reminder"

// Templates renders email bodies from the views directory.
type Templates struct {
	engine *html.Engine
}

// LoadTemplates parses every .html file below dir.
func LoadTemplates(dir string) (*Templates, error) {
	engine := html.New(dir, ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &Templates{engine: engine}, nil
}

func (t *Templates) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.engine.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
