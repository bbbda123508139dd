package templates

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

//go:embed defaults.toml
var defaultsToml string

type templatesFile struct {
	Templates []Template `toml:"template"`
}

// ParseTemplates decodes a TOML document with one [[template]] table per template
// and validates each of them.
func ParseTemplates(content string) ([]Template, error) {
	var f templatesFile
	if _, err := toml.Decode(content, &f); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	for i, t := range f.Templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("template #%d (%s): %w", i, t.Type, err)
		}
	}
	return f.Templates, nil
}

func Defaults() ([]Template, error) {
	return ParseTemplates(defaultsToml)
}

// LoadFile registers the templates from path, or the embedded defaults when path is empty.
func LoadFile(ctx context.Context, store *Store, path string) ([]Template, error) {
	content := defaultsToml
	if path != "" {
		fileBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read templates file: %w", err)
		}
		content = string(fileBytes)
	}

	list, err := ParseTemplates(content)
	if err != nil {
		return nil, err
	}

	registered := make([]Template, 0, len(list))
	for _, t := range list {
		stored, err := store.Register(ctx, t)
		if err != nil {
			return registered, err
		}
		log.Infof("template %s loaded, version %d", stored.Type, stored.Version)
		registered = append(registered, *stored)
	}
	return registered, nil
}
