package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/escalopa/arud-bot/internal/domain"
)

//go:embed locales/*.yaml
var embedded embed.FS

type I18n struct {
	translations map[domain.Language]map[string]string
	examples     map[domain.Language]map[string]string
}

type translationFile struct {
	Messages map[string]string `yaml:"messages"`
	Examples map[string]string `yaml:"examples"`
}

// NewI18n loads the locale files from localesDir, or the built-in ones when it is empty
func NewI18n(localesDir string) (*I18n, error) {
	if localesDir == "" {
		sub, err := fs.Sub(embedded, "locales")
		if err != nil {
			return nil, fmt.Errorf("open embedded locales: %w", err)
		}
		return Load(sub)
	}
	return Load(os.DirFS(localesDir))
}

// Load reads <lang>.yaml for every supported language from fsys
func Load(fsys fs.FS) (*I18n, error) {
	i18n := &I18n{
		translations: make(map[domain.Language]map[string]string),
		examples:     make(map[domain.Language]map[string]string),
	}

	for _, lang := range domain.Languages {
		if err := i18n.loadTranslations(fsys, lang, string(lang)+".yaml"); err != nil {
			return nil, fmt.Errorf("load %s translations: %w", lang, err)
		}
	}

	return i18n, nil
}

func (i *I18n) loadTranslations(fsys fs.FS, lang domain.Language, filename string) error {
	data, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var tf translationFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}

	i.translations[lang] = tf.Messages
	i.examples[lang] = tf.Examples

	return nil
}

// Get retrieves a translated message, falling back to English and then to the key
func (i *I18n) Get(lang domain.Language, key string, args ...interface{}) string {
	msg, ok := i.translations[lang][key]
	if !ok {
		msg, ok = i.translations[domain.LangEnglish][key]
	}
	if !ok {
		return key
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	return msg
}

// ExampleTitle retrieves the localized title of a sample poem
func (i *I18n) ExampleTitle(lang domain.Language, ex domain.Example) string {
	if title := strings.TrimSpace(i.examples[lang][ex.Key]); title != "" {
		return title
	}
	return ex.Title
}

// Keys returns the message keys of lang
func (i *I18n) Keys(lang domain.Language) []string {
	keys := make([]string, 0, len(i.translations[lang]))
	for k := range i.translations[lang] {
		keys = append(keys, k)
	}
	return keys
}
