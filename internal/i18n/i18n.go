package i18n

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/cmdbot/resources"
)

const translationsPath = "i18n/translations.yml"

var state = struct {
	once         sync.Once
	translations map[string]map[string]string
}{}

func getLogEntry() *log.Entry {
	return log.WithField("object", "i18n")
}

func load() {
	state.once.Do(func() {
		state.translations = map[string]map[string]string{}
		content, err := resources.FS.ReadFile(translationsPath)
		if err != nil {
			getLogEntry().WithError(err).Errorln("cant load i18n")
			return
		}
		if err := yaml.Unmarshal(content, &state.translations); err != nil {
			getLogEntry().WithError(err).Errorln("cant unmarshal i18n")
		}
	})
}

// Get translates key into lang, falling back to the key itself.
func Get(key, lang string) string {
	load()
	code, err := Select(lang)
	if err != nil {
		code = DefaultLanguage
	}
	if res, ok := state.translations[key][code]; ok && res != "" {
		return res
	}
	getLogEntry().Tracef("no translation for key %q in %s", key, code)
	return key
}

// Select normalizes lang into a supported language code.
func Select(lang string) (string, error) {
	code := normalize(lang)
	if _, ok := languageNames[code]; !ok {
		return "", errors.Wrapf(ErrUnknownLanguage, "%q, expected one of %v", lang, Languages())
	}
	return code, nil
}
