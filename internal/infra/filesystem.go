package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultDotPath = "~/.cmdbot"

// WorkDir expands dotPath, joins path and makes sure the directory exists.
func WorkDir(dotPath string, path ...string) (string, error) {
	if dotPath == "" {
		dotPath = DefaultDotPath
	}
	dir, err := homedir.Expand(filepath.Join(append([]string{dotPath}, path...)...))
	if err != nil {
		return "", errors.Wrap(err, "expand work dir")
	}
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	log.WithField("dir", dir).Trace("work dir ready")
	return dir, nil
}
