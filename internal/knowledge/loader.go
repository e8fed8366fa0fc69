// Package knowledge loads the static project, media and timeline
// collections that ground every chat answer.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vishrut/portfolio-chat/internal"
)

const (
	CollectionProjects = "projects"
	CollectionMedia    = "media"
	CollectionTimeline = "timeline"
)

// extensions are tried in order; the first file found wins.
var extensions = []string{".json", ".yaml", ".yml"}

type Loader struct {
	dir string
	log logrus.FieldLogger
}

func NewLoader(dir string, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{dir: dir, log: log}
}

func (l *Loader) Dir() string { return l.dir }

// Load reads all three collections. A collection that is missing or fails
// to parse is logged and replaced by an empty one, so Load never fails.
func (l *Loader) Load() *internal.KnowledgeBase {
	kb := &internal.KnowledgeBase{
		Projects: loadCollection[internal.Project](l, CollectionProjects),
		Media:    loadCollection[internal.MediaAppearance](l, CollectionMedia),
		Timeline: loadCollection[internal.TimelineEntry](l, CollectionTimeline),
	}
	l.log.WithFields(logrus.Fields{
		"dir":      l.dir,
		"projects": len(kb.Projects),
		"media":    len(kb.Media),
		"timeline": len(kb.Timeline),
	}).Info("knowledge base loaded")
	return kb
}

func loadCollection[T any](l *Loader, name string) []T {
	items, err := readCollection[T](l.dir, name)
	if err != nil {
		l.log.WithError(err).WithField("collection", name).Warn("using empty collection")
		return []T{}
	}
	return items
}

func readCollection[T any](dir, name string) ([]T, error) {
	path, err := resolve(dir, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var items []T
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(b, &items)
	default:
		err = yaml.Unmarshal(b, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func resolve(dir, name string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("collection %q not found in %s: %w", name, dir, fs.ErrNotExist)
}

// isCollectionFile reports whether path names one of the collection files.
func isCollectionFile(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	known := false
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			known = true
		}
	}
	if !known {
		return false
	}
	switch strings.TrimSuffix(base, ext) {
	case CollectionProjects, CollectionMedia, CollectionTimeline:
		return true
	}
	return false
}
