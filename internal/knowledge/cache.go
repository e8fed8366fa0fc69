package knowledge

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/vishrut/portfolio-chat/internal"
)

// Cache holds the process-wide knowledge snapshot. Readers get an immutable
// *KnowledgeBase; a reload swaps in a new one and never touches the old.
type Cache struct {
	loader *Loader
	log    logrus.FieldLogger
	snap   atomic.Pointer[internal.KnowledgeBase]
}

// NewCache loads the collections once.
func NewCache(loader *Loader) *Cache {
	c := &Cache{loader: loader, log: loader.log}
	c.snap.Store(loader.Load())
	return c
}

// Static wraps an already built snapshot, mostly for tests and the CLI.
func Static(kb *internal.KnowledgeBase) *Cache {
	c := &Cache{log: logrus.StandardLogger()}
	c.snap.Store(kb)
	return c
}

func (c *Cache) Get() *internal.KnowledgeBase {
	return c.snap.Load()
}

func (c *Cache) Reload() *internal.KnowledgeBase {
	if c.loader == nil {
		return c.Get()
	}
	kb := c.loader.Load()
	c.snap.Store(kb)
	return kb
}

// Watch reloads the snapshot whenever a collection file in the data
// directory changes. It returns once the watcher is installed; the
// watcher stops when ctx is cancelled. onReload may be nil.
func (c *Cache) Watch(ctx context.Context, onReload func(*internal.KnowledgeBase)) error {
	if c.loader == nil {
		return fmt.Errorf("knowledge cache has no loader to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(c.loader.Dir()); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", c.loader.Dir(), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isCollectionFile(ev.Name) {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
					!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				c.log.WithField("file", ev.Name).Info("knowledge file changed, reloading")
				kb := c.Reload()
				if onReload != nil {
					onReload(kb)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.log.WithError(err).Warn("knowledge watcher error")
			}
		}
	}()
	return nil
}
