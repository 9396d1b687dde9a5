package linuxcam

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// hotplug watches the device directory for video nodes coming and going.
type hotplug struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

func watch(dir string, added, removed func(path string)) (*hotplug, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	h := &hotplug{w: w, done: make(chan struct{})}
	go h.run(added, removed)
	return h, nil
}

func (h *hotplug) run(added, removed func(path string)) {
	defer close(h.done)
	for {
		select {
		case ev, ok := <-h.w.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), "video") {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				log.Info("%s removed", ev.Name)
				removed(ev.Name)
			} else if ev.Has(fsnotify.Create) {
				log.Info("%s added", ev.Name)
				added(ev.Name)
			}
		case err, ok := <-h.w.Errors:
			if !ok {
				return
			}
			log.Warn("Watching devices: %v", err)
		}
	}
}

func (h *hotplug) Close() error {
	err := h.w.Close()
	<-h.done
	return err
}
