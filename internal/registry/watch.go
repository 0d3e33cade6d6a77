package registry

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/zulandar/switchboard/internal/config"
)

// debounceWindow coalesces the burst of fsnotify events most editors
// produce for a single save.
const debounceWindow = 200 * time.Millisecond

// Watcher reloads the endpoint section of the config file at runtime,
// applying endpoint additions and active-flag changes to a live Registry.
type Watcher struct {
	path string
	reg  *Registry
	log  zerolog.Logger
}

// NewWatcher creates a Watcher for the given config path.
func NewWatcher(path string, reg *Registry, log zerolog.Logger) *Watcher {
	return &Watcher{path: path, reg: reg, log: log}
}

// Run watches the config file until ctx is cancelled. Reload failures are
// logged and skipped; the last good registry state stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.path); err != nil {
		return err
	}

	var pending *time.Timer
	var pendingC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors that replace the file drop the watch; re-add.
			if ev.Op&fsnotify.Rename != 0 {
				_ = fw.Add(w.path)
			}
			if pending == nil {
				pending = time.NewTimer(debounceWindow)
				pendingC = pending.C
			} else {
				pending.Reset(debounceWindow)
			}
		case <-pendingC:
			pending = nil
			pendingC = nil
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("registry watcher error")
		}
	}
}

// reload parses the config file and applies endpoint changes.
func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("registry reload skipped")
		return
	}
	applied, rejected := w.reg.Apply(cfg.Endpoints)
	w.log.Info().Int("applied", applied).Int("rejected", rejected).Msg("registry reloaded")
}

// Apply registers each configured endpoint, replacing existing entries.
// Returns counts of applied and rejected (out-of-bounds) endpoints.
// Endpoints absent from the new config are deactivated, not removed.
func (r *Registry) Apply(endpoints []config.EndpointConfig) (applied, rejected int) {
	present := make(map[string]bool, len(endpoints))
	for _, ec := range endpoints {
		if len(ec.Location) != 2 {
			rejected++
			continue
		}
		present[ec.ID] = true
		if err := r.Register(endpointFromConfig(ec)); err != nil {
			rejected++
			continue
		}
		applied++
	}
	for _, ep := range r.List() {
		if !present[ep.ID] && ep.Active {
			_ = r.SetActive(ep.ID, false)
		}
	}
	return applied, rejected
}
