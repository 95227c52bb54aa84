package ball

import (
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fsnotify/fsnotify"
)

// PeerWatcher reloads the peer file when it changes on disk. A file that
// fails to load is logged and the previous registry stays in effect.
type PeerWatcher struct {
	log      log.Logger
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*PeerRegistry)

	done chan struct{}
	wg   sync.WaitGroup
}

func NewPeerWatcher(log log.Logger, path string, onReload func(*PeerRegistry)) (*PeerWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path = filepath.Clean(path)
	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &PeerWatcher{
		log:      log,
		path:     path,
		watcher:  w,
		onReload: onReload,
		done:     make(chan struct{}),
	}, nil
}

func (pw *PeerWatcher) Start() {
	pw.wg.Add(1)
	go pw.loop()
}

func (pw *PeerWatcher) loop() {
	defer pw.wg.Done()
	for {
		select {
		case <-pw.done:
			return
		case ev, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != pw.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pw.reload()
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.log.Warn("Peer file watcher error", "err", err)
		}
	}
}

func (pw *PeerWatcher) reload() {
	reg, err := LoadPeers(pw.path)
	if err != nil {
		pw.log.Warn("Ignoring invalid peer file", "path", pw.path, "err", err)
		return
	}
	pw.log.Info("Reloaded peers", "path", pw.path, "eids", reg.EIDs())
	pw.onReload(reg)
}

func (pw *PeerWatcher) Close() error {
	close(pw.done)
	err := pw.watcher.Close()
	pw.wg.Wait()
	return err
}
