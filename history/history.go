// Package history remembers played tracks and their last position.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mellow-player/mellow/filesystem"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/util"
	"github.com/mellow-player/mellow/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

var (
	cacherOnce sync.Once
	cacher     *gache.Cache[map[string]*Track]
	mu         sync.Mutex
)

func store() *gache.Cache[map[string]*Track] {
	cacherOnce.Do(func() {
		cacher = gache.New[map[string]*Track](&gache.Options{
			Path:       where.History(),
			FileSystem: &filesystem.GacheFs{},
		})
	})
	return cacher
}

// Get returns every remembered track keyed by URL.
func Get() (map[string]*Track, error) {
	mu.Lock()
	defer mu.Unlock()
	return get()
}

func get() (map[string]*Track, error) {
	cached, expired, err := store().Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Track), nil
	}
	return cached, nil
}

// List returns the remembered tracks, most recently played first.
func List() ([]*Track, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	tracks := lo.Values(saved)
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].PlayedAt.After(tracks[j].PlayedAt)
	})
	return tracks, nil
}

// Search returns the tracks whose title or URL fuzzily matches query,
// most recently played first.
func Search(query string) ([]*Track, error) {
	tracks, err := List()
	if err != nil {
		return nil, err
	}

	return lo.Filter(tracks, func(t *Track, _ int) bool {
		return Matches(query, t)
	}), nil
}

// Matches reports whether query fuzzily matches the title or URL of t.
func Matches(query string, t *Track) bool {
	return fuzzy.MatchNormalizedFold(query, t.Title) || fuzzy.MatchNormalizedFold(query, t.URL)
}

// Last returns the most recently played track, if any.
func Last() (mo.Option[*Track], error) {
	tracks, err := List()
	if err != nil {
		return mo.None[*Track](), err
	}
	if len(tracks) == 0 {
		return mo.None[*Track](), nil
	}
	return mo.Some(tracks[0]), nil
}

// Save records the position of url. Once more than the configured limit
// of tracks is stored, the least recently played ones are dropped.
func Save(url string, position, duration float64) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := get()
	if err != nil {
		return err
	}

	saved[url] = &Track{
		URL:      url,
		Title:    util.TrackTitle(url),
		Position: position,
		Duration: duration,
		PlayedAt: time.Now(),
	}

	if limit := viper.GetInt(key.HistoryLimit); limit > 0 && len(saved) > limit {
		tracks := lo.Values(saved)
		sort.Slice(tracks, func(i, j int) bool {
			return tracks[i].PlayedAt.After(tracks[j].PlayedAt)
		})
		for _, t := range tracks[limit:] {
			delete(saved, t.URL)
		}
	}

	return store().Set(saved)
}

// Remove forgets url.
func Remove(url string) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := get()
	if err != nil {
		return err
	}

	delete(saved, url)
	return store().Set(saved)
}

// Clear forgets every track.
func Clear() error {
	mu.Lock()
	defer mu.Unlock()
	return store().Set(make(map[string]*Track))
}
