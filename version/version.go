// Package version checks the release feed for a newer mellow.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mellow-player/mellow/constant"
	"github.com/mellow-player/mellow/filesystem"
	"github.com/mellow-player/mellow/network"
	"github.com/mellow-player/mellow/util"
	"github.com/mellow-player/mellow/where"
	"github.com/metafates/gache"
)

// ReleaseURL is the endpoint describing the latest release.
var ReleaseURL = "https://api.github.com/repos/mellow-player/mellow/releases/latest"

const checkTimeout = 3 * time.Second

var (
	cacherOnce sync.Once
	cacher     *gache.Cache[string]
)

func versionCache() *gache.Cache[string] {
	cacherOnce.Do(func() {
		cacher = gache.New[string](&gache.Options{
			Path:       filepath.Join(where.Cache(), "version.json"),
			Lifetime:   time.Hour * 24 * 2,
			FileSystem: &filesystem.GacheFs{},
		})
	})
	return cacher
}

// Latest returns the newest released version, without the leading v.
// The answer is cached for two days.
func Latest(ctx context.Context) (string, error) {
	cached, expired, err := versionCache().Get()
	if err != nil {
		return "", err
	}
	if !expired && cached != "" {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleaseURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constant.Mellow+"/"+constant.Version)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := network.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release feed: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	_ = versionCache().Set(latest)
	return latest, nil
}
