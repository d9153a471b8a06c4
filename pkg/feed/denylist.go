package feed

import (
	"log/slog"

	configloader "github.com/lepinkainen/skypost/pkg/config"
)

// LoadSharedDenylist refreshes the filter's denylist from a remote JSON array
// with a local file fallback, mirroring how other shared config is
// distributed. When nothing can be loaded the built-in denylist stays active.
func LoadSharedDenylist(filter *Filter, remoteURL, localPath string) {
	if remoteURL == "" && localPath == "" {
		return
	}

	var markers []string
	loaded, err := configloader.LoadFromURLWithFallback(&configloader.LoaderConfig{
		RemoteURL:         remoteURL,
		LocalPath:         localPath,
		FallbackToDefault: true,
	}, &markers)
	if err != nil || !loaded {
		slog.Debug("Shared denylist unavailable, using built-in markers", "error", err)
		return
	}

	slog.Debug("Loaded shared denylist", "markers", len(markers))
	filter.SetDenylist(append(append([]string{}, DefaultDenylist...), markers...))
}
