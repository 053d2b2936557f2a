package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/ini.v1"
)

// ClientProfile is the [client] section of the mirror client's INI file:
//
//	[client]
//	server_url   = https://books.example.com
//	token        = 3f0c...
//	mirror_path  = ~/.local/share/tome/mirror.db
//	sync_timeout = 30s
//	schedule     = */15 * * * *
type ClientProfile struct {
	ServerURL   string
	Token       string
	MirrorPath  string
	SyncTimeout time.Duration
	Schedule    string
}

// ProfileFromConfig seeds a profile with the environment-derived mirror settings.
func ProfileFromConfig(cfg *Config) ClientProfile {
	return ClientProfile{
		ServerURL:   cfg.Mirror.ServerURL,
		Token:       cfg.Mirror.Token,
		MirrorPath:  cfg.Mirror.Path,
		SyncTimeout: cfg.Mirror.SyncTimeout,
		Schedule:    cfg.Mirror.SyncSchedule,
	}
}

// LoadClientProfile overlays the keys present in path onto base. A missing
// file leaves base unchanged.
func LoadClientProfile(path string, base ClientProfile) (ClientProfile, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return base, nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return base, fmt.Errorf("load client profile %s: %w", path, err)
	}

	sec := file.Section("client")
	profile := base
	if sec.HasKey("server_url") {
		profile.ServerURL = sec.Key("server_url").String()
	}
	if sec.HasKey("token") {
		profile.Token = sec.Key("token").String()
	}
	if sec.HasKey("mirror_path") {
		profile.MirrorPath = sec.Key("mirror_path").String()
	}
	if sec.HasKey("schedule") {
		profile.Schedule = sec.Key("schedule").String()
	}
	if sec.HasKey("sync_timeout") {
		timeout, err := sec.Key("sync_timeout").Duration()
		if err != nil {
			return base, fmt.Errorf("client profile %s: sync_timeout: %w", path, err)
		}
		profile.SyncTimeout = timeout
	}
	return profile, nil
}
