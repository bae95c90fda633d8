// Package config loads sprintplan settings from an optional YAML file,
// SPRINTPLAN_* environment variables and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// SPRINTPLAN_VELOCITY_WINDOW for velocity.window.
const EnvPrefix = "SPRINTPLAN"

// Settings holds all configuration for sprintplan.
type Settings struct {
	Database     DatabaseSettings   `mapstructure:"database"`
	Dependencies DependencySettings `mapstructure:"dependencies"`
	Velocity     VelocitySettings   `mapstructure:"velocity"`
	Kinds        KindSettings       `mapstructure:"kinds"`
	Statuses     StatusSettings     `mapstructure:"statuses"`
	Activities   ActivitySettings   `mapstructure:"activities"`
	Speed        SpeedSettings      `mapstructure:"speed"`
}

type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

type DependencySettings struct {
	// CheckOnSort rejects moves that would put an item ahead of something
	// it depends on.
	CheckOnSort bool `mapstructure:"check_on_sort"`
}

type VelocitySettings struct {
	// Window is how many closed sprints feed the velocity average.
	Window      int    `mapstructure:"window"`
	DefaultType string `mapstructure:"default_type"`
}

// KindSettings lists which tracker kinds are ordered backlog items, which are
// tasks, and which carry story points.
type KindSettings struct {
	Backlog     []string `mapstructure:"backlog"`
	Task        []string `mapstructure:"task"`
	StoryPoints []string `mapstructure:"story_points"`
}

type StatusSettings struct {
	ActiveItems []string `mapstructure:"active_items"`
	ActiveTasks []string `mapstructure:"active_tasks"`
	Closed      []string `mapstructure:"closed"`
}

type ActivitySettings struct {
	// Reviewing names the activities counted as review work; every other
	// activity counts as doing.
	Reviewing []string `mapstructure:"reviewing"`
}

// SpeedSettings are percentage thresholds for flagging item speed.
type SpeedSettings struct {
	Lowest int `mapstructure:"lowest"`
	Low    int `mapstructure:"low"`
	High   int `mapstructure:"high"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", defaultDBPath())

	v.SetDefault("dependencies.check_on_sort", true)

	v.SetDefault("velocity.window", 4)
	v.SetDefault("velocity.default_type", string(domain.VelocityOnlyScheduled))

	v.SetDefault("kinds.backlog", []string{"story", "bug"})
	v.SetDefault("kinds.task", []string{"task"})
	v.SetDefault("kinds.story_points", []string{"story", "bug"})

	v.SetDefault("statuses.active_items", []string{"new", "in_progress"})
	v.SetDefault("statuses.active_tasks", []string{"new", "in_progress"})
	v.SetDefault("statuses.closed", []string{"done", "rejected"})

	v.SetDefault("activities.reviewing", []string{"review"})

	v.SetDefault("speed.lowest", 70)
	v.SetDefault("speed.low", 80)
	v.SetDefault("speed.high", 140)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".sprintplan", "sprintplan.db")
	}
	return filepath.Join(home, ".sprintplan", "sprintplan.db")
}

// DefaultConfigPath is ~/.sprintplan/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sprintplan", "config.yaml")
}

// Default returns the built-in settings without reading files or env.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	s := &Settings{}
	// Defaults always decode.
	_ = v.Unmarshal(s)
	s.normalize()
	return s
}

// Loader owns the viper instance behind a loaded configuration so the file
// can be watched and re-read.
type Loader struct {
	v    *viper.Viper
	path string

	mu       sync.RWMutex
	settings *Settings
	hooks    []func(*Settings)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. path wins over $SPRINTPLAN_CONFIG, which wins
// over ~/.sprintplan/config.yaml. An explicitly named file must exist; the
// default location is optional.
func Load(path string) (*Loader, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	v := newViper()
	l := &Loader{v: v}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config from %s: %w", path, err)
			}
			l.path = path
		} else if explicit {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	s, err := decode(v)
	if err != nil {
		return nil, err
	}
	l.settings = s
	return l, nil
}

// LoadFromPath loads a specific file, ignoring $SPRINTPLAN_CONFIG.
func LoadFromPath(path string) (*Settings, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Source yields the settings in force. *Loader follows the file on disk;
// a plain *Settings is a fixed source.
type Source interface {
	Settings() *Settings
}

// Settings returns s itself, making a fixed *Settings a Source.
func (s *Settings) Settings() *Settings { return s }

// Settings returns the current settings snapshot.
func (l *Loader) Settings() *Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// Path is the file the settings were read from, or "" when only defaults
// and environment apply.
func (l *Loader) Path() string { return l.path }

// OnChange registers a hook run with the new settings after every
// successful reload.
func (l *Loader) OnChange(hook func(*Settings)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// Reload re-reads the file and runs the registered hooks. A file that no
// longer parses leaves the previous settings in place.
func (l *Loader) Reload() error {
	if l.path != "" {
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config from %s: %w", l.path, err)
		}
	}
	return l.refresh()
}

func (l *Loader) refresh() error {
	s, err := decode(l.v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.settings = s
	hooks := append([]func(*Settings){}, l.hooks...)
	l.mu.Unlock()

	for _, h := range hooks {
		h(s)
	}
	return nil
}

// Watch re-reads the file whenever it changes on disk. Reload failures go
// to onError when it is non-nil. Without a config file Watch does nothing.
func (l *Loader) Watch(onError func(error)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		// viper has already re-read the file by the time this runs.
		if err := l.refresh(); err != nil && onError != nil {
			onError(err)
		}
	})
	l.v.WatchConfig()
}

// normalize applies the same clamps the tracker settings page enforces.
func (s *Settings) normalize() {
	if s.Velocity.Window < 1 {
		s.Velocity.Window = 1
	}
	s.Speed.Lowest = clamp(s.Speed.Lowest, 0, 99)
	s.Speed.Low = clamp(s.Speed.Low, 0, 99)
	s.Speed.High = clamp(s.Speed.High, 101, 10000)
	s.Velocity.DefaultType = strings.ToLower(strings.TrimSpace(s.Velocity.DefaultType))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate rejects settings no clamp can repair.
func (s *Settings) Validate() error {
	if !domain.ValidVelocityTypes[s.Velocity.DefaultType] {
		return fmt.Errorf("config: velocity.default_type %q must be one of all, only_scheduled, custom", s.Velocity.DefaultType)
	}
	if s.Database.Path == "" {
		return fmt.Errorf("config: database.path is required")
	}
	return nil
}

// KindRegistry builds the kind capability table from the kinds section.
func (s *Settings) KindRegistry() *domain.KindRegistry {
	return domain.NewKindRegistry(s.Kinds.Backlog, s.Kinds.Task, s.Kinds.StoryPoints)
}

// StatusSet is a membership test over configured status names.
type StatusSet map[string]bool

func newStatusSet(names []string) StatusSet {
	set := make(StatusSet, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (s StatusSet) Has(status string) bool { return s[status] }

func (s *Settings) ActiveItemStatuses() StatusSet { return newStatusSet(s.Statuses.ActiveItems) }

func (s *Settings) ActiveTaskStatuses() StatusSet { return newStatusSet(s.Statuses.ActiveTasks) }

func (s *Settings) ClosedStatuses() StatusSet { return newStatusSet(s.Statuses.Closed) }
