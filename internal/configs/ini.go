// Package configs reads and writes the dedicated server's
// MoriaServerConfig.ini.
package configs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/ini.v1"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
)

// IniFileName is the server configuration file in the server directory.
const IniFileName = "MoriaServerConfig.ini"

const templateName = "MoriaServerConfig.ini.tmpl"

// ErrNotFound means the server has not written its INI file yet.
var ErrNotFound = errors.New("server ini not found")

// IniPath returns the location of the INI file for a server install.
func IniPath(serverDir string) string {
	return filepath.Join(serverDir, IniFileName)
}

// ServerIni is the editable content of MoriaServerConfig.ini. Enumerated
// fields hold values in the display vocabulary it was created with.
type ServerIni struct {
	OptionalPassword      string
	WorldName             string
	OptionalWorldFilename string

	WorldType          string
	Seed               string
	DifficultyPreset   string
	CombatDifficulty   string
	EnemyAggression    string
	SurvivalDifficulty string
	MiningDrops        string
	WorldDrops         string
	HordeFrequency     string
	SiegeFrequency     string
	PatrolFrequency    string

	ListenAddress               string
	ListenPort                  int
	AdvertiseAddress            string
	AdvertisePort               string // empty means ListenPort
	InitialConnectionRetryTime  int
	AfterDisconnectionRetryTime int

	ConsoleEnabled  bool
	ServerFPS       int
	LoadedAreaLimit int

	vocab Vocabulary
}

// DefaultServerIni returns the settings of a freshly installed server.
func DefaultServerIni(vocab Vocabulary) *ServerIni {
	level := vocab.ToDisplay(KindLevel, "default")
	return &ServerIni{
		WorldType:          vocab.ToDisplay(KindWorldType, "campaign"),
		Seed:               "random",
		DifficultyPreset:   vocab.ToDisplay(KindPreset, "normal"),
		CombatDifficulty:   level,
		EnemyAggression:    level,
		SurvivalDifficulty: level,
		MiningDrops:        level,
		WorldDrops:         level,
		HordeFrequency:     level,
		SiegeFrequency:     level,
		PatrolFrequency:    level,

		ListenAddress:               "0.0.0.0",
		ListenPort:                  7777,
		AdvertisePort:               "7777",
		InitialConnectionRetryTime:  5,
		AfterDisconnectionRetryTime: 10,

		ConsoleEnabled:  true,
		ServerFPS:       60,
		LoadedAreaLimit: 12,

		vocab: vocab,
	}
}

// Vocabulary returns the vocabulary enumerated fields are expressed in.
func (c *ServerIni) Vocabulary() Vocabulary {
	return c.vocab
}

// field binds one ServerIni member to its location in the file.
type field struct {
	name    string
	section string
	key     string
	kind    Kind

	// altSection/altKey is a second accepted location, read only when the
	// primary one is absent.
	altSection string
	altKey     string
	// rootToo accepts the key before any section header.
	rootToo bool

	str  func(*ServerIni) *string
	num  func(*ServerIni) *int
	flag func(*ServerIni) *bool

	min, max int
}

func custom(name string, ptr func(*ServerIni) *string) field {
	return field{
		name: name, section: "World.Create", key: "Difficulty.Custom." + name, kind: KindLevel,
		altSection: "Difficulty.Custom", altKey: name, str: ptr,
	}
}

var fields = []field{
	{name: "OptionalPassword", section: "Main", key: "OptionalPassword", rootToo: true,
		str: func(c *ServerIni) *string { return &c.OptionalPassword }},
	{name: "WorldName", section: "World", key: "Name", rootToo: true,
		str: func(c *ServerIni) *string { return &c.WorldName }},
	{name: "OptionalWorldFilename", section: "World", key: "OptionalWorldFilename",
		str: func(c *ServerIni) *string { return &c.OptionalWorldFilename }},
	{name: "WorldType", section: "World.Create", key: "Type", kind: KindWorldType,
		str: func(c *ServerIni) *string { return &c.WorldType }},
	{name: "Seed", section: "World.Create", key: "Seed",
		str: func(c *ServerIni) *string { return &c.Seed }},
	{name: "DifficultyPreset", section: "World.Create", key: "Difficulty.Preset", kind: KindPreset,
		str: func(c *ServerIni) *string { return &c.DifficultyPreset }},
	custom("CombatDifficulty", func(c *ServerIni) *string { return &c.CombatDifficulty }),
	custom("EnemyAggression", func(c *ServerIni) *string { return &c.EnemyAggression }),
	custom("SurvivalDifficulty", func(c *ServerIni) *string { return &c.SurvivalDifficulty }),
	custom("MiningDrops", func(c *ServerIni) *string { return &c.MiningDrops }),
	custom("WorldDrops", func(c *ServerIni) *string { return &c.WorldDrops }),
	custom("HordeFrequency", func(c *ServerIni) *string { return &c.HordeFrequency }),
	custom("SiegeFrequency", func(c *ServerIni) *string { return &c.SiegeFrequency }),
	custom("PatrolFrequency", func(c *ServerIni) *string { return &c.PatrolFrequency }),
	{name: "ListenAddress", section: "Host", key: "ListenAddress",
		str: func(c *ServerIni) *string { return &c.ListenAddress }},
	{name: "ListenPort", section: "Host", key: "ListenPort", rootToo: true, min: -1, max: 65535,
		num: func(c *ServerIni) *int { return &c.ListenPort }},
	{name: "AdvertiseAddress", section: "Host", key: "AdvertiseAddress",
		str: func(c *ServerIni) *string { return &c.AdvertiseAddress }},
	{name: "AdvertisePort", section: "Host", key: "AdvertisePort",
		str: func(c *ServerIni) *string { return &c.AdvertisePort }},
	{name: "InitialConnectionRetryTime", section: "Host", key: "InitialConnectionRetryTime", min: 0, max: 3600,
		num: func(c *ServerIni) *int { return &c.InitialConnectionRetryTime }},
	{name: "AfterDisconnectionRetryTime", section: "Host", key: "AfterDisconnectionRetryTime", min: 0, max: 3600,
		num: func(c *ServerIni) *int { return &c.AfterDisconnectionRetryTime }},
	{name: "ConsoleEnabled", section: "Console", key: "Enabled",
		flag: func(c *ServerIni) *bool { return &c.ConsoleEnabled }},
	{name: "ServerFPS", section: "Performance", key: "ServerFPS", min: 1, max: 240,
		num: func(c *ServerIni) *int { return &c.ServerFPS }},
	{name: "LoadedAreaLimit", section: "Performance", key: "LoadedAreaLimit", min: 4, max: 32,
		num: func(c *ServerIni) *int { return &c.LoadedAreaLimit }},
}

func (f field) get(c *ServerIni) string {
	switch {
	case f.num != nil:
		return strconv.Itoa(*f.num(c))
	case f.flag != nil:
		return strconv.FormatBool(*f.flag(c))
	default:
		return *f.str(c)
	}
}

// parse assigns raw to the field without range checks.
func (f field) parse(c *ServerIni, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case f.num != nil:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", f.name, raw)
		}
		*f.num(c) = n
	case f.flag != nil:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", f.name, raw)
		}
		*f.flag(c) = b
	case f.kind != KindNone:
		*f.str(c) = c.vocab.ToDisplay(f.kind, raw)
	default:
		*f.str(c) = raw
	}
	return nil
}

func (f field) matches(name string) bool {
	return strings.EqualFold(name, f.name) ||
		strings.EqualFold(name, f.key) ||
		strings.EqualFold(name, f.section+"."+f.key)
}

func lookupField(name string) (field, bool) {
	for _, f := range fields {
		if f.matches(name) {
			return f, true
		}
	}
	return field{}, false
}

// Field is one named setting and its current display value.
type Field struct {
	Name    string
	Section string
	Value   string
}

// Fields lists every setting in file order.
func (c *ServerIni) Fields() []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, Field{Name: f.name, Section: f.section, Value: f.get(c)})
	}
	return out
}

// Get returns the display value of the named setting.
func (c *ServerIni) Get(name string) (string, error) {
	f, ok := lookupField(name)
	if !ok {
		return "", fmt.Errorf("unknown setting %q", name)
	}
	return f.get(c), nil
}

// Set assigns a setting by name. Names match the ServerIni field, the INI
// key, or "Section.Key", ignoring case. Enumerated values may be given in
// English or in the display vocabulary.
func (c *ServerIni) Set(name, value string) error {
	f, ok := lookupField(name)
	if !ok {
		return fmt.Errorf("unknown setting %q", name)
	}

	if f.kind != KindNone {
		display, known := c.vocab.Normalize(f.kind, value)
		if !known {
			return fmt.Errorf("invalid %s %q: must be one of %s",
				f.name, value, strings.Join(c.vocab.Choices(f.kind), ", "))
		}
		*f.str(c) = display
		return nil
	}

	if f.str != nil {
		if err := checkText(f.name, value); err != nil {
			return err
		}
	}

	next := *c
	if err := f.parse(&next, value); err != nil {
		return err
	}
	if f.num != nil && f.min < f.max {
		if n := *f.num(&next); n < f.min || n > f.max {
			return fmt.Errorf("invalid %s %d: must be %d-%d", f.name, n, f.min, f.max)
		}
	}
	*c = next
	return nil
}

// unsafeText holds the characters a single-line, optionally quoted INI value
// cannot carry.
const unsafeText = "\r\n\""

func checkText(name, value string) error {
	if strings.ContainsAny(value, unsafeText) {
		return fmt.Errorf("invalid %s %q: line breaks and double quotes are not allowed", name, value)
	}
	return nil
}

// Store loads and saves MoriaServerConfig.ini for a server directory.
type Store struct {
	vocab  Vocabulary
	logger *slog.Logger
}

// NewStore creates a Store presenting enumerations in vocab. A nil logger
// uses slog.Default().
func NewStore(vocab Vocabulary, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{vocab: vocab, logger: logger}
}

// Defaults returns DefaultServerIni in the store's vocabulary.
func (s *Store) Defaults() *ServerIni {
	return DefaultServerIni(s.vocab)
}

// Present reports whether the server directory has an INI file.
func (s *Store) Present(serverDir string) bool {
	_, err := os.Stat(IniPath(serverDir))
	exists := err == nil
	s.logger.Debug("checking server ini", "path", IniPath(serverDir), "exists", exists)
	return exists
}

var loadOptions = ini.LoadOptions{
	Insensitive:             true,
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=",
}

// Load reads the INI file of serverDir. Missing keys and values that fail
// to parse keep their defaults. It returns ErrNotFound when the file does
// not exist.
func (s *Store) Load(serverDir string) (*ServerIni, error) {
	path := IniPath(serverDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Parse(path, data)
}

// Parse decodes INI content. path is used for log messages only.
func (s *Store) Parse(path string, data []byte) (*ServerIni, error) {
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := DefaultServerIni(s.vocab)
	root := file.Section("")
	for _, f := range fields {
		raw, ok := lookup(file, f.section, f.key)
		if !ok && f.altSection != "" {
			raw, ok = lookup(file, f.altSection, f.altKey)
		}
		if !ok && f.rootToo && root.HasKey(f.key) {
			raw, ok = root.Key(f.key).String(), true
		}
		if !ok {
			continue
		}
		if err := f.parse(cfg, raw); err != nil {
			s.logger.Warn("ignoring invalid ini value", "path", path, "setting", f.name, "err", err)
		}
	}
	s.logger.Debug("loaded server ini", "path", path)
	return cfg, nil
}

func lookup(file *ini.File, section, key string) (string, bool) {
	sec, err := file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// Render produces the INI file content for cfg, with enumerations written
// in English.
func (s *Store) Render(cfg *ServerIni) ([]byte, error) {
	for _, f := range fields {
		if f.str == nil {
			continue
		}
		if err := checkText(f.name, *f.str(cfg)); err != nil {
			return nil, err
		}
	}

	text, err := readTemplate(templateName)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}

	vocab := cfg.vocab
	if vocab.Name == "" {
		vocab = s.vocab
	}
	tmpl, err := template.New(templateName).Funcs(template.FuncMap{
		"worldType": func(v string) string { return vocab.ToEnglish(KindWorldType, v) },
		"preset":    func(v string) string { return vocab.ToEnglish(KindPreset, v) },
		"level":     func(v string) string { return vocab.ToEnglish(KindLevel, v) },
	}).Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to the INI file of serverDir, replacing it atomically.
func (s *Store) Save(serverDir string, cfg *ServerIni) error {
	data, err := s.Render(cfg)
	if err != nil {
		return err
	}
	path := IniPath(serverDir)
	if err := platform.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.logger.Info("saved server ini", "path", path)
	return nil
}
