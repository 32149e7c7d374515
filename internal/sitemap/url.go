package sitemap

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultPriority is the priority of a URL built without one.
const DefaultPriority = 0.8

// First-class attribute keys. Any other key is kept as an extension attribute.
const (
	KeyLoc        = "loc"
	KeyLastMod    = "lastmod"
	KeyChangeFreq = "changefreq"
	KeyPriority   = "priority"
	KeyTitle      = "title"
)

// now is swapped in tests.
var now = time.Now

// URL is a single location entry of a sitemap. Its location is its identity and
// cannot change after construction.
type URL struct {
	loc        string
	lastMod    time.Time
	changeFreq ChangeFrequency
	priority   float64
	title      string
	attributes map[string]any
}

// NewURL creates a URL for loc with the default metadata.
func NewURL(loc string) (*URL, error) {
	return NewURLFromMap(map[string]any{KeyLoc: loc})
}

// NewURLFromMap creates a URL from an attribute map. The loc key is required;
// lastmod, changefreq, priority and title are validated; every other key is stored
// as an extension attribute.
func NewURLFromMap(attributes map[string]any) (*URL, error) {
	loc, ok := attributes[KeyLoc].(string)
	if !ok {
		return nil, fmt.Errorf("%w: the [loc] attribute is required and must be a string", ErrValidation)
	}
	if strings.TrimSpace(loc) == "" {
		return nil, fmt.Errorf("%w: the [loc] attribute must not be empty", ErrValidation)
	}

	u := &URL{
		loc:        loc,
		lastMod:    now(),
		changeFreq: Daily,
		priority:   DefaultPriority,
		attributes: make(map[string]any),
	}

	for key, value := range attributes {
		if key == KeyLoc || (value == nil && isFirstClass(key)) {
			continue
		}
		if err := u.set(key, value); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// Loc returns the raw location.
func (u *URL) Loc() string {
	return u.loc
}

// EscapedLoc returns the location, XML-escaped when enabled is true.
func (u *URL) EscapedLoc(enabled bool) string {
	if !enabled {
		return u.loc
	}
	return escapeXML(u.loc)
}

// LastMod returns the last modification time. The zero time means unset.
func (u *URL) LastMod() time.Time {
	return u.lastMod
}

// SetLastMod sets the last modification time.
func (u *URL) SetLastMod(t time.Time) *URL {
	u.lastMod = t
	return u
}

// SetLastModString parses value with layout and sets it as the last modification time.
func (u *URL) SetLastModString(value, layout string) error {
	if layout == "" {
		layout = InputDateLayout
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return fmt.Errorf("%w: invalid [lastmod] value %q: %v", ErrValidation, value, err)
	}
	u.lastMod = t
	return nil
}

// FormatLastMod formats the last modification time, ATOM when layout is empty.
func (u *URL) FormatLastMod(layout string) string {
	if u.lastMod.IsZero() {
		return ""
	}
	if layout == "" {
		layout = ATOM
	}
	return u.lastMod.Format(layout)
}

// ChangeFreq returns the change frequency.
func (u *URL) ChangeFreq() ChangeFrequency {
	return u.changeFreq
}

// SetChangeFreq normalizes and sets the change frequency.
func (u *URL) SetChangeFreq(value string) error {
	f, ok := ParseChangeFrequency(value)
	if !ok {
		return fmt.Errorf("%w: the [changefreq] value %q is not a valid frequency", ErrValidation, value)
	}
	u.changeFreq = f
	return nil
}

// Priority returns the priority, rounded to one decimal.
func (u *URL) Priority() float64 {
	return u.priority
}

// SetPriority rounds p to one decimal and sets it. Values outside [0,1] after
// rounding are rejected.
func (u *URL) SetPriority(p float64) error {
	rounded, err := roundPriority(p)
	if err != nil {
		return err
	}
	u.priority = rounded
	return nil
}

// Title returns the raw title, empty when unset.
func (u *URL) Title() string {
	return u.title
}

// EscapedTitle returns the title, XML-escaped when enabled is true.
func (u *URL) EscapedTitle(enabled bool) string {
	if !enabled {
		return u.title
	}
	return escapeXML(u.title)
}

// SetTitle sets the title.
func (u *URL) SetTitle(title string) *URL {
	u.title = title
	return u
}

// Set sets any attribute. First-class keys go through their validating setters;
// the location cannot be changed.
func (u *URL) Set(key string, value any) error {
	if key == KeyLoc {
		return fmt.Errorf("%w: the [loc] attribute cannot be changed", ErrValidation)
	}
	return u.set(key, value)
}

// Get returns the attribute for key, or def when it is unset.
func (u *URL) Get(key string, def any) any {
	switch key {
	case KeyLoc:
		return u.loc
	case KeyLastMod:
		if u.lastMod.IsZero() {
			return def
		}
		return u.lastMod
	case KeyChangeFreq:
		if u.changeFreq == "" {
			return def
		}
		return u.changeFreq
	case KeyPriority:
		return u.priority
	case KeyTitle:
		if u.title == "" {
			return def
		}
		return u.title
	}

	value, ok := u.attributes[key]
	if !ok || value == nil {
		return def
	}
	return value
}

// Has reports whether the attribute for key is set.
func (u *URL) Has(key string) bool {
	return u.Get(key, nil) != nil
}

// Strings returns a string list extension attribute, such as image locations.
func (u *URL) Strings(key string) []string {
	switch v := u.attributes[key].(type) {
	case []string:
		return v
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// ToMap returns the attributes with lastmod formatted as ATOM.
func (u *URL) ToMap() map[string]any {
	return u.ToMapWithLayout(ATOM)
}

// ToMapWithLayout returns the attributes with lastmod formatted with layout.
func (u *URL) ToMapWithLayout(layout string) map[string]any {
	m := make(map[string]any, len(u.attributes)+5)
	for key, value := range u.attributes {
		m[key] = value
	}

	m[KeyLoc] = u.loc
	m[KeyLastMod] = nil
	if !u.lastMod.IsZero() {
		m[KeyLastMod] = u.FormatLastMod(layout)
	}
	m[KeyChangeFreq] = string(u.changeFreq)
	m[KeyPriority] = u.priority
	m[KeyTitle] = nil
	if u.title != "" {
		m[KeyTitle] = u.title
	}

	return m
}

// MarshalJSON encodes the URL as its attribute map.
func (u *URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.ToMap())
}

func (u *URL) set(key string, value any) error {
	switch key {
	case KeyLastMod:
		t, err := toTime(value)
		if err != nil {
			return err
		}
		u.lastMod = t
		return nil

	case KeyChangeFreq:
		switch v := value.(type) {
		case string:
			return u.SetChangeFreq(v)
		case ChangeFrequency:
			return u.SetChangeFreq(string(v))
		}
		return fmt.Errorf("%w: the [changefreq] value must be a string", ErrValidation)

	case KeyPriority:
		p, err := toFloat(value)
		if err != nil {
			return err
		}
		return u.SetPriority(p)

	case KeyTitle:
		switch v := value.(type) {
		case nil:
			u.title = ""
			return nil
		case string:
			u.title = v
			return nil
		}
		return fmt.Errorf("%w: the [title] value must be a string", ErrValidation)
	}

	u.attributes[key] = value
	return nil
}

func isFirstClass(key string) bool {
	switch key {
	case KeyLoc, KeyLastMod, KeyChangeFreq, KeyPriority, KeyTitle:
		return true
	}
	return false
}

func roundPriority(p float64) (float64, error) {
	if math.IsNaN(p) {
		return 0, fmt.Errorf("%w: the [priority] value must be numeric", ErrValidation)
	}

	rounded := math.Round(p*10) / 10
	if rounded > 1 || rounded < 0 {
		return 0, fmt.Errorf("%w: the [priority] value must be between 0.0 and 1.0, %v was given", ErrValidation, rounded)
	}
	if rounded == 0 {
		rounded = 0 // drops a negative zero
	}

	return rounded, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: the [priority] value must be numeric", ErrValidation)
}

var dateLayouts = []string{InputDateLayout, ATOM, time.RFC3339Nano, "2006-01-02"}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, nil
		}
		return *v, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: invalid [lastmod] value %q", ErrValidation, v)
	}
	return time.Time{}, fmt.Errorf("%w: the [lastmod] value must be a date", ErrValidation)
}

func escapeXML(value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return b.String()
}
