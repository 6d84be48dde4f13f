// Package environ holds the environment of a worker task as an editable map
// and moves it to and from dotenv files.
package environ

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// Map is a set of environment variables. Keys are case-sensitive. A Map is
// not safe for concurrent writes; give every task its own Clone.
type Map struct {
	data map[string]string
}

// Empty returns a Map without variables.
func Empty() *Map {
	return &Map{data: make(map[string]string)}
}

// FromMap copies data into a new Map.
func FromMap(data map[string]string) *Map {
	m := Empty()
	maps.Copy(m.data, data)
	return m
}

// FromSlice parses "KEY=VALUE" pairs, as returned by os.Environ.
func FromSlice(pairs []string) *Map {
	m := Empty()
	for _, pair := range pairs {
		if k, v, ok := strings.Cut(pair, "="); ok && k != "" {
			m.data[k] = v
		}
	}
	return m
}

// FromOS snapshots the process environment.
func FromOS() *Map {
	return FromSlice(os.Environ())
}

// Load reads a dotenv file.
func Load(path string) (*Map, error) {
	data, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf(`cannot read env file "%s": %w`, path, err)
	}
	return FromMap(data), nil
}

// Clone returns an independent copy.
func (m *Map) Clone() *Map {
	return FromMap(m.data)
}

// Lookup returns the value of key and whether it is set.
func (m *Map) Lookup(key string) (string, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Get returns the value of key, or "" when unset.
func (m *Map) Get(key string) string {
	return m.data[key]
}

// Set overwrites key.
func (m *Map) Set(key, value string) {
	m.data[key] = value
}

// Merge copies the variables of other into m. Existing keys are kept unless
// overwrite is set.
func (m *Map) Merge(other *Map, overwrite bool) {
	for k, v := range other.data {
		if _, found := m.data[k]; found && !overwrite {
			continue
		}
		m.data[k] = v
	}
}

// Keys returns the sorted variable names.
func (m *Map) Keys() []string {
	return slices.Sorted(maps.Keys(m.data))
}

// Len returns the number of variables.
func (m *Map) Len() int {
	return len(m.data)
}

// ToMap returns a copy of the variables.
func (m *Map) ToMap() map[string]string {
	return maps.Clone(m.data)
}

// ToString renders the variables in dotenv format.
func (m *Map) ToString() (string, error) {
	return godotenv.Marshal(m.data)
}

// Write stores the variables in a dotenv file.
func (m *Map) Write(path string) error {
	if err := godotenv.Write(m.data, path); err != nil {
		return fmt.Errorf(`cannot write env file "%s": %w`, path, err)
	}
	return nil
}
