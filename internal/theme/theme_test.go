package theme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	saved []Theme
	err   error
}

func (s *memStore) SaveTheme(t Theme) error {
	s.saved = append(s.saved, t)
	return s.err
}

func TestInitial(t *testing.T) {
	dark := func() bool { return true }
	light := func() bool { return false }

	tests := []struct {
		name   string
		stored string
		detect func() bool
		want   Theme
	}{
		{"stored dark wins", "dark", light, Dark},
		{"stored light wins", "light", dark, Light},
		{"stored is case-insensitive", " DARK ", nil, Dark},
		{"ambient dark", "", dark, Dark},
		{"ambient light", "", light, Light},
		{"no signal", "", nil, Light},
		{"garbage stored value ignored", "sepia", dark, Dark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initial(tt.stored, tt.detect))
		})
	}
}

func TestToggleTwiceReturnsToStart(t *testing.T) {
	store := &memStore{}
	m := NewManager(Initial("", nil), store)
	start := m.Current()

	first, err := m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, start.Toggle(), first)
	assert.Equal(t, first, m.Current())
	assert.Equal(t, first, store.saved[len(store.saved)-1])

	second, err := m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, start, second)
	assert.Equal(t, second, store.saved[len(store.saved)-1])
	assert.Len(t, store.saved, 2)
}

func TestToggleSaveFailure(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	m := NewManager(Dark, store)

	got, err := m.Toggle()
	assert.Error(t, err)
	assert.Equal(t, Light, got)
	assert.Equal(t, Light, m.Current())
}

func TestNewManagerRejectsUnknown(t *testing.T) {
	m := NewManager(Theme("neon"), nil)
	assert.Equal(t, Light, m.Current())

	got, err := m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Dark, got)
}
