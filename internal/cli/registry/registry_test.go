package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/changelens/internal/config"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/urfave/cli/v3"
)

type mockCommandFactory struct {
	name string
}

func (m *mockCommandFactory) CreateCommand(_ *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name: m.name,
	}
}

func newTestRegistry(t *testing.T) (*Registry, *config.Config, *i18n.Translations) {
	t.Helper()
	cfg := &config.Config{}
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return NewRegistry(cfg, translations), cfg, translations
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register new factory successfully", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)

		// act
		err := registry.Register("test-command", &mockCommandFactory{name: "test-command"})

		// assert
		assert.NoError(t, err)
		assert.Len(t, registry.factories, 1)
		assert.Contains(t, registry.factories, "test-command")
	})

	t.Run("should return error when registering duplicate factory", func(t *testing.T) {
		// arrange
		registry, _, _ := newTestRegistry(t)
		factory := &mockCommandFactory{name: "test-command"}

		// act
		_ = registry.Register("test-command", factory)
		err := registry.Register("test-command", factory)

		// assert
		assert.EqualError(t, err, "Command factory 'test-command' is already registered")
		assert.Len(t, registry.factories, 1)
		assert.Equal(t, []string{"test-command"}, registry.names)
	})
}

func TestRegistry_CreateCommands(t *testing.T) {
	t.Run("should create commands in registration order", func(t *testing.T) {
		// Arrange
		registry, _, _ := newTestRegistry(t)
		for _, name := range []string{"watch", "classify", "last", "config"} {
			require.NoError(t, registry.Register(name, &mockCommandFactory{name: name}))
		}

		// Act
		commands := registry.CreateCommands()

		// Assert
		require.Len(t, commands, 4)
		names := make([]string, 0, len(commands))
		for _, c := range commands {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"watch", "classify", "last", "config"}, names)
	})

	t.Run("should return empty slice when no factories registered", func(t *testing.T) {
		// Arrange
		registry, _, _ := newTestRegistry(t)

		// Act
		commands := registry.CreateCommands()

		// Assert
		assert.Empty(t, commands)
	})
}

func TestNewRegistry(t *testing.T) {
	// Act
	registry, cfg, translations := newTestRegistry(t)

	// Assert
	assert.NotNil(t, registry)
	assert.Empty(t, registry.factories)
	assert.Equal(t, cfg, registry.config)
	assert.Equal(t, translations, registry.t)
}
