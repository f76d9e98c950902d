package publish_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

func TestRegistry(t *testing.T) {
	src, host := seedPackage(t), afero.NewMemMapFs()
	cfg, mig := groups(src, host)

	reg := publish.NewRegistry()
	require.NoError(t, reg.Register(cfg))
	require.NoError(t, reg.Register(mig))

	t.Run("duplicate tag", func(t *testing.T) {
		err := reg.Register(cfg)
		assert.True(t, errors.IsAlreadyExists(err))
	})

	t.Run("missing tag", func(t *testing.T) {
		err := reg.Register(&publish.Group{})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("tags are sorted", func(t *testing.T) {
		assert.Equal(t, []string{
			"rinvex/subscriptions::config",
			"rinvex/subscriptions::migrations",
		}, reg.Tags())
		g, ok := reg.Get("rinvex/subscriptions::config")
		require.True(t, ok)
		assert.Same(t, cfg, g)
	})

	t.Run("select", func(t *testing.T) {
		all, err := reg.Select()
		require.NoError(t, err)
		assert.Len(t, all, 2)

		byNamespace, err := reg.Select("rinvex/subscriptions")
		require.NoError(t, err)
		assert.Len(t, byNamespace, 2)

		one, err := reg.Select("rinvex/subscriptions::migrations", "rinvex/subscriptions::migrations")
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Same(t, mig, one[0])

		_, err = reg.Select("other/package")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("publish selected groups", func(t *testing.T) {
		results, err := reg.Publish(context.Background(), publish.NewPublisher(publish.WithPlanner(newPlanner())),
			publish.Environment{}, publish.Options{}, "rinvex/subscriptions::config")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "rinvex/subscriptions::config", results[0].Tag)

		exists, _ := afero.Exists(host, "config/rinvex.subscriptions.yaml")
		assert.True(t, exists)
		migrated, _ := afero.DirExists(host, "database/migrations/rinvex/subscriptions")
		assert.False(t, migrated)
	})
}
