package services

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readova/catalog"
	"readova/models"
)

func TestCatalogRefresherRunOnce(t *testing.T) {
	provider := &fakeProvider{volumes: []catalog.Volume{{GoogleID: "g1", Title: "Dune", Categories: "Fiction"}}}
	books, d, _ := newTestBookService(t, provider)

	refresher, err := NewCatalogRefresher(books, "@every 1h", []string{"dune", " ", "emma"}, 10, zap.NewNop())
	require.NoError(t, err)

	refresher.RunOnce()
	assert.Equal(t, []string{"dune", "emma"}, provider.queries)

	var count int64
	require.NoError(t, d.DB.Model(&models.Book{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCatalogRefresherKeepsGoingOnFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	books, _, _ := newTestBookService(t, provider)

	refresher, err := NewCatalogRefresher(books, "0 3 * * *", []string{"a", "b"}, 10, zap.NewNop())
	require.NoError(t, err)

	refresher.RunOnce()
	assert.Equal(t, []string{"a", "b"}, provider.queries)
}

func TestCatalogRefresherInvalidConfig(t *testing.T) {
	books, _, _ := newTestBookService(t, &fakeProvider{})

	_, err := NewCatalogRefresher(books, "not a schedule", []string{"dune"}, 10, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCatalogRefresher(books, "@every 1h", nil, 10, zap.NewNop())
	assert.True(t, errors.Is(err, errors.NotValid))
}
