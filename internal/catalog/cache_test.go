package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedRepository_GetByID(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("GetByID", mock.Anything, 3).Return(&Package{ID: 3, Name: "Gói 3 tháng", DurationMonths: 3}, nil).Once()

	cached, err := NewCachedRepository(mockRepo, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err := cached.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, 3, p.DurationMonths)
	}

	mockRepo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCachedRepository_DoesNotCacheMisses(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("GetByID", mock.Anything, 404).Return(nil, ErrPackageNotFound).Twice()

	cached, err := NewCachedRepository(mockRepo, 0)
	require.NoError(t, err)

	_, err = cached.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPackageNotFound)
	_, err = cached.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPackageNotFound)

	mockRepo.AssertExpectations(t)
}

func TestCachedRepository_ReturnsCopies(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("GetByID", mock.Anything, 1).Return(&Package{ID: 1, Name: "original"}, nil).Once()

	cached, err := NewCachedRepository(mockRepo, 4)
	require.NoError(t, err)

	first, _ := cached.GetByID(context.Background(), 1)
	first.Name = "mutated"

	second, _ := cached.GetByID(context.Background(), 1)
	assert.Equal(t, "original", second.Name)
}
