package completeness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pim/backend/internal/contracts"
)

func TestService_ComputeAndSave(t *testing.T) {
	calc, _, _ := newTestCalculator(t, jean(t), michel(t))
	saver := &fakeSaver{}
	svc := NewService(calc, saver, nil)

	result, err := svc.ComputeAndSave(context.Background(), []string{"jean", "michel"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Products)
	assert.Equal(t, 4, result.Completenesses)

	require.Len(t, saver.saved, 1, "one SaveAll per batch")
	batch := saver.saved[0]
	require.Len(t, batch, 2)
	assert.Equal(t, int64(1), batch[0].ProductID)
	assert.Equal(t, int64(2), batch[1].ProductID)
	assert.Equal(t, contracts.ProductCompleteness{
		ChannelCode: "ecommerce", LocaleCode: "en_US", MissingCount: 2, RequiredCount: 2,
	}, batch[1].Completenesses[0])
}

func TestService_EmptyCollectionIsStillSaved(t *testing.T) {
	orphan := productMask(t, 7, "orphan", "")
	calc, _, _ := newTestCalculator(t, orphan)
	saver := &fakeSaver{}

	_, err := NewService(calc, saver, nil).ComputeAndSave(context.Background(), []string{"orphan"})
	require.NoError(t, err)

	require.Len(t, saver.saved, 1)
	assert.Equal(t, int64(7), saver.saved[0][0].ProductID)
	assert.Empty(t, saver.saved[0][0].Completenesses)
}

func TestService_CalculationFailureSavesNothing(t *testing.T) {
	calc, _, _ := newTestCalculator(t)
	saver := &fakeSaver{}

	_, err := NewService(calc, saver, nil).ComputeAndSave(context.Background(), []string{"ghost"})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.Empty(t, saver.saved)
}

func TestService_SaveFailure(t *testing.T) {
	calc, _, _ := newTestCalculator(t, michel(t))
	saver := &fakeSaver{err: contracts.Unavailable("save", errors.New("tx aborted"))}

	_, err := NewService(calc, saver, nil).ComputeAndSave(context.Background(), []string{"michel"})
	assert.ErrorIs(t, err, contracts.ErrUpstreamUnavailable)
}
