package coordinator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	inner := errors.New("disk on fire")
	err := &coordinator.Error{Kind: coordinator.KindNotFound, Reason: "not found", Err: inner}

	assert.Equal(t, coordinator.KindNotFound, coordinator.KindOf(err))
	assert.Equal(t, "not found", coordinator.ReasonOf(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "disk on fire")

	assert.Equal(t, coordinator.KindInternal, coordinator.KindOf(inner))
	assert.Equal(t, "internal error", coordinator.ReasonOf(inner))
	assert.Equal(t, "too_many_requests", coordinator.KindTooManyRequests.String())
}
