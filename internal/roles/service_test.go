package roles

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSameScope(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.True(t, sameScope(nil, nil))
	assert.True(t, sameScope(&a, &a))
	assert.False(t, sameScope(&a, &b))
	assert.False(t, sameScope(&a, nil))
	assert.False(t, sameScope(nil, &b))
}
