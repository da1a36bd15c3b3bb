package usecase

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anusswar/internal/domain/identity"
	orderdom "anusswar/internal/domain/order"
	reqdom "anusswar/internal/domain/request"
)

func TestDashboard_Load(t *testing.T) {
	orders := &memOrders{open: []orderdom.Order{{OrderNumber: "ANS-1"}}}
	reqs := &memRequests{
		openW: []reqdom.Workshop{{Description: "sarod"}},
		openL: []reqdom.Lesson{{Name: "a"}, {Name: "b"}},
	}
	uc := NewDashboardUsecase(orders, reqs)

	_, err := uc.Load(context.Background(), &identity.Identity{UID: "u1"})
	assert.ErrorIs(t, err, ErrDashboardForbidden)

	d, err := uc.Load(context.Background(), &identity.Identity{UID: "admin", Admin: true})
	require.NoError(t, err)
	assert.Len(t, d.Orders, 1)
	assert.Len(t, d.Workshops, 1)
	assert.Len(t, d.Lessons, 2)
}

func TestDashboard_LoadFailure(t *testing.T) {
	uc := NewDashboardUsecase(&memOrders{}, &memRequests{err: errors.New("deadline exceeded")})

	_, err := uc.Load(context.Background(), &identity.Identity{UID: "admin", Admin: true})
	assert.Error(t, err)
}
