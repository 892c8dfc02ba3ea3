package services

import (
	"context"
	"testing"

	"casa-empenos/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func createTestCustomerService(t *testing.T) (*CustomerService, *memStore) {
	t.Helper()

	store := newMemStore()
	store.addCustomer("Ana Pérez", "12345678")
	store.addCustomer("Juan Gómez", "87654321")
	store.addCustomer("Rosa Díaz", "11223344")

	return NewCustomerService(store, zap.NewNop()), store
}

func TestCustomerService_ListCustomers(t *testing.T) {
	svc, _ := createTestCustomerService(t)

	customers, total, err := svc.ListCustomers(context.Background(), domain.AdminActor("admin"), 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, customers, 3)
	assert.Equal(t, "12345678", customers[0].NationalID)
	assert.Equal(t, "11223344", customers[2].NationalID)
}

func TestCustomerService_ListCustomers_Paginates(t *testing.T) {
	svc, _ := createTestCustomerService(t)

	customers, total, err := svc.ListCustomers(context.Background(), domain.AdminActor("admin"), 2, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, customers, 1)
	assert.Equal(t, "Rosa Díaz", customers[0].Name)
}

func TestCustomerService_ListCustomers_AdminOnly(t *testing.T) {
	svc, store := createTestCustomerService(t)
	ctx := context.Background()
	ana, err := store.Customers().GetByNationalID(ctx, "12345678")
	require.NoError(t, err)

	customers, _, err := svc.ListCustomers(ctx, domain.CustomerActor(ana.ID, ana.NationalID), 0, 10)
	assert.Nil(t, customers)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = svc.ListCustomers(ctx, domain.Anonymous(), 0, 10)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCustomerService_ListCustomers_StorageFailure(t *testing.T) {
	store := newMemStore()
	core, logs := observer.New(zap.ErrorLevel)
	svc := NewCustomerService(store, zap.New(core))
	store.fail("customers.list")

	_, _, err := svc.ListCustomers(context.Background(), domain.AdminActor("admin"), 0, 10)

	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Equal(t, 1, logs.FilterMessage("storage failure").Len())
}
