package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

func TestCustomerResolver(t *testing.T) {
	tests := map[string]struct {
		setup       func(p *fakeProfiles)
		wantID      string
		wantErr     bool
		wantCreated int
		wantStored  string
	}{
		"existing customer is reused": {
			setup:       func(p *fakeProfiles) { p.customers["u1"] = "cus_old" },
			wantID:      "cus_old",
			wantCreated: 0,
			wantStored:  "cus_old",
		},
		"first checkout creates and records": {
			setup:       func(p *fakeProfiles) {},
			wantID:      "cus_new",
			wantCreated: 1,
			wantStored:  "cus_new",
		},
		"missing profile uses fresh customer": {
			setup:       func(p *fakeProfiles) { p.missing["u1"] = true },
			wantID:      "cus_new",
			wantCreated: 1,
		},
		"claim failure still returns fresh customer": {
			setup:       func(p *fakeProfiles) { p.claimErr = errors.New("write timeout") },
			wantID:      "cus_new",
			wantCreated: 1,
		},
		"profile read failure aborts": {
			setup:       func(p *fakeProfiles) { p.getErr = errors.New("connection refused") },
			wantErr:     true,
			wantCreated: 0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			profiles := newFakeProfiles()
			tc.setup(profiles)
			gw := &fakeGateway{}
			r := NewCustomerResolver(profiles, gw, zap.NewNop())

			id, err := r.Resolve(context.Background(), "u1", "u1@example.com", nil)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantID, id)
			}
			assert.Len(t, gw.customerReqs, tc.wantCreated)
			assert.Equal(t, tc.wantStored, profiles.customers["u1"])
		})
	}
}

func TestCustomerResolver_GatewayError(t *testing.T) {
	gw := &fakeGateway{
		createCustomerFunc: func(context.Context, payment.CustomerRequest) (string, error) {
			return "", errors.New("stripe unavailable")
		},
	}
	profiles := newFakeProfiles()
	r := NewCustomerResolver(profiles, gw, zap.NewNop())

	_, err := r.Resolve(context.Background(), "u1", "u1@example.com", nil)
	require.Error(t, err)
	assert.Empty(t, profiles.customers["u1"])
}

func TestCustomerResolver_ConcurrentCheckoutsConverge(t *testing.T) {
	var n atomic.Int32
	var arrived sync.WaitGroup
	arrived.Add(2)

	gw := &fakeGateway{
		createCustomerFunc: func(context.Context, payment.CustomerRequest) (string, error) {
			// hold both callers until each has seen an empty profile
			arrived.Done()
			arrived.Wait()
			return fmt.Sprintf("cus_%d", n.Add(1)), nil
		},
	}
	profiles := newFakeProfiles()
	r := NewCustomerResolver(profiles, gw, zap.NewNop())

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.Resolve(context.Background(), "u1", "u1@example.com", nil)
			assert.NoError(t, err)
			results[i] = id
		}(i)
	}
	wg.Wait()

	assert.Len(t, gw.customerReqs, 2)
	assert.NotEmpty(t, results[0])
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], profiles.customers["u1"])
}
