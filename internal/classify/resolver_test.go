package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/solana/stub"
)

func TestCachedResolver_HitsCache(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.AddOwner("acc", "W", testMint)

	r, err := NewCachedResolver(NewRPCResolver(rpc), 100, time.Minute)
	require.NoError(t, err)
	defer r.Close()

	info, err := r.ResolveOwner(context.Background(), "acc")
	require.NoError(t, err)
	assert.Equal(t, "W", info.Owner)
	r.Wait()

	info, err = r.ResolveOwner(context.Background(), "acc")
	require.NoError(t, err)
	assert.Equal(t, "W", info.Owner)
	assert.Equal(t, 1, rpc.CallCount("getAccountInfo"))
}

func TestCachedResolver_DoesNotCacheFailures(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.FailNext("getAccountInfo", errors.New("timeout"))

	r, err := NewCachedResolver(NewRPCResolver(rpc), 0, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ResolveOwner(context.Background(), "acc")
	assert.Error(t, err)
	r.Wait()

	_, err = r.ResolveOwner(context.Background(), "acc")
	assert.ErrorIs(t, err, solana.ErrAccountNotFound)
	assert.Equal(t, 2, rpc.CallCount("getAccountInfo"))
}
