package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(Actions.WithLabelValues("claim", "succeeded"))
	Actions.WithLabelValues("claim", "succeeded").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Actions.WithLabelValues("claim", "succeeded")))

	PoolBalance.Set(500)
	assert.Equal(t, float64(500), testutil.ToFloat64(PoolBalance))

	assert.Equal(t, 1, testutil.CollectAndCount(ActionInFlight))
}
