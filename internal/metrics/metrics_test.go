// file: internal/metrics/metrics_test.go
// version: 2.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2d

package metrics

import (
	"testing"
	"time"

	"github.com/jdfalk/lending-library/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("borrow", OutcomeRejected))
	ObserveOperation("borrow", OutcomeRejected, 3*time.Millisecond)
	after := testutil.ToFloat64(operations.WithLabelValues("borrow", OutcomeRejected))
	assert.Equal(t, before+1, after)
}

func TestSetCatalog(t *testing.T) {
	SetCatalog(models.CatalogStats{Titles: 3, Copies: 7, CopiesOnLoan: 2, OverdueTitles: 1})

	assert.Equal(t, 3.0, testutil.ToFloat64(booksGauge))
	assert.Equal(t, 7.0, testutil.ToFloat64(copiesGauge))
	assert.Equal(t, 2.0, testutil.ToFloat64(onLoanGauge))
	assert.Equal(t, 1.0, testutil.ToFloat64(overdueGauge))
}
