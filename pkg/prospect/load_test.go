package prospect_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prospectcrm/prospect/pkg/prospect"
	"github.com/prospectcrm/prospect/pkg/prospecttesting"
)

// TestConcurrentVirtualUsers drives several simulated researchers against
// one server at once. Each runs a seeded scenario and verifies its own data
// afterwards, so interleaved sessions leaking into each other's records
// would fail the per-user verification.
func TestConcurrentVirtualUsers(t *testing.T) {
	app, err := prospect.New(&prospect.Config{Store: "memory", ServerPort: "0"})
	require.NoError(t, err)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()
	defer app.Close()

	ctx := context.Background()
	const numUsers = 8

	errs := make([]error, numUsers)
	var wg sync.WaitGroup
	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			vu := prospecttesting.NewVirtualUser(index, srv.URL)
			errs[index] = vu.RunScenario(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "virtual user %d", i)
	}
}
