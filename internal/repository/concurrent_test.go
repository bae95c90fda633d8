package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

// retryTx retries fn with exponential backoff while SQLite reports the
// database busy under concurrent writers.
func retryTx(fn func() error) error {
	const maxRetries = 10
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(time.Millisecond * time.Duration(1<<attempt))
	}
	return err
}

// Readers listing a scope while a writer appends must always see a
// consistent, position-ordered snapshot.
func TestConcurrentAccess_ReadDuringWrite(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	proj, pb, _ := seedProject(t, database, "ReadWrite")
	items := NewSQLiteItemRepo(database)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			it := testutil.NewTestItem(proj.ID, pb.ID, fmt.Sprintf("Item-%d", i), testutil.WithPosition(i+1))
			if err := items.Create(ctx, it); err != nil {
				t.Errorf("writer: create item %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				list, err := items.ListByScope(ctx, pb.ID)
				if err != nil {
					t.Errorf("reader %d: list scope: %v", reader, err)
					return
				}
				for j := 1; j < len(list); j++ {
					if list[j-1].Position > list[j].Position {
						t.Errorf("reader %d: positions out of order", reader)
					}
				}
			}
		}(r)
	}
	wg.Wait()

	list, err := items.ListByScope(ctx, pb.ID)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestConcurrentAccess_ProjectSequence_NoDuplicateSeq(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, database, "Seq Concurrency")
	uow := db.NewSQLiteUnitOfWork(database)

	// An existing item forces the allocator to bootstrap from MAX(seq).
	require.NoError(t, NewSQLiteItemRepo(database).Create(ctx,
		testutil.NewTestItem(proj.ID, pb.ID, "Root", testutil.WithSeq(1))))

	const workers = 40
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := retryTx(func() error {
				return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
					seq, err := NewSQLiteProjectSequenceRepo(tx).NextProjectSeq(ctx, proj.ID)
					if err != nil {
						return err
					}
					scopeID := pb.ID
					if i%2 == 1 {
						scopeID = sprint.ID
					}
					it := testutil.NewTestItem(proj.ID, scopeID, fmt.Sprintf("Item-%d", i), testutil.WithSeq(seq))
					return NewSQLiteItemRepo(tx).Create(ctx, it)
				})
			})
			if err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	all, err := NewSQLiteItemRepo(database).ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, all, workers+1)

	seen := make(map[int]bool, len(all))
	for _, it := range all {
		assert.Falsef(t, seen[it.Seq], "duplicate seq %d on item %s", it.Seq, it.ID)
		seen[it.Seq] = true
	}
	for seq := 1; seq <= workers+1; seq++ {
		assert.Truef(t, seen[seq], "missing seq %d", seq)
	}
}
