package importer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/capture"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
)

type fakeCommitRepo struct {
	dms.Repository

	mu         sync.Mutex
	returnCode int
	message    string
	err        error
	docs       []string

	// concurrency accounting
	inFlight    int64
	maxInFlight int64
	delay       time.Duration
}

func (f *fakeCommitRepo) AddNewDataset(ctx context.Context, doc string) (int, string, error) {
	cur := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt64(&f.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt64(&f.maxInFlight, prev, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	f.mu.Unlock()
	return f.returnCode, f.message, f.err
}

func commitCandidate(dataset string) *capture.Candidate {
	p := &capture.Params{}
	p.Set(capture.ParamInstrument, "Exploris03")
	p.Set(capture.ParamDataset, dataset)
	p.Set(capture.ParamOperator, "D3L243")
	return capture.NewCandidate(p, "queue item 12", capture.OriginQueue, nil)
}

func TestCommitClassification(t *testing.T) {
	tests := []struct {
		name       string
		returnCode int
		message    string
		err        error
		want       CommitStatus
	}{
		{"clean insert", 0, "", nil, Committed},
		{"insert with note", 0, "storage path provisioned", nil, Committed},
		{"duplicate", 5, "Dataset ds_one already in database", nil, AlreadyExists},
		{"deadlock message", 1, "transaction aborted by deadlock detected", nil, TransientError},
		{"serialization", 1, "could not serialize access", nil, TransientError},
		{"procedure failure", 1, "invalid experiment name", nil, HardFailure},
		{"transient error value", 0, "", errors.New("commit was rolled back"), TransientError},
		{"serialization sqlstate", 0, "", &pgconn.PgError{Code: "40001", Message: "restart transaction"}, TransientError},
		{"deadlock sqlstate", 0, "", &pgconn.PgError{Code: "40P01", Message: "victim of deadlock"}, TransientError},
		{"constraint sqlstate", 0, "", &pgconn.PgError{Code: "23505", Message: "unique violation"}, HardFailure},
		{"hard error value", 0, "", errors.New("column does not exist"), HardFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCommitRepo{returnCode: tt.returnCode, message: tt.message, err: tt.err}
			imp := InitImporter(repo, 2, time.Second, false)
			res := imp.Commit(context.Background(), commitCandidate("ds_one"))
			require.Equal(t, tt.want, res.Status, res.Message)
		})
	}
}

func TestCommitPreviewSkipsProcedure(t *testing.T) {
	repo := &fakeCommitRepo{}
	imp := InitImporter(repo, 2, time.Second, true)

	res := imp.Commit(context.Background(), commitCandidate("ds_one"))
	require.Equal(t, Committed, res.Status)
	require.Empty(t, repo.docs)
}

func TestCommitDocumentCarriesRewrittenSubdirectory(t *testing.T) {
	repo := &fakeCommitRepo{}
	imp := InitImporter(repo, 2, time.Second, false)

	c := commitCandidate("ds_one")
	c.CaptureSubdirectory = "../ProteomicsData2/run5"
	res := imp.Commit(context.Background(), c)
	require.Equal(t, Committed, res.Status)
	require.Len(t, repo.docs, 1)
	require.Contains(t, repo.docs[0], "../ProteomicsData2/run5")
}

func TestCommitPermitPoolBoundsConcurrency(t *testing.T) {
	const permits = 3
	repo := &fakeCommitRepo{delay: 20 * time.Millisecond}
	imp := InitImporter(repo, permits, time.Second, false)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			imp.Commit(context.Background(), commitCandidate("ds_one"))
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt64(&repo.maxInFlight), int64(permits))
	require.Len(t, repo.docs, 12)
}

func TestCommitCanceledContextIsTransient(t *testing.T) {
	repo := &fakeCommitRepo{}
	imp := InitImporter(repo, 1, time.Second, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := imp.Commit(ctx, commitCandidate("ds_one"))
	require.Equal(t, TransientError, res.Status)
	require.Empty(t, repo.docs)
}

func TestCommitStatusStrings(t *testing.T) {
	require.Equal(t, "committed", Committed.String())
	require.Equal(t, "already_exists", AlreadyExists.String())
	require.Equal(t, "transient_error", TransientError.String())
	require.Equal(t, "hard_failure", HardFailure.String())
}
