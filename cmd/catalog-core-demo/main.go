package main

import (
	"context"
	"os"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/projectnessie/nessie-core/internal/branch"
	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/config"
	"github.com/projectnessie/nessie-core/internal/contentskey"
	"github.com/projectnessie/nessie-core/internal/executor"
	"github.com/projectnessie/nessie-core/internal/gc"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/store"
	"github.com/projectnessie/nessie-core/internal/store/badgerstore"
)

func main() {

	var (
		flagLevel    string
		flagData     string
		flagBranch   string
		flagAttempts int
		flagTracing  bool
		flagWorkers  int
		flagCompress bool
		flagExecutor string
	)

	pflag.StringVarP(&flagLevel, "log-level", "l", "info", "log output level")
	pflag.StringVarP(&flagData, "data-dir", "d", "data", "badger database directory")
	pflag.StringVarP(&flagBranch, "branch", "b", "main", "name of the branch to create and commit against")
	pflag.IntVarP(&flagAttempts, "p2-commit-attempts", "a", 5, "collapse retry budget")
	pflag.BoolVarP(&flagTracing, "tracing", "t", false, "enable OpenTelemetry tracing")
	pflag.IntVarP(&flagWorkers, "workers", "w", 4, "worker pool size for the collapse executor")
	pflag.BoolVarP(&flagCompress, "compress", "c", false, "zstd-compress entity bytes at rest")
	pflag.StringVarP(&flagExecutor, "executor", "e", "workerpool", "collapse executor backing: workerpool or errgroup")
	pflag.Parse()

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	level, err := zerolog.ParseLevel(flagLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("could not parse log level")
	}
	log = log.Level(level)

	opts := badger.DefaultOptions(flagData).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal().Err(err).Str("dir", flagData).Msg("could not open badger database")
	}
	defer db.Close()

	st := badgerstore.New(log, db, flagCompress)

	var exec executor.Executor
	switch flagExecutor {
	case "errgroup":
		exec = executor.NewErrGroup(flagWorkers)
	case "workerpool":
		pool := executor.NewWorkerPool(flagWorkers)
		defer pool.Stop()
		exec = pool
	default:
		log.Fatal().Str("executor", flagExecutor).Msg("unknown executor kind, want workerpool or errgroup")
	}

	cfg := config.New(
		config.WithP2CommitAttempts(flagAttempts),
		config.WithWaitOnCollapse(true),
		config.WithTracing(flagTracing),
		config.WithCompressEntities(flagCompress),
	)
	mgr := branch.NewManager(st, exec, cfg, log)
	defer func() {
		if err := mgr.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not shut down tracer")
		}
	}()

	ctx := context.Background()

	b := branch.NewBranch(flagBranch, time.Now().UTC().Unix())
	if err := putBranch(st, b); err != nil {
		log.Fatal().Err(err).Msg("could not create branch")
	}
	log.Info().Str("branch", b.Name).Msg("branch created")

	key, err := contentskey.Of("ns", "orders")
	if err != nil {
		log.Fatal().Err(err).Msg("could not build contents key")
	}

	valueID := id.Build([]byte("iceberg-table-snapshot-1"))
	deltas := []branch.UnsavedDelta{{Position: 0, OldId: id.Empty, NewId: valueID}}
	keys := branch.KeyMutationList{{Kind: branch.KeyMutationAddition, Key: key}}

	loaded, _, err := mgr.Prepare(ctx, b.Id, b.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("could not prepare branch for commit")
	}

	placeholder := branch.NewPlaceholder()
	commitMeta := id.Build([]byte(flagBranch + "-commit-meta-1"))
	entry, err := branch.Unsaved(placeholder, commitMeta, deltas, keys)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build unsaved commit entry")
	}
	loaded.Commits = append(loaded.Commits, entry)
	loaded.Tree = loaded.Tree.WithId(0, valueID)
	if err := putBranch(st, loaded); err != nil {
		log.Fatal().Err(err).Msg("could not stage commit")
	}

	staged, state, err := mgr.Prepare(ctx, b.Id, b.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("could not recompute update state after staging commit")
	}

	if err := mgr.EnsureAvailable(ctx, staged, state); err != nil {
		log.Fatal().Err(err).Msg("ensureAvailable failed")
	}
	log.Info().
		Str("branch", b.Name).
		Str("final-l1", state.FinalL1.Id().String()).
		Msg("commit collapsed")

	raw, err := st.LoadSingle(ctx, store.KindRef, b.Id)
	if err != nil {
		log.Fatal().Err(err).Msg("could not reload branch")
	}
	var rec store.BranchRecord
	if err := codec.Unmarshal(raw, &rec); err != nil {
		log.Fatal().Err(err).Msg("could not decode branch record")
	}
	candidate, err := gc.FromRecord(rec)
	if err != nil {
		log.Fatal().Err(err).Msg("could not compute gc candidate")
	}
	log.Info().
		Str("ref", candidate.RefName).
		Str("last-defined-parent", candidate.LastDefinedParent.String()).
		Msg("gc candidate")
}

func putBranch(st store.Store, b branch.InternalBranch) error {
	data, err := codec.Marshal(b.ToRecord())
	if err != nil {
		return err
	}
	return st.Save(context.Background(), []store.SaveOp{{Kind: store.KindRef, Id: b.Id, Data: data}})
}
