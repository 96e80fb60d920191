package migration

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint-server/internal/backup"
	"github.com/tillpoint/tillpoint-server/internal/domain"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

const (
	legacyProducts = `[{"id":1,"name":"Tina","stock":10,"price":30,"sku":"T-01"},{"id":2,"name":"Mystery Box","stock":1,"price":5}]`
	legacyOrders   = `[{"id":1,"clientId":"c1","clientName":"Ana","items":[{"productName":"Tina","size":"1g","quantity":1,"price":30}],"total":30,"status":"Completed","date":"2025-05-01","amountPaid":30}]`
	legacyCart     = `[{"productName":"Matcha","product":"Matcha","size":"10g","quantity":1,"price":12}]`
	clients        = `[{"id":"c1","name":"Ana"}]`
)

// faultyKV fails the operations fail returns an error for.
type faultyKV struct {
	*store.Memory
	fail func(op, key string) error
}

func (f *faultyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := f.fail("get", key); err != nil {
		return "", false, err
	}
	return f.Memory.Get(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key, value string) error {
	if err := f.fail("set", key); err != nil {
		return err
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *faultyKV) Remove(ctx context.Context, key string) error {
	if err := f.fail("remove", key); err != nil {
		return err
	}
	return f.Memory.Remove(ctx, key)
}

func seededMemory() *store.Memory {
	return store.NewMemory(map[string]string{
		store.KeyProducts: legacyProducts,
		store.KeyOrders:   legacyOrders,
		store.KeyCart:     legacyCart,
		store.KeyClients:  clients,
	})
}

func newProductNameService(kv store.KV, opts Options) *ProductNameMigrationService {
	return NewProductNameMigrationService(kv, backup.DefaultOptions(), opts, nil, nil)
}

func decode[T any](t *testing.T, kv *store.Memory, key string) []T {
	t.Helper()
	var out []T
	require.NoError(t, json.Unmarshal([]byte(kv.Snapshot()[key]), &out))
	return out
}

func TestPerformProductNameMigration_RenamesEverything(t *testing.T) {
	kv := seededMemory()
	svc := newProductNameService(kv, DefaultOptions())
	ctx := context.Background()

	res := svc.PerformProductNameMigration(ctx)

	require.True(t, res.Success, res.Errors)
	assert.False(t, res.Skipped)
	assert.Equal(t, "1.0.0", res.FromVersion)
	assert.Equal(t, "2.0.0", res.ToVersion)
	assert.True(t, strings.HasPrefix(res.RunID, "run-"))
	assert.True(t, strings.HasPrefix(res.BackupID, "bak-"))
	assert.NotEmpty(t, res.Log)

	products := decode[domain.Product](t, kv, store.KeyProducts)
	require.Len(t, products, 2)
	assert.Equal(t, "Ti", products[0].Name)
	assert.JSONEq(t, `"T-01"`, string(products[0].Extras["sku"]))
	assert.Equal(t, "Mystery Box", products[1].Name)

	orders := decode[domain.Order](t, kv, store.KeyOrders)
	assert.Equal(t, "Ti", orders[0].Items[0].ProductName)
	assert.Equal(t, domain.OrderStatusCompleted, orders[0].Status)
	assert.True(t, orders[0].StatusConsistent())

	cart := decode[domain.CartItem](t, kv, store.KeyCart)
	assert.Equal(t, "Ma", cart[0].ProductName)
	assert.Equal(t, "Ma", cart[0].Product)

	assert.Equal(t, clients, kv.Snapshot()[store.KeyClients])

	v, err := svc.GetCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v)

	report := svc.ValidateProductNameMigration(ctx)
	assert.True(t, report.IsValid)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.Errors)
}

func TestPerformProductNameMigration_SkipsWhenCurrent(t *testing.T) {
	kv := seededMemory()
	require.NoError(t, kv.Set(context.Background(), store.KeyProductNameVersion, "2.0.0"))
	before := kv.Snapshot()

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.BackupID)
	assert.Equal(t, before, kv.Snapshot())
}

func TestPerformProductNameMigration_SkipsNewerVersion(t *testing.T) {
	kv := seededMemory()
	require.NoError(t, kv.Set(context.Background(), store.KeyProductNameVersion, "2.1"))

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())
	assert.True(t, res.Skipped)
}

func TestPerformProductNameMigration_IsIdempotent(t *testing.T) {
	kv := seededMemory()
	svc := newProductNameService(kv, DefaultOptions())
	ctx := context.Background()

	require.True(t, svc.PerformProductNameMigration(ctx).Success)
	migrated := kv.Snapshot()

	// Forget the version so the steps really run again.
	require.NoError(t, kv.Remove(ctx, store.KeyProductNameVersion))
	res := svc.PerformProductNameMigration(ctx)
	require.True(t, res.Success)

	for _, c := range res.Collections {
		assert.Zero(t, c.Changed, c.Key)
	}
	after := kv.Snapshot()
	for _, key := range store.Collections() {
		assert.Equal(t, migrated[key], after[key], key)
	}
}

func TestPerformProductNameMigration_PartialFailure(t *testing.T) {
	kv := seededMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, store.KeyProducts, "{not json"))
	svc := newProductNameService(kv, DefaultOptions())

	res := svc.PerformProductNameMigration(ctx)

	assert.False(t, res.Success)
	assert.False(t, res.Critical)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "products")

	// The other collections were still migrated.
	assert.Equal(t, "Ti", decode[domain.Order](t, kv, store.KeyOrders)[0].Items[0].ProductName)
	assert.Equal(t, "Ma", decode[domain.CartItem](t, kv, store.KeyCart)[0].ProductName)

	// The version did not advance, so a retry runs again.
	needs, err := svc.NeedsMigration(ctx)
	require.NoError(t, err)
	assert.True(t, needs)

	report := svc.ValidateProductNameMigration(ctx)
	assert.False(t, report.IsValid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "products")

	require.NoError(t, kv.Set(ctx, store.KeyProducts, legacyProducts))
	retry := svc.PerformProductNameMigration(ctx)
	require.True(t, retry.Success, retry.Errors)
	assert.Equal(t, "Ti", decode[domain.Product](t, kv, store.KeyProducts)[0].Name)
}

func TestPerformProductNameMigration_WriteFailureIsContained(t *testing.T) {
	mem := seededMemory()
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		if op == "set" && key == store.KeyCart {
			return errors.New("quota exceeded")
		}
		return nil
	}}

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "quota exceeded")
	assert.Equal(t, "Ti", decode[domain.Product](t, mem, store.KeyProducts)[0].Name)
	assert.Equal(t, legacyCart, mem.Snapshot()[store.KeyCart])
}

func TestPerformProductNameMigration_BackupFailureAborts(t *testing.T) {
	mem := seededMemory()
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		if op == "set" && key == store.KeyProductNameBackup {
			return errors.New("disk full")
		}
		return nil
	}}
	before := mem.Snapshot()

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	assert.False(t, res.Success)
	assert.Empty(t, res.BackupID)
	assert.Empty(t, res.Collections)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "create backup")
	assert.Equal(t, before, mem.Snapshot())
}

func TestPerformProductNameMigration_CriticalFailureRestores(t *testing.T) {
	mem := seededMemory()
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		if op == "set" && key == store.KeyProductNameVersion {
			return errors.New("write rejected")
		}
		return nil
	}}

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	assert.False(t, res.Success)
	assert.True(t, res.Critical)
	assert.True(t, res.Restored)
	assert.Equal(t, legacyProducts, mem.Snapshot()[store.KeyProducts])
	assert.Equal(t, legacyCart, mem.Snapshot()[store.KeyCart])
}

func TestPerformProductNameMigration_CriticalWithoutAutoRestore(t *testing.T) {
	mem := seededMemory()
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		if op == "set" && key == store.KeyProductNameVersion {
			return errors.New("write rejected")
		}
		return nil
	}}

	res := newProductNameService(kv, Options{AutoRestore: false}).PerformProductNameMigration(context.Background())

	assert.True(t, res.Critical)
	assert.False(t, res.Restored)
	assert.Equal(t, "Ti", decode[domain.Product](t, mem, store.KeyProducts)[0].Name)
}

func TestPerformProductNameMigration_RestoreFailureIsReported(t *testing.T) {
	mem := seededMemory()
	productWrites := 0
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		switch {
		case op == "set" && key == store.KeyProductNameVersion:
			return errors.New("write rejected")
		case op == "set" && key == store.KeyProducts:
			productWrites++
			if productWrites > 1 {
				return errors.New("still rejected")
			}
		}
		return nil
	}}

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	assert.True(t, res.Critical)
	assert.False(t, res.Restored)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[1], "restore")
}

func TestPerformProductNameMigration_CancelAfterBackupStillCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := seededMemory()
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		if op == "set" && key == store.KeyProducts {
			cancel()
		}
		return nil
	}}

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(ctx)

	require.True(t, res.Success, res.Errors)
	assert.Equal(t, ProductNameTargetVersion, mem.Snapshot()[store.KeyProductNameVersion])
	assert.Equal(t, "Ma", decode[domain.CartItem](t, mem, store.KeyCart)[0].ProductName)
}

func TestPerformProductNameMigration_CancelDuringCommitStillRestores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := seededMemory()
	kv := &faultyKV{Memory: mem, fail: func(op, key string) error {
		if op == "set" && key == store.KeyProductNameVersion {
			cancel()
			return context.Canceled
		}
		return nil
	}}

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(ctx)

	assert.True(t, res.Critical)
	assert.True(t, res.Restored, res.Errors)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, legacyProducts, mem.Snapshot()[store.KeyProducts])
	_, versioned := mem.Snapshot()[store.KeyProductNameVersion]
	assert.False(t, versioned)
}

func TestPerformProductNameMigration_LeavesOtherMembersAlone(t *testing.T) {
	orders := `[{"id":"o1","notes":"","shipping":null,"items":[{"productName":"Tina","unit":"","size":""}]},` +
		`{"id":"o2","notes":"","shipping":null,"items":[{"productName":"Zzz","unit":""}]}]`
	kv := store.NewMemory(map[string]string{
		store.KeyProducts: `[{"id":"1","name":"Tina","type":"g","stock":100,"price":30},{"id":"2","name":"Unknown Thing","note":null}]`,
		store.KeyOrders:   orders,
	})

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())
	require.True(t, res.Success, res.Errors)

	snap := kv.Snapshot()
	assert.JSONEq(t, `[{"id":"1","name":"Ti","type":"g","stock":100,"price":30},{"id":"2","name":"Unknown Thing","note":null}]`, snap[store.KeyProducts])
	assert.JSONEq(t, `[{"id":"o1","notes":"","shipping":null,"items":[{"productName":"Ti","unit":"","size":""}]},`+
		`{"id":"o2","notes":"","shipping":null,"items":[{"productName":"Zzz","unit":""}]}]`, snap[store.KeyOrders])
	assert.Contains(t, snap[store.KeyOrders], `{"id":"o2","notes":"","shipping":null,"items":[{"productName":"Zzz","unit":""}]}`)
}

func TestPerformProductNameMigration_MistypedMembersDoNotBlockRenames(t *testing.T) {
	kv := store.NewMemory(map[string]string{
		store.KeyProducts: `[{"id":"1","name":"Tina","stock":"100","price":30}]`,
	})

	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())
	require.True(t, res.Success, res.Errors)
	assert.JSONEq(t, `[{"id":"1","name":"Ti","stock":"100","price":30}]`, kv.Snapshot()[store.KeyProducts])
}

func TestRunner_PanickingStepIsCritical(t *testing.T) {
	kv := seededMemory()
	plan := Plan{
		Name:          "panics",
		TargetVersion: "2.0.0",
		Slot:          backup.ProductNameSlot,
		Steps: []Step{
			recordStep(store.KeyProducts, renameProduct),
			{Key: store.KeyOrders, Migrate: func(string) (string, int, int, error) { panic("boom") }},
		},
	}
	backups := backup.NewService(kv, plan.Slot, backup.DefaultOptions(), nil)
	runner := NewRunner(kv, backups, plan, DefaultOptions(), nil, nil)

	res := runner.Run(context.Background())

	assert.True(t, res.Critical)
	assert.True(t, res.Restored)
	assert.Contains(t, res.Errors[0], "boom")
	assert.Equal(t, legacyProducts, kv.Snapshot()[store.KeyProducts])
}

func TestRunner_MissingCollectionsAreSkipped(t *testing.T) {
	kv := store.NewMemory(map[string]string{store.KeyProducts: `[{"name":"Oolong"}]`})
	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	require.True(t, res.Success, res.Errors)
	require.Len(t, res.Collections, 3)
	assert.True(t, res.Collections[0].Present)
	assert.Equal(t, 1, res.Collections[0].Changed)
	assert.False(t, res.Collections[1].Present)
	assert.False(t, res.Collections[2].Present)

	_, hasOrders := kv.Snapshot()[store.KeyOrders]
	assert.False(t, hasOrders)
}

func TestRunner_SharedLockSerializesRuns(t *testing.T) {
	kv := seededMemory()
	var lock sync.Mutex
	ctx := context.Background()

	const runs = 5
	results := make([]*Result, runs)
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc := NewProductNameMigrationService(kv, backup.DefaultOptions(), DefaultOptions(), &lock, nil)
			results[i] = svc.PerformProductNameMigration(ctx)
		}()
	}
	wg.Wait()

	migrated := 0
	for _, r := range results {
		require.True(t, r.Success)
		if !r.Skipped {
			migrated++
		}
	}
	assert.Equal(t, 1, migrated)
}

func TestRestoreFromBackup(t *testing.T) {
	kv := seededMemory()
	svc := newProductNameService(kv, DefaultOptions())
	ctx := context.Background()

	assert.False(t, svc.RestoreFromBackup(ctx))

	require.True(t, svc.PerformProductNameMigration(ctx).Success)
	require.True(t, svc.RestoreFromBackup(ctx))

	snap := kv.Snapshot()
	assert.Equal(t, legacyProducts, snap[store.KeyProducts])
	assert.Equal(t, legacyOrders, snap[store.KeyOrders])
	assert.Equal(t, "1.0.0", snap[store.KeyProductNameVersion])

	needs, err := svc.NeedsMigration(ctx)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestRestoreFromBackup_CorruptBackupWritesNothing(t *testing.T) {
	kv := seededMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, store.KeyProductNameBackup, "{broken"))
	before := kv.Snapshot()

	assert.False(t, newProductNameService(kv, DefaultOptions()).RestoreFromBackup(ctx))
	assert.Equal(t, before, kv.Snapshot())
}

func TestRestoreBackup_ByID(t *testing.T) {
	kv := seededMemory()
	svc := newProductNameService(kv, DefaultOptions())
	ctx := context.Background()

	first := svc.PerformProductNameMigration(ctx)
	require.True(t, first.Success)

	infos, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, first.BackupID, infos[0].ID)

	require.NoError(t, svc.RestoreBackup(ctx, first.BackupID))
	assert.Equal(t, legacyProducts, kv.Snapshot()[store.KeyProducts])

	assert.ErrorIs(t, svc.RestoreBackup(ctx, "bak-nope"), backup.ErrBackupNotFound)
}

func TestValidateProductNameMigration_WarnsOnLegacyNames(t *testing.T) {
	kv := seededMemory()
	report := newProductNameService(kv, DefaultOptions()).ValidateProductNameMigration(context.Background())

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Errors)
	assert.ElementsMatch(t, []string{
		`products[0]: legacy name "Tina"`,
		`orders[0].items[0]: legacy name "Tina"`,
		`cart[0].productName: legacy name "Matcha"`,
		`cart[0].product: legacy name "Matcha"`,
	}, report.Warnings)
}

func TestGetMigrationStatistics(t *testing.T) {
	kv := seededMemory()
	svc := newProductNameService(kv, DefaultOptions())
	ctx := context.Background()

	st, err := svc.GetMigrationStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", st.CurrentVersion)
	assert.Equal(t, "2.0.0", st.TargetVersion)
	assert.True(t, st.NeedsMigration)
	assert.Equal(t, 16, st.NameTable.Total)
	assert.Zero(t, st.Backups)

	require.Len(t, st.Collections, 3)
	assert.Equal(t, CollectionStats{Key: "products", Present: true, Records: 2, LegacyNames: 1}, st.Collections[0])
	assert.Equal(t, 2, st.Collections[2].LegacyNames)

	require.True(t, svc.PerformProductNameMigration(ctx).Success)

	st, err = svc.GetMigrationStatistics(ctx)
	require.NoError(t, err)
	assert.False(t, st.NeedsMigration)
	assert.Equal(t, 1, st.Backups)
	for _, c := range st.Collections {
		assert.Zero(t, c.LegacyNames, c.Key)
	}
}

func TestJournal_RecordsFields(t *testing.T) {
	kv := seededMemory()
	res := newProductNameService(kv, DefaultOptions()).PerformProductNameMigration(context.Background())

	var found bool
	for _, e := range res.Log {
		if e.Message == "collection migrated" && e.Fields["collection"] == store.KeyProducts {
			found = true
			assert.Equal(t, "INFO", e.Level)
			assert.EqualValues(t, 1, e.Fields["changed"])
		}
	}
	assert.True(t, found)
}
