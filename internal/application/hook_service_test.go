package application

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/imbios/cohe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookInjectsActiveAccountAndSchedulesRotation(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.cfg.Rotation.Enabled = true
	seedAccount(store, domain.Account{ID: "a1", Provider: domain.ProviderZAI, APIKey: "k1", Enabled: true})

	settings := &recordingSettings{}
	scheduler := &recordingScheduler{}
	svc := NewHookService(store, settings, scheduler)

	var out bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), false, &out))

	require.Len(t, settings.injected, 1)
	assert.Equal(t, domain.AccountID("a1"), settings.injected[0].ID)
	assert.Equal(t, 1, scheduler.count())
}

func TestHookSkipsSchedulingWhenRotationDisabled(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedAccount(store, domain.Account{ID: "a1", Provider: domain.ProviderZAI, Enabled: true})

	scheduler := &recordingScheduler{}
	svc := NewHookService(store, &recordingSettings{}, scheduler)

	var out bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), false, &out))
	assert.Equal(t, 0, scheduler.count())
}

func TestHookNoActiveAccountReportsOnlyWhenVerbose(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	settings := &recordingSettings{}
	svc := NewHookService(store, settings, &recordingScheduler{})

	var verbose bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), false, &verbose))
	assert.Contains(t, verbose.String(), "No active account")

	var silent bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), true, &silent))
	assert.Empty(t, silent.String())
	assert.Empty(t, settings.injected)
}

func TestHookMissingSettingsFileIsSilentSkip(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.cfg.Rotation.Enabled = true
	seedAccount(store, domain.Account{ID: "a1", Provider: domain.ProviderZAI, Enabled: true})

	settings := &recordingSettings{err: domain.ErrSettingsNotFound}
	scheduler := &recordingScheduler{}
	svc := NewHookService(store, settings, scheduler)

	var out bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), false, &out))
	assert.Empty(t, out.String())
	assert.Equal(t, 1, scheduler.count(), "rotation still scheduled without a settings file")
}

// unreadableStore fails every operation, standing in for a store whose
// backing file cannot even be locked.
type unreadableStore struct {
	err error
}

func (s *unreadableStore) Load(context.Context) (domain.Config, error) {
	return domain.Config{}, s.err
}

func (s *unreadableStore) Save(context.Context, domain.Config) error { return s.err }

func (s *unreadableStore) Mutate(context.Context, func(cfg *domain.Config) (bool, error)) error {
	return s.err
}

func TestHookUnreadableStoreNeverFailsTheSessionInSilentMode(t *testing.T) {
	t.Parallel()

	store := &unreadableStore{err: errors.New("acquire lock: resource temporarily unavailable")}
	settings := &recordingSettings{}
	scheduler := &recordingScheduler{}
	svc := NewHookService(store, settings, scheduler)

	var silent bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), true, &silent))
	assert.Empty(t, silent.String())
	assert.Empty(t, settings.injected)
	assert.Equal(t, 0, scheduler.count())

	var verbose bytes.Buffer
	assert.Error(t, svc.Run(context.Background(), false, &verbose))
}

func TestHookBrokenSettingsNeverFailsTheSession(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedAccount(store, domain.Account{ID: "a1", Provider: domain.ProviderZAI, Enabled: true})

	settings := &recordingSettings{err: errors.New("settings file is not valid JSON")}
	svc := NewHookService(store, settings, &recordingScheduler{})

	var verbose bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), false, &verbose))
	assert.Contains(t, verbose.String(), "Failed to update settings")

	var silent bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), true, &silent))
	assert.Empty(t, silent.String())
}
