package relay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"clipcast/internal/catalog"
	"clipcast/internal/config"
	"clipcast/internal/faults"
	"clipcast/internal/notifications"
	"clipcast/internal/publisher"
	"clipcast/internal/retry"
	"clipcast/internal/selector"
	"clipcast/internal/state"
	"clipcast/internal/transform"
)

// StateStore is the persistence surface the relay needs. The concrete
// implementation lives in the state package.
type StateStore interface {
	Load(ctx context.Context) (*state.Ledger, state.Cursor)
	Save(ctx context.Context, ledger *state.Ledger, cursor state.Cursor) error
}

// Outcome summarizes what one invocation did.
type Outcome struct {
	Relayed           bool
	ItemID            string
	ItemName          string
	VideoID           string
	StateSyncDegraded bool
}

// Relay runs one relay invocation end to end.
type Relay struct {
	cfg         *config.Config
	catalog     catalog.Catalog
	transcoder  transform.Transcoder
	destination publisher.Destination
	store       StateStore
	notifier    notifications.Service
	logger      *slog.Logger
	fetchRetry  retry.Policy

	now func() time.Time
}

// New assembles a relay from its collaborators.
func New(
	cfg *config.Config,
	cat catalog.Catalog,
	transcoder transform.Transcoder,
	destination publisher.Destination,
	store StateStore,
	notifier notifications.Service,
	logger *slog.Logger,
) *Relay {
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		cfg:         cfg,
		catalog:     cat,
		transcoder:  transcoder,
		destination: destination,
		store:       store,
		notifier:    notifier,
		logger:      logger,
		fetchRetry: retry.Policy{
			MaxRetries: cfg.Retry.MaxRetries,
			Delay:      time.Duration(cfg.Retry.DelaySeconds) * time.Second,
		},
		now: time.Now,
	}
}

// Run executes one invocation under the configured selection policy. State
// is mutated only after the destination confirms the publish; every failure
// before that point leaves the ledger and cursor exactly as loaded.
func (r *Relay) Run(ctx context.Context) (Outcome, error) {
	switch r.cfg.Selector.Policy {
	case config.PolicyRotation:
		return r.runRotation(ctx)
	default:
		return r.runOldestUnseen(ctx)
	}
}

func (r *Relay) runOldestUnseen(ctx context.Context) (Outcome, error) {
	ledger, cursor := r.store.Load(ctx)
	r.logger.Info("state loaded", "ledger_entries", ledger.Len())

	items, err := r.catalog.List(ctx, r.cfg.Source.FolderID, r.cfg.Source.MimePrefix)
	if err != nil {
		// A listing failure means there is no work this run, not a broken
		// process: the run ends cleanly so the scheduler cadence holds.
		if faults.Is(err, faults.SourceList) {
			r.logger.Warn("catalog listing failed; nothing relayed this run", "error", err)
			_ = r.notifier.NotifyNothingToRelay(ctx)
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	item, ok := selector.OldestUnseen(items, ledger)
	if !ok {
		r.logger.Info("no unrelayed items in catalog", "listed", len(items))
		_ = r.notifier.NotifyNothingToRelay(ctx)
		return Outcome{}, nil
	}
	r.logger.Info("selected item", "id", item.ID, "name", item.Name)

	var sourcePath string
	err = r.fetchRetry.Do(ctx, "fetch item", func(ctx context.Context) error {
		var fetchErr error
		sourcePath, fetchErr = r.catalog.Download(ctx, item, r.cfg.Paths.StagingDir)
		return fetchErr
	})
	if err != nil {
		return r.failed(ctx, item.Name, classifyRelay(faults.Fetch, err))
	}
	defer r.removeArtifact(sourcePath)

	publishPath := sourcePath
	if r.cfg.Transform.WindowSeconds > 0 {
		clip, err := r.transcoder.ExtractWindow(ctx, sourcePath, r.cfg.Transform.WindowSeconds)
		if err != nil {
			return r.failed(ctx, item.Name, classifyRelay(faults.Transform, err))
		}
		defer r.removeArtifact(clip.Path)
		publishPath = clip.Path
	}

	videoID, err := r.destination.Publish(ctx, publishPath, r.captionFor(item.Name))
	if err != nil {
		return r.failed(ctx, item.Name, err)
	}

	outcome := Outcome{Relayed: true, ItemID: item.ID, ItemName: item.Name, VideoID: videoID}
	ledger.Record(item.ID, item.Name, r.now())
	if err := r.persist(ctx, ledger, cursor, &outcome); err != nil {
		return outcome, err
	}

	r.logger.Info("relay complete", "id", item.ID, "video_id", videoID)
	_ = r.notifier.NotifyRelayCompleted(ctx, item.Name, videoID)
	return outcome, nil
}

func (r *Relay) runRotation(ctx context.Context) (Outcome, error) {
	ledger, cursor := r.store.Load(ctx)

	clips, err := listClips(r.cfg.Paths.ClipsDir)
	if err != nil {
		return Outcome{}, err
	}
	clipPath, idx, ok := selector.NextClip(clips, cursor)
	if !ok {
		r.logger.Info("no clips available for rotation", "dir", r.cfg.Paths.ClipsDir)
		_ = r.notifier.NotifyNothingToRelay(ctx)
		return Outcome{}, nil
	}
	clipName := filepath.Base(clipPath)
	r.logger.Info("selected clip", "index", idx, "clip", clipName, "total", len(clips))

	videoID, err := r.destination.Publish(ctx, clipPath, r.captionFor(clipName))
	if err != nil {
		return r.failed(ctx, clipName, err)
	}

	outcome := Outcome{Relayed: true, ItemID: clipName, ItemName: clipName, VideoID: videoID}
	advanced := state.Cursor{NextIndex: idx}.Advanced(len(clips))
	if err := r.persist(ctx, ledger, advanced, &outcome); err != nil {
		return outcome, err
	}

	r.logger.Info("relay complete", "clip", clipName, "video_id", videoID, "next_index", advanced.NextIndex)
	_ = r.notifier.NotifyRelayCompleted(ctx, clipName, videoID)
	return outcome, nil
}

// persist saves state after a confirmed publish. Only a mirror sync failure
// is tolerated; a local write failure is a hard error because the next run
// on this host would repeat the item.
func (r *Relay) persist(ctx context.Context, ledger *state.Ledger, cursor state.Cursor, outcome *Outcome) error {
	err := r.store.Save(ctx, ledger, cursor)
	if err == nil {
		return nil
	}
	if faults.Is(err, faults.StateSync) {
		outcome.StateSyncDegraded = true
		r.logger.Warn("state mirror out of date; next run may repeat this item", "error", err)
		_ = r.notifier.NotifyStateSyncDegraded(ctx, err)
		return nil
	}
	return fmt.Errorf("persist state after publish: %w", err)
}

func (r *Relay) failed(ctx context.Context, itemName string, err error) (Outcome, error) {
	r.logger.Error("relay failed", "item", itemName, "error", err)
	_ = r.notifier.NotifyRelayFailed(ctx, itemName, err)
	return Outcome{}, err
}

func (r *Relay) removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("failed to remove working artifact", "path", path, "error", err)
	}
}

// classifyRelay adds a classification when the underlying component did not
// supply one, without re-wrapping already classified failures.
func classifyRelay(kind faults.Kind, err error) error {
	if _, ok := faults.KindOf(err); ok {
		return err
	}
	return faults.Wrap(kind, err)
}

// listClips returns the rotation clip set in stable name order.
func listClips(dir string) ([]string, error) {
	clips, err := filepath.Glob(filepath.Join(dir, "*.mp4"))
	if err != nil {
		return nil, fmt.Errorf("list clips in %s: %w", dir, err)
	}
	sort.Strings(clips)
	return clips, nil
}
