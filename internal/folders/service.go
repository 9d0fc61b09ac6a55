package folders

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/easemail/easemail-backend/internal/cache"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
)

// Service syncs folder mappings and serves cached per-user folder counts.
type Service struct {
	mappings  repository.FolderMappingRepository
	client    provider.Client
	cache     cache.Cache
	countsTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a folder Service.
func NewService(mappings repository.FolderMappingRepository, client provider.Client, c cache.Cache, countsTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		mappings:  mappings,
		client:    client,
		cache:     c,
		countsTTL: countsTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Sync refreshes an account's mappings from the provider's folder list and
// invalidates the owner's cached counts.
func (s *Service) Sync(ctx context.Context, account *models.EmailAccount) ([]models.FolderMapping, error) {
	folders, err := s.client.ListFolders(ctx, account.GrantID)
	if err != nil {
		return nil, err
	}

	mappings := MappingsFromFolders(account.UserID, folders, s.now())
	if err := s.mappings.ReplaceForAccount(ctx, account.ID, mappings); err != nil {
		return nil, err
	}
	s.invalidateCounts(ctx, account.UserID)

	stored, err := s.mappings.ListByAccount(ctx, account.ID)
	if err != nil {
		s.logger.Warn("failed to reload folder mappings", slog.String("account_id", account.ID), slog.String("error", err.Error()))
	} else {
		mappings = stored
	}

	s.logger.Info("folders synced",
		slog.String("account_id", account.ID),
		slog.Int("folders", len(mappings)),
	)
	return mappings, nil
}

// Forget drops an account's mappings and the owner's cached counts. Used on
// disconnect, where SQLite deployments don't cascade the delete.
func (s *Service) Forget(ctx context.Context, userID, accountID string) error {
	if err := s.mappings.DeleteByAccount(ctx, accountID); err != nil {
		return err
	}
	s.invalidateCounts(ctx, userID)
	return nil
}

func (s *Service) invalidateCounts(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cache.FolderCountsKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate folder counts", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

// Counts returns message and unread totals per logical folder across the
// user's accounts. Results are cached for the configured TTL.
func (s *Service) Counts(ctx context.Context, userID string) ([]models.FolderCount, error) {
	key := cache.FolderCountsKey(userID)

	cached, ok, err := cache.GetJSON[[]models.FolderCount](ctx, s.cache, key)
	if err != nil {
		s.logger.Warn("folder counts cache read failed", slog.String("error", err.Error()))
	}
	if ok {
		return cached, nil
	}

	mappings, err := s.mappings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts := AggregateCounts(mappings)

	if err := cache.SetJSON(ctx, s.cache, key, counts, s.countsTTL); err != nil {
		s.logger.Warn("folder counts cache write failed", slog.String("error", err.Error()))
	}
	return counts, nil
}

// MappingsFromFolders converts provider folders into mappings keyed by
// logical name. When two folders share a name the system folder wins.
func MappingsFromFolders(userID string, folders []provider.Folder, syncedAt time.Time) []models.FolderMapping {
	byName := make(map[string]int)
	mappings := make([]models.FolderMapping, 0, len(folders))

	for _, f := range folders {
		name, system := LogicalName(f)
		if name == "" {
			continue
		}
		m := models.FolderMapping{
			UserID:           userID,
			FolderName:       name,
			DisplayName:      f.Name,
			ProviderFolderID: f.ID,
			IsSystem:         system,
			MessageCount:     f.TotalCount,
			UnreadCount:      f.UnreadCount,
			LastSyncedAt:     syncedAt,
		}
		if i, exists := byName[name]; exists {
			if mappings[i].IsSystem || !system {
				continue
			}
			mappings[i] = m
			continue
		}
		byName[name] = len(mappings)
		mappings = append(mappings, m)
	}
	return mappings
}

// AggregateCounts sums mappings per logical folder. System folders come first.
func AggregateCounts(mappings []models.FolderMapping) []models.FolderCount {
	index := make(map[string]int)
	system := make(map[string]bool)
	counts := []models.FolderCount{}

	for _, m := range mappings {
		i, ok := index[m.FolderName]
		if !ok {
			i = len(counts)
			index[m.FolderName] = i
			counts = append(counts, models.FolderCount{FolderName: m.FolderName, DisplayName: m.DisplayName})
		}
		counts[i].MessageCount += m.MessageCount
		counts[i].UnreadCount += m.UnreadCount
		counts[i].Accounts++
		system[m.FolderName] = system[m.FolderName] || m.IsSystem
	}

	sort.SliceStable(counts, func(a, b int) bool {
		sa, sb := system[counts[a].FolderName], system[counts[b].FolderName]
		if sa != sb {
			return sa
		}
		return counts[a].FolderName < counts[b].FolderName
	})
	return counts
}
