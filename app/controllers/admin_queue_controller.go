package controllers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/jobqueue"
)

const entitlementKeyPrefix = "entitlement:user:"

var queueKeyPatterns = []string{
	jobqueue.JobKeyPrefix + "*",
	jobqueue.JobQueueKey,
	jobqueue.JobProcessingKey,
	jobqueue.JobStatsKey,
	entitlementKeyPrefix + "*",
}

// QueueItem is one inspected Redis key.
type QueueItem struct {
	Key        string `json:"key"`
	Type       string `json:"type"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Length     int64  `json:"length,omitempty"`
}

// AdminQueueController exposes the reminder queue and entitlement cache to admins.
type AdminQueueController struct {
	queueRepo repository.QueueRepository
	manager   *jobqueue.Manager
}

func NewAdminQueueController(queueRepo repository.QueueRepository, manager *jobqueue.Manager) *AdminQueueController {
	return &AdminQueueController{
		queueRepo: queueRepo,
		manager:   manager,
	}
}

// HandleAdminQueues lists the job queue and entitlement cache keys together with job stats.
func (aqc *AdminQueueController) HandleAdminQueues(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	items, err := aqc.getQueueItems(ctx)
	if err != nil {
		log.Errorf("[Admin] Failed to inspect queue keys: %v", err)
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}

	resp := fiber.Map{
		"items":   items,
		"count":   len(items),
		"running": aqc.manager.IsRunning(),
	}

	queue := aqc.manager.GetQueue()
	if stats, err := queue.GetJobStats(ctx); err == nil {
		resp["stats"] = stats
	}
	if size, err := queue.GetQueueSize(ctx); err == nil {
		resp["pending"] = size
	}
	if size, err := queue.GetProcessingSize(ctx); err == nil {
		resp["processing"] = size
	}
	return c.JSON(resp)
}

// HandleAdminQueueDelete drops one managed key, e.g. a stale entitlement.
func (aqc *AdminQueueController) HandleAdminQueueDelete(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))
	if key == "" {
		return apperr.Respond(c, apperr.Validation("Key is required"))
	}
	if classifyQueueKey(key) == "unknown" {
		return apperr.Respond(c, apperr.Validation("Key is not managed by the job queue"))
	}

	ctx, cancel := requestContext()
	defer cancel()
	deleted, err := aqc.queueRepo.DeleteKeys(ctx, []string{key})
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	if deleted == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "Entry not found", nil))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRunBillReminders triggers one reminder sweep outside the schedule.
func (aqc *AdminQueueController) HandleRunBillReminders(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()
	if err := aqc.manager.RunBillReminderSweepOnce(ctx); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleRunEntitlementRefresh triggers one stale-entitlement refresh.
func (aqc *AdminQueueController) HandleRunEntitlementRefresh(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()
	if err := aqc.manager.RunEntitlementRefreshOnce(ctx); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	return c.JSON(fiber.Map{"ok": true})
}

// getQueueItems lists every managed key with its TTL and, for lists, length.
func (aqc *AdminQueueController) getQueueItems(ctx context.Context) ([]QueueItem, error) {
	keys, err := aqc.queueRepo.FindKeysByPatterns(ctx, queueKeyPatterns)
	if err != nil {
		return nil, err
	}
	infos, err := aqc.queueRepo.Describe(ctx, keys)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(infos))
	for _, info := range infos {
		item := QueueItem{Key: info.Key, Type: classifyQueueKey(info.Key), TTLSeconds: -1, Length: info.Length}
		if info.TTL > 0 {
			item.TTLSeconds = int64(info.TTL / time.Second)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type < items[j].Type
		}
		return items[i].Key < items[j].Key
	})
	return items, nil
}

func classifyQueueKey(key string) string {
	switch {
	case key == jobqueue.JobQueueKey:
		return "job_queue"
	case key == jobqueue.JobProcessingKey:
		return "job_processing"
	case key == jobqueue.JobStatsKey:
		return "job_stats"
	case strings.HasPrefix(key, jobqueue.JobKeyPrefix):
		return "job"
	case strings.HasPrefix(key, entitlementKeyPrefix):
		return "entitlement"
	default:
		return "unknown"
	}
}
