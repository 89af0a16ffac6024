package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/internal/pkg/jobqueue"
)

// AdminQueueController reports the state of the background job queue
type AdminQueueController struct {
	queue *jobqueue.Queue
}

func NewAdminQueueController(queue *jobqueue.Queue) *AdminQueueController {
	return &AdminQueueController{queue: queue}
}

// HandleQueueStats returns pending and processing counts plus the outcome totals
func (aqc *AdminQueueController) HandleQueueStats(c *fiber.Ctx) error {
	if aqc.queue == nil {
		return respond(c, fiber.StatusOK, fiber.Map{"enabled": false})
	}
	ctx := c.UserContext()
	pending, err := aqc.queue.GetQueueSize(ctx)
	if err != nil {
		return aqc.unavailable(c, err)
	}
	processing, err := aqc.queue.GetProcessingSize(ctx)
	if err != nil {
		return aqc.unavailable(c, err)
	}
	stats, err := aqc.queue.GetJobStats(ctx)
	if err != nil {
		return aqc.unavailable(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"enabled":    true,
		"pending":    pending,
		"processing": processing,
		"totals":     stats,
	})
}

func (aqc *AdminQueueController) unavailable(c *fiber.Ctx, err error) error {
	log.Errorf("[AdminQueue] Failed to read queue state: %v", err)
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "Job queue unavailable"})
}
